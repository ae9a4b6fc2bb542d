// Package deps reports which external programs needed for microphone
// capture are installed.
package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
}

// Tool is an external program and the arguments that make it print its version.
type Tool struct {
	Name        string
	VersionArgs []string
}

// CaptureTools are the programs live microphone mode runs.
var CaptureTools = []Tool{
	{Name: "pw-record", VersionArgs: []string{"--version"}},
	{Name: "pw-cli", VersionArgs: []string{"--version"}},
}

const versionTimeout = 2 * time.Second

// Check looks tool up in PATH and, when found, asks it for its version.
func Check(ctx context.Context, tool Tool) Status {
	path, err := exec.LookPath(tool.Name)
	if err != nil {
		return Status{Name: tool.Name}
	}

	status := Status{
		Name:      tool.Name,
		Installed: true,
		Path:      path,
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	// pw-* tools print a banner line before the version
	output, err := exec.CommandContext(ctx, path, tool.VersionArgs...).Output()
	if err == nil {
		status.Version = lastNonEmptyLine(string(output))
	}

	return status
}

// CheckAll checks every tool in order.
func CheckAll(ctx context.Context, tools []Tool) []Status {
	statuses := make([]Status, len(tools))
	for i, t := range tools {
		statuses[i] = Check(ctx, t)
	}
	return statuses
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
