package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of styles bound to one renderer, so output written to a
// pipe or a test buffer can be rendered without colour.
type Styles struct {
	Header    lipgloss.Style
	Label     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Label: r.NewStyle().
			Foreground(ColorText).
			Bold(true),
		Success: r.NewStyle().
			Foreground(ColorSuccess),
		Error: r.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: r.NewStyle().
			Foreground(ColorWarning),
		Muted: r.NewStyle().
			Foreground(ColorMuted),
		Subtle: r.NewStyle().
			Foreground(ColorSubtle).
			Italic(true),
		Highlight: r.NewStyle().
			Foreground(ColorSecondary).
			Bold(true),
	}
}

// Base styles for stdout, used by the configure forms
var (
	defaultStyles = NewStyles(lipgloss.DefaultRenderer())

	StyleHeader = defaultStyles.Header
	StyleLabel  = defaultStyles.Label
	StyleError  = defaultStyles.Error
)

const logoASCII = `
 _ _           _              _
| (_)_   _____| | _____ _   _| |_ ___ _ __ _ __ ___  ___
| | \ \ / / _ \ |/ / _ \ | | | __/ _ \ '__| '_ ` + "`" + ` _ \/ __|
| | |\ V /  __/   <  __/ |_| | ||  __/ |  | | | | | \__ \
|_|_| \_/ \___|_|\_\___|\__, |\__\___|_|  |_| |_| |_|___/
                        |___/`

// Logo returns the livekeyterms ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}

// rule is a full-width separator line made of ch.
func rule(ch string) string {
	return strings.Repeat(ch, 60)
}
