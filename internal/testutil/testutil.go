// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leonardotrapani/livekeyterms/internal/history"
)

// GenerateCall records one FakeGenerator.Generate invocation.
type GenerateCall struct {
	Prompt    string
	MaxTokens int
}

// FakeGenerator returns canned responses in order, repeating the last one.
// If Gate is set, each call blocks until a value is received from it or the
// context ends.
type FakeGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []GenerateCall

	Gate    chan struct{}
	Started chan struct{} // receives once per call when non-nil
}

func NewFakeGenerator(responses ...string) *FakeGenerator {
	return &FakeGenerator{responses: responses}
}

// FailWith makes subsequent calls return err (nil clears it).
func (g *FakeGenerator) FailWith(errs ...error) *FakeGenerator {
	g.mu.Lock()
	g.errs = errs
	g.mu.Unlock()
	return g
}

func (g *FakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	g.mu.Lock()
	idx := len(g.calls)
	g.calls = append(g.calls, GenerateCall{Prompt: prompt, MaxTokens: maxTokens})
	g.mu.Unlock()

	if g.Started != nil {
		select {
		case g.Started <- struct{}{}:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.Gate != nil {
		select {
		case <-g.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.errs) > 0 {
		if err := g.errs[min(idx, len(g.errs)-1)]; err != nil {
			return "", err
		}
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	return g.responses[min(idx, len(g.responses)-1)], nil
}

func (g *FakeGenerator) Calls() []GenerateCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GenerateCall(nil), g.calls...)
}

func (g *FakeGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// FakeSession records every keyterm list pushed to it.
type FakeSession struct {
	mu      sync.Mutex
	updates [][]string
	err     error
}

func NewFakeSession() *FakeSession {
	return &FakeSession{}
}

func (s *FakeSession) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *FakeSession) SetKeyterms(terms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, append([]string(nil), terms...))
	return s.err
}

func (s *FakeSession) Updates() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.updates...)
}

// Last returns the most recent list pushed, or nil.
func (s *FakeSession) Last() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return nil
	}
	return s.updates[len(s.updates)-1]
}

// StaticHistory is a history.Store over a fixed slice.
type StaticHistory []history.Record

func (h StaticHistory) Load(ctx context.Context) ([]history.Record, error) {
	return append([]history.Record(nil), h...), nil
}

// HistoryOf builds a StaticHistory from plain texts.
func HistoryOf(texts ...string) StaticHistory {
	h := make(StaticHistory, len(texts))
	for i, t := range texts {
		h[i] = history.Record{Text: t}
	}
	return h
}

// Words returns a string of n space-separated words.
func Words(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*5)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, "word"...)
	}
	return string(b)
}

// WriteTempFile writes content under t.TempDir and returns its path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
