// Package keyterms turns conversation history and live transcript text into
// boost lists for a streaming recognizer.
package keyterms

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/leonardotrapani/livekeyterms/internal/history"
)

// ErrNoHistory is returned by GenerateInitial when there is nothing to
// extract from and the fallback list was used without a generation call.
var ErrNoHistory = errors.New("no conversation history")

// Generator produces text for a prompt. llm adapters satisfy it.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Config struct {
	MaxKeyterms      int
	MaxTermLength    int
	HistoryWindow    int
	PreviewSize      int
	InitialMaxTokens int
	RefreshMaxTokens int
	Domain           string
}

func DefaultConfig() Config {
	return Config{
		MaxKeyterms:      100,
		MaxTermLength:    50,
		HistoryWindow:    3,
		PreviewSize:      50,
		InitialMaxTokens: 2000,
		RefreshMaxTokens: 1500,
		Domain:           "housing and healthcare appointment scheduling",
	}
}

// Extractor builds prompts, calls the generator and validates its output.
// Every method returns a usable list; the error only says why it is a
// fallback.
type Extractor struct {
	gen Generator
	cfg Config
}

func NewExtractor(gen Generator, cfg Config) *Extractor {
	return &Extractor{gen: gen, cfg: cfg}
}

func (e *Extractor) Config() Config {
	return e.cfg
}

// GenerateInitial derives the first list from previous conversations. With
// no history, or when generation or parsing fails, it returns Fallback().
func (e *Extractor) GenerateInitial(ctx context.Context, records []history.Record) ([]string, error) {
	if len(records) == 0 {
		return e.fallback(), ErrNoHistory
	}

	log.Printf("keyterms: generating initial keyterms from %d conversations", len(records))
	prompt := BuildInitialPrompt(records, e.cfg)

	raw, err := e.gen.Generate(ctx, prompt, e.cfg.InitialMaxTokens)
	if err != nil {
		return e.fallback(), fmt.Errorf("generate initial keyterms: %w", err)
	}

	terms, err := Parse(raw, e.cfg.MaxKeyterms, e.cfg.MaxTermLength)
	if err != nil {
		return e.fallback(), fmt.Errorf("parse initial keyterms: %w", err)
	}

	log.Printf("keyterms: generated %d initial keyterms", len(terms))
	return terms, nil
}

// Refresh asks for an updated list given the live transcript. On failure it
// returns current unchanged.
func (e *Extractor) Refresh(ctx context.Context, current []string, transcript string, records []history.Record) ([]string, error) {
	log.Printf("keyterms: refreshing %d keyterms against %d transcript bytes", len(current), len(transcript))
	prompt := BuildRefreshPrompt(current, transcript, records, e.cfg)

	raw, err := e.gen.Generate(ctx, prompt, e.cfg.RefreshMaxTokens)
	if err != nil {
		return current, fmt.Errorf("refresh keyterms: %w", err)
	}

	terms, err := Parse(raw, e.cfg.MaxKeyterms, e.cfg.MaxTermLength)
	if err != nil {
		return current, fmt.Errorf("parse refreshed keyterms: %w", err)
	}

	log.Printf("keyterms: refreshed to %d keyterms", len(terms))
	return terms, nil
}

// fallback trims Fallback() to the configured bounds.
func (e *Extractor) fallback() []string {
	out := Fallback()
	valid := out[:0]
	for _, t := range out {
		if Valid(t, e.cfg.MaxTermLength) {
			valid = append(valid, t)
		}
	}
	if len(valid) > e.cfg.MaxKeyterms {
		valid = valid[:e.cfg.MaxKeyterms]
	}
	return valid
}
