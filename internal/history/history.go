// Package history loads transcripts of previous conversations with the same
// caller. They seed initial keyterm generation and give refreshes context.
package history

import (
	"context"
	"log"
	"strings"
)

// Record is one previous conversation.
type Record struct {
	Text string `json:"text" yaml:"text"`
}

// Store loads previous conversations. Implementations return (nil, nil) when
// there is simply no history.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
}

// LoadOrEmpty loads from s, logging and swallowing any failure. A nil store
// means no history.
func LoadOrEmpty(ctx context.Context, s Store) []Record {
	if s == nil {
		return nil
	}
	records, err := s.Load(ctx)
	if err != nil {
		log.Printf("history: load failed, continuing without history: %v", err)
		return nil
	}
	log.Printf("history: loaded %d previous conversations", len(records))
	return records
}

// Join concatenates the text of records with sep.
func Join(records []Record, sep string) string {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	return strings.Join(texts, sep)
}

// Last returns at most the final n records.
func Last(records []Record, n int) []Record {
	if n <= 0 {
		return nil
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
