// Package conversation tracks the mutable record of one live session: the
// transcript so far, its word count, the active keyterms and the formatted
// turns kept for reporting.
package conversation

import (
	"strings"
	"sync"
)

// State is safe for use by the event goroutine and one background worker.
// Getters return copies.
type State struct {
	mu sync.Mutex

	transcript           strings.Builder
	wordCount            int
	lastRefreshWordCount int
	keyterms             []string
	finalizedTurns       []string
	refreshInFlight      bool
	refreshesTriggered   int
	keytermUpdates       int
}

func New() *State {
	return &State{}
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Transcript           string
	WordCount            int
	LastRefreshWordCount int
	Keyterms             []string
	FinalizedTurns       []string
	RefreshInFlight      bool
	RefreshesTriggered   int
	KeytermUpdates       int
}

// AppendTurn adds finalized turn text to the transcript, joined by a single
// space, and returns the new word count. Blank text is ignored.
func (s *State) AppendTurn(text string) int {
	words := len(strings.Fields(text))

	s.mu.Lock()
	defer s.mu.Unlock()

	if words == 0 {
		return s.wordCount
	}
	if s.transcript.Len() > 0 {
		s.transcript.WriteByte(' ')
	}
	s.transcript.WriteString(text)
	// Counting per turn equals counting the joined transcript: the joining
	// space is always a separator.
	s.wordCount += words
	return s.wordCount
}

// TriggerRefresh reports whether at least threshold words have arrived since
// the last trigger. When it does, the mark moves to the largest multiple of
// threshold not above the current count, so each boundary fires once.
func (s *State) TriggerRefresh(threshold int) bool {
	if threshold <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wordCount-s.lastRefreshWordCount < threshold {
		return false
	}
	s.lastRefreshWordCount = s.wordCount - s.wordCount%threshold
	s.refreshesTriggered++
	return true
}

func (s *State) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.String()
}

func (s *State) WordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wordCount
}

func (s *State) Keyterms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keyterms...)
}

// SetKeyterms replaces the active list wholesale without counting it as a
// generated update.
func (s *State) SetKeyterms(terms []string) {
	s.mu.Lock()
	s.keyterms = append([]string(nil), terms...)
	s.mu.Unlock()
}

// ApplyKeyterms replaces the active list with a generated one.
func (s *State) ApplyKeyterms(terms []string) {
	s.mu.Lock()
	s.keyterms = append([]string(nil), terms...)
	s.keytermUpdates++
	s.mu.Unlock()
}

func (s *State) AddFinalizedTurn(text string) {
	s.mu.Lock()
	s.finalizedTurns = append(s.finalizedTurns, text)
	s.mu.Unlock()
}

func (s *State) FinalizedTurns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.finalizedTurns...)
}

func (s *State) SetRefreshInFlight(v bool) {
	s.mu.Lock()
	s.refreshInFlight = v
	s.mu.Unlock()
}

func (s *State) RefreshInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshInFlight
}

func (s *State) RefreshesTriggered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshesTriggered
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Transcript:           s.transcript.String(),
		WordCount:            s.wordCount,
		LastRefreshWordCount: s.lastRefreshWordCount,
		Keyterms:             append([]string(nil), s.keyterms...),
		FinalizedTurns:       append([]string(nil), s.finalizedTurns...),
		RefreshInFlight:      s.refreshInFlight,
		RefreshesTriggered:   s.refreshesTriggered,
		KeytermUpdates:       s.keytermUpdates,
	}
}
