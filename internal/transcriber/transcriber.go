// Package transcriber connects to a streaming speech recognizer and delivers
// its session events to a Handler, one at a time, from a single read loop.
package transcriber

import (
	"context"
	"errors"

	"github.com/leonardotrapani/livekeyterms/internal/provider"
)

var ErrNotConnected = errors.New("streaming session not connected")

// BeginEvent is the first message of a session.
type BeginEvent struct {
	ID        string
	ExpiresAt int64
}

// TurnEvent carries partial or final transcript text for one speaker turn.
// A final turn is delivered twice when formatting is enabled: once
// unformatted and once formatted.
type TurnEvent struct {
	Transcript      string
	EndOfTurn       bool
	TurnIsFormatted bool
	TurnOrder       int
}

type TurnKind int

const (
	TurnPartial TurnKind = iota
	TurnFinal
	TurnFormatted
)

func (k TurnKind) String() string {
	switch k {
	case TurnFinal:
		return "final"
	case TurnFormatted:
		return "formatted"
	default:
		return "partial"
	}
}

func (e TurnEvent) Kind() TurnKind {
	switch {
	case !e.EndOfTurn:
		return TurnPartial
	case e.TurnIsFormatted:
		return TurnFormatted
	default:
		return TurnFinal
	}
}

// TerminationEvent is the last message of a session.
type TerminationEvent struct {
	AudioDurationSeconds   float64
	SessionDurationSeconds float64
}

// Session is the live-parameter surface of a connected stream.
type Session interface {
	// SetKeyterms replaces the session's boost list. Safe to call from any
	// goroutine.
	SetKeyterms(terms []string) error
}

// Handler receives session events. Calls are sequential and come from the
// client's read loop, so implementations must not block.
type Handler interface {
	OnBegin(s Session, e BeginEvent)
	OnTurn(e TurnEvent)
	OnTermination(e TerminationEvent)
	OnError(err error)
}

// StreamingClient is one streaming session. It is not reusable after
// Disconnect.
type StreamingClient interface {
	Session

	Connect(ctx context.Context, h Handler) error

	// SendChunk sends raw PCM audio.
	SendChunk(audio []byte) error

	// Disconnect ends the session. With terminate set it first asks the
	// server to finish and waits, bounded by ctx, for the Termination event.
	Disconnect(ctx context.Context, terminate bool) error

	// Done is closed when the read loop exits.
	Done() <-chan struct{}
}

// Config holds connection parameters for a streaming session.
type Config struct {
	Endpoint                         *provider.EndpointConfig
	APIKey                           string
	SampleRate                       int
	Encoding                         string
	SpeechModel                      string
	EndOfTurnConfidenceThreshold     float64
	MinEndOfTurnSilenceWhenConfident int
	MaxTurnSilence                   int
	LanguageDetection                bool
	FormatTurns                      bool
	Keyterms                         []string // sent at connect time; empty means none
}
