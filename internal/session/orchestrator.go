// Package session wires a streaming recognizer, an audio source and the
// keyterm refresh controller into one transcription run.
package session

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/leonardotrapani/livekeyterms/internal/conversation"
	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/leonardotrapani/livekeyterms/internal/keyterms"
	"github.com/leonardotrapani/livekeyterms/internal/observe"
	"github.com/leonardotrapani/livekeyterms/internal/refresh"
	"github.com/leonardotrapani/livekeyterms/internal/transcriber"
)

// Reporter renders session progress for the user.
type Reporter interface {
	Banner(title string)
	StreamingFile(path string)
	LiveStarted(threshold int)
	SessionStarted(id string, boosted bool)
	KeytermsInitialized(count int)
	Turn(e transcriber.TurnEvent)
	RefreshTriggered(wordCount int)
	KeytermsUpdated(terms []string)
	SessionTerminated(e transcriber.TerminationEvent, boosted bool)
	StreamError(err error)
	Comparison(c Comparison)
}

// Result summarises one finished run.
type Result struct {
	RunID              string
	SessionID          string
	Boosted            bool
	FinalizedTurns     []string
	WordCount          int
	RefreshesTriggered int
	KeytermUpdates     int
	Keyterms           []string
	AudioDuration      float64
}

// Orchestrator handles the events of one streaming session. A boosted
// orchestrator owns a refresh controller; a baseline one only reports.
type Orchestrator struct {
	runID    string
	boosted  bool
	ctx      context.Context
	state    *conversation.State
	ctrl     *refresh.Controller
	reporter Reporter
	metrics  *observe.Metrics

	mu            sync.Mutex
	sessionID     string
	begun         bool
	closed        bool
	audioDuration float64
}

var _ transcriber.Handler = (*Orchestrator)(nil)

type Option func(*Orchestrator)

func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func newOrchestrator(ctx context.Context, boosted bool, rep Reporter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runID:    uuid.NewString(),
		boosted:  boosted,
		ctx:      ctx,
		state:    conversation.New(),
		reporter: rep,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// NewBoosted creates an orchestrator that keeps the session's keyterms in
// step with the conversation. ctx bounds background generation.
func NewBoosted(ctx context.Context, ext refresh.Extractor, store history.Store, cfg refresh.Config, rep Reporter, opts ...Option) *Orchestrator {
	o := newOrchestrator(ctx, true, rep, opts...)
	o.ctrl = refresh.New(o.state, ext, store, cfg, refresh.WithMetrics(o.metrics))
	return o
}

// NewBaseline creates an orchestrator that transcribes without boosting.
func NewBaseline(ctx context.Context, rep Reporter, opts ...Option) *Orchestrator {
	return newOrchestrator(ctx, false, rep, opts...)
}

func (o *Orchestrator) RunID() string { return o.runID }

func (o *Orchestrator) Boosted() bool { return o.boosted }

func (o *Orchestrator) State() *conversation.State { return o.state }

func (o *Orchestrator) OnBegin(s transcriber.Session, e transcriber.BeginEvent) {
	o.mu.Lock()
	o.sessionID = e.ID
	o.begun = true
	o.mu.Unlock()

	log.Printf("session: [%s] begin %s (boosted=%v)", o.runID, e.ID, o.boosted)
	o.metrics.SessionStarted(o.ctx, o.boosted)
	o.reporter.SessionStarted(e.ID, o.boosted)

	if !o.boosted {
		return
	}

	fallback := keyterms.Fallback()
	o.state.SetKeyterms(fallback)
	if err := s.SetKeyterms(fallback); err != nil {
		log.Printf("session: [%s] failed to set fallback keyterms: %v", o.runID, err)
	}
	o.reporter.KeytermsInitialized(len(fallback))

	o.ctrl.Start(o.ctx, &reportingPublisher{session: s, reporter: o.reporter})
	o.ctrl.RequestInitial()
}

func (o *Orchestrator) OnTurn(e transcriber.TurnEvent) {
	if strings.TrimSpace(e.Transcript) == "" {
		return
	}

	kind := e.Kind()
	o.metrics.RecordTurn(o.ctx, kind.String())
	o.reporter.Turn(e)

	switch kind {
	case transcriber.TurnFormatted:
		o.state.AddFinalizedTurn(e.Transcript)
	case transcriber.TurnFinal:
		if !o.boosted {
			o.state.AppendTurn(e.Transcript)
			return
		}
		if o.ctrl.ObserveFinalTurn(e.Transcript) {
			o.reporter.RefreshTriggered(o.state.WordCount())
		}
	}
}

// OnTermination records the session's audio duration. Keyterm generation
// still in flight is abandoned: the session it would update has ended.
func (o *Orchestrator) OnTermination(e transcriber.TerminationEvent) {
	if o.ctrl != nil {
		o.ctrl.Invalidate()
	}

	o.mu.Lock()
	o.audioDuration = e.AudioDurationSeconds
	o.mu.Unlock()
	o.reporter.SessionTerminated(e, o.boosted)
}

func (o *Orchestrator) OnError(err error) {
	log.Printf("session: [%s] stream error: %v", o.runID, err)
	o.reporter.StreamError(err)
}

// WaitIdle blocks until no keyterm generation is running or queued.
func (o *Orchestrator) WaitIdle(ctx context.Context) error {
	if o.ctrl == nil {
		return nil
	}
	return o.ctrl.WaitIdle(ctx)
}

// Close stops background generation; results that arrive later are dropped.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	begun := o.begun
	o.mu.Unlock()

	if o.ctrl != nil {
		o.ctrl.Close()
	}
	if begun {
		o.metrics.SessionEnded(context.WithoutCancel(o.ctx), o.boosted)
	}
}

func (o *Orchestrator) Result() Result {
	snap := o.state.Snapshot()

	o.mu.Lock()
	defer o.mu.Unlock()
	return Result{
		RunID:              o.runID,
		SessionID:          o.sessionID,
		Boosted:            o.boosted,
		FinalizedTurns:     snap.FinalizedTurns,
		WordCount:          snap.WordCount,
		RefreshesTriggered: snap.RefreshesTriggered,
		KeytermUpdates:     snap.KeytermUpdates,
		Keyterms:           snap.Keyterms,
		AudioDuration:      o.audioDuration,
	}
}

// reportingPublisher pushes generated keyterms to the live session and tells
// the user.
type reportingPublisher struct {
	session  transcriber.Session
	reporter Reporter
}

func (p *reportingPublisher) SetKeyterms(terms []string) error {
	if err := p.session.SetKeyterms(terms); err != nil {
		return err
	}
	p.reporter.KeytermsUpdated(terms)
	return nil
}
