// Package refresh decides when a live session's keyterms should be
// regenerated and runs the regeneration on a single background worker so the
// transcription event path never waits on it.
package refresh

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/leonardotrapani/livekeyterms/internal/conversation"
	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/leonardotrapani/livekeyterms/internal/keyterms"
	"github.com/leonardotrapani/livekeyterms/internal/observe"
)

// Phase is the controller's externally visible state.
type Phase int

const (
	Idle Phase = iota
	Refreshing
)

func (p Phase) String() string {
	if p == Refreshing {
		return "REFRESHING"
	}
	return "IDLE"
}

// Extractor produces keyterm lists. *keyterms.Extractor satisfies it.
type Extractor interface {
	GenerateInitial(ctx context.Context, records []history.Record) ([]string, error)
	Refresh(ctx context.Context, current []string, transcript string, records []history.Record) ([]string, error)
}

// Publisher pushes a keyterm list to the live recognizer.
type Publisher interface {
	SetKeyterms(terms []string) error
}

type Config struct {
	Threshold int // words between refreshes
}

type job uint8

const (
	jobInitial job = 1 << iota
	jobRefresh
)

func (j job) String() string {
	if j == jobInitial {
		return "initial"
	}
	return "refresh"
}

// Controller owns one worker goroutine per session. Requests are coalesced:
// at most one generation is in flight, and any requests made meanwhile run
// once afterwards against the state as it is then.
type Controller struct {
	state     *conversation.State
	extractor Extractor
	history   history.Store
	cfg       Config
	metrics   *observe.Metrics

	mu        sync.Mutex
	pending   job
	running   bool
	idle      chan struct{} // closed while nothing is pending or running
	idleShut  bool
	started   bool
	stopped   bool
	publisher Publisher

	// applyMu orders result application against Close.
	applyMu sync.Mutex
	closed  bool

	kick   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Controller)

func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func New(state *conversation.State, extractor Extractor, store history.Store, cfg Config, opts ...Option) *Controller {
	idle := make(chan struct{})
	close(idle)

	c := &Controller{
		state:     state,
		extractor: extractor,
		history:   store,
		cfg:       cfg,
		idle:      idle,
		idleShut:  true,
		kick:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Start binds the controller to a live session and launches the worker.
func (c *Controller) Start(ctx context.Context, pub Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.publisher = pub
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.worker()
}

// RequestInitial queues generation of the first list from history.
func (c *Controller) RequestInitial() {
	c.request(jobInitial)
}

// ObserveFinalTurn records a finalized, unformatted turn and queues a
// refresh when the word-count threshold is crossed. It never blocks on
// generation and reports whether a refresh was triggered.
func (c *Controller) ObserveFinalTurn(text string) bool {
	c.state.AppendTurn(text)
	if !c.state.TriggerRefresh(c.cfg.Threshold) {
		return false
	}

	log.Printf("refresh: triggered at %d words", c.state.WordCount())
	c.metrics.RefreshTriggered.Add(context.Background(), 1)
	c.request(jobRefresh)
	return true
}

// Phase reports whether a generation is currently running.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return Refreshing
	}
	return Idle
}

// WaitIdle blocks until no generation is running or queued.
func (c *Controller) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	ch := c.idle
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invalidate detaches the controller from its session without waiting:
// running generation is cancelled, its result is discarded and no further
// requests are accepted. It is safe to call from transcription callbacks.
func (c *Controller) Invalidate() {
	c.applyMu.Lock()
	c.closed = true
	c.applyMu.Unlock()

	c.mu.Lock()
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close invalidates the controller and waits for the worker to exit. The
// controller cannot be restarted.
func (c *Controller) Close() {
	c.Invalidate()
	c.wg.Wait()

	c.mu.Lock()
	c.pending = 0
	c.markIdleLocked()
	c.mu.Unlock()
}

func (c *Controller) request(j job) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.pending |= j
	if c.idleShut {
		c.idle = make(chan struct{})
		c.idleShut = false
	}
	c.mu.Unlock()

	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Controller) markIdleLocked() {
	if !c.idleShut {
		close(c.idle)
		c.idleShut = true
	}
}

// next pops the highest priority pending job, or marks the controller idle.
func (c *Controller) next() (job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var j job
	switch {
	case c.pending&jobInitial != 0:
		j = jobInitial
	case c.pending&jobRefresh != 0:
		j = jobRefresh
	default:
		c.running = false
		c.markIdleLocked()
		return 0, false
	}
	c.pending &^= j
	c.running = true
	return j, true
}

func (c *Controller) worker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.mu.Lock()
			c.running = false
			c.pending = 0
			c.markIdleLocked()
			c.mu.Unlock()
			return
		case <-c.kick:
		}

		for {
			if c.ctx.Err() != nil {
				break
			}
			j, ok := c.next()
			if !ok {
				break
			}
			c.run(j)
		}
	}
}

func (c *Controller) run(j job) {
	c.state.SetRefreshInFlight(true)
	defer c.state.SetRefreshInFlight(false)

	records := history.LoadOrEmpty(c.ctx, c.history)
	start := time.Now()

	var (
		terms []string
		err   error
	)
	switch j {
	case jobInitial:
		if len(records) == 0 {
			log.Printf("refresh: no history, keeping fallback keyterms")
			return
		}
		terms, err = c.extractor.GenerateInitial(c.ctx, records)
	case jobRefresh:
		snap := c.state.Snapshot()
		terms, err = c.extractor.Refresh(c.ctx, snap.Keyterms, snap.Transcript, records)
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.closed || c.ctx.Err() != nil {
		log.Printf("refresh: session ended, discarding %s result after %v", j, time.Since(start))
		c.metrics.RefreshDiscarded.Add(context.Background(), 1)
		return
	}

	if err != nil {
		reason := "transport"
		if errors.Is(err, keyterms.ErrMalformedOutput) {
			reason = "malformed"
		}
		log.Printf("refresh: %s generation failed, keeping current keyterms: %v", j, err)
		c.metrics.RecordRefreshFailed(c.ctx, j.String(), reason)
		return
	}
	if len(terms) == 0 {
		log.Printf("refresh: %s generation returned no usable keyterms, keeping current", j)
		c.metrics.RecordRefreshFailed(c.ctx, j.String(), "empty")
		return
	}

	// Local state follows what the session is actually boosting.
	if err := c.publisher.SetKeyterms(terms); err != nil {
		log.Printf("refresh: failed to push %d keyterms to session, keeping current: %v", len(terms), err)
		c.metrics.RecordRefreshFailed(c.ctx, j.String(), "publish")
		return
	}
	c.state.ApplyKeyterms(terms)
	c.metrics.RecordKeytermUpdate(c.ctx, j.String())
	log.Printf("refresh: applied %d %s keyterms after %v", len(terms), j, time.Since(start))
}
