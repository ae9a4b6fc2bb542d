package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/leonardotrapani/livekeyterms/internal/observe"
	"github.com/leonardotrapani/livekeyterms/internal/recording"
	"github.com/leonardotrapani/livekeyterms/internal/refresh"
	"github.com/leonardotrapani/livekeyterms/internal/transcriber"
	"golang.org/x/sync/errgroup"
)

const defaultTerminateTimeout = 5 * time.Second

type RunConfig struct {
	// TerminateTimeout bounds the wait for the server's Termination event.
	TerminateTimeout time.Duration
}

// Run streams source into client until the source is exhausted, the stream
// ends or ctx is cancelled, then terminates the session and closes o.
// Transcription errors reach o.OnError and are not returned; audio source
// failures are.
func Run(ctx context.Context, client transcriber.StreamingClient, source recording.Source, o *Orchestrator, cfg RunConfig) (Result, error) {
	if err := client.Connect(ctx, o); err != nil {
		o.Close()
		return o.Result(), fmt.Errorf("connect: %w", err)
	}

	streamErr := stream(ctx, client, source)

	timeout := cfg.TerminateTimeout
	if timeout <= 0 {
		timeout = defaultTerminateTimeout
	}
	// Terminate even after an interrupt so the server flushes the last turn.
	termCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := client.Disconnect(termCtx, true); err != nil {
		log.Printf("session: [%s] disconnect: %v", o.RunID(), err)
	}

	o.Close()
	return o.Result(), streamErr
}

func stream(ctx context.Context, client transcriber.StreamingClient, source recording.Source) error {
	frames, errs, err := source.Start(ctx)
	if err != nil {
		return fmt.Errorf("start audio: %w", err)
	}
	defer source.Wait()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer source.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-client.Done():
				log.Printf("session: stream closed by server, stopping audio")
				return nil
			case frame, ok := <-frames:
				if !ok {
					return nil
				}
				if err := client.SendChunk(frame.Data); err != nil {
					if errors.Is(err, transcriber.ErrNotConnected) {
						log.Printf("session: stream no longer connected, stopping audio")
						return nil
					}
					return fmt.Errorf("send audio: %w", err)
				}
			}
		}
	})

	g.Go(func() error {
		if err, ok := <-errs; ok && err != nil {
			return fmt.Errorf("audio source: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Deps are the collaborators a run needs. NewClient and NewSource are called
// once per run so every run starts fresh.
type Deps struct {
	NewClient func() transcriber.StreamingClient
	NewSource func() recording.Source
	Extractor refresh.Extractor
	History   history.Store
	Reporter  Reporter
	Metrics   *observe.Metrics
}

type Config struct {
	Refresh refresh.Config
	Run     RunConfig
}

// Comparison holds the outcome of a baseline run and a boosted run over the
// same audio.
type Comparison struct {
	AudioPath   string
	GroundTruth string
	Baseline    Result
	Boosted     Result
}

// Compare transcribes audioPath twice, first without boosting and then with
// it, one after the other. Invalid audio fails before anything connects.
func Compare(ctx context.Context, audioPath, groundTruthPath string, cfg Config, deps Deps) (Comparison, error) {
	if _, err := recording.InspectWAV(audioPath); err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{AudioPath: audioPath}
	rep := deps.Reporter

	rep.Banner("COMPARISON MODE: baseline, then LLM-generated keyterm boosting")

	rep.Banner("SESSION 1: NO BOOSTING (baseline)")
	rep.StreamingFile(audioPath)
	baseline := NewBaseline(ctx, rep, WithMetrics(deps.metrics()))
	res, err := Run(ctx, deps.NewClient(), deps.NewSource(), baseline, cfg.Run)
	cmp.Baseline = res
	if err != nil {
		return cmp, fmt.Errorf("baseline run: %w", err)
	}
	if ctx.Err() != nil {
		return cmp, ctx.Err()
	}

	rep.Banner("SESSION 2: WITH KEYTERM BOOSTING")
	rep.StreamingFile(audioPath)
	boosted := NewBoosted(ctx, deps.Extractor, deps.History, cfg.Refresh, rep, WithMetrics(deps.metrics()))
	res, err = Run(ctx, deps.NewClient(), deps.NewSource(), boosted, cfg.Run)
	cmp.Boosted = res
	if err != nil {
		return cmp, fmt.Errorf("boosted run: %w", err)
	}

	cmp.GroundTruth = ReadGroundTruth(groundTruthPath)
	rep.Comparison(cmp)
	return cmp, nil
}

// Live transcribes the microphone with boosting until SIGINT or SIGTERM.
func Live(ctx context.Context, cfg Config, deps Deps) (Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := NewBoosted(ctx, deps.Extractor, deps.History, cfg.Refresh, deps.Reporter, WithMetrics(deps.metrics()))
	deps.Reporter.LiveStarted(cfg.Refresh.Threshold)

	res, err := Run(ctx, deps.NewClient(), deps.NewSource(), o, cfg.Run)
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		err = nil
	}
	return res, err
}

// ReadGroundTruth returns the trimmed reference transcript, or "" when the
// file is absent or unreadable.
func ReadGroundTruth(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("session: read ground truth %s: %v", path, err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (d Deps) metrics() *observe.Metrics {
	if d.Metrics != nil {
		return d.Metrics
	}
	return observe.DefaultMetrics()
}
