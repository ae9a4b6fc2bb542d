package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/livekeyterms/internal/session"
	"github.com/leonardotrapani/livekeyterms/internal/transcriber"
	"github.com/muesli/termenv"
)

// sampleSize is how many keyterms are echoed after an update.
const sampleSize = 3

// Reporter prints session progress. Callbacks arrive from the stream reader
// and the refresh worker at the same time, so every write holds mu.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles

	// ShowPartials controls whether interim turns are echoed.
	ShowPartials bool
}

var _ session.Reporter = (*Reporter)(nil)

// NewReporter writes to w. The colour profile is detected from w unless
// opts say otherwise.
func NewReporter(w io.Writer, opts ...termenv.OutputOption) *Reporter {
	return &Reporter{
		w:            w,
		styles:       NewStyles(lipgloss.NewRenderer(w, opts...)),
		ShowPartials: true,
	}
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

func (r *Reporter) Banner(title string) {
	line := rule("#")
	r.printf("\n%s\n%s\n%s\n", r.styles.Header.Render(line), r.styles.Header.Render("# "+title), r.styles.Header.Render(line))
}

func (r *Reporter) StreamingFile(path string) {
	r.printf("\nStreaming audio file: %s\n", r.styles.Highlight.Render(path))
}

func (r *Reporter) LiveStarted(threshold int) {
	r.printf("\nStarting microphone stream...\n%s\n\n",
		r.styles.Muted.Render(fmt.Sprintf("Keyterms will update automatically every %d words. Press Ctrl+C to stop.", threshold)))
}

func (r *Reporter) SessionStarted(id string, boosted bool) {
	title := "Session started: " + id
	if !boosted {
		title = "Session started (NO BOOSTING): " + id
	}
	r.printf("\n%s\n%s\n%s\n\n", rule("="), r.styles.Label.Render(title), rule("="))
}

func (r *Reporter) KeytermsInitialized(count int) {
	r.printf("Started with %d generic keyterms %s\n\n", count, r.styles.Muted.Render("(generating contextual keyterms in background...)"))
}

func (r *Reporter) Turn(e transcriber.TurnEvent) {
	switch e.Kind() {
	case transcriber.TurnFormatted:
		r.printf("%s %s\n\n", r.styles.Success.Render("[FINAL formatted]"), e.Transcript)
	case transcriber.TurnFinal:
		r.printf("%s %s\n", r.styles.Label.Render("[FINAL unformatted]"), e.Transcript)
	default:
		if r.ShowPartials {
			r.printf("%s %s\n", r.styles.Subtle.Render("[partial]"), e.Transcript)
		}
	}
}

func (r *Reporter) RefreshTriggered(wordCount int) {
	r.printf("\n%s\n\n", r.styles.Highlight.Render(fmt.Sprintf(">>> Reached %d words - refreshing keyterms in background...", wordCount)))
}

func (r *Reporter) KeytermsUpdated(terms []string) {
	sample := terms
	suffix := ""
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
		suffix = ", ..."
	}
	r.printf("\n%s\n%s\n\n",
		r.styles.Highlight.Render(fmt.Sprintf(">>> KEYTERMS UPDATED: now boosting %d contextual keyterms", len(terms))),
		r.styles.Muted.Render(">>> Sample: "+strings.Join(sample, ", ")+suffix))
}

func (r *Reporter) SessionTerminated(e transcriber.TerminationEvent, boosted bool) {
	title := "Session terminated"
	if !boosted {
		title += " (NO BOOSTING)"
	}
	r.printf("\n%s\n%s\nAudio duration: %g seconds\n%s\n", rule("="), r.styles.Label.Render(title), e.AudioDurationSeconds, rule("="))
}

func (r *Reporter) StreamError(err error) {
	style := r.styles.Warning
	if transcriber.IsFatal(err) {
		style = r.styles.Error
	}
	r.printf("%s %v\n", style.Render("Error occurred:"), err)
}

func (r *Reporter) Comparison(c session.Comparison) {
	var b strings.Builder
	hash := rule("#")
	eq := rule("=")

	fmt.Fprintf(&b, "\n\n%s\n%s\n%s\n", r.styles.Header.Render(hash), r.styles.Header.Render("# FINAL COMPARISON"), r.styles.Header.Render(hash))

	if c.GroundTruth != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n  %s\n", eq, r.styles.Label.Render("GROUND TRUTH:"), eq, c.GroundTruth)
	}

	writeTurns := func(title string, res session.Result) {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n", eq, r.styles.Label.Render(title), eq)
		for i, turn := range res.FinalizedTurns {
			fmt.Fprintf(&b, "  Turn %d: %s\n", i+1, turn)
		}
		if len(res.FinalizedTurns) == 0 {
			fmt.Fprintf(&b, "  %s\n", r.styles.Muted.Render("(no finalized turns)"))
		}
	}
	writeTurns("SESSION 1 (NO BOOSTING):", c.Baseline)
	writeTurns("SESSION 2 (WITH BOOSTING):", c.Boosted)

	fmt.Fprintf(&b, "\n%s\n", r.styles.Muted.Render(fmt.Sprintf("%d words, %d refreshes triggered, %d keyterm updates applied",
		c.Boosted.WordCount, c.Boosted.RefreshesTriggered, c.Boosted.KeytermUpdates)))

	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.w, b.String())
}
