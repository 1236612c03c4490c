// Package timing accumulates per-response latency and throughput figures
// while a model's stream is consumed. All durations are wall-clock
// milliseconds measured from request dispatch; providers do not uniformly
// report timing telemetry, so server-side clocks are the source of truth.
package timing

import (
	"math"
	"time"

	"llmarena/internal/domain"
)

// charsPerToken is the fallback token estimate used when the provider
// omits usage data. It is an approximation, not an exact count.
const charsPerToken = 3.5

// Tracker accumulates stream observations for one (evaluation, model)
// pair. It is owned by a single goroutine and is not safe for concurrent
// use.
type Tracker struct {
	now func() time.Time

	startedAt      time.Time
	firstDeltaAt   time.Time
	lastThinkingAt time.Time

	contentChars  int
	thinkingChars int

	reportedTokens         int
	reportedThinkingTokens int
	hasReported            bool
}

// NewTracker starts a tracker at the moment of request dispatch.
func NewTracker() *Tracker {
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	return &Tracker{
		now:       now,
		startedAt: now(),
	}
}

// ObserveContent records a content delta.
func (t *Tracker) ObserveContent(text string) {
	t.markFirstDelta()
	t.contentChars += len(text)
}

// ObserveThinking records a reasoning delta.
func (t *Tracker) ObserveThinking(text string) {
	t.markFirstDelta()
	t.lastThinkingAt = t.now()
	t.thinkingChars += len(text)
}

func (t *Tracker) markFirstDelta() {
	if t.firstDeltaAt.IsZero() {
		t.firstDeltaAt = t.now()
	}
}

// SetReportedUsage overrides the character-based estimates with the
// provider-supplied completion token counts from a trailing usage frame.
func (t *Tracker) SetReportedUsage(completionTokens, reasoningTokens int) {
	t.reportedTokens = completionTokens
	t.reportedThinkingTokens = reasoningTokens
	t.hasReported = true
}

// Finalize computes the terminal metrics. Call once, when the stream ends.
func (t *Tracker) Finalize() domain.ResponseMetrics {
	end := t.now()
	duration := end.Sub(t.startedAt).Milliseconds()

	// TTFT falls back to the full duration when no delta ever arrived.
	ttft := duration
	if !t.firstDeltaAt.IsZero() {
		ttft = t.firstDeltaAt.Sub(t.startedAt).Milliseconds()
	}

	var thinkingDuration int64
	if !t.lastThinkingAt.IsZero() {
		since := t.startedAt
		if !t.firstDeltaAt.IsZero() {
			since = t.firstDeltaAt
		}
		thinkingDuration = t.lastThinkingAt.Sub(since).Milliseconds()
	}

	tokens := estimateTokens(t.contentChars)
	thinkingTokens := estimateTokens(t.thinkingChars)
	if t.hasReported {
		tokens = t.reportedTokens
		// Not every provider breaks out reasoning tokens; keep the
		// estimate when the field is absent.
		if t.reportedThinkingTokens > 0 {
			thinkingTokens = t.reportedThinkingTokens
		}
	}

	var tps float64
	if duration > 0 {
		tps = float64(tokens+thinkingTokens) / (float64(duration) / 1000)
	}

	return domain.ResponseMetrics{
		Duration:           duration,
		TTFT:               ttft,
		ThinkingDuration:   thinkingDuration,
		TokenCount:         tokens,
		ThinkingTokenCount: thinkingTokens,
		TPS:                tps,
	}
}

func estimateTokens(chars int) int {
	if chars == 0 {
		return 0
	}
	return int(math.Ceil(float64(chars) / charsPerToken))
}
