// Package evaluator fans a shared prompt out to a set of models and
// multiplexes their event streams into one output sequence. Models fail
// independently: every model ID always produces exactly one terminal
// event, and one model's error never affects its siblings.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"llmarena/internal/domain"
	"llmarena/internal/telemetry"
)

// Streamer opens one normalized event stream for a single model. The
// returned channel emits zero or more delta events, then exactly one
// terminal event, then closes.
type Streamer interface {
	Stream(ctx context.Context, modelID string, messages []domain.Message, cfg domain.EffectiveConfig) <-chan domain.StreamEvent
}

type Evaluator struct {
	streamer Streamer
}

func New(streamer Streamer) *Evaluator {
	return &Evaluator{streamer: streamer}
}

// Evaluate runs one model goroutine per request.ModelIDs entry and merges
// their events into the returned channel in first-available order. No
// ordering is guaranteed across models; within one model, delta order
// matches upstream emission order. The channel closes once every model
// has produced its terminal event.
func (e *Evaluator) Evaluate(ctx context.Context, req domain.EvaluationRequest) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent)

	ctx, span := telemetry.StartSpan(ctx, "evaluator.Evaluate",
		trace.WithAttributes(attribute.Int("model_count", len(req.ModelIDs))))

	var wg sync.WaitGroup
	for _, modelID := range req.ModelIDs {
		wg.Add(1)
		go func(modelID string) {
			defer wg.Done()
			e.runModel(ctx, modelID, req, out)
		}(modelID)
	}

	go func() {
		wg.Wait()
		span.End()
		close(out)
	}()

	return out
}

// EvaluateModel is the single-model path: same pipeline, no fan-out. Used
// for user-triggered re-evaluation of one model.
func (e *Evaluator) EvaluateModel(ctx context.Context, modelID string, messages []domain.Message, settings domain.Settings) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent)

	go func() {
		defer close(out)
		e.runModel(ctx, modelID, domain.EvaluationRequest{
			Messages: messages,
			Settings: settings,
		}, out)
	}()

	return out
}

// runModel drives one model's sub-stream to its terminal event, re-emitting
// every event onto the shared output channel. A panic anywhere in the
// model's stream degrades to a Failed terminal event for that model only.
func (e *Evaluator) runModel(ctx context.Context, modelID string, req domain.EvaluationRequest, out chan<- domain.StreamEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("model stream panicked", "model", modelID, "panic", r)
			select {
			case out <- domain.StreamEvent{
				ModelID:   modelID,
				IsDone:    true,
				Error:     fmt.Sprintf("internal error: %v", r),
				ErrorKind: domain.ErrorKindGeneric,
			}:
			case <-ctx.Done():
			}
		}
	}()

	cfg := Resolve(modelID, req.Settings)

	for ev := range e.streamer.Stream(ctx, modelID, req.Messages, cfg) {
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
