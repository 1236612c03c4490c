package stream

import "llmarena/internal/domain"

// Collector demultiplexes a merged event stream back into per-model
// responses: deltas are concatenated in arrival order and the terminal
// event freezes the record. It is the client-side counterpart of the
// fan-out and is also used server-side to persist finished conversations.
type Collector struct {
	responses map[string]*domain.ModelResponse
	order     []string
	done      map[string]bool
}

func NewCollector() *Collector {
	return &Collector{
		responses: make(map[string]*domain.ModelResponse),
		done:      make(map[string]bool),
	}
}

func (c *Collector) get(modelID string) *domain.ModelResponse {
	resp, ok := c.responses[modelID]
	if !ok {
		resp = &domain.ModelResponse{ModelID: modelID}
		c.responses[modelID] = resp
		c.order = append(c.order, modelID)
	}
	return resp
}

// Observe folds one event into its model's accumulated response. Events
// arriving after a model's terminal event are ignored.
func (c *Collector) Observe(ev domain.StreamEvent) {
	if c.done[ev.ModelID] {
		return
	}

	resp := c.get(ev.ModelID)
	resp.Content += ev.Content
	resp.ThinkingContent += ev.ThinkingContent

	if !ev.IsDone {
		return
	}
	c.done[ev.ModelID] = true

	if ev.Metrics != nil {
		resp.Duration = ev.Metrics.Duration
		resp.TTFT = ev.Metrics.TTFT
		resp.ThinkingDuration = ev.Metrics.ThinkingDuration
		resp.TokenCount = ev.Metrics.TokenCount
		resp.ThinkingTokenCount = ev.Metrics.ThinkingTokenCount
		resp.TPS = ev.Metrics.TPS
	}
	resp.Error = ev.Error
}

// Done reports whether modelID has received its terminal event.
func (c *Collector) Done(modelID string) bool {
	return c.done[modelID]
}

// Responses returns the accumulated per-model records keyed by model ID.
func (c *Collector) Responses() map[string]domain.ModelResponse {
	out := make(map[string]domain.ModelResponse, len(c.responses))
	for id, resp := range c.responses {
		out[id] = *resp
	}
	return out
}

// ModelIDs returns the model IDs in first-seen order.
func (c *Collector) ModelIDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}
