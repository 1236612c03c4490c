// Package openrouter streams chat completions from the OpenRouter API and
// normalizes its event stream into the canonical delta/terminal shape.
package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"llmarena/internal/domain"
	"llmarena/internal/httputil"
	"llmarena/internal/metrics"
	"llmarena/internal/timing"
)

type Provider struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	client  *http.Client

	// idleTimeout aborts a stream that goes silent; zero disables it.
	idleTimeout time.Duration
}

type Option func(*Provider)

// WithIdleTimeout bounds the gap between successive stream reads.
func WithIdleTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.idleTimeout = d
	}
}

// WithAttribution sets the HTTP-Referer and X-Title headers OpenRouter
// uses for app attribution.
func WithAttribution(referer, title string) Option {
	return func(p *Provider) {
		p.referer = referer
		p.title = title
	}
}

func New(apiKey, baseURL string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httputil.StreamingClient(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() string {
	return "openrouter"
}

type chatRequest struct {
	Model            string           `json:"model"`
	Messages         []domain.Message `json:"messages"`
	Temperature      float64          `json:"temperature"`
	Stream           bool             `json:"stream"`
	MaxTokens        int              `json:"max_tokens,omitempty"`
	IncludeReasoning *bool            `json:"include_reasoning,omitempty"`
	Reasoning        *reasoningParam  `json:"reasoning,omitempty"`
	Thinking         *thinkingParam   `json:"thinking,omitempty"`
	StreamOptions    *streamOptions   `json:"stream_options,omitempty"`
}

type reasoningParam struct {
	MaxTokens int `json:"max_tokens"`
}

type thinkingParam struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// buildRequest assembles the upstream request body. The resolved system
// prompt is prepended to the caller's messages. When thinking is enabled
// the overall output ceiling must exceed the reasoning budget, or the
// reasoning pass can starve the visible answer.
func buildRequest(modelID string, messages []domain.Message, cfg domain.EffectiveConfig) chatRequest {
	full := make([]domain.Message, 0, len(messages)+1)
	full = append(full, domain.Message{Role: domain.RoleSystem, Content: cfg.SystemPrompt})
	full = append(full, messages...)

	req := chatRequest{
		Model:         modelID,
		Messages:      full,
		Temperature:   cfg.Temperature,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}

	if cfg.ThinkingEnabled {
		caps := capabilitiesFor(modelID)
		req.MaxTokens = maxTokensFor(cfg.ThinkingBudget)
		if caps.includeReasoning {
			t := true
			req.IncludeReasoning = &t
		}
		if caps.reasoningParam {
			req.Reasoning = &reasoningParam{MaxTokens: cfg.ThinkingBudget}
		}
		if caps.thinkingParam {
			req.Thinking = &thinkingParam{Type: "enabled", BudgetTokens: cfg.ThinkingBudget}
		}
	}

	return req
}

func maxTokensFor(thinkingBudget int) int {
	if n := thinkingBudget + 2048; n > 4096 {
		return n
	}
	return 4096
}

// Stream opens one streaming completion request for modelID and emits
// normalized events on the returned channel. The channel carries zero or
// more delta events followed by exactly one terminal event, then closes.
func (p *Provider) Stream(ctx context.Context, modelID string, messages []domain.Message, cfg domain.EffectiveConfig) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent)

	go func() {
		defer close(events)

		metrics.IncrementActiveStreams()
		defer metrics.DecrementActiveStreams()

		tracker := timing.NewTracker()

		emit := func(ev domain.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(kind domain.ErrorKind, message string) {
			metrics.RecordModelError(modelID, string(kind))
			emit(domain.StreamEvent{
				ModelID:   modelID,
				IsDone:    true,
				Error:     message,
				ErrorKind: kind,
			})
		}

		body, err := json.Marshal(buildRequest(modelID, messages, cfg))
		if err != nil {
			fail(domain.ErrorKindGeneric, fmt.Sprintf("marshal request: %v", err))
			return
		}

		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			fail(domain.ErrorKindGeneric, fmt.Sprintf("create request: %v", err))
			return
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		httpReq.Header.Set("Accept", "text/event-stream")
		if p.referer != "" {
			httpReq.Header.Set("HTTP-Referer", p.referer)
		}
		if p.title != "" {
			httpReq.Header.Set("X-Title", p.title)
		}

		resp, err := p.client.Do(httpReq)
		if err != nil {
			fail(domain.ErrorKindTransport, fmt.Sprintf("do request: %v", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
			kind, message := classifyError(resp.StatusCode, errBody)
			fail(kind, message)
			return
		}

		// Silent-stream watchdog: a hung upstream connection would
		// otherwise pin this model's goroutine forever.
		var watchdog *time.Timer
		if p.idleTimeout > 0 {
			watchdog = time.AfterFunc(p.idleTimeout, cancel)
			defer watchdog.Stop()
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			if watchdog != nil {
				watchdog.Reset(p.idleTimeout)
			}

			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				// Stream terminator, not data.
				continue
			}

			var frame streamFrame
			if err := json.Unmarshal([]byte(data), &frame); err != nil {
				slog.Debug("skipping malformed stream frame", "model", modelID, "error", err)
				continue
			}

			content, thinking := normalizeFrame(frame)
			if thinking != "" {
				tracker.ObserveThinking(thinking)
				if !emit(domain.StreamEvent{ModelID: modelID, ThinkingContent: thinking}) {
					return
				}
			}
			if content != "" {
				tracker.ObserveContent(content)
				if !emit(domain.StreamEvent{ModelID: modelID, Content: content}) {
					return
				}
			}

			if frame.Usage != nil && frame.Usage.CompletionTokens > 0 {
				reasoningTokens := 0
				if frame.Usage.CompletionTokensDetails != nil {
					reasoningTokens = frame.Usage.CompletionTokensDetails.ReasoningTokens
				}
				tracker.SetReportedUsage(frame.Usage.CompletionTokens, reasoningTokens)
			}
		}

		if err := scanner.Err(); err != nil {
			if streamCtx.Err() != nil && ctx.Err() == nil {
				fail(domain.ErrorKindTransport, fmt.Sprintf("stream idle for %s, aborted", p.idleTimeout))
			} else {
				fail(domain.ErrorKindTransport, fmt.Sprintf("read stream: %v", err))
			}
			return
		}

		m := tracker.Finalize()
		metrics.RecordModelResponse(modelID, m)
		emit(domain.StreamEvent{ModelID: modelID, IsDone: true, Metrics: &m})
	}()

	return events
}

// Models fetches the upstream model catalog.
func (p *Provider) Models(ctx context.Context) ([]domain.Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.referer != "" {
		httpReq.Header.Set("HTTP-Referer", p.referer)
	}
	if p.title != "" {
		httpReq.Header.Set("X-Title", p.title)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d", domain.ErrUpstream, resp.StatusCode)
	}

	var modelsResp struct {
		Data []domain.Model `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return modelsResp.Data, nil
}

// HealthCheck probes the models endpoint.
func (p *Provider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openrouter unhealthy: status=%d", resp.StatusCode)
	}

	return nil
}
