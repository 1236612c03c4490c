package domain

import "time"

// Message is one turn of a conversation sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Settings holds the global evaluation defaults plus per-model overrides.
// It is supplied by the settings store and treated as read-only by the
// evaluation pipeline.
type Settings struct {
	SelectedModels        []string                 `json:"selectedModels"`
	GlobalSystemPrompt    string                   `json:"globalSystemPrompt"`
	GlobalTemperature     float64                  `json:"globalTemperature"`
	GlobalThinkingEnabled bool                     `json:"globalThinkingEnabled"`
	GlobalThinkingBudget  int                      `json:"globalThinkingBudget"`
	JokeSystemPrompt      string                   `json:"jokeSystemPrompt,omitempty"`
	ModelOverrides        map[string]ModelOverride `json:"modelOverrides"`
}

// ModelOverride overrides individual global settings for one model.
// Nil fields fall back to the global value.
type ModelOverride struct {
	SystemPrompt    *string  `json:"systemPrompt,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	ThinkingEnabled *bool    `json:"thinkingEnabled,omitempty"`
	ThinkingBudget  *int     `json:"thinkingBudget,omitempty"`
}

// EffectiveConfig is the fully resolved per-model request configuration.
type EffectiveConfig struct {
	SystemPrompt    string
	Temperature     float64
	ThinkingEnabled bool
	ThinkingBudget  int
}

// EvaluationRequest describes one fan-out evaluation: a shared prompt sent
// to every model in ModelIDs. Immutable once dispatched.
type EvaluationRequest struct {
	ModelIDs []string
	Messages []Message
	Settings Settings
}

// ErrorKind classifies a model failure for the caller.
type ErrorKind string

const (
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindDataPolicy  ErrorKind = "data_policy"
	ErrorKindUpstream    ErrorKind = "upstream"
	ErrorKindTransport   ErrorKind = "transport"
	ErrorKindGeneric     ErrorKind = "generic"
)

// StreamEvent is one frame of a model's event stream. A delta event carries
// Content or ThinkingContent; the terminal event has IsDone set with either
// Metrics (success) or Error (failure). Every model produces exactly one
// terminal event per evaluation.
type StreamEvent struct {
	ModelID         string           `json:"modelId"`
	Content         string           `json:"content,omitempty"`
	ThinkingContent string           `json:"thinkingContent,omitempty"`
	IsDone          bool             `json:"isDone,omitempty"`
	Metrics         *ResponseMetrics `json:"metrics,omitempty"`
	Error           string           `json:"error,omitempty"`
	ErrorKind       ErrorKind        `json:"errorKind,omitempty"`
}

// Terminal reports whether the event ends its model's sub-stream.
func (e StreamEvent) Terminal() bool {
	return e.IsDone
}

// ResponseMetrics are the timing and throughput figures for one completed
// model response. Durations are wall-clock milliseconds measured from
// request dispatch. TokenCount is the provider-reported completion count
// when usage data was supplied, otherwise a character-based estimate.
type ResponseMetrics struct {
	Duration           int64   `json:"duration"`
	TTFT               int64   `json:"ttft"`
	ThinkingDuration   int64   `json:"thinkingDuration"`
	TokenCount         int     `json:"tokenCount"`
	ThinkingTokenCount int     `json:"thinkingTokenCount"`
	TPS                float64 `json:"tps"`
}

// Rating is a user verdict on a joke response.
type Rating string

const (
	RatingFunny    Rating = "funny"
	RatingNotFunny Rating = "not_funny"
)

// ModelResponse is the accumulated result of one model's sub-stream,
// frozen at the terminal event.
type ModelResponse struct {
	ModelID            string  `json:"modelId"`
	Content            string  `json:"content"`
	ThinkingContent    string  `json:"thinkingContent,omitempty"`
	Duration           int64   `json:"duration"`
	TTFT               int64   `json:"ttft,omitempty"`
	ThinkingDuration   int64   `json:"thinkingDuration,omitempty"`
	TokenCount         int     `json:"tokenCount"`
	ThinkingTokenCount int     `json:"thinkingTokenCount,omitempty"`
	TPS                float64 `json:"tps"`
	Error              string  `json:"error,omitempty"`
	Rating             Rating  `json:"rating,omitempty"`
}

// Conversation is one finished evaluation: the prompt and every model's
// final response, keyed by model ID.
type Conversation struct {
	ID        string                   `json:"id"`
	Timestamp time.Time                `json:"timestamp"`
	Prompt    string                   `json:"prompt"`
	Responses map[string]ModelResponse `json:"responses"`
}

// Model is one catalog entry from the upstream model list.
type Model struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Pricing     *ModelPricing `json:"pricing,omitempty"`
}

type ModelPricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// Joke is a response promoted to the joke wall.
type Joke struct {
	ID             string        `json:"id"`
	Content        string        `json:"content"`
	ModelSignature string        `json:"modelSignature"`
	Timestamp      time.Time     `json:"timestamp"`
	Comments       []JokeComment `json:"comments"`
	Score          int           `json:"score"`
}

type JokeComment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}
