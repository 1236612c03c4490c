package openrouter

// streamFrame is one decoded SSE data payload from the upstream
// chat-completions stream.
type streamFrame struct {
	Choices []struct {
		Delta        deltaPayload `json:"delta"`
		FinishReason string       `json:"finish_reason"`
	} `json:"choices"`
	Usage *usagePayload `json:"usage,omitempty"`
}

// deltaPayload carries a content fragment plus a reasoning fragment in any
// of the historical encodings providers have shipped.
type deltaPayload struct {
	Content          string            `json:"content"`
	Reasoning        string            `json:"reasoning"`
	ReasoningContent string            `json:"reasoning_content"`
	Thinking         string            `json:"thinking"`
	ReasoningDetails []reasoningDetail `json:"reasoning_details"`
}

type reasoningDetail struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usagePayload struct {
	PromptTokens            int `json:"prompt_tokens"`
	CompletionTokens        int `json:"completion_tokens"`
	TotalTokens             int `json:"total_tokens"`
	CompletionTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details,omitempty"`
}

// normalizeDelta maps a provider delta to the two canonical fields. The
// reasoning fields are checked in fixed precedence order; structured
// reasoning_details entries of type "text" are concatenated when no plain
// field is present. Absent fields yield empty strings.
func normalizeDelta(d deltaPayload) (content, thinking string) {
	content = d.Content

	switch {
	case d.Reasoning != "":
		thinking = d.Reasoning
	case d.ReasoningContent != "":
		thinking = d.ReasoningContent
	case d.Thinking != "":
		thinking = d.Thinking
	default:
		for _, detail := range d.ReasoningDetails {
			if detail.Type == "" || detail.Type == "text" || detail.Type == "reasoning.text" {
				thinking += detail.Text
			}
		}
	}

	return content, thinking
}

// normalizeFrame flattens a frame to its first choice's canonical delta.
func normalizeFrame(f streamFrame) (content, thinking string) {
	if len(f.Choices) == 0 {
		return "", ""
	}
	return normalizeDelta(f.Choices[0].Delta)
}
