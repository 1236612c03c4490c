package openrouter

import "strings"

// capabilities describes which reasoning request fields a provider
// understands. OpenRouter model IDs are "provider/model", and providers
// have drifted through several generations of the reasoning API, so the
// request shape is keyed by provider rather than branched inline per call.
type capabilities struct {
	// includeReasoning sends the legacy include_reasoning flag.
	includeReasoning bool
	// reasoningParam sends the unified reasoning:{max_tokens} object.
	reasoningParam bool
	// thinkingParam sends the Anthropic-style thinking:{type,budget_tokens}
	// object.
	thinkingParam bool
}

var defaultCapabilities = capabilities{
	includeReasoning: true,
	reasoningParam:   true,
}

var providerCapabilities = map[string]capabilities{
	"anthropic": {reasoningParam: true, thinkingParam: true},
	"deepseek":  {includeReasoning: true, reasoningParam: true},
	"qwen":      {includeReasoning: true, reasoningParam: true},
	"google":    {reasoningParam: true},
	"openai":    {reasoningParam: true},
}

// capabilitiesFor extracts the provider prefix from a model ID
// ("deepseek/deepseek-r1:free" -> "deepseek") and looks up its reasoning
// capabilities, falling back to a permissive default for unknown providers.
func capabilitiesFor(modelID string) capabilities {
	providerID, _, found := strings.Cut(modelID, "/")
	if !found {
		return defaultCapabilities
	}
	if caps, ok := providerCapabilities[providerID]; ok {
		return caps
	}
	return defaultCapabilities
}
