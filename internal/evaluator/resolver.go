package evaluator

import (
	"fmt"

	"llmarena/internal/domain"
)

// Resolve merges the global settings with modelID's overrides into one
// effective request configuration. Resolution is per-field: an override
// field that is set wins, otherwise the global default applies.
func Resolve(modelID string, settings domain.Settings) domain.EffectiveConfig {
	cfg := domain.EffectiveConfig{
		SystemPrompt:    settings.GlobalSystemPrompt,
		Temperature:     settings.GlobalTemperature,
		ThinkingEnabled: settings.GlobalThinkingEnabled,
		ThinkingBudget:  settings.GlobalThinkingBudget,
	}

	if override, ok := settings.ModelOverrides[modelID]; ok {
		if override.SystemPrompt != nil {
			cfg.SystemPrompt = *override.SystemPrompt
		}
		if override.Temperature != nil {
			cfg.Temperature = *override.Temperature
		}
		if override.ThinkingEnabled != nil {
			cfg.ThinkingEnabled = *override.ThinkingEnabled
		}
		if override.ThinkingBudget != nil {
			cfg.ThinkingBudget = *override.ThinkingBudget
		}
	}

	// Providers do not reliably honor the budget parameter, so the budget
	// is also stated in the system prompt. Best effort only.
	if cfg.ThinkingEnabled && cfg.ThinkingBudget > 0 {
		cfg.SystemPrompt = fmt.Sprintf(
			"%s\n\nKeep your internal reasoning under %d tokens.",
			cfg.SystemPrompt, cfg.ThinkingBudget,
		)
	}

	return cfg
}
