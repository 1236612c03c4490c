package evaluator

import (
	"strings"
	"testing"

	"llmarena/internal/domain"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func TestResolve_GlobalDefaults(t *testing.T) {
	settings := domain.Settings{
		GlobalSystemPrompt: "be funny",
		GlobalTemperature:  0.9,
	}

	cfg := Resolve("test/model:free", settings)

	if cfg.SystemPrompt != "be funny" {
		t.Errorf("SystemPrompt = %q, want global default", cfg.SystemPrompt)
	}
	if cfg.Temperature != 0.9 {
		t.Errorf("Temperature = %v, want 0.9", cfg.Temperature)
	}
	if cfg.ThinkingEnabled {
		t.Error("ThinkingEnabled should default off")
	}
}

func TestResolve_PerFieldOverride(t *testing.T) {
	settings := domain.Settings{
		GlobalSystemPrompt: "global prompt",
		GlobalTemperature:  0.7,
		ModelOverrides: map[string]domain.ModelOverride{
			"test/model:free": {
				Temperature: floatPtr(0.2),
			},
		},
	}

	cfg := Resolve("test/model:free", settings)

	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want overridden 0.2", cfg.Temperature)
	}
	if cfg.SystemPrompt != "global prompt" {
		t.Errorf("SystemPrompt = %q, fields without an override must keep the global value", cfg.SystemPrompt)
	}
}

func TestResolve_OverrideOtherModelIgnored(t *testing.T) {
	settings := domain.Settings{
		GlobalTemperature: 0.7,
		ModelOverrides: map[string]domain.ModelOverride{
			"other/model:free": {Temperature: floatPtr(0.1)},
		},
	}

	cfg := Resolve("test/model:free", settings)

	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, overrides for other models must not apply", cfg.Temperature)
	}
}

func TestResolve_AllOverrideFields(t *testing.T) {
	settings := domain.Settings{
		GlobalSystemPrompt:    "global",
		GlobalTemperature:     0.7,
		GlobalThinkingEnabled: false,
		GlobalThinkingBudget:  1024,
		ModelOverrides: map[string]domain.ModelOverride{
			"test/model:free": {
				SystemPrompt:    strPtr("override"),
				Temperature:     floatPtr(1.0),
				ThinkingEnabled: boolPtr(true),
				ThinkingBudget:  intPtr(500),
			},
		},
	}

	cfg := Resolve("test/model:free", settings)

	if !strings.HasPrefix(cfg.SystemPrompt, "override") {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if cfg.Temperature != 1.0 || !cfg.ThinkingEnabled || cfg.ThinkingBudget != 500 {
		t.Errorf("cfg = %+v, want every override applied", cfg)
	}
}

func TestResolve_ThinkingBudgetInstruction(t *testing.T) {
	settings := domain.Settings{
		GlobalSystemPrompt:    "be brief",
		GlobalThinkingEnabled: true,
		GlobalThinkingBudget:  800,
	}

	cfg := Resolve("test/model:free", settings)

	if !strings.Contains(cfg.SystemPrompt, "800 tokens") {
		t.Errorf("SystemPrompt = %q, want budget instruction appended", cfg.SystemPrompt)
	}
	if !strings.HasPrefix(cfg.SystemPrompt, "be brief") {
		t.Errorf("SystemPrompt = %q, instruction must append, not replace", cfg.SystemPrompt)
	}
}

func TestResolve_NoInstructionWhenThinkingOff(t *testing.T) {
	settings := domain.Settings{
		GlobalSystemPrompt:   "be brief",
		GlobalThinkingBudget: 800,
	}

	cfg := Resolve("test/model:free", settings)

	if cfg.SystemPrompt != "be brief" {
		t.Errorf("SystemPrompt = %q, budget instruction requires thinking enabled", cfg.SystemPrompt)
	}
}
