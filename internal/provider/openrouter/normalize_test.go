package openrouter

import (
	"encoding/json"
	"testing"
)

func TestNormalizeDelta_ReasoningShapes(t *testing.T) {
	// Each historical reasoning encoding alone must normalize to the same
	// canonical thinking text.
	const want = "let me think"

	tests := []struct {
		name string
		raw  string
	}{
		{"reasoning", `{"reasoning":"let me think"}`},
		{"reasoning_content", `{"reasoning_content":"let me think"}`},
		{"thinking", `{"thinking":"let me think"}`},
		{"reasoning_details", `{"reasoning_details":[{"type":"text","text":"let me "},{"type":"text","text":"think"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d deltaPayload
			if err := json.Unmarshal([]byte(tt.raw), &d); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			content, thinking := normalizeDelta(d)
			if content != "" {
				t.Errorf("content = %q, want empty", content)
			}
			if thinking != want {
				t.Errorf("thinking = %q, want %q", thinking, want)
			}
		})
	}
}

func TestNormalizeDelta_Precedence(t *testing.T) {
	var d deltaPayload
	raw := `{"reasoning":"first","reasoning_content":"second","thinking":"third"}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	_, thinking := normalizeDelta(d)
	if thinking != "first" {
		t.Errorf("thinking = %q, want %q (fixed precedence)", thinking, "first")
	}
}

func TestNormalizeDelta_SkipsNonTextDetails(t *testing.T) {
	d := deltaPayload{
		ReasoningDetails: []reasoningDetail{
			{Type: "text", Text: "keep"},
			{Type: "encrypted", Text: "drop"},
		},
	}

	_, thinking := normalizeDelta(d)
	if thinking != "keep" {
		t.Errorf("thinking = %q, want %q", thinking, "keep")
	}
}

func TestNormalizeDelta_AbsentFieldsYieldEmpty(t *testing.T) {
	content, thinking := normalizeDelta(deltaPayload{})
	if content != "" || thinking != "" {
		t.Errorf("got (%q, %q), want empty strings", content, thinking)
	}
}

func TestNormalizeFrame_ContentAndThinking(t *testing.T) {
	var f streamFrame
	raw := `{"choices":[{"delta":{"content":"Hi","reasoning":"why"}}]}`
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	content, thinking := normalizeFrame(f)
	if content != "Hi" {
		t.Errorf("content = %q, want %q", content, "Hi")
	}
	if thinking != "why" {
		t.Errorf("thinking = %q, want %q", thinking, "why")
	}
}

func TestNormalizeFrame_NoChoices(t *testing.T) {
	content, thinking := normalizeFrame(streamFrame{})
	if content != "" || thinking != "" {
		t.Errorf("got (%q, %q), want empty strings", content, thinking)
	}
}
