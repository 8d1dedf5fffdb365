package assistant

import (
	"strings"
	"testing"
)

func TestNewEnhancerRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewEnhancer(&Config{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestNewEnhancerDefaults(t *testing.T) {
	e, err := NewEnhancer(&Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewEnhancer failed: %v", err)
	}
	if e.model != DefaultModel {
		t.Errorf("model = %q, want %q", e.model, DefaultModel)
	}
}

func TestBuildTriagePromptTruncatesLongBriefs(t *testing.T) {
	document := strings.Repeat("x", maxBriefChars+1000)
	prompt := buildTriagePrompt(document)
	if !strings.Contains(prompt, "... (truncated)") {
		t.Error("expected truncation marker")
	}
	if len(prompt) > maxBriefChars+2000 {
		t.Errorf("prompt too long: %d chars", len(prompt))
	}
}

func TestAppendTriageNote(t *testing.T) {
	document := "# Task Brief\n\nbody\n"
	out := appendTriageNote(document, "start with auth.ts")
	if !strings.Contains(out, "## Triage Notes\n\nstart with auth.ts") {
		t.Errorf("note not appended:\n%s", out)
	}

	// Re-appending replaces the old note instead of stacking
	out2 := appendTriageNote(out, "different note")
	if strings.Count(out2, "## Triage Notes") != 1 {
		t.Errorf("expected exactly one triage section:\n%s", out2)
	}
	if strings.Contains(out2, "start with auth.ts") {
		t.Error("old note should be replaced")
	}
}
