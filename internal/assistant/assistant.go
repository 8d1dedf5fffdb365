// Package assistant enriches task briefs with an AI triage note. The note
// is advisory only: issue state lives in the sighting store and never
// depends on the assistant being reachable.
package assistant

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// maxBriefChars caps how much of a brief is sent to the API. Briefs embed
// file contents and can be large.
const maxBriefChars = 60000

// Enhancer asks the model for a triage note on a task brief.
type Enhancer struct {
	client *anthropic.Client
	model  string
}

// Config holds enhancer configuration
type Config struct {
	// APIKey for the Anthropic API. Falls back to ANTHROPIC_API_KEY.
	APIKey string
	// Model to use (default: claude-sonnet-4-5-20250929).
	Model string
}

// NewEnhancer creates an enhancer
func NewEnhancer(cfg *Config) (*Enhancer, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Enhancer{client: &client, model: model}, nil
}

// Enhance returns the brief with a "## Triage Notes" section appended.
func (e *Enhancer) Enhance(ctx context.Context, document string) (string, error) {
	note, err := e.triageNote(ctx, document)
	if err != nil {
		return "", err
	}
	return appendTriageNote(document, note), nil
}

// triageNote asks the model for a short plan-of-attack for the brief.
func (e *Enhancer) triageNote(ctx context.Context, document string) (string, error) {
	prompt := buildTriagePrompt(document)

	response, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

func buildTriagePrompt(document string) string {
	if len(document) > maxBriefChars {
		document = document[:maxBriefChars] + "\n... (truncated)"
	}
	return fmt.Sprintf(`You are triaging a bug-fix task brief for a coding assistant.

Read the brief below and write a short triage note (at most 10 lines):
1. The most likely root cause, based on the issue text and the files shown.
2. Which of the listed files to start with, and why.
3. Any risk or edge case the fix must not break.

Answer with the note only, no preamble.

BRIEF:
%s`, document)
}

// appendTriageNote appends the note as a markdown section, replacing any
// previous note so re-running stays idempotent.
func appendTriageNote(document, note string) string {
	const heading = "## Triage Notes"
	if idx := strings.Index(document, heading); idx >= 0 {
		document = strings.TrimRight(document[:idx], "\n") + "\n"
	}
	return strings.TrimRight(document, "\n") + "\n\n" + heading + "\n\n" + note + "\n"
}
