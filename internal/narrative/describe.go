package narrative

import (
	"context"
	"fmt"
)

// Result pairs the prompt with the generated narrative.
type Result struct {
	Prompt    string `json:"prompt"`
	Narrative string `json:"narrative,omitempty"`
}

// Describe builds the prompt for in and, when gen is non-nil, asks it for a
// narrative. The prompt is returned even when generation fails.
func Describe(ctx context.Context, gen Generator, in PromptInput) (*Result, error) {
	res := &Result{Prompt: BuildPrompt(in)}
	if gen == nil {
		return res, nil
	}

	text, err := gen.Generate(ctx, res.Prompt)
	if err != nil {
		return res, fmt.Errorf("generate narrative: %w", err)
	}
	res.Narrative = text
	return res, nil
}

// ErrorNarrative is the text shown in place of a narrative that could not be
// generated.
func ErrorNarrative(err error) string {
	return fmt.Sprintf("LLM Error: %v", err)
}
