package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmoreno/examgen/internal/llm"
)

// evaluatorTemperature keeps verdicts stable across identical inputs.
const evaluatorTemperature = 0.2

// LLMEvaluator implements Evaluator using the LLM provider with a strict
// response schema.
type LLMEvaluator struct {
	provider llm.Provider
	config   Config
}

// NewEvaluator creates an LLMEvaluator with the given provider and config.
func NewEvaluator(provider llm.Provider, cfg Config) *LLMEvaluator {
	return &LLMEvaluator{provider: provider, config: cfg}
}

// Evaluate reviews the student's reasoning and returns a structured verdict.
// The adjusted score is clamped to [0, 100].
func (e *LLMEvaluator) Evaluate(ctx context.Context, input EvaluationInput) (*ReasoningEvaluation, error) {
	ctx = llm.WithPurpose(ctx, "answer-eval")

	req := llm.Request{
		System: evaluatorPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildEvaluationMessage(input)},
		},
		Schema:      EvaluationSchema,
		MaxTokens:   e.config.MaxTokens,
		Temperature: evaluatorTemperature,
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reasoning evaluation failed: %w", err)
	}

	var eval ReasoningEvaluation
	if err := json.Unmarshal(resp.Content, &eval); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	if eval.AdjustedScore < 0 {
		eval.AdjustedScore = 0
	}
	if eval.AdjustedScore > 100 {
		eval.AdjustedScore = 100
	}

	return &eval, nil
}
