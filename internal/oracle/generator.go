package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmoreno/examgen/internal/llm"
)

// LLMGenerator implements Generator using the LLM provider.
//
// It requests JSON through the prompt rather than a strict schema: field
// names drift between providers and model versions, and the assembler
// already normalizes every known shape. Enforcing a schema here would
// reject usable output.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// NewGenerator creates an LLMGenerator with the given provider and config.
func NewGenerator(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// GenerateQuestion produces the raw JSON document for a single slot.
func (g *LLMGenerator) GenerateQuestion(ctx context.Context, input GenerationInput) (json.RawMessage, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	req := llm.Request{
		System: examinerPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGenerationMessage(input)},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, &llm.ErrInvalidResponse{Err: errors.New("empty generation response")}
	}

	return resp.Content, nil
}
