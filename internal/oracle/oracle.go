// Package oracle holds the LLM-facing clients of the exam pipeline:
// a question generator and a reasoning evaluator. The generator
// deliberately returns the raw model output; shape normalization and
// validation belong to the assembler, which knows what each slot
// expects.
package oracle

import (
	"context"
	"encoding/json"

	"github.com/dmoreno/examgen/internal/exam"
)

// GenerationInput carries everything the examiner prompt needs for one
// question slot.
type GenerationInput struct {
	Topic      string
	Difficulty exam.Difficulty
	Cognitive  exam.CognitiveType
	Points     float64
	Type       exam.QuestionType

	// Context is the retrieved source material the question must be
	// grounded on. Empty means the model falls back to general knowledge.
	Context string
}

// Generator produces one raw question document per call.
type Generator interface {
	GenerateQuestion(ctx context.Context, input GenerationInput) (json.RawMessage, error)
}

// EvaluationInput describes a student answer that needs qualitative review.
type EvaluationInput struct {
	Statement      string
	CorrectDisplay string
	SubmittedValue string
	Procedure      string
}

// Error classifications the evaluator may assign.
const (
	ErrorCalculation = "calculation_error"
	ErrorConceptual  = "conceptual_error"
	ErrorUnit        = "unit_error"
	ErrorMinorSlip   = "minor_slip"
	ErrorNone        = "correct"
)

// ReasoningEvaluation is the structured verdict on a student's work.
type ReasoningEvaluation struct {
	ChainOfThought string  `json:"chain_of_thought"`
	ErrorType      string  `json:"error_type"`
	AdjustedScore  float64 `json:"adjusted_score_percentage"`
	FeedbackText   string  `json:"feedback_text"`
}

// Evaluator reviews a student's procedure and proposes an adjusted score.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (*ReasoningEvaluation, error)
}

// Config controls token budgets and sampling for both oracle clients.
type Config struct {
	// MaxTokens is the token budget for LLM responses.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0). Generation
	// wants some variety; evaluation uses a lower value internally.
	Temperature float64
}

// DefaultConfig returns the recommended oracle settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}
