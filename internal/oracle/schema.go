package oracle

import "github.com/dmoreno/examgen/internal/llm"

// EvaluationSchema defines the JSON schema for reasoning evaluation
// responses. Unlike generation, evaluation output feeds straight into
// score arithmetic, so the schema is strict.
var EvaluationSchema = &llm.Schema{
	Name:        "reasoning-evaluation",
	Description: "Structured verdict on a student's written procedure",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"chain_of_thought": map[string]any{
				"type":        "string",
				"description": "Step-by-step analysis of where the student's work diverges from the expected solution",
			},
			"error_type": map[string]any{
				"type":        "string",
				"enum":        []any{ErrorCalculation, ErrorConceptual, ErrorUnit, ErrorMinorSlip, ErrorNone},
				"description": "Classification of the dominant error in the student's work",
			},
			"adjusted_score_percentage": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     100,
				"description": "Score awarded for the procedure, 0 to 100",
			},
			"feedback_text": map[string]any{
				"type":        "string",
				"description": "Short pedagogical feedback addressed to the student",
			},
		},
		"required":             []any{"chain_of_thought", "error_type", "adjusted_score_percentage", "feedback_text"},
		"additionalProperties": false,
	},
}
