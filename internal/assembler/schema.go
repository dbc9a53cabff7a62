package assembler

import (
	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/llm"
)

// Canonical post-normalization schemas, one per question type. These
// are deliberately strict: the Normalizer has already collapsed every
// tolerated alias, so anything still out of shape here is a real
// quality failure.

func baseProperties() map[string]any {
	return map[string]any{
		"statement": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"explanation": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"hint": map[string]any{
			"type": "string",
		},
	}
}

var numericQuestionSchema = &llm.Schema{
	Name: "numeric-question",
	Definition: map[string]any{
		"type": "object",
		"properties": func() map[string]any {
			p := baseProperties()
			p["numeric_rule"] = map[string]any{
				"type": "object",
				"properties": map[string]any{
					"correct_value": map[string]any{"type": "number"},
					"tolerance_pct": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
					"allowed_units": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []any{"correct_value", "tolerance_pct"},
			}
			return p
		}(),
		"required": []any{"statement", "explanation", "numeric_rule"},
	},
}

var choiceQuestionSchema = &llm.Schema{
	Name: "choice-question",
	Definition: map[string]any{
		"type": "object",
		"properties": func() map[string]any {
			p := baseProperties()
			p["choice_rule"] = map[string]any{
				"type": "object",
				"properties": map[string]any{
					"options": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "string"},
						"minItems": 2,
					},
					"correct_index": map[string]any{"type": "integer", "minimum": 0},
				},
				"required": []any{"options", "correct_index"},
			}
			return p
		}(),
		"required": []any{"statement", "explanation", "choice_rule"},
	},
}

var codeQuestionSchema = &llm.Schema{
	Name: "code-question",
	Definition: map[string]any{
		"type": "object",
		"properties": func() map[string]any {
			p := baseProperties()
			p["code_rule"] = map[string]any{
				"type": "object",
				"properties": map[string]any{
					"test_cases": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"input_data":      map[string]any{"type": "string"},
								"expected_output": map[string]any{"type": "string"},
								"is_hidden":       map[string]any{"type": "boolean"},
							},
							"required": []any{"input_data", "expected_output"},
						},
					},
				},
				"required": []any{"test_cases"},
			}
			return p
		}(),
		"required": []any{"statement", "explanation", "code_rule"},
	},
}

var openTextQuestionSchema = &llm.Schema{
	Name: "open-text-question",
	Definition: map[string]any{
		"type":       "object",
		"properties": baseProperties(),
		"required":   []any{"statement", "explanation"},
	},
}

// schemaFor returns the canonical schema for a question type.
func schemaFor(qt exam.QuestionType) *llm.Schema {
	switch qt {
	case exam.TypeNumericInput:
		return numericQuestionSchema
	case exam.TypeMultipleChoice:
		return choiceQuestionSchema
	case exam.TypeCodeEditor:
		return codeQuestionSchema
	default:
		return openTextQuestionSchema
	}
}
