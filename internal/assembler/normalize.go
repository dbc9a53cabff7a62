package assembler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmoreno/examgen/internal/exam"
)

// The generation oracle's reply shape drifts between providers and
// model versions. This file owns all of that: Unwrap peels off the
// container forms (JSON string, markdown fence, {questions:[...]}
// wrapper) and Normalize collapses field aliases into one canonical
// document. Schema validation never sees a drifted shape.

var errEmptyReply = errors.New("oracle reply is empty")

// statementAliases are the keys the statement has been observed under,
// in lookup order. The value may itself be an object holding the
// statement one level deeper.
var statementAliases = []string{"statement_latex", "statement", "question", "question_text", "content"}

// Unwrap peels container forms off the raw oracle reply until a single
// question object remains.
func Unwrap(raw json.RawMessage) (map[string]any, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, errEmptyReply
	}

	// A reply may nest containers (a fenced block holding a JSON string
	// holding the wrapper). Peel one layer per pass, bounded.
	for depth := 0; depth < 4; depth++ {
		text = stripFence(text)

		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, fmt.Errorf("unparseable oracle reply: %w", err)
		}

		switch t := v.(type) {
		case string:
			text = strings.TrimSpace(t)
			continue
		case map[string]any:
			if qs, ok := t["questions"].([]any); ok {
				if len(qs) == 0 {
					return nil, errors.New("questions wrapper is empty")
				}
				obj, ok := qs[0].(map[string]any)
				if !ok {
					return nil, errors.New("questions wrapper holds a non-object")
				}
				return obj, nil
			}
			return t, nil
		default:
			return nil, fmt.Errorf("oracle reply is %T, expected an object", v)
		}
	}
	return nil, errors.New("oracle reply nested too deep")
}

// stripFence removes a surrounding markdown code fence if present.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json") on the opening fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Normalize collapses field drift in doc into the canonical shape for
// the given question type. Missing fields stay missing; the schema
// pass decides what is fatal.
func Normalize(doc map[string]any, qt exam.QuestionType) map[string]any {
	out := map[string]any{}

	if s, ok := findStatement(doc); ok {
		out["statement"] = s
	}
	if s, ok := stringField(doc, "explanation"); ok {
		out["explanation"] = s
	}
	if s, ok := stringField(doc, "hint"); ok {
		out["hint"] = s
	}

	switch qt {
	case exam.TypeNumericInput:
		if r := numericRule(doc); r != nil {
			out["numeric_rule"] = r
		}
	case exam.TypeMultipleChoice:
		if r := choiceRule(doc); r != nil {
			out["choice_rule"] = r
		}
	case exam.TypeCodeEditor:
		if r := codeRule(doc); r != nil {
			out["code_rule"] = r
		}
	}

	return out
}

// OpenTextVariant strips type-specific data so the document can be
// retried as an open-text question.
func OpenTextVariant(doc map[string]any) map[string]any {
	out := map[string]any{}
	for _, k := range []string{"statement", "explanation", "hint"} {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out
}

// findStatement scans the aliases at the top level, then one level
// inside any object found under an alias.
func findStatement(doc map[string]any) (string, bool) {
	for _, key := range statementAliases {
		switch v := doc[key].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case map[string]any:
			for _, inner := range statementAliases {
				if s, ok := v[inner].(string); ok && s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}

// numericRule collapses the flat and nested numeric forms.
// Flat:   numeric_solution, tolerance_percent, units
// Nested: numeric_rule{correct_value, tolerance_percentage, allowed_units}
func numericRule(doc map[string]any) map[string]any {
	out := map[string]any{}

	if nested, ok := doc["numeric_rule"].(map[string]any); ok {
		if v, ok := floatField(nested, "correct_value", "numeric_solution"); ok {
			out["correct_value"] = v
		}
		if v, ok := floatField(nested, "tolerance_percentage", "tolerance_percent", "tolerance_pct"); ok {
			out["tolerance_pct"] = v
		}
		out["allowed_units"] = stringSlice(nested, "allowed_units", "units")
	} else {
		if v, ok := floatField(doc, "numeric_solution", "correct_value"); ok {
			out["correct_value"] = v
		}
		if v, ok := floatField(doc, "tolerance_percent", "tolerance_percentage", "tolerance_pct"); ok {
			out["tolerance_pct"] = v
		}
		out["allowed_units"] = stringSlice(doc, "units", "allowed_units")
	}

	if _, ok := out["correct_value"]; !ok {
		return nil
	}
	return out
}

// choiceRule collapses the flat and nested multiple-choice forms.
func choiceRule(doc map[string]any) map[string]any {
	src := doc
	if nested, ok := doc["choice_rule"].(map[string]any); ok {
		src = nested
	}

	opts := stringSlice(src, "options", "choices")
	if len(opts) == 0 {
		return nil
	}

	out := map[string]any{"options": opts}
	if v, ok := floatField(src, "correct_index", "correct_option_index"); ok {
		out["correct_index"] = int(v)
	}
	return out
}

// codeRule collapses the two code forms: a flat test_cases list of
// objects, or parallel test_inputs/expected_outputs arrays inside
// code_rule.
func codeRule(doc map[string]any) map[string]any {
	if nested, ok := doc["code_rule"].(map[string]any); ok {
		inputs := stringSlice(nested, "test_inputs")
		outputs := stringSlice(nested, "expected_outputs")
		if len(inputs) == 0 || len(inputs) != len(outputs) {
			return nil
		}
		cases := make([]any, len(inputs))
		for i := range inputs {
			cases[i] = map[string]any{
				"input_data":      inputs[i],
				"expected_output": outputs[i],
				"is_hidden":       false,
			}
		}
		return map[string]any{"test_cases": cases}
	}

	rawCases, ok := doc["test_cases"].([]any)
	if !ok || len(rawCases) == 0 {
		return nil
	}
	cases := make([]any, 0, len(rawCases))
	for _, rc := range rawCases {
		m, ok := rc.(map[string]any)
		if !ok {
			return nil
		}
		in, okIn := stringField(m, "input_data", "input")
		outVal, okOut := stringField(m, "expected_output", "output", "expected")
		if !okIn || !okOut {
			return nil
		}
		hidden, _ := m["is_hidden"].(bool)
		if h, ok := m["hidden"].(bool); ok {
			hidden = h
		}
		cases = append(cases, map[string]any{
			"input_data":      in,
			"expected_output": outVal,
			"is_hidden":       hidden,
		})
	}
	return map[string]any{"test_cases": cases}
}

func stringField(doc map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func floatField(doc map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case float64:
			return v, true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// stringSlice reads the first present key as a []string, coercing
// numeric members to their JSON text.
func stringSlice(doc map[string]any, keys ...string) []any {
	for _, k := range keys {
		raw, ok := doc[k].([]any)
		if !ok {
			continue
		}
		out := make([]any, 0, len(raw))
		for _, item := range raw {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case float64:
				out = append(out, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), "."))
			}
		}
		return out
	}
	return []any{}
}
