package oracle

import (
	"fmt"
	"strings"

	"github.com/dmoreno/examgen/internal/exam"
)

const examinerPrompt = `You are a senior engineer and university professor writing exam questions.

Rules:
- Design exactly one engineering exam question for the given topic, difficulty, and cognitive type.
- Be rigorous with SI units; be didactic in the explanation.
- Ground the question in the provided source material. If the material does not cover the topic, say so in your reasoning and fall back to standard curriculum content.
- Fill "chain_of_thought" first: verify source coverage, solve the problem yourself, and justify any distractors.
- Numeric questions must have a unique solution. Work it out step by step internally, then state the value, a tolerance between 2 and 5 percent, and the accepted units.
- Code questions need a clear function signature and test cases covering edge inputs (nulls, zeros, negatives).
- Multiple choice questions have exactly one correct option. Distractors must reflect common conceptual mistakes, not random values.
- Respond with a single JSON object and nothing else.`

// buildGenerationMessage constructs the examiner user message for one slot.
func buildGenerationMessage(in GenerationInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", in.Topic)
	fmt.Fprintf(&b, "Difficulty: %s (worth %.2f pts)\n", strings.ToUpper(string(in.Difficulty)), in.Points)
	fmt.Fprintf(&b, "Question type: %s\n", strings.ToUpper(string(in.Type)))
	fmt.Fprintf(&b, "Cognitive focus: %s\n", strings.ToUpper(string(in.Cognitive)))

	b.WriteString("\nSource material:\n\"\"\"\n")
	if in.Context == "" {
		b.WriteString("(none retrieved)")
	} else {
		b.WriteString(in.Context)
	}
	b.WriteString("\n\"\"\"\n")

	b.WriteString("\nRequired fields: chain_of_thought, statement_latex, explanation, hint.\n")
	b.WriteString(structureHint(in.Type))

	return b.String()
}

// structureHint reminds the model which type-specific fields to emit.
func structureHint(t exam.QuestionType) string {
	switch t {
	case exam.TypeNumericInput:
		return "Type-specific fields: numeric_solution, tolerance_percent, units."
	case exam.TypeCodeEditor:
		return "Type-specific fields: code_context, test_cases (input/expected_output/is_hidden)."
	case exam.TypeMultipleChoice:
		return "Type-specific fields: options, correct_option_index (0-based)."
	default:
		return "No type-specific fields; the statement and explanation carry the full question."
	}
}

const evaluatorPrompt = `You are a senior engineer and university professor grading a student's written work.

Rules:
- The student's numeric answer was outside tolerance. Your job is to judge the procedure, not just the final value.
- Classify the error: calculation_error, conceptual_error, unit_error, minor_slip, or correct.
- A sound procedure with a small arithmetic slip deserves substantial partial credit. A conceptually wrong approach does not, even if intermediate steps look neat.
- adjusted_score_percentage is the score you would award out of 100.
- feedback_text is short, pedagogical, and addressed to the student. Point at the step where things went wrong.`

// buildEvaluationMessage constructs the evaluator user message.
func buildEvaluationMessage(in EvaluationInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question:\n%s\n", in.Statement)
	fmt.Fprintf(&b, "\nExpected solution: %s\n", in.CorrectDisplay)
	fmt.Fprintf(&b, "Student's answer: %s\n", in.SubmittedValue)

	b.WriteString("\nStudent's procedure:\n\"\"\"\n")
	if in.Procedure == "" {
		b.WriteString("(not provided)")
	} else {
		b.WriteString(in.Procedure)
	}
	b.WriteString("\n\"\"\"")

	return b.String()
}
