package exam

import "strings"

// ParseDifficulty maps loose difficulty input (legacy names, Spanish
// labels, tier names) into the closed Difficulty set. Unknown input
// falls back to applied, matching the platform's historical default.
// This is the single place where difficulty text is interpreted;
// everything downstream works with the closed type.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fundamental", "easy", "facil", "fácil":
		return DifficultyFundamental
	case "applied", "medium", "medio":
		return DifficultyApplied
	case "complex", "hard", "dificil", "difícil":
		return DifficultyComplex
	case "gatekeeper":
		return DifficultyGatekeeper
	default:
		return DifficultyApplied
	}
}

// ParseCognitiveType maps loose cognitive-type input into the closed
// set. Unknown input falls back to computational.
func ParseCognitiveType(s string) CognitiveType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "computational", "procedural", "calculation":
		return CognitiveComputational
	case "conceptual", "interpretative":
		return CognitiveConceptual
	case "debugging":
		return CognitiveDebugging
	case "design", "design_analysis":
		return CognitiveDesign
	case "declarative", "factual":
		return CognitiveDeclarative
	default:
		return CognitiveComputational
	}
}

// ParseQuestionType maps loose question-type input into the closed set.
// Unknown input falls back to open_text, the least demanding variant.
func ParseQuestionType(s string) QuestionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric_input", "numeric", "numerical":
		return TypeNumericInput
	case "multiple_choice", "choice", "mc":
		return TypeMultipleChoice
	case "code_editor", "code":
		return TypeCodeEditor
	default:
		return TypeOpenText
	}
}

// ParseSubjectMode maps loose subject-mode input into the closed set.
// Unknown input falls back to quantitative (the engineering default).
func ParseSubjectMode(s string) SubjectMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qualitative", "humanities":
		return ModeQualitative
	default:
		return ModeQuantitative
	}
}
