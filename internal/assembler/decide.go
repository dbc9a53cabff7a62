package assembler

import (
	"strings"

	"github.com/dmoreno/examgen/internal/exam"
)

// codeTopicMarkers flags topics where a code question makes sense.
// The match is a plain substring check on the lowercased topic text.
var codeTopicMarkers = []string{
	"code", "coding", "program", "algorithm", "function",
	"recursion", "debug", "script", "compiler", "parser",
	"data structure", "sql", "python", "java", "software",
}

// DecideType maps a slot's cognitive target and topic to the question
// type the oracle will be asked for.
//
// Code questions need both a computational or debugging target and a
// topic that plausibly involves code. Conceptual targets get multiple
// choice. Everything else is numeric input.
func DecideType(cognitive exam.CognitiveType, topic string) exam.QuestionType {
	switch cognitive {
	case exam.CognitiveComputational, exam.CognitiveDebugging:
		if topicInvolvesCode(topic) {
			return exam.TypeCodeEditor
		}
	case exam.CognitiveConceptual:
		return exam.TypeMultipleChoice
	}
	return exam.TypeNumericInput
}

func topicInvolvesCode(topic string) bool {
	t := strings.ToLower(topic)
	for _, marker := range codeTopicMarkers {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}
