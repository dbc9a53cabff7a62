package grader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmoreno/examgen/internal/exam"
)

const (
	maxScore = 100.0

	// toleranceEpsilon is the absolute window used when the correct
	// value is exactly zero, where relative tolerance degenerates.
	toleranceEpsilon = 1e-9

	// unitPenalty is deducted when the value is right but the unit is
	// not on the allowed list.
	unitPenalty = 50.0
)

// gradeFast is the deterministic path. It fully grades numeric
// questions; every other type scores 0 pending review.
func gradeFast(q exam.GeneratedQuestion, ans exam.StudentAnswer) exam.FeedbackDetail {
	display := correctDisplay(q)

	resp := func(score float64, status exam.FeedbackStatus, text string) exam.FeedbackDetail {
		return exam.FeedbackDetail{
			QuestionID:      q.ID,
			Score:           score,
			Status:          status,
			FeedbackText:    text,
			CorrectSolution: display,
			Source:          exam.SourceComputed,
		}
	}

	if q.Type != exam.TypeNumericInput || q.Rule.Numeric == nil {
		return resp(0, exam.StatusPending, "This question type needs review.")
	}

	rule := q.Rule.Numeric
	if ans.NumericValue == nil {
		return resp(0, exam.StatusIncorrect, "No numeric answer was given.")
	}
	userVal := *ans.NumericValue

	var close bool
	if rule.CorrectValue == 0 {
		close = math.Abs(userVal) < toleranceEpsilon
	} else {
		close = math.Abs(userVal-rule.CorrectValue) <= math.Abs(rule.CorrectValue*rule.TolerancePct/100.0)
	}
	if !close {
		return resp(0, exam.StatusIncorrect, "The numeric value does not match the solution.")
	}

	if len(rule.AllowedUnits) > 0 && !unitAllowed(ans.Unit, rule.AllowedUnits) {
		text := fmt.Sprintf("Correct value, but wrong unit (expected %s).", rule.AllowedUnits[0])
		return resp(maxScore-unitPenalty, exam.StatusPartial, text)
	}

	return resp(maxScore, exam.StatusCorrect, "Exact result.")
}

func unitAllowed(unit string, allowed []string) bool {
	u := strings.ToLower(strings.TrimSpace(unit))
	for _, a := range allowed {
		if u == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// correctDisplay renders the expected solution for feedback.
func correctDisplay(q exam.GeneratedQuestion) string {
	if q.Rule.Numeric == nil {
		return ""
	}
	s := strconv.FormatFloat(q.Rule.Numeric.CorrectValue, 'g', -1, 64)
	if len(q.Rule.Numeric.AllowedUnits) > 0 {
		s += " " + q.Rule.Numeric.AllowedUnits[0]
	}
	return s
}
