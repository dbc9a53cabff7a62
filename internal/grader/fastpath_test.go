package grader

import (
	"testing"

	"github.com/dmoreno/examgen/internal/exam"
)

func speedQuestion() exam.GeneratedQuestion {
	return exam.GeneratedQuestion{
		ID:        "q-speed",
		Statement: "A car covers 100 m in 5 s. Find its speed.",
		Type:      exam.TypeNumericInput,
		Rule: exam.ValidationRule{
			Numeric: &exam.NumericRule{
				CorrectValue: 20.0,
				TolerancePct: 5.0,
				AllowedUnits: []string{"m/s"},
			},
		},
	}
}

func numericAnswer(value float64, unit string) exam.StudentAnswer {
	return exam.StudentAnswer{QuestionID: "q-speed", NumericValue: &value, Unit: unit}
}

func TestFastPath_ExactValueAllowedUnit(t *testing.T) {
	d := gradeFast(speedQuestion(), numericAnswer(20.0, "m/s"))
	if d.Score != 100 || d.Status != exam.StatusCorrect || d.Source != exam.SourceComputed {
		t.Errorf("unexpected detail: %+v", d)
	}
}

func TestFastPath_WithinTolerance(t *testing.T) {
	// 5% of 20 is 1.0, so 19.0 is on the edge and counts.
	d := gradeFast(speedQuestion(), numericAnswer(19.0, "m/s"))
	if d.Score != 100 || d.Status != exam.StatusCorrect {
		t.Errorf("edge of tolerance must pass: %+v", d)
	}
}

func TestFastPath_WrongUnitPenalty(t *testing.T) {
	d := gradeFast(speedQuestion(), numericAnswer(19.0, "km/h"))
	if d.Score != 50 || d.Status != exam.StatusPartial {
		t.Errorf("expected 50/partial, got %+v", d)
	}
}

func TestFastPath_UnitCaseInsensitive(t *testing.T) {
	d := gradeFast(speedQuestion(), numericAnswer(20.0, " M/S "))
	if d.Score != 100 {
		t.Errorf("unit match must ignore case and spacing: %+v", d)
	}
}

func TestFastPath_OutsideToleranceIgnoresUnit(t *testing.T) {
	d := gradeFast(speedQuestion(), numericAnswer(25.0, "m/s"))
	if d.Score != 0 || d.Status != exam.StatusIncorrect {
		t.Errorf("expected 0/incorrect, got %+v", d)
	}
}

func TestFastPath_MissingNumericValue(t *testing.T) {
	d := gradeFast(speedQuestion(), exam.StudentAnswer{QuestionID: "q-speed"})
	if d.Score != 0 || d.Status != exam.StatusIncorrect {
		t.Errorf("expected 0/incorrect, got %+v", d)
	}
}

func TestFastPath_ZeroCorrectValueEpsilon(t *testing.T) {
	q := speedQuestion()
	q.Rule.Numeric.CorrectValue = 0
	q.Rule.Numeric.AllowedUnits = nil

	d := gradeFast(q, numericAnswer(0.0, ""))
	if d.Score != 100 {
		t.Errorf("exact zero must pass: %+v", d)
	}

	d = gradeFast(q, numericAnswer(0.001, ""))
	if d.Score != 0 {
		t.Errorf("relative tolerance must not apply at zero: %+v", d)
	}
}

func TestFastPath_NoUnitListSkipsUnitCheck(t *testing.T) {
	q := speedQuestion()
	q.Rule.Numeric.AllowedUnits = nil

	d := gradeFast(q, numericAnswer(20.0, "furlongs"))
	if d.Score != 100 {
		t.Errorf("empty unit list must not penalize: %+v", d)
	}
}

func TestFastPath_UnsupportedTypePending(t *testing.T) {
	q := exam.GeneratedQuestion{
		ID:   "q-mc",
		Type: exam.TypeMultipleChoice,
		Rule: exam.ValidationRule{Choice: &exam.ChoiceRule{Options: []string{"a", "b"}, CorrectIndex: 0}},
	}
	sel := 0
	d := gradeFast(q, exam.StudentAnswer{QuestionID: "q-mc", SelectedOption: &sel})
	if d.Score != 0 || d.Status != exam.StatusPending {
		t.Errorf("expected 0/pending, got %+v", d)
	}
}

func TestFastPath_Idempotent(t *testing.T) {
	q := speedQuestion()
	ans := numericAnswer(19.0, "km/h")
	first := gradeFast(q, ans)
	second := gradeFast(q, ans)
	if first != second {
		t.Errorf("fast path must be idempotent: %+v vs %+v", first, second)
	}
}

func TestCorrectDisplay(t *testing.T) {
	if got := correctDisplay(speedQuestion()); got != "20 m/s" {
		t.Errorf("unexpected display: %q", got)
	}
}
