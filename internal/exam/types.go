package exam

import "time"

// Difficulty is the closed set of difficulty tiers.
// Raw text arriving from callers or the oracle is mapped into this set
// once, at the boundary, via ParseDifficulty.
type Difficulty string

const (
	DifficultyFundamental Difficulty = "fundamental"
	DifficultyApplied     Difficulty = "applied"
	DifficultyComplex     Difficulty = "complex"
	DifficultyGatekeeper  Difficulty = "gatekeeper"
)

// CognitiveType classifies what kind of thinking a question demands.
type CognitiveType string

const (
	CognitiveComputational CognitiveType = "computational"
	CognitiveConceptual    CognitiveType = "conceptual"
	CognitiveDebugging     CognitiveType = "debugging"
	CognitiveDesign        CognitiveType = "design"
	CognitiveDeclarative   CognitiveType = "declarative"
)

// QuestionType is how the student answers a question.
type QuestionType string

const (
	TypeNumericInput   QuestionType = "numeric_input"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeCodeEditor     QuestionType = "code_editor"
	TypeOpenText       QuestionType = "open_text"
)

// SubjectMode splits courses into the two broad families that drive
// cognitive-type assignment during blueprinting.
type SubjectMode string

const (
	ModeQuantitative SubjectMode = "quantitative" // math, physics, programming
	ModeQualitative  SubjectMode = "qualitative"  // history, law, humanities
)

// ExamStatus tracks the lifecycle of an assembled exam.
type ExamStatus string

const (
	ExamReady   ExamStatus = "ready"   // all requested questions generated
	ExamPartial ExamStatus = "partial" // above threshold but short of the request
)

// TestCase is one input/output pair for a code question.
type TestCase struct {
	Input    string `json:"input_data"`
	Expected string `json:"expected_output"`
	Hidden   bool   `json:"is_hidden"`
}

// NumericRule validates a numeric_input answer.
type NumericRule struct {
	CorrectValue float64  `json:"correct_value"`
	TolerancePct float64  `json:"tolerance_pct"`
	AllowedUnits []string `json:"allowed_units,omitempty"`
}

// ChoiceRule validates a multiple_choice answer.
type ChoiceRule struct {
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// CodeRule validates a code_editor answer.
type CodeRule struct {
	TestCases []TestCase `json:"test_cases"`
}

// ValidationRule is the tagged variant attached to a question.
// Exactly one branch is set for numeric, choice, and code questions;
// all branches are nil for open_text.
type ValidationRule struct {
	Numeric *NumericRule `json:"numeric,omitempty"`
	Choice  *ChoiceRule  `json:"choice,omitempty"`
	Code    *CodeRule    `json:"code,omitempty"`
}

// Kind reports the question type this rule validates.
func (r ValidationRule) Kind() QuestionType {
	switch {
	case r.Numeric != nil:
		return TypeNumericInput
	case r.Choice != nil:
		return TypeMultipleChoice
	case r.Code != nil:
		return TypeCodeEditor
	default:
		return TypeOpenText
	}
}

// Matches reports whether the rule variant is the right one for t.
func (r ValidationRule) Matches(t QuestionType) bool {
	return r.Kind() == t
}

// GeneratedQuestion is one validated exam question.
// Immutable once created; it lives for the exam's lifetime.
type GeneratedQuestion struct {
	ID            string         `json:"id"`
	SlotIndex     int            `json:"slot_index"`
	Statement     string         `json:"statement"`
	Type          QuestionType   `json:"question_type"`
	Difficulty    Difficulty     `json:"difficulty"`
	Cognitive     CognitiveType  `json:"cognitive_type"`
	Points        float64        `json:"points"`
	Rule          ValidationRule `json:"validation_rule"`
	Explanation   string         `json:"explanation"`
	Hint          string         `json:"hint,omitempty"`
	SourceBlockID string         `json:"source_block_id"`
}

// ExamConfig is the caller's request for one exam.
type ExamConfig struct {
	StudentID    string      `json:"student_id"`
	CourseID     string      `json:"course_id"`
	NumQuestions int         `json:"num_questions"`
	Difficulty   Difficulty  `json:"difficulty"`
	SubjectMode  SubjectMode `json:"subject_mode"`
	Topics       []string    `json:"topics"`                 // full topic pool
	FocusTopics  []string    `json:"focus_topics,omitempty"` // optional emphasis list
	TargetScore  float64     `json:"target_score"`
}

// Exam is the assembled, validated output.
// Questions may be fewer than requested when some slots failed but the
// batch stayed above the acceptance threshold.
type Exam struct {
	ID        string              `json:"id"`
	Config    ExamConfig          `json:"config_snapshot"`
	Questions []GeneratedQuestion `json:"questions"`
	Status    ExamStatus          `json:"status"`
	Model     string              `json:"ai_model_used,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// StudentAnswer is one submitted answer. Which fields are set depends
// on the question type; Procedure is the optional free-text working.
type StudentAnswer struct {
	QuestionID     string   `json:"question_id"`
	NumericValue   *float64 `json:"numeric_value,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	SelectedOption *int     `json:"selected_option,omitempty"`
	CodeSubmission string   `json:"code_submission,omitempty"`
	Procedure      string   `json:"procedure,omitempty"`
}

// FeedbackStatus is the per-question verdict.
type FeedbackStatus string

const (
	StatusCorrect   FeedbackStatus = "correct"
	StatusIncorrect FeedbackStatus = "incorrect"
	StatusPartial   FeedbackStatus = "partial"
	StatusPending   FeedbackStatus = "pending"
)

// FeedbackSource records which path produced a FeedbackDetail.
type FeedbackSource string

const (
	SourceComputed FeedbackSource = "computed"
	SourceAI       FeedbackSource = "ai"
	SourceCache    FeedbackSource = "cache"
	SourceFallback FeedbackSource = "fallback"
)

// FeedbackDetail is the graded result for one submitted answer.
// Score is always within [0,100].
type FeedbackDetail struct {
	QuestionID      string         `json:"question_id"`
	Score           float64        `json:"score"`
	Status          FeedbackStatus `json:"status"`
	FeedbackText    string         `json:"feedback_text"`
	CorrectSolution string         `json:"correct_solution,omitempty"`
	Source          FeedbackSource `json:"source"`
}
