package store

import (
	"context"
	"time"

	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/retrieval"
)

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit   int    // max results (0 = default 50)
	Purpose string // filter by purpose label ("" = all)
}

// LLMRequestEventData captures the data for a single oracle call event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	CostUSD      float64
	Success      bool
	ErrorMessage string
}

// LLMEventRecord is a stored oracle call event.
type LLMEventRecord struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStat aggregates oracle calls per purpose label.
type LLMUsageStat struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates oracle calls and recorded cost per model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// EventRepo records and queries oracle call events.
type EventRepo interface {
	// AppendLLMRequest records an oracle API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// LLMUsageByPurpose aggregates token usage grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error)

	// LLMUsageByModel aggregates token usage and cost grouped by model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}

// GradingRecord is a stored grading pass for one exam submission.
type GradingRecord struct {
	ID        int64
	ExamID    string
	StudentID string
	CreatedAt time.Time
	Payload   []byte // serialized grader result
}

// ExamRepo persists assembled exams and grading results.
type ExamRepo interface {
	SaveExam(ctx context.Context, e *exam.Exam) error
	GetExam(ctx context.Context, id string) (*exam.Exam, error)
	ListExams(ctx context.Context, courseID string, limit int) ([]*exam.Exam, error)

	SaveGrading(ctx context.Context, examID, studentID string, payload []byte) error
	ListGradings(ctx context.Context, examID string) ([]GradingRecord, error)
}

// SnippetRepo stores course material snippets and serves them as a
// retrieval.Retriever. Matching is plain keyword scoping, not vector
// similarity; production injects a real retriever instead.
type SnippetRepo interface {
	retrieval.Retriever

	Put(ctx context.Context, id, courseID, topicID, content string) error
}
