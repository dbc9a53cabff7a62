package grader

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/oracle"
)

type stubEvaluator struct {
	mu    sync.Mutex
	calls int
	eval  *oracle.ReasoningEvaluation
	err   error
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ oracle.EvaluationInput) (*oracle.ReasoningEvaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.eval, nil
}

func (s *stubEvaluator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingCache signals on Set so fire-and-forget writes can be
// observed without racing.
type recordingCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	sets  chan string
	fail  bool
}

func newRecordingCache() *recordingCache {
	return &recordingCache{data: map[string][]byte{}, sets: make(chan string, 8)}
}

func (c *recordingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.fail {
		return nil, false, errors.New("cache down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *recordingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if c.fail {
		return errors.New("cache down")
	}
	c.mu.Lock()
	c.data[key] = value
	c.mu.Unlock()
	c.sets <- key
	return nil
}

func examWith(questions ...exam.GeneratedQuestion) *exam.Exam {
	return &exam.Exam{ID: "e1", Questions: questions, Status: exam.ExamReady}
}

func procedureAnswer(value float64, unit, procedure string) exam.StudentAnswer {
	return exam.StudentAnswer{
		QuestionID:   "q-speed",
		NumericValue: &value,
		Unit:         unit,
		Procedure:    procedure,
	}
}

func TestGradeExam_ComputedOnly(t *testing.T) {
	ev := &stubEvaluator{}
	e := New(ev, nil, DefaultConfig())

	res, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{numericAnswer(20.0, "m/s")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalScore != 100 {
		t.Errorf("expected 100%%, got %.2f", res.TotalScore)
	}
	if res.XPEarned != 150 {
		t.Errorf("expected 150 XP, got %d", res.XPEarned)
	}
	if res.Meta.ComputedCount != 1 || res.Meta.AIUsageCount != 0 {
		t.Errorf("unexpected meta: %+v", res.Meta)
	}
	if ev.callCount() != 0 {
		t.Error("perfect fast-path score must not reach the oracle")
	}
}

func TestGradeExam_EscalationGate(t *testing.T) {
	ev := &stubEvaluator{eval: &oracle.ReasoningEvaluation{AdjustedScore: 90, FeedbackText: "close"}}
	e := New(ev, nil, DefaultConfig())

	// Wrong value but trivial procedure: gate stays closed.
	_, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{procedureAnswer(30.0, "m/s", "v=d")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.callCount() != 0 {
		t.Error("procedure of 5 or fewer chars must not escalate")
	}

	// Same answer with real working: gate opens.
	_, err = e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{procedureAnswer(30.0, "m/s", "v = d/t = 100/3.3")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.callCount() != 1 {
		t.Errorf("expected 1 oracle call, got %d", ev.callCount())
	}
}

func TestGradeExam_BenevolenceMerge(t *testing.T) {
	cases := []struct {
		name      string
		aiScore   float64
		wantScore float64
	}{
		{"ai raises", 80, 80},
		{"ai cannot lower", 20, 50},
		{"ai full credit", 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := &stubEvaluator{eval: &oracle.ReasoningEvaluation{
				ErrorType:     oracle.ErrorMinorSlip,
				AdjustedScore: tc.aiScore,
				FeedbackText:  "reviewed",
			}}
			e := New(ev, nil, DefaultConfig())

			// Right value, wrong unit: fast path gives 50.
			res, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
				[]exam.StudentAnswer{procedureAnswer(20.0, "km/h", "v = d/t = 100/5 = 20")})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			d := res.Details[0]
			if d.Score != tc.wantScore {
				t.Errorf("expected %.0f, got %.0f", tc.wantScore, d.Score)
			}
			if d.Source != exam.SourceAI {
				t.Errorf("expected ai source, got %s", d.Source)
			}
			wantStatus := exam.StatusPartial
			if tc.wantScore == 100 {
				wantStatus = exam.StatusCorrect
			}
			if d.Status != wantStatus {
				t.Errorf("expected %s, got %s", wantStatus, d.Status)
			}
		})
	}
}

func TestGradeExam_OracleFailureFallsBack(t *testing.T) {
	ev := &stubEvaluator{err: errors.New("oracle down")}
	e := New(ev, nil, DefaultConfig())

	res, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{procedureAnswer(20.0, "km/h", "v = d/t = 100/5 = 20")})
	if err != nil {
		t.Fatalf("oracle failure must not surface: %v", err)
	}
	d := res.Details[0]
	if d.Score != 50 {
		t.Errorf("benevolence holds on failure: expected fast-path 50, got %.0f", d.Score)
	}
	if d.Source != exam.SourceFallback {
		t.Errorf("expected fallback source, got %s", d.Source)
	}
	if d.FeedbackText == "" || d.FeedbackText[len(d.FeedbackText)-1] != ')' {
		t.Errorf("expected appended unavailable note, got %q", d.FeedbackText)
	}
	if res.Meta.FallbackCount != 1 {
		t.Errorf("unexpected meta: %+v", res.Meta)
	}
}

func TestGradeExam_CacheHitShortCircuits(t *testing.T) {
	c := newRecordingCache()
	cached := exam.FeedbackDetail{
		QuestionID:   "q-speed",
		Score:        85,
		Status:       exam.StatusPartial,
		FeedbackText: "from an earlier pass",
		Source:       exam.SourceAI,
	}
	payload, _ := json.Marshal(cached)
	c.data[verdictKey("q-speed", "v = d/t = 100/5 = 20")] = payload

	ev := &stubEvaluator{eval: &oracle.ReasoningEvaluation{AdjustedScore: 10}}
	e := New(ev, c, DefaultConfig())

	res, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{procedureAnswer(20.0, "km/h", "v = d/t = 100/5 = 20")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := res.Details[0]
	if d.Score != 85 || d.Source != exam.SourceCache {
		t.Errorf("expected cached verdict, got %+v", d)
	}
	if ev.callCount() != 0 {
		t.Error("cache hit must skip the oracle")
	}
	if res.Meta.CacheHitCount != 1 {
		t.Errorf("unexpected meta: %+v", res.Meta)
	}
}

func TestGradeExam_VerdictIsCached(t *testing.T) {
	c := newRecordingCache()
	ev := &stubEvaluator{eval: &oracle.ReasoningEvaluation{AdjustedScore: 70, FeedbackText: "ok"}}
	e := New(ev, c, DefaultConfig())

	_, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{procedureAnswer(20.0, "km/h", "v = d/t = 100/5 = 20")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case key := <-c.sets:
		if key != verdictKey("q-speed", "v = d/t = 100/5 = 20") {
			t.Errorf("unexpected cache key: %s", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("verdict was never written to the cache")
	}
}

func TestGradeExam_CacheFailureIgnored(t *testing.T) {
	c := newRecordingCache()
	c.fail = true
	ev := &stubEvaluator{eval: &oracle.ReasoningEvaluation{AdjustedScore: 70, FeedbackText: "ok"}}
	e := New(ev, c, DefaultConfig())

	res, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{procedureAnswer(20.0, "km/h", "v = d/t = 100/5 = 20")})
	if err != nil {
		t.Fatalf("cache failure must be swallowed: %v", err)
	}
	if res.Details[0].Score != 70 {
		t.Errorf("expected ai verdict despite cache failure, got %+v", res.Details[0])
	}
}

func TestGradeExam_Aggregation(t *testing.T) {
	q2 := speedQuestion()
	q2.ID = "q2"

	ev := &stubEvaluator{}
	e := New(ev, nil, DefaultConfig())

	v1, v2 := 20.0, 20.0
	answers := []exam.StudentAnswer{
		{QuestionID: "q-speed", NumericValue: &v1, Unit: "m/s"},
		{QuestionID: "q2", NumericValue: &v2, Unit: "km/h"},
	}
	res, err := e.GradeExam(context.Background(), examWith(speedQuestion(), q2), answers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100 + 50 over 200 possible.
	if res.TotalScore != 75 {
		t.Errorf("expected 75%%, got %.2f", res.TotalScore)
	}
	if res.XPEarned != 7*15 {
		t.Errorf("expected 105 XP, got %d", res.XPEarned)
	}
	if len(res.Details) != 2 {
		t.Errorf("expected 2 details, got %d", len(res.Details))
	}
}

func TestGradeExam_UnknownAnswerIgnored(t *testing.T) {
	e := New(&stubEvaluator{}, nil, DefaultConfig())

	v := 20.0
	res, err := e.GradeExam(context.Background(), examWith(speedQuestion()),
		[]exam.StudentAnswer{{QuestionID: "ghost", NumericValue: &v}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Details) != 0 {
		t.Errorf("unknown question ids must be skipped, got %+v", res.Details)
	}
	if res.TotalScore != 0 {
		t.Errorf("expected 0%%, got %.2f", res.TotalScore)
	}
}

func TestGradeExam_EmptyExam(t *testing.T) {
	e := New(&stubEvaluator{}, nil, DefaultConfig())
	if _, err := e.GradeExam(context.Background(), &exam.Exam{}, nil); err == nil {
		t.Error("expected error for empty exam")
	}
}
