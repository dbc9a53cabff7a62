package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dmoreno/examgen/internal/blueprint"
	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/oracle"
	"github.com/dmoreno/examgen/internal/retrieval"
)

// scriptedGenerator returns canned replies per topic, FIFO. Safe for
// the assembler's concurrent fan-out.
type scriptedGenerator struct {
	mu      sync.Mutex
	byTopic map[string][]oracleReply
	calls   int
}

type oracleReply struct {
	content json.RawMessage
	err     error
}

func (g *scriptedGenerator) GenerateQuestion(_ context.Context, in oracle.GenerationInput) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	queue := g.byTopic[in.Topic]
	if len(queue) == 0 {
		return nil, errors.New("no scripted reply")
	}
	reply := queue[0]
	g.byTopic[in.Topic] = queue[1:]
	return reply.content, reply.err
}

func validNumericReply() json.RawMessage {
	return json.RawMessage(`{
		"statement_latex": "A car covers 100 m in 5 s. Find its speed in m/s.",
		"explanation": "v = d/t = 100/5 = 20 m/s.",
		"hint": "Distance over time.",
		"numeric_solution": 20.0,
		"tolerance_percent": 5.0,
		"units": ["m/s"]
	}`)
}

func numericSlot(index int, topic string) blueprint.Slot {
	return blueprint.Slot{
		Index:      index,
		Difficulty: exam.DifficultyApplied,
		TopicID:    topic,
		Points:     2.5,
		Cognitive:  exam.CognitiveComputational,
	}
}

func testExamConfig() exam.ExamConfig {
	return exam.ExamConfig{
		StudentID:   "s1",
		CourseID:    "physics-1",
		Difficulty:  exam.DifficultyApplied,
		SubjectMode: exam.ModeQuantitative,
		Topics:      []string{"Kinematics"},
		TargetScore: 10,
	}
}

func testRetriever() *retrieval.Static {
	return &retrieval.Static{
		ByTopic: map[string][]retrieval.Snippet{
			"Kinematics": {
				{ID: "b1", Text: "Velocity is the rate of change of position."},
				{ID: "b2", Text: "Average speed is total distance over total time."},
			},
		},
	}
}

func TestAssemble_AllSlotsSucceed(t *testing.T) {
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"Kinematics": {
			{content: validNumericReply()},
			{content: validNumericReply()},
			{content: validNumericReply()},
		},
	}}
	a := New(testRetriever(), gen, DefaultConfig())

	slots := []blueprint.Slot{
		numericSlot(0, "Kinematics"),
		numericSlot(1, "Kinematics"),
		numericSlot(2, "Kinematics"),
	}
	ex, err := a.Assemble(context.Background(), testExamConfig(), slots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Status != exam.ExamReady {
		t.Errorf("expected ready status, got %s", ex.Status)
	}
	if len(ex.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(ex.Questions))
	}

	q := ex.Questions[0]
	if q.Type != exam.TypeNumericInput {
		t.Errorf("expected numeric type, got %s", q.Type)
	}
	if q.Rule.Numeric == nil || q.Rule.Numeric.CorrectValue != 20.0 {
		t.Errorf("rule not mapped: %+v", q.Rule)
	}
	if !q.Rule.Matches(q.Type) {
		t.Error("rule variant must match question type")
	}
	if q.SourceBlockID != "b1" {
		t.Errorf("expected first snippet id, got %q", q.SourceBlockID)
	}
	if q.Points != 2.5 || q.Difficulty != exam.DifficultyApplied {
		t.Errorf("slot metadata not attached: %+v", q)
	}
	if q.ID == "" || ex.ID == "" {
		t.Error("ids must be assigned")
	}
}

func TestAssemble_RetryConsumesAttempts(t *testing.T) {
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"Kinematics": {
			{err: errors.New("oracle hiccup")},
			{content: json.RawMessage(`broken`)},
			{content: validNumericReply()},
		},
	}}
	a := New(testRetriever(), gen, DefaultConfig())

	ex, err := a.Assemble(context.Background(), testExamConfig(), []blueprint.Slot{numericSlot(0, "Kinematics")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.Questions) != 1 {
		t.Fatalf("expected recovery on third attempt, got %d questions", len(ex.Questions))
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls)
	}
}

func TestAssemble_QualityBar(t *testing.T) {
	// 5 slots, replies only for 3 topics: 60% success is below the bar.
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"t0": {{content: validNumericReply()}},
		"t1": {{content: validNumericReply()}},
		"t2": {{content: validNumericReply()}},
	}}
	a := New(&retrieval.Static{}, gen, DefaultConfig())

	slots := make([]blueprint.Slot, 5)
	for i := range slots {
		slots[i] = numericSlot(i, "t"+string(rune('0'+i)))
	}

	_, err := a.Assemble(context.Background(), testExamConfig(), slots)
	var bar *ErrQualityBar
	if !errors.As(err, &bar) {
		t.Fatalf("expected ErrQualityBar, got %v", err)
	}
	if bar.Requested != 5 || bar.Succeeded != 3 {
		t.Errorf("unexpected counts: %+v", bar)
	}
	if len(bar.SlotErrs) != 2 {
		t.Errorf("expected 2 slot errors, got %d", len(bar.SlotErrs))
	}
}

func TestAssemble_PartialExamAtThreshold(t *testing.T) {
	// 4 of 5 slots succeed: exactly 80%, which passes.
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"t0": {{content: validNumericReply()}},
		"t1": {{content: validNumericReply()}},
		"t2": {{content: validNumericReply()}},
		"t3": {{content: validNumericReply()}},
	}}
	a := New(&retrieval.Static{}, gen, DefaultConfig())

	slots := make([]blueprint.Slot, 5)
	for i := range slots {
		slots[i] = numericSlot(i, "t"+string(rune('0'+i)))
	}

	ex, err := a.Assemble(context.Background(), testExamConfig(), slots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.Questions) != 4 {
		t.Errorf("expected 4 questions, got %d", len(ex.Questions))
	}
	if ex.Status != exam.ExamPartial {
		t.Errorf("expected partial status, got %s", ex.Status)
	}
}

func TestAssemble_RetrievalFailureDegrades(t *testing.T) {
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"Kinematics": {{content: validNumericReply()}},
	}}
	a := New(&retrieval.Static{Err: errors.New("vector index down")}, gen, DefaultConfig())

	ex, err := a.Assemble(context.Background(), testExamConfig(), []blueprint.Slot{numericSlot(0, "Kinematics")})
	if err != nil {
		t.Fatalf("retrieval failure must not abort assembly: %v", err)
	}
	if ex.Questions[0].SourceBlockID != "unknown" {
		t.Errorf("expected unknown source, got %q", ex.Questions[0].SourceBlockID)
	}
}

func TestAssemble_OpenTextDegrade(t *testing.T) {
	// Statement and explanation are fine but the numeric rule is
	// missing: one-time degrade to open text instead of slot failure.
	reply := json.RawMessage(`{
		"statement": "Discuss the limits of the model.",
		"explanation": "Any reasoned answer qualifies."
	}`)
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"Kinematics": {{content: reply}},
	}}
	a := New(testRetriever(), gen, DefaultConfig())

	ex, err := a.Assemble(context.Background(), testExamConfig(), []blueprint.Slot{numericSlot(0, "Kinematics")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := ex.Questions[0]
	if q.Type != exam.TypeOpenText {
		t.Errorf("expected open_text degrade, got %s", q.Type)
	}
	if q.Rule.Kind() != exam.TypeOpenText {
		t.Errorf("degraded question must carry no rule: %+v", q.Rule)
	}
}

func TestAssemble_UnusableStatementFailsSlot(t *testing.T) {
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"Kinematics": {
			{content: json.RawMessage(`{"explanation": "no statement at all"}`)},
			{content: json.RawMessage(`{"explanation": "still nothing"}`)},
			{content: json.RawMessage(`{"explanation": "third strike"}`)},
		},
	}}
	a := New(testRetriever(), gen, DefaultConfig())

	_, err := a.Assemble(context.Background(), testExamConfig(), []blueprint.Slot{numericSlot(0, "Kinematics")})
	var bar *ErrQualityBar
	if !errors.As(err, &bar) {
		t.Fatalf("expected ErrQualityBar, got %v", err)
	}
}

func TestAssemble_NoSlots(t *testing.T) {
	a := New(&retrieval.Static{}, &scriptedGenerator{byTopic: map[string][]oracleReply{}}, DefaultConfig())

	ex, err := a.Assemble(context.Background(), testExamConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.Questions) != 0 || ex.Status != exam.ExamReady {
		t.Errorf("empty slot list should yield an empty ready exam: %+v", ex)
	}
}

func TestAssemble_WrappedReplyAccepted(t *testing.T) {
	wrapped := json.RawMessage(`{
		"chain_of_thought": "solved it internally",
		"questions": [{
			"statement_latex": "Find the acceleration.",
			"explanation": "a = dv/dt.",
			"numeric_rule": {
				"correct_value": 9.8,
				"tolerance_percentage": 2.0,
				"allowed_units": ["m/s^2"]
			}
		}]
	}`)
	gen := &scriptedGenerator{byTopic: map[string][]oracleReply{
		"Kinematics": {{content: wrapped}},
	}}
	a := New(testRetriever(), gen, DefaultConfig())

	ex, err := a.Assemble(context.Background(), testExamConfig(), []blueprint.Slot{numericSlot(0, "Kinematics")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := ex.Questions[0]
	if q.Rule.Numeric == nil || q.Rule.Numeric.CorrectValue != 9.8 {
		t.Errorf("wrapped numeric rule not mapped: %+v", q.Rule)
	}
	if q.Rule.Numeric.TolerancePct != 2.0 {
		t.Errorf("nested tolerance alias not collapsed: %+v", q.Rule.Numeric)
	}
}
