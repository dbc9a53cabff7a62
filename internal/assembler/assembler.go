// Package assembler fills blueprint slots with validated questions by
// calling the generation oracle concurrently, one task per slot.
package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmoreno/examgen/internal/blueprint"
	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/llm"
	"github.com/dmoreno/examgen/internal/oracle"
	"github.com/dmoreno/examgen/internal/retrieval"
)

// Config controls assembly behavior.
type Config struct {
	// MaxAttempts is the total number of oracle attempts per slot.
	// Attempts run back to back; backoff lives in the provider
	// transport, not here.
	MaxAttempts int

	// MinSuccessRatio is the fraction of slots that must produce a
	// question for the exam to be accepted. Below it the assembly
	// fails with an aggregate error.
	MinSuccessRatio float64

	// SnippetLimit caps the retrieved context snippets per slot.
	SnippetLimit int
}

// DefaultConfig returns the standard assembly settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		MinSuccessRatio: 0.8,
		SnippetLimit:    3,
	}
}

// ErrQualityBar is returned when too few slots produced a question.
type ErrQualityBar struct {
	Requested int
	Succeeded int
	SlotErrs  []error
}

func (e *ErrQualityBar) Error() string {
	return fmt.Sprintf("exam quality bar not met: %d/%d slots succeeded", e.Succeeded, e.Requested)
}

// Unwrap exposes the per-slot failures for errors.Is/As inspection.
func (e *ErrQualityBar) Unwrap() []error {
	return e.SlotErrs
}

// Assembler turns blueprint slots into an exam.
type Assembler struct {
	retriever retrieval.Retriever
	generator oracle.Generator
	config    Config
	logger    *slog.Logger
}

// New creates an Assembler.
func New(retriever retrieval.Retriever, generator oracle.Generator, cfg Config) *Assembler {
	return &Assembler{
		retriever: retriever,
		generator: generator,
		config:    cfg,
		logger:    slog.Default(),
	}
}

// Assemble fans out one task per slot and collects the survivors.
// The returned exam may hold fewer questions than slots when some
// failed but the batch stayed at or above MinSuccessRatio.
func (a *Assembler) Assemble(ctx context.Context, cfg exam.ExamConfig, slots []blueprint.Slot) (*exam.Exam, error) {
	type slotResult struct {
		question *exam.GeneratedQuestion
		err      error
	}

	results := make([]slotResult, len(slots))
	var wg sync.WaitGroup
	for i, slot := range slots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := a.fillSlot(ctx, cfg, slot)
			results[i] = slotResult{question: q, err: err}
		}()
	}
	wg.Wait()

	questions := make([]exam.GeneratedQuestion, 0, len(slots))
	var slotErrs []error
	for _, r := range results {
		if r.err != nil {
			slotErrs = append(slotErrs, r.err)
			continue
		}
		questions = append(questions, *r.question)
	}

	if len(slots) > 0 {
		ratio := float64(len(questions)) / float64(len(slots))
		if ratio < a.config.MinSuccessRatio {
			return nil, &ErrQualityBar{
				Requested: len(slots),
				Succeeded: len(questions),
				SlotErrs:  slotErrs,
			}
		}
	}

	status := exam.ExamReady
	if len(questions) < len(slots) {
		status = exam.ExamPartial
		a.logger.Warn("assembled partial exam",
			"requested", len(slots),
			"generated", len(questions))
	}

	return &exam.Exam{
		ID:        uuid.NewString(),
		Config:    cfg,
		Questions: questions,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// fillSlot runs the full per-slot protocol: retrieve context, pick a
// question type, call the oracle with bounded retries, and map the
// reply into a GeneratedQuestion.
func (a *Assembler) fillSlot(ctx context.Context, cfg exam.ExamConfig, slot blueprint.Slot) (*exam.GeneratedQuestion, error) {
	snippets, err := a.retriever.Search(ctx, slot.TopicID, retrieval.Filters{
		CourseID: cfg.CourseID,
		TopicID:  slot.TopicID,
	}, a.config.SnippetLimit)
	if err != nil {
		a.logger.Warn("retrieval failed, generating without context",
			"topic", slot.TopicID, "error", err)
		snippets = nil
	}

	sourceID := "unknown"
	if len(snippets) > 0 {
		sourceID = snippets[0].ID
	}

	qType := DecideType(slot.Cognitive, slot.TopicID)

	var contextText strings.Builder
	for i, sn := range snippets {
		if i > 0 {
			contextText.WriteString("\n")
		}
		contextText.WriteString("- ")
		contextText.WriteString(sn.Text)
	}

	input := oracle.GenerationInput{
		Topic:      slot.TopicID,
		Difficulty: slot.Difficulty,
		Cognitive:  slot.Cognitive,
		Points:     slot.Points,
		Type:       qType,
		Context:    contextText.String(),
	}

	var lastErr error
	for attempt := 1; attempt <= a.config.MaxAttempts; attempt++ {
		raw, err := a.generator.GenerateQuestion(ctx, input)
		if err != nil {
			lastErr = err
			continue
		}

		q, err := buildQuestion(raw, slot, qType, sourceID)
		if err != nil {
			a.logger.Debug("discarding malformed question",
				"slot", slot.Index, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}
		return q, nil
	}

	return nil, fmt.Errorf("slot %d failed after %d attempts: %w", slot.Index, a.config.MaxAttempts, lastErr)
}

// canonicalQuestion is the post-normalization document. Its field tags
// line up with the canonical schemas and the exam rule types, so one
// unmarshal covers everything.
type canonicalQuestion struct {
	Statement   string            `json:"statement"`
	Explanation string            `json:"explanation"`
	Hint        string            `json:"hint"`
	NumericRule *exam.NumericRule `json:"numeric_rule,omitempty"`
	ChoiceRule  *exam.ChoiceRule  `json:"choice_rule,omitempty"`
	CodeRule    *exam.CodeRule    `json:"code_rule,omitempty"`
}

// buildQuestion unwraps and normalizes the raw oracle reply, validates
// it against the strict per-type schema, and maps it into a
// GeneratedQuestion. A schema failure degrades once to open text
// before the attempt is abandoned.
func buildQuestion(raw json.RawMessage, slot blueprint.Slot, qt exam.QuestionType, sourceID string) (*exam.GeneratedQuestion, error) {
	doc, err := Unwrap(raw)
	if err != nil {
		return nil, err
	}

	norm := Normalize(doc, qt)
	payload, err := json.Marshal(norm)
	if err != nil {
		return nil, fmt.Errorf("marshal normalized question: %w", err)
	}

	if verr := llm.Validate(schemaFor(qt), payload); verr != nil {
		if qt == exam.TypeOpenText {
			return nil, verr
		}
		open := OpenTextVariant(norm)
		openPayload, merr := json.Marshal(open)
		if merr != nil {
			return nil, verr
		}
		if llm.Validate(openTextQuestionSchema, openPayload) != nil {
			// Even the statement is unusable; report the original failure.
			return nil, verr
		}
		qt = exam.TypeOpenText
		payload = openPayload
	}

	var c canonicalQuestion
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("decode canonical question: %w", err)
	}

	rule := exam.ValidationRule{}
	switch qt {
	case exam.TypeNumericInput:
		rule.Numeric = c.NumericRule
	case exam.TypeMultipleChoice:
		rule.Choice = c.ChoiceRule
	case exam.TypeCodeEditor:
		rule.Code = c.CodeRule
	}

	return &exam.GeneratedQuestion{
		ID:            uuid.NewString(),
		SlotIndex:     slot.Index,
		Statement:     c.Statement,
		Type:          qt,
		Difficulty:    slot.Difficulty,
		Cognitive:     slot.Cognitive,
		Points:        slot.Points,
		Rule:          rule,
		Explanation:   c.Explanation,
		Hint:          c.Hint,
		SourceBlockID: sourceID,
	}, nil
}
