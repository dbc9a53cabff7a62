// Package grader scores submitted answers with a hybrid pipeline:
// a deterministic fast path, then an AI review of the student's
// written procedure for answers that fell short. AI verdicts are
// cached and can only raise a score, never lower it.
package grader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmoreno/examgen/internal/cache"
	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/oracle"
)

// minProcedureLength gates AI escalation: shorter free-text working
// is not worth an oracle call.
const minProcedureLength = 5

// Config controls the grading engine.
type Config struct {
	// Concurrency caps simultaneous evaluation-oracle calls.
	Concurrency int

	// CacheTTL is how long AI verdicts stay cached.
	CacheTTL time.Duration

	// XPMultiplier converts each full 10% of the overall score into
	// experience points.
	XPMultiplier int
}

// DefaultConfig returns the standard grading settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:  50,
		CacheTTL:     24 * time.Hour,
		XPMultiplier: 15,
	}
}

// Meta describes how a grading pass executed.
type Meta struct {
	ExecutionTimeMs int64 `json:"execution_time_ms"`
	AIUsageCount    int   `json:"ai_usage_count"`
	CacheHitCount   int   `json:"cache_hit_count"`
	ComputedCount   int   `json:"computed_count"`
	FallbackCount   int   `json:"fallback_count"`
}

// Result is the graded exam: overall percentage, earned XP, and the
// per-question details.
type Result struct {
	TotalScore float64               `json:"total_score"`
	XPEarned   int                   `json:"xp_earned"`
	Details    []exam.FeedbackDetail `json:"details"`
	Meta       Meta                  `json:"meta"`
}

// Engine grades exams. Construct with New; the zero value is not usable.
type Engine struct {
	evaluator oracle.Evaluator
	cache     cache.Cache
	config    Config
	sem       chan struct{}
	logger    *slog.Logger
}

// New creates an Engine. cache may be nil to disable verdict caching.
func New(evaluator oracle.Evaluator, c cache.Cache, cfg Config) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Engine{
		evaluator: evaluator,
		cache:     c,
		config:    cfg,
		sem:       make(chan struct{}, cfg.Concurrency),
		logger:    slog.Default(),
	}
}

// GradeExam grades every submitted answer concurrently and aggregates
// the totals. Answers without a matching question are ignored.
// Grading never fails per question; the only error paths are
// empty input.
func (e *Engine) GradeExam(ctx context.Context, ex *exam.Exam, answers []exam.StudentAnswer) (*Result, error) {
	if ex == nil || len(ex.Questions) == 0 {
		return nil, fmt.Errorf("nothing to grade: exam has no questions")
	}
	start := time.Now()

	byID := make(map[string]exam.GeneratedQuestion, len(ex.Questions))
	for _, q := range ex.Questions {
		byID[q.ID] = q
	}

	details := make([]exam.FeedbackDetail, 0, len(answers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := e.gradeOne(ctx, q, ans)
			mu.Lock()
			details = append(details, d)
			mu.Unlock()
		}()
	}
	wg.Wait()

	maxPossible := float64(len(ex.Questions)) * maxScore
	var total float64
	meta := Meta{ExecutionTimeMs: time.Since(start).Milliseconds()}
	for _, d := range details {
		total += d.Score
		switch d.Source {
		case exam.SourceAI:
			meta.AIUsageCount++
		case exam.SourceCache:
			meta.CacheHitCount++
		case exam.SourceComputed:
			meta.ComputedCount++
		case exam.SourceFallback:
			meta.FallbackCount++
		}
	}

	pct := 0.0
	if maxPossible > 0 {
		pct = total / maxPossible * 100
	}

	return &Result{
		TotalScore: round2(pct),
		XPEarned:   int(pct/10) * e.config.XPMultiplier,
		Details:    details,
		Meta:       meta,
	}, nil
}

// gradeOne runs the per-answer pipeline: fast path, escalation gate,
// then the resilient AI review.
func (e *Engine) gradeOne(ctx context.Context, q exam.GeneratedQuestion, ans exam.StudentAnswer) exam.FeedbackDetail {
	fast := gradeFast(q, ans)

	procedure := strings.TrimSpace(ans.Procedure)
	if fast.Score >= maxScore || len(procedure) <= minProcedureLength {
		return fast
	}

	return e.gradeWithAI(ctx, q, ans, fast)
}

// gradeWithAI checks the verdict cache, then asks the evaluation
// oracle under the concurrency semaphore. Any failure on this path
// returns the fast-path result with a fallback note; it never
// propagates an error.
func (e *Engine) gradeWithAI(ctx context.Context, q exam.GeneratedQuestion, ans exam.StudentAnswer, fast exam.FeedbackDetail) exam.FeedbackDetail {
	key := verdictKey(q.ID, ans.Procedure)

	if e.cache != nil {
		if raw, ok, err := e.cache.Get(ctx, key); err == nil && ok {
			var cached exam.FeedbackDetail
			if json.Unmarshal(raw, &cached) == nil {
				cached.Source = exam.SourceCache
				return cached
			}
		}
	}

	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return fallbackDetail(fast)
	}

	submitted := "N/A"
	if ans.NumericValue != nil {
		submitted = strconv.FormatFloat(*ans.NumericValue, 'g', -1, 64)
	}

	eval, err := e.evaluator.Evaluate(ctx, oracle.EvaluationInput{
		Statement:      q.Statement,
		CorrectDisplay: fast.CorrectSolution,
		SubmittedValue: submitted,
		Procedure:      ans.Procedure,
	})
	if err != nil {
		e.logger.Warn("AI review failed, keeping fast-path verdict",
			"question", q.ID, "error", err)
		return fallbackDetail(fast)
	}

	// Benevolence merge: the review can only raise the score.
	finalScore := math.Max(eval.AdjustedScore, fast.Score)
	status := exam.StatusPartial
	if finalScore >= maxScore {
		status = exam.StatusCorrect
	}

	detail := exam.FeedbackDetail{
		QuestionID:      q.ID,
		Score:           finalScore,
		Status:          status,
		FeedbackText:    eval.FeedbackText,
		CorrectSolution: fast.CorrectSolution,
		Source:          exam.SourceAI,
	}

	if e.cache != nil {
		// Fire and forget; a failed write just means a future re-grade.
		go func(d exam.FeedbackDetail) {
			payload, err := json.Marshal(d)
			if err != nil {
				return
			}
			_ = e.cache.Set(context.WithoutCancel(ctx), key, payload, e.config.CacheTTL)
		}(detail)
	}

	return detail
}

func fallbackDetail(fast exam.FeedbackDetail) exam.FeedbackDetail {
	fast.FeedbackText += " (AI review unavailable)"
	fast.Source = exam.SourceFallback
	return fast
}

// verdictKey derives the cache key from the question identity and the
// student's normalized procedure text.
func verdictKey(questionID, procedure string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(procedure)))
	return fmt.Sprintf("grade:v1:%s:%s", questionID, hex.EncodeToString(sum[:]))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
