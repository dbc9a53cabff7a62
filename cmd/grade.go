package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dmoreno/examgen/internal/cache"
	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/grader"
	"github.com/dmoreno/examgen/internal/llm"
	"github.com/dmoreno/examgen/internal/oracle"
	"github.com/spf13/cobra"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <exam-id>",
	Short: "Grade a submission against a stored exam",
	Long: `Read student answers from a JSON file and grade them against the
stored exam. Numeric answers are scored deterministically; answers
with written working escalate to the evaluation oracle for partial
credit. AI verdicts are cached in the local database.

The answers file is a JSON array of objects:
  [{"question_id": "...", "numeric_value": 19.2, "unit": "m/s",
    "procedure": "v = d/t = 100/5.2"}]`,
	Args: cobra.ExactArgs(1),
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().String("answers", "", "Path to the answers JSON file (required)")
	gradeCmd.Flags().String("student", "anonymous", "Student ID recorded with the result")
	_ = gradeCmd.MarkFlagRequired("answers")
}

func runGrade(cmd *cobra.Command, args []string) error {
	examID := args[0]
	answersPath, _ := cmd.Flags().GetString("answers")
	student, _ := cmd.Flags().GetString("student")

	raw, err := os.ReadFile(answersPath)
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	var answers []exam.StudentAnswer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}

	s, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	ex, err := s.ExamRepo().GetExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("load exam %s: %w", examID, err)
	}

	provider, err := llm.NewProviderFromEnv(ctx, s.EventRepo())
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	ev := oracle.NewEvaluator(provider, oracle.DefaultConfig())
	engine := grader.New(ev, cache.NewSQLite(s.DB()), grader.DefaultConfig())

	res, err := engine.GradeExam(ctx, ex, answers)
	if err != nil {
		return fmt.Errorf("grading: %w", err)
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.ExamRepo().SaveGrading(ctx, examID, student, payload); err != nil {
		return fmt.Errorf("save grading: %w", err)
	}

	fmt.Printf("Exam %s, student %s\n", examID, student)
	fmt.Println(strings.Repeat("─", 72))
	for _, d := range res.Details {
		fmt.Printf("%-36s  %6.1f  %-9s  %-8s  %s\n",
			d.QuestionID, d.Score, d.Status, d.Source, truncate(d.FeedbackText, 40))
	}
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("Total: %.2f%%   XP: %d\n", res.TotalScore, res.XPEarned)
	fmt.Printf("Meta:  %dms, %d computed, %d ai, %d cache, %d fallback\n",
		res.Meta.ExecutionTimeMs, res.Meta.ComputedCount, res.Meta.AIUsageCount,
		res.Meta.CacheHitCount, res.Meta.FallbackCount)
	return nil
}
