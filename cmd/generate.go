package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmoreno/examgen/internal/assembler"
	"github.com/dmoreno/examgen/internal/blueprint"
	"github.com/dmoreno/examgen/internal/exam"
	"github.com/dmoreno/examgen/internal/llm"
	"github.com/dmoreno/examgen/internal/oracle"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Assemble a new exam for a course",
	Long: `Build a blueprint for the requested shape, fill each slot by calling
the generation oracle concurrently, and persist the assembled exam.

Course material previously loaded with 'examgen ingest' is used as
grounding context for each question.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("course", "", "Course ID (required)")
	generateCmd.Flags().String("student", "anonymous", "Student ID")
	generateCmd.Flags().Int("count", 5, "Number of questions")
	generateCmd.Flags().String("difficulty", "applied", "Target tier: fundamental, applied, complex, gatekeeper")
	generateCmd.Flags().String("mode", "quantitative", "Subject mode: quantitative or qualitative")
	generateCmd.Flags().StringSlice("topics", nil, "Topic pool (comma-separated)")
	generateCmd.Flags().StringSlice("focus", nil, "Focus topics to emphasize")
	generateCmd.Flags().Float64("target-score", 10, "Total point value of the exam")
	_ = generateCmd.MarkFlagRequired("course")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	course, _ := cmd.Flags().GetString("course")
	student, _ := cmd.Flags().GetString("student")
	count, _ := cmd.Flags().GetInt("count")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	mode, _ := cmd.Flags().GetString("mode")
	topics, _ := cmd.Flags().GetStringSlice("topics")
	focus, _ := cmd.Flags().GetStringSlice("focus")
	targetScore, _ := cmd.Flags().GetFloat64("target-score")

	s, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	provider, err := llm.NewProviderFromEnv(ctx, s.EventRepo())
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	cfg := exam.ExamConfig{
		StudentID:    student,
		CourseID:     course,
		NumQuestions: count,
		Difficulty:   exam.ParseDifficulty(difficulty),
		SubjectMode:  exam.ParseSubjectMode(mode),
		Topics:       topics,
		FocusTopics:  focus,
		TargetScore:  targetScore,
	}

	slots := blueprint.New(blueprint.Config{TargetScore: targetScore}).Build(cfg)

	gen := oracle.NewGenerator(provider, oracle.DefaultConfig())
	asm := assembler.New(s.SnippetRepo(), gen, assembler.DefaultConfig())

	fmt.Printf("Assembling %d questions for %s (%s tier)...\n", count, course, cfg.Difficulty)

	ex, err := asm.Assemble(ctx, cfg, slots)
	if err != nil {
		return fmt.Errorf("assembly: %w", err)
	}
	ex.Model = provider.ModelID()

	if err := s.ExamRepo().SaveExam(ctx, ex); err != nil {
		return fmt.Errorf("save exam: %w", err)
	}

	fmt.Printf("\nExam %s (%s)\n", ex.ID, ex.Status)
	fmt.Println(strings.Repeat("─", 72))
	for _, q := range ex.Questions {
		fmt.Printf("%2d. [%-12s %-15s %5.2f pts]  %s\n",
			q.SlotIndex+1, q.Difficulty, q.Type, q.Points, truncate(q.Statement, 60))
	}
	if ex.Status == exam.ExamPartial {
		fmt.Printf("\nNote: %d of %d requested questions were generated.\n", len(ex.Questions), count)
	}
	return nil
}
