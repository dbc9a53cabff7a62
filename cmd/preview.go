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
	"github.com/dmoreno/examgen/internal/retrieval"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a topic (no database)",
	Long: `Generate questions for a topic and print them with their validation
rules and explanations.

This is a stateless developer tool: nothing is persisted and no
course material is retrieved. Useful for evaluating question quality
and tuning prompts.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("topic", "", "Topic to generate questions for (required)")
	previewCmd.Flags().String("difficulty", "applied", "Target tier: fundamental, applied, complex, gatekeeper")
	previewCmd.Flags().String("mode", "quantitative", "Subject mode: quantitative or qualitative")
	previewCmd.Flags().Int("count", 3, "Number of questions to generate")
	_ = previewCmd.MarkFlagRequired("topic")
}

func runPreview(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	mode, _ := cmd.Flags().GetString("mode")
	count, _ := cmd.Flags().GetInt("count")

	// No EventRepo here, so request events are not recorded.
	ctx := context.Background()
	provider, err := llm.NewProviderFromEnv(ctx, nil)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	cfg := exam.ExamConfig{
		StudentID:    "preview",
		CourseID:     "preview",
		NumQuestions: count,
		Difficulty:   exam.ParseDifficulty(difficulty),
		SubjectMode:  exam.ParseSubjectMode(mode),
		Topics:       []string{topic},
		TargetScore:  10,
	}

	slots := blueprint.New(blueprint.DefaultConfig()).Build(cfg)
	gen := oracle.NewGenerator(provider, oracle.DefaultConfig())
	asm := assembler.New(&retrieval.Static{}, gen, assembler.DefaultConfig())

	fmt.Printf("Topic: %s (%s, %s)\n", topic, cfg.Difficulty, cfg.SubjectMode)
	fmt.Printf("Generating %d questions...\n\n", count)

	ex, err := asm.Assemble(ctx, cfg, slots)
	if err != nil {
		return fmt.Errorf("assembly: %w", err)
	}

	for i, q := range ex.Questions {
		fmt.Printf("── Question %d/%d  %s, %.2f pts ──\n", i+1, len(ex.Questions), q.Type, q.Points)
		fmt.Println(q.Statement)

		switch {
		case q.Rule.Numeric != nil:
			fmt.Printf("  Solution: %g (±%.1f%%", q.Rule.Numeric.CorrectValue, q.Rule.Numeric.TolerancePct)
			if len(q.Rule.Numeric.AllowedUnits) > 0 {
				fmt.Printf(", units: %s", strings.Join(q.Rule.Numeric.AllowedUnits, ", "))
			}
			fmt.Println(")")
		case q.Rule.Choice != nil:
			for j, opt := range q.Rule.Choice.Options {
				marker := " "
				if j == q.Rule.Choice.CorrectIndex {
					marker = "*"
				}
				fmt.Printf("  %s %d) %s\n", marker, j+1, opt)
			}
		case q.Rule.Code != nil:
			fmt.Printf("  Test cases: %d\n", len(q.Rule.Code.TestCases))
		}

		if q.Explanation != "" {
			fmt.Printf("  Explanation: %s\n", q.Explanation)
		}
		fmt.Println()
	}

	if len(ex.Questions) < count {
		fmt.Printf("── %d of %d slots produced a question ──\n", len(ex.Questions), count)
	}
	return nil
}
