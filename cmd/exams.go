package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmoreno/examgen/internal/grader"
	"github.com/spf13/cobra"
)

var examsCmd = &cobra.Command{
	Use:   "exams",
	Short: "List stored exams and their grading history",
	RunE: func(cmd *cobra.Command, args []string) error {
		course, _ := cmd.Flags().GetString("course")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()
		exams, err := s.ExamRepo().ListExams(ctx, course, limit)
		if err != nil {
			return fmt.Errorf("list exams: %w", err)
		}
		if len(exams) == 0 {
			fmt.Println("No exams stored yet.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-12s  %-8s  %s\n",
			"ID", "Created", "Course", "Status", "Questions")
		fmt.Println(strings.Repeat("─", 92))
		for _, ex := range exams {
			fmt.Printf("%-36s  %-19s  %-12s  %-8s  %d\n",
				ex.ID,
				ex.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(ex.Config.CourseID, 12),
				ex.Status,
				len(ex.Questions))

			gradings, err := s.ExamRepo().ListGradings(ctx, ex.ID)
			if err != nil {
				return fmt.Errorf("list gradings: %w", err)
			}
			for _, g := range gradings {
				var res grader.Result
				score := "?"
				if json.Unmarshal(g.Payload, &res) == nil {
					score = fmt.Sprintf("%.2f%%", res.TotalScore)
				}
				fmt.Printf("    graded %s  %-12s  %s\n",
					g.CreatedAt.Local().Format("2006-01-02 15:04"),
					truncate(g.StudentID, 12),
					score)
			}
		}
		return nil
	},
}

func init() {
	examsCmd.Flags().String("course", "", "Filter by course ID")
	examsCmd.Flags().IntP("limit", "n", 20, "Number of exams to show")
}
