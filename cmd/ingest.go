package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Load course material snippets into the local store",
	Long: `Split a plain-text file into paragraph snippets and store them
scoped to a course and topic. Generated questions for that topic are
grounded on these snippets.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("course", "", "Course ID (required)")
	ingestCmd.Flags().String("topic", "", "Topic ID (required)")
	_ = ingestCmd.MarkFlagRequired("course")
	_ = ingestCmd.MarkFlagRequired("topic")
}

func runIngest(cmd *cobra.Command, args []string) error {
	course, _ := cmd.Flags().GetString("course")
	topic, _ := cmd.Flags().GetString("topic")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open material: %w", err)
	}
	defer f.Close()

	s, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	repo := s.SnippetRepo()

	// One snippet per blank-line-separated paragraph.
	var (
		para  strings.Builder
		count int
	)
	flush := func() error {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return nil
		}
		if err := repo.Put(ctx, uuid.NewString(), course, topic, text); err != nil {
			return fmt.Errorf("store snippet: %w", err)
		}
		count++
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		para.WriteString(line)
		para.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read material: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	fmt.Printf("Stored %d snippets for %s / %s\n", count, course, topic)
	return nil
}
