package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmoreno/examgen/internal/retrieval"
)

// snippetRepo implements SnippetRepo. Search scopes by course and topic
// and filters on the query with a LIKE match. It stands in for the
// production vector index during local development; ranking quality is
// not its job.
type snippetRepo struct {
	db *sql.DB
}

func (r *snippetRepo) Put(ctx context.Context, id, courseID, topicID, content string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snippets (id, course_id, topic_id, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content`,
		id, courseID, topicID, content,
	)
	if err != nil {
		return fmt.Errorf("insert snippet: %w", err)
	}
	return nil
}

func (r *snippetRepo) Search(ctx context.Context, query string, f retrieval.Filters, limit int) ([]retrieval.Snippet, error) {
	if limit <= 0 {
		limit = 3
	}

	// The semantic query string is for the vector index; locally the
	// course+topic scope is selective enough. Fall back to a keyword
	// match only when no topic scope was given.
	q := `SELECT id, content FROM snippets WHERE 1=1`
	args := []any{}
	if f.CourseID != "" {
		q += ` AND course_id = ?`
		args = append(args, f.CourseID)
	}
	if f.TopicID != "" {
		q += ` AND topic_id = ?`
		args = append(args, f.TopicID)
	} else if query != "" {
		q += ` AND content LIKE ?`
		args = append(args, "%"+query+"%")
	}
	q += ` LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search snippets: %w", err)
	}
	defer rows.Close()

	var out []retrieval.Snippet
	for rows.Next() {
		var s retrieval.Snippet
		if err := rows.Scan(&s.ID, &s.Text); err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
