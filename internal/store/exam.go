package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmoreno/examgen/internal/exam"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// examRepo implements ExamRepo. Exams are stored as JSON snapshots;
// the engine never queries inside a question, so a document column
// beats a normalized schema here.
type examRepo struct {
	db *sql.DB
}

func (r *examRepo) SaveExam(ctx context.Context, e *exam.Exam) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO exams (id, course_id, student_id, status, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, payload = excluded.payload`,
		e.ID, e.Config.CourseID, e.Config.StudentID, string(e.Status), e.CreatedAt.UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

func (r *examRepo) GetExam(ctx context.Context, id string) (*exam.Exam, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM exams WHERE id = ?`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exam %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query exam: %w", err)
	}

	var e exam.Exam
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("unmarshal exam %s: %w", id, err)
	}
	return &e, nil
}

func (r *examRepo) ListExams(ctx context.Context, courseID string, limit int) ([]*exam.Exam, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT payload FROM exams`
	args := []any{}
	if courseID != "" {
		query += ` WHERE course_id = ?`
		args = append(args, courseID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()

	var out []*exam.Exam
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		var e exam.Exam
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("unmarshal exam: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *examRepo) SaveGrading(ctx context.Context, examID, studentID string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grading_results (exam_id, student_id, created_at, payload)
		VALUES (?, ?, ?, ?)`,
		examID, studentID, time.Now().UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert grading result: %w", err)
	}
	return nil
}

func (r *examRepo) ListGradings(ctx context.Context, examID string) ([]GradingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, exam_id, student_id, created_at, payload
		FROM grading_results WHERE exam_id = ? ORDER BY id DESC`, examID)
	if err != nil {
		return nil, fmt.Errorf("query grading results: %w", err)
	}
	defer rows.Close()

	var out []GradingRecord
	for rows.Next() {
		var rec GradingRecord
		var payload string
		if err := rows.Scan(&rec.ID, &rec.ExamID, &rec.StudentID, &rec.CreatedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan grading result: %w", err)
		}
		rec.Payload = []byte(payload)
		out = append(out, rec)
	}
	return out, rows.Err()
}
