package analytics

import (
	"context"
	"fmt"

	"attendanceio/internal/store"
)

// Repository reads the student_attendance_analytics view.
type Repository struct {
	db store.DBTX
}

func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

// Percentages returns every enrollment percentage, optionally for one semester.
func (r *Repository) Percentages(ctx context.Context, semesterID *int64) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT attendance_percentage
		FROM student_attendance_analytics
		WHERE $1::bigint IS NULL OR semester_id = $1
		ORDER BY attendance_percentage
	`, semesterID)
	if err != nil {
		return nil, fmt.Errorf("attendance percentages: %w", err)
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StudentCount counts distinct students with a percentage.
func (r *Repository) StudentCount(ctx context.Context, semesterID *int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT student_id)
		FROM student_attendance_analytics
		WHERE $1::bigint IS NULL OR semester_id = $1
	`, semesterID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}
