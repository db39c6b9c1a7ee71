package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendanceio/internal/apperr"
	"attendanceio/internal/store"
)

// Repository persists students in Postgres.
type Repository struct {
	db store.DBTX
}

// NewRepository creates a repo.
func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

const studentCols = `id, sid, COALESCE(name, ''), COALESCE(phone, ''), COALESCE(email, ''),
	COALESCE(google_id, ''), COALESCE(picture_url, ''), sleep_duration_hours, fcm_token, created_at`

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var s Student
	var token sql.NullString
	err := row.Scan(&s.ID, &s.SID, &s.Name, &s.Phone, &s.Email, &s.GoogleID, &s.PictureURL,
		&s.SleepDurationHours, &token, &s.CreatedAt)
	if token.Valid && token.String != "" {
		s.FCMToken = &token.String
	}
	return s, err
}

// ByEmail finds a student by login email.
func (r *Repository) ByEmail(ctx context.Context, email string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE email = $1`, email)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, apperr.NotFound("student not found")
	}
	return s, err
}

// ByID finds a student by primary key.
func (r *Repository) ByID(ctx context.Context, id int64) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, apperr.NotFound("student %d not found", id)
	}
	return s, err
}

// Upsert inserts a new student or refreshes picture and google id on an existing one.
func (r *Repository) Upsert(ctx context.Context, s Student) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (sid, name, email, google_id, picture_url)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		ON CONFLICT (email) DO UPDATE
		SET picture_url = EXCLUDED.picture_url,
		    google_id = COALESCE(NULLIF(students.google_id, ''), EXCLUDED.google_id)
		RETURNING `+studentCols,
		s.SID, s.Name, s.Email, s.GoogleID, s.PictureURL)
	out, err := scanStudent(row)
	if err != nil {
		return Student{}, fmt.Errorf("upsert student: %w", err)
	}
	return out, nil
}

// SetFCMToken stores or clears the push token.
func (r *Repository) SetFCMToken(ctx context.Context, id int64, token *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE students SET fcm_token = $2 WHERE id = $1`, id, token)
	return err
}

// SetSleepDuration updates the reminder offset.
func (r *Repository) SetSleepDuration(ctx context.Context, id int64, hours int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE students SET sleep_duration_hours = $2 WHERE id = $1`, id, hours)
	return err
}

// SearchByName matches names case-insensitively.
func (r *Repository) SearchByName(ctx context.Context, query string, limit int) ([]Student, error) {
	return r.search(ctx, `name ILIKE '%' || $1 || '%'`, query, limit)
}

// SearchBySID matches school ids case-insensitively.
func (r *Repository) SearchBySID(ctx context.Context, query string, limit int) ([]Student, error) {
	return r.search(ctx, `sid ILIKE '%' || $1 || '%'`, query, limit)
}

func (r *Repository) search(ctx context.Context, where, query string, limit int) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentCols+`
		FROM students
		WHERE `+where+`
		ORDER BY sid
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return collect(rows)
}

// WithFCMToken lists students that registered a push token.
func (r *Repository) WithFCMToken(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentCols+`
		FROM students
		WHERE fcm_token IS NOT NULL AND fcm_token <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("students with token: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]Student, error) {
	defer rows.Close()
	var out []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
