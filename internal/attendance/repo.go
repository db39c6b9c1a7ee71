package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"attendanceio/internal/academic"
	"attendanceio/internal/store"
)

// Enrollment is a subject a student takes, with its semester loaded.
type Enrollment struct {
	Subject         academic.Subject
	Semester        academic.Semester
	MinimumCriteria *int
}

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Enrollments lists every subject the student is enrolled in, newest semester first.
func (r *Repository) Enrollments(ctx context.Context, studentID int64) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.code, s.name, COALESCE(s.lecture_place, ''), s.color, s.semester_id,
		       sem.id, sem.year, sem.type, sem.is_active,
		       ss.minimum_criteria
		FROM student_subject ss
		JOIN subjects s ON s.id = ss.subject_id
		JOIN semesters sem ON sem.id = s.semester_id
		WHERE ss.student_id = $1
		ORDER BY sem.year DESC, sem.type DESC, s.code
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()
	var out []Enrollment
	for rows.Next() {
		var e Enrollment
		var crit sql.NullInt64
		if err := rows.Scan(
			&e.Subject.ID, &e.Subject.Code, &e.Subject.Name, &e.Subject.LecturePlace, &e.Subject.Color, &e.Subject.SemesterID,
			&e.Semester.ID, &e.Semester.Year, &e.Semester.Type, &e.Semester.IsActive,
			&crit,
		); err != nil {
			return nil, err
		}
		if crit.Valid {
			v := int(crit.Int64)
			e.MinimumCriteria = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// IsEnrolled reports whether the student takes the subject.
func (r *Repository) IsEnrolled(ctx context.Context, studentID, subjectID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM student_subject WHERE student_id = $1 AND subject_id = $2)
	`, studentID, subjectID).Scan(&ok)
	return ok, err
}

// Baselines returns every institute snapshot stored for the student.
func (r *Repository) Baselines(ctx context.Context, studentID int64) ([]Baseline, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, subject_id, cutoff_date, total_classes, present_classes
		FROM institute_attendance
		WHERE student_id = $1
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list baselines: %w", err)
	}
	defer rows.Close()
	var out []Baseline
	for rows.Next() {
		var b Baseline
		if err := rows.Scan(&b.ID, &b.StudentID, &b.SubjectID, &b.CutoffDate, &b.TotalClasses, &b.PresentClasses); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReplaceBaseline drops existing snapshots for the subject and stores b atomically.
func (r *Repository) ReplaceBaseline(ctx context.Context, b Baseline) (Baseline, error) {
	err := store.RunInTx(ctx, r.db, func(ctx context.Context, tx store.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM institute_attendance WHERE student_id = $1 AND subject_id = $2
		`, b.StudentID, b.SubjectID); err != nil {
			return fmt.Errorf("delete baselines: %w", err)
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO institute_attendance (student_id, subject_id, cutoff_date, total_classes, present_classes, absent_classes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, b.StudentID, b.SubjectID, b.CutoffDate, b.TotalClasses, b.PresentClasses, b.TotalClasses-b.PresentClasses).Scan(&b.ID)
	})
	return b, err
}

// Records returns every marked lecture for the student ordered by date.
func (r *Repository) Records(ctx context.Context, studentID int64) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, subject_id, lecture_date, status, COALESCE(source_id, '')
		FROM attendance
		WHERE student_id = $1
		ORDER BY lecture_date, id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.SubjectID, &rec.LectureDate, &rec.Status, &rec.Source); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Upsert writes the record keyed by (student, subject, date), updating status and source in place.
func (r *Repository) Upsert(ctx context.Context, rec Record) (Record, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (student_id, subject_id, lecture_date, status, source_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, subject_id, lecture_date)
		DO UPDATE SET status = EXCLUDED.status, source_id = EXCLUDED.source_id
		RETURNING id
	`, rec.StudentID, rec.SubjectID, rec.LectureDate, string(rec.Status), rec.Source).Scan(&rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("upsert attendance: %w", err)
	}
	return rec, nil
}

// Delete removes a record owned by the student. It reports whether a row matched.
func (r *Repository) Delete(ctx context.Context, studentID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1 AND student_id = $2`, id, studentID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// TimetableDays returns one weekday per timetable row keyed by subject.
// A nil semesterID spans every semester.
func (r *Repository) TimetableDays(ctx context.Context, studentID int64, semesterID *int64) (map[int64][]time.Weekday, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subject_id, day_id
		FROM student_timetable
		WHERE student_id = $1 AND ($2::bigint IS NULL OR semester_id = $2)
	`, studentID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("timetable days: %w", err)
	}
	defer rows.Close()
	out := map[int64][]time.Weekday{}
	for rows.Next() {
		var subjectID int64
		var dayID int
		if err := rows.Scan(&subjectID, &dayID); err != nil {
			return nil, err
		}
		out[subjectID] = append(out[subjectID], academic.WeekDay{ID: dayID}.Weekday())
	}
	return out, rows.Err()
}
