package academic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendanceio/internal/apperr"
	"attendanceio/internal/store"
)

// Repository reads semesters, subjects and the weekly grid.
type Repository struct {
	db store.DBTX
}

// NewRepository creates a repo.
func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

const semesterCols = `id, year, type, is_active`

// CurrentSemester returns the active semester, newest first when several are flagged.
func (r *Repository) CurrentSemester(ctx context.Context) (Semester, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+semesterCols+`
		FROM semesters
		WHERE is_active
		ORDER BY year DESC, id DESC
		LIMIT 1
	`)
	sem, err := scanSemester(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Semester{}, apperr.NotFound("no active semester")
	}
	return sem, err
}

// SemesterByID loads a single semester.
func (r *Repository) SemesterByID(ctx context.Context, id int64) (Semester, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+semesterCols+` FROM semesters WHERE id = $1`, id)
	sem, err := scanSemester(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Semester{}, apperr.NotFound("semester %d not found", id)
	}
	return sem, err
}

// Semesters lists every semester, most recent first.
func (r *Repository) Semesters(ctx context.Context) ([]Semester, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+semesterCols+`
		FROM semesters
		ORDER BY year DESC, type DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	defer rows.Close()
	var out []Semester
	for rows.Next() {
		sem, err := scanSemester(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sem)
	}
	return out, rows.Err()
}

const subjectCols = `s.id, s.code, s.name, COALESCE(s.lecture_place, ''), s.color, s.semester_id`

// SubjectsBySemester lists subjects offered in a semester ordered by code.
func (r *Repository) SubjectsBySemester(ctx context.Context, semesterID int64) ([]Subject, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subjectCols+`
		FROM subjects s
		WHERE s.semester_id = $1
		ORDER BY s.code
	`, semesterID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return collectSubjects(rows)
}

// SubjectsByIDs returns the subjects that exist among ids.
func (r *Repository) SubjectsByIDs(ctx context.Context, ids []int64) ([]Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subjectCols+`
		FROM subjects s
		WHERE s.id = ANY($1)
		ORDER BY s.code
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("subjects by ids: %w", err)
	}
	return collectSubjects(rows)
}

// SubjectByID loads one subject.
func (r *Repository) SubjectByID(ctx context.Context, id int64) (Subject, error) {
	subjects, err := r.SubjectsByIDs(ctx, []int64{id})
	if err != nil {
		return Subject{}, err
	}
	if len(subjects) == 0 {
		return Subject{}, apperr.NotFound("subject %d not found", id)
	}
	return subjects[0], nil
}

// CountSubjects counts subjects, optionally restricted to a semester.
func (r *Repository) CountSubjects(ctx context.Context, semesterID *int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM subjects WHERE $1::bigint IS NULL OR semester_id = $1
	`, semesterID).Scan(&n)
	return n, err
}

// SchedulesForSubjects loads default weekly schedules for the given subjects.
func (r *Repository) SchedulesForSubjects(ctx context.Context, subjectIDs []int64) ([]ScheduleSlot, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subjectCols+`,
		       d.id, d.name,
		       t.id, to_char(t.start_time, 'HH24:MI'), to_char(t.end_time, 'HH24:MI')
		FROM subject_schedule sc
		JOIN subjects s ON s.id = sc.subject_id
		JOIN week_days d ON d.id = sc.day_id
		JOIN time_slots t ON t.id = sc.slot_id
		WHERE sc.subject_id = ANY($1)
		ORDER BY d.id, t.start_time, s.code
	`, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("subject schedules: %w", err)
	}
	defer rows.Close()
	var out []ScheduleSlot
	for rows.Next() {
		var sl ScheduleSlot
		if err := rows.Scan(
			&sl.Subject.ID, &sl.Subject.Code, &sl.Subject.Name, &sl.Subject.LecturePlace, &sl.Subject.Color, &sl.Subject.SemesterID,
			&sl.Day.ID, &sl.Day.Name,
			&sl.Slot.ID, &sl.Slot.Start, &sl.Slot.End,
		); err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

// WeekDays lists the teaching days in order.
func (r *Repository) WeekDays(ctx context.Context) ([]WeekDay, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM week_days ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("week days: %w", err)
	}
	defer rows.Close()
	var out []WeekDay
	for rows.Next() {
		var d WeekDay
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TimeSlots lists slots by start time.
func (r *Repository) TimeSlots(ctx context.Context) ([]TimeSlot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM time_slots
		ORDER BY start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("time slots: %w", err)
	}
	defer rows.Close()
	var out []TimeSlot
	for rows.Next() {
		var t TimeSlot
		if err := rows.Scan(&t.ID, &t.Start, &t.End); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSemester(row scanner) (Semester, error) {
	var s Semester
	err := row.Scan(&s.ID, &s.Year, &s.Type, &s.IsActive)
	return s, err
}

func collectSubjects(rows *sql.Rows) ([]Subject, error) {
	defer rows.Close()
	var out []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.LecturePlace, &s.Color, &s.SemesterID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
