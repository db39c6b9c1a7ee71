package timetable

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"attendanceio/internal/store"
)

// Repository persists student timetables.
type Repository struct {
	db store.DBTX
}

// NewRepository creates a repo over a connection or a transaction.
func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

// Entries loads the student's timetable for a semester ordered by day and slot.
func (r *Repository) Entries(ctx context.Context, studentID, semesterID int64) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT st.id, st.student_id, st.semester_id,
		       s.id, s.code, s.name, COALESCE(s.lecture_place, ''), s.color, s.semester_id,
		       d.id, d.name,
		       t.id, to_char(t.start_time, 'HH24:MI'), to_char(t.end_time, 'HH24:MI')
		FROM student_timetable st
		JOIN subjects s ON s.id = st.subject_id
		JOIN week_days d ON d.id = st.day_id
		JOIN time_slots t ON t.id = st.slot_id
		WHERE st.student_id = $1 AND st.semester_id = $2
		ORDER BY d.id, t.start_time
	`, studentID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("timetable entries: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.StudentID, &e.SemesterID,
			&e.Subject.ID, &e.Subject.Code, &e.Subject.Name, &e.Subject.LecturePlace, &e.Subject.Color, &e.Subject.SemesterID,
			&e.Day.ID, &e.Day.Name,
			&e.Slot.ID, &e.Slot.Start, &e.Slot.End,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteForSubjects removes the rows of the given subjects and returns how many went.
func (r *Repository) DeleteForSubjects(ctx context.Context, studentID, semesterID int64, subjectIDs []int64) (int, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM student_timetable
		WHERE student_id = $1 AND semester_id = $2 AND subject_id = ANY($3)
	`, studentID, semesterID, subjectIDs)
	if err != nil {
		return 0, fmt.Errorf("delete timetable rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteAll clears the student's timetable for a semester.
func (r *Repository) DeleteAll(ctx context.Context, studentID, semesterID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM student_timetable WHERE student_id = $1 AND semester_id = $2
	`, studentID, semesterID)
	if err != nil {
		return fmt.Errorf("clear timetable: %w", err)
	}
	return nil
}

// Insert adds rows in a single statement.
func (r *Repository) Insert(ctx context.Context, studentID, semesterID int64, rows []Placement) error {
	if len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO student_timetable (student_id, semester_id, subject_id, day_id, slot_id) VALUES `)
	args := make([]any, 0, 2+3*len(rows))
	args = append(args, studentID, semesterID)
	for i, p := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		n := 3 + 3*i
		fmt.Fprintf(&b, "($1, $2, $%d, $%d, $%d)", n, n+1, n+2)
		args = append(args, p.SubjectID, p.DayID, p.SlotID)
	}
	if _, err := r.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert timetable rows: %w", err)
	}
	return nil
}

// TxRunner binds a Repository to a transaction on db.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a runner.
func NewTxRunner(db *sql.DB) TxRunner {
	return TxRunner{db: db}
}

// InTx runs fn with a transactional store.
func (t TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, st Store) error) error {
	return store.RunInTx(ctx, t.db, func(ctx context.Context, tx store.DBTX) error {
		return fn(ctx, NewRepository(tx))
	})
}
