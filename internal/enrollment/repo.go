package enrollment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"attendanceio/internal/store"
	"attendanceio/internal/timetable"
)

// Repository persists student_subject rows.
type Repository struct {
	db store.DBTX
}

func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

// Current lists the student's enrollments in a semester ordered by subject code.
func (r *Repository) Current(ctx context.Context, studentID, semesterID int64) ([]Enrolled, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.code, s.name, COALESCE(s.lecture_place, ''), s.color, s.semester_id,
		       ss.minimum_criteria
		FROM student_subject ss
		JOIN subjects s ON s.id = ss.subject_id
		WHERE ss.student_id = $1 AND s.semester_id = $2
		ORDER BY s.code
	`, studentID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("current enrollments: %w", err)
	}
	defer rows.Close()
	var out []Enrolled
	for rows.Next() {
		var e Enrolled
		var crit sql.NullInt64
		if err := rows.Scan(
			&e.Subject.ID, &e.Subject.Code, &e.Subject.Name, &e.Subject.LecturePlace, &e.Subject.Color, &e.Subject.SemesterID,
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

// ReplaceForSemester swaps the student's enrollments in a semester for rows.
func (r *Repository) ReplaceForSemester(ctx context.Context, studentID, semesterID int64, rows []Row) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM student_subject ss
		USING subjects s
		WHERE s.id = ss.subject_id AND ss.student_id = $1 AND s.semester_id = $2
	`, studentID, semesterID); err != nil {
		return fmt.Errorf("delete enrollments: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO student_subject (student_id, subject_id, minimum_criteria) VALUES `)
	args := []any{studentID}
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($1, $%d, $%d)", 2+2*i, 3+2*i)
		args = append(args, row.SubjectID, row.MinimumCriteria)
	}
	if _, err := r.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert enrollments: %w", err)
	}
	return nil
}

// SetMinimumCriteria updates one enrollment. ok is false when the student does
// not take the subject.
func (r *Repository) SetMinimumCriteria(ctx context.Context, studentID, subjectID int64, crit *int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE student_subject SET minimum_criteria = $3
		WHERE student_id = $1 AND subject_id = $2
	`, studentID, subjectID, crit)
	if err != nil {
		return false, fmt.Errorf("update minimum criteria: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// TxRunner opens one transaction spanning enrollments and the timetable.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a runner.
func NewTxRunner(db *sql.DB) TxRunner {
	return TxRunner{db: db}
}

func (t TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, es Store, ts timetable.Store) error) error {
	return store.RunInTx(ctx, t.db, func(ctx context.Context, tx store.DBTX) error {
		return fn(ctx, NewRepository(tx), timetable.NewRepository(tx))
	})
}
