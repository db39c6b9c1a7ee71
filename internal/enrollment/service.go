package enrollment

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"attendanceio/internal/academic"
	"attendanceio/internal/apperr"
	"attendanceio/internal/metrics"
	"attendanceio/internal/timetable"
)

// Store is the enrollment persistence.
type Store interface {
	Current(ctx context.Context, studentID, semesterID int64) ([]Enrolled, error)
	ReplaceForSemester(ctx context.Context, studentID, semesterID int64, rows []Row) error
	SetMinimumCriteria(ctx context.Context, studentID, subjectID int64, crit *int) (bool, error)
}

// UnitOfWork runs fn with enrollment and timetable stores sharing one transaction.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context, es Store, ts timetable.Store) error) error
}

// Catalog is the reference data the service reads.
type Catalog interface {
	CurrentSemester(ctx context.Context) (academic.Semester, error)
	SubjectsByIDs(ctx context.Context, ids []int64) ([]academic.Subject, error)
	SchedulesForSubjects(ctx context.Context, subjectIDs []int64) ([]academic.ScheduleSlot, error)
}

// Options caps selections and sets the default minimum criteria.
type Options struct {
	MaxSubjects            int
	DefaultMinimumCriteria int
}

// Service manages which subjects a student takes this semester.
type Service struct {
	store     Store
	timetable timetable.Store
	uow       UnitOfWork
	catalog   Catalog
	opts      Options
}

// NewService creates a service. Zero options fall back to defaults.
func NewService(store Store, tt timetable.Store, uow UnitOfWork, catalog Catalog, opts Options) *Service {
	if opts.MaxSubjects <= 0 {
		opts.MaxSubjects = 7
	}
	if opts.DefaultMinimumCriteria <= 0 {
		opts.DefaultMinimumCriteria = 75
	}
	return &Service{store: store, timetable: tt, uow: uow, catalog: catalog, opts: opts}
}

// Enrolled lists current-semester enrollments. No active semester means none.
func (s *Service) Enrolled(ctx context.Context, studentID int64) ([]EnrolledSubject, error) {
	sem, err := s.catalog.CurrentSemester(ctx)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return []EnrolledSubject{}, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Current(ctx, studentID, sem.ID)
	if err != nil {
		return nil, err
	}
	out := make([]EnrolledSubject, 0, len(rows))
	for _, e := range rows {
		out = append(out, EnrolledSubject{
			SubjectID:       strconv.FormatInt(e.Subject.ID, 10),
			SubjectCode:     e.Subject.Code,
			SubjectName:     e.Subject.Name,
			LecturePlace:    e.Subject.LecturePlace,
			Color:           e.Subject.Color,
			MinimumCriteria: e.MinimumCriteria,
		})
	}
	return out, nil
}

// selection is a validated subject choice for the active semester.
type selection struct {
	semester academic.Semester
	current  []Enrolled
	previous []int64
	next     []int64
	subjects map[int64]academic.Subject
	defaults []academic.ScheduleSlot
}

func (s *Service) prepare(ctx context.Context, studentID int64, raw []string) (selection, error) {
	var sel selection
	if len(raw) > s.opts.MaxSubjects {
		return sel, apperr.Invalid("Maximum %d subjects allowed. You selected %d subjects.", s.opts.MaxSubjects, len(raw))
	}
	seen := map[int64]struct{}{}
	for _, r := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err != nil {
			return sel, apperr.Invalid("Invalid subject ID: %s", r)
		}
		if _, dup := seen[id]; dup {
			return sel, apperr.Invalid("Duplicate subject ID: %s", r)
		}
		seen[id] = struct{}{}
		sel.next = append(sel.next, id)
	}

	var err error
	sel.semester, err = s.catalog.CurrentSemester(ctx)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return sel, apperr.Invalid("No active semester found")
	}
	if err != nil {
		return sel, err
	}

	if sel.current, err = s.store.Current(ctx, studentID, sel.semester.ID); err != nil {
		return sel, err
	}
	for _, e := range sel.current {
		sel.previous = append(sel.previous, e.Subject.ID)
	}

	all := append(append([]int64(nil), sel.previous...), sel.next...)
	found, err := s.catalog.SubjectsByIDs(ctx, all)
	if err != nil {
		return sel, err
	}
	sel.subjects = make(map[int64]academic.Subject, len(found))
	for _, sub := range found {
		sel.subjects[sub.ID] = sub
	}
	var missing []string
	for _, id := range sel.next {
		sub, ok := sel.subjects[id]
		if !ok {
			missing = append(missing, strconv.FormatInt(id, 10))
			continue
		}
		if sub.SemesterID != sel.semester.ID {
			return sel, apperr.Invalid("Subject %s is not offered in the current semester", sub.Code)
		}
	}
	if len(missing) > 0 {
		return sel, apperr.Invalid("Subject(s) not found: %s", strings.Join(missing, ", "))
	}

	if sel.defaults, err = s.catalog.SchedulesForSubjects(ctx, sel.next); err != nil {
		return sel, err
	}
	return sel, nil
}

// Save replaces the current-semester enrollment and syncs the timetable in one
// transaction. Conflicting default slots are reported in the result, not applied.
func (s *Service) Save(ctx context.Context, studentID int64, req SaveRequest) (SaveResult, error) {
	sel, err := s.prepare(ctx, studentID, req.SubjectIDs)
	if err != nil {
		return SaveResult{}, err
	}

	carried := map[int64]int{}
	for _, e := range sel.current {
		if e.MinimumCriteria != nil {
			carried[e.Subject.ID] = *e.MinimumCriteria
		}
	}
	rows := make([]Row, 0, len(sel.next))
	for _, id := range sel.next {
		crit, ok := carried[id]
		if !ok {
			crit = s.opts.DefaultMinimumCriteria
		}
		rows = append(rows, Row{SubjectID: id, MinimumCriteria: crit})
	}

	var synced timetable.SyncResult
	err = s.uow.InTx(ctx, func(ctx context.Context, es Store, ts timetable.Store) error {
		res, err := timetable.Sync(ctx, ts, timetable.Change{
			StudentID:  studentID,
			SemesterID: sel.semester.ID,
			Previous:   sel.previous,
			Next:       sel.next,
			Subjects:   sel.subjects,
			Defaults:   sel.defaults,
		})
		if err != nil {
			return err
		}
		synced = res
		return es.ReplaceForSemester(ctx, studentID, sel.semester.ID, rows)
	})
	if err != nil {
		return SaveResult{}, err
	}

	if synced.HasConflicts {
		metrics.EnrollmentConflicts.Add(float64(len(synced.Conflicts)))
		log.Printf("enrollment: student %d has %d timetable conflict(s)", studentID, len(synced.Conflicts))
	}
	ids := req.SubjectIDs
	if ids == nil {
		ids = []string{}
	}
	return SaveResult{SubjectIDs: ids, Count: len(ids), SyncResult: synced}, nil
}

// Preview reports the conflicts a selection would cause without saving it.
func (s *Service) Preview(ctx context.Context, studentID int64, req SaveRequest) (Preview, error) {
	sel, err := s.prepare(ctx, studentID, req.SubjectIDs)
	if err != nil {
		return Preview{}, err
	}
	existing, err := s.timetable.Entries(ctx, studentID, sel.semester.ID)
	if err != nil {
		return Preview{}, err
	}

	removed, added := timetable.DiffSubjects(sel.previous, sel.next)
	// Rows of subjects being dropped free their cells.
	drop := map[int64]struct{}{}
	for _, id := range removed {
		drop[id] = struct{}{}
	}
	kept := existing[:0:0]
	for _, e := range existing {
		if _, ok := drop[e.Subject.ID]; !ok {
			kept = append(kept, e)
		}
	}

	conflicts := timetable.DetectConflicts(sel.defaults, kept)
	var clashing []int64
	seen := map[int64]struct{}{}
	for _, c := range conflicts {
		if _, ok := seen[c.NewSubjectID]; !ok {
			seen[c.NewSubjectID] = struct{}{}
			clashing = append(clashing, c.NewSubjectID)
		}
	}
	sort.Slice(clashing, func(i, j int) bool { return clashing[i] < clashing[j] })

	p := Preview{
		HasConflicts:          len(conflicts) > 0,
		Conflicts:             conflicts,
		Message:               "No timetable conflicts detected",
		AddedSubjects:         subjectInfos(added, sel.subjects),
		RemovedSubjects:       subjectInfos(removed, sel.subjects),
		SubjectsWithConflicts: subjectInfos(clashing, sel.subjects),
	}
	if p.HasConflicts {
		p.Message = fmt.Sprintf("%d timetable conflict(s) detected", len(conflicts))
	}
	return p, nil
}

// UpdateMinimumCriteria sets a custom threshold for an enrolled subject.
func (s *Service) UpdateMinimumCriteria(ctx context.Context, studentID int64, req CriteriaRequest) error {
	subjectID, err := strconv.ParseInt(strings.TrimSpace(req.SubjectID), 10, 64)
	if err != nil {
		return apperr.Invalid("Invalid subject ID: %s", req.SubjectID)
	}
	if c := req.MinimumCriteria; c != nil && (*c < 0 || *c > 100) {
		return apperr.Invalid("Minimum criteria must be between 0 and 100")
	}
	ok, err := s.store.SetMinimumCriteria(ctx, studentID, subjectID, req.MinimumCriteria)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Invalid("Subject not found in enrolled subjects")
	}
	return nil
}

func subjectInfos(ids []int64, subjects map[int64]academic.Subject) []timetable.SubjectInfo {
	out := make([]timetable.SubjectInfo, 0, len(ids))
	for _, id := range ids {
		if sub, ok := subjects[id]; ok {
			out = append(out, timetable.SubjectInfo{SubjectID: id, SubjectCode: sub.Code, SubjectName: sub.Name})
		}
	}
	return out
}
