package timetable

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"attendanceio/internal/academic"
	"attendanceio/internal/apperr"
)

// Store is the timetable persistence used by the service and by Sync.
type Store interface {
	Entries(ctx context.Context, studentID, semesterID int64) ([]Entry, error)
	DeleteForSubjects(ctx context.Context, studentID, semesterID int64, subjectIDs []int64) (int, error)
	DeleteAll(ctx context.Context, studentID, semesterID int64) error
	Insert(ctx context.Context, studentID, semesterID int64, rows []Placement) error
}

// Transactor runs fn against a Store bound to one transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, st Store) error) error
}

// Catalog is the reference data the service reads.
type Catalog interface {
	CurrentSemester(ctx context.Context) (academic.Semester, error)
	WeekDays(ctx context.Context) ([]academic.WeekDay, error)
	TimeSlots(ctx context.Context) ([]academic.TimeSlot, error)
	SubjectsByIDs(ctx context.Context, ids []int64) ([]academic.Subject, error)
}

// Service reads and replaces student timetables.
type Service struct {
	store   Store
	tx      Transactor
	catalog Catalog
}

// NewService creates a timetable service.
func NewService(store Store, tx Transactor, catalog Catalog) *Service {
	return &Service{store: store, tx: tx, catalog: catalog}
}

// Get returns the current-semester timetable in index form. Without an active
// semester the timetable is empty.
func (s *Service) Get(ctx context.Context, studentID int64) ([]SlotView, error) {
	sem, err := s.catalog.CurrentSemester(ctx)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return []SlotView{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Entries(ctx, studentID, sem.ID)
	if err != nil {
		return nil, err
	}
	out := make([]SlotView, 0, len(entries))
	for _, e := range entries {
		out = append(out, SlotView{
			Day:       e.Day.ID - 1,
			TimeSlot:  e.Slot.ID - 1,
			SubjectID: strconv.FormatInt(e.Subject.ID, 10),
		})
	}
	return out, nil
}

// Save replaces the current-semester timetable with the filled cells of req.
// It returns the number of rows written.
func (s *Service) Save(ctx context.Context, studentID int64, req SaveRequest) (int, error) {
	sem, err := s.catalog.CurrentSemester(ctx)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return 0, apperr.Invalid("no active semester found")
	}
	if err != nil {
		return 0, err
	}

	rows, err := s.resolve(ctx, req.Slots)
	if err != nil {
		return 0, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, st Store) error {
		if err := st.DeleteAll(ctx, studentID, sem.ID); err != nil {
			return err
		}
		return st.Insert(ctx, studentID, sem.ID, rows)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// resolve validates cells against the grid and the subject table.
func (s *Service) resolve(ctx context.Context, slots []SlotRequest) ([]Placement, error) {
	days, err := s.catalog.WeekDays(ctx)
	if err != nil {
		return nil, err
	}
	times, err := s.catalog.TimeSlots(ctx)
	if err != nil {
		return nil, err
	}
	dayIDs := map[int]struct{}{}
	for _, d := range days {
		dayIDs[d.ID] = struct{}{}
	}
	slotIDs := map[int]struct{}{}
	for _, t := range times {
		slotIDs[t.ID] = struct{}{}
	}

	var rows []Placement
	var subjectIDs []int64
	seen := map[academic.SlotKey]struct{}{}
	for _, sl := range slots {
		if sl.SubjectID == nil || strings.TrimSpace(*sl.SubjectID) == "" {
			continue
		}
		key := academic.SlotKey{DayID: sl.Day + 1, SlotID: sl.TimeSlot + 1}
		if _, ok := dayIDs[key.DayID]; !ok {
			return nil, apperr.Invalid("week day not found for day: %d", sl.Day)
		}
		if _, ok := slotIDs[key.SlotID]; !ok {
			return nil, apperr.Invalid("time slot not found for timeSlot: %d", sl.TimeSlot)
		}
		if _, dup := seen[key]; dup {
			return nil, apperr.Invalid("more than one subject for day %d, timeSlot %d", sl.Day, sl.TimeSlot)
		}
		seen[key] = struct{}{}
		id, err := strconv.ParseInt(strings.TrimSpace(*sl.SubjectID), 10, 64)
		if err != nil {
			return nil, apperr.Invalid("invalid subject id: %s", *sl.SubjectID)
		}
		subjectIDs = append(subjectIDs, id)
		rows = append(rows, Placement{SubjectID: id, DayID: key.DayID, SlotID: key.SlotID})
	}

	if len(subjectIDs) > 0 {
		found, err := s.catalog.SubjectsByIDs(ctx, subjectIDs)
		if err != nil {
			return nil, err
		}
		known := map[int64]struct{}{}
		for _, sub := range found {
			known[sub.ID] = struct{}{}
		}
		for _, id := range subjectIDs {
			if _, ok := known[id]; !ok {
				return nil, apperr.Invalid("subject not found: %d", id)
			}
		}
	}
	return rows, nil
}

// Change is an enrollment update to mirror in the timetable.
type Change struct {
	StudentID  int64
	SemesterID int64
	Previous   []int64
	Next       []int64
	// Subjects holds details for every id in Previous and Next.
	Subjects map[int64]academic.Subject
	// Defaults are the default schedule rows of the subjects in Next.
	Defaults []academic.ScheduleSlot
}

// Sync applies an enrollment change to the timetable. Rows of removed subjects
// are deleted and default rows of added subjects are inserted unless their
// cell is taken; taken cells are reported as conflicts and left untouched.
// Run it inside the same transaction as the enrollment update.
func Sync(ctx context.Context, st Store, ch Change) (SyncResult, error) {
	removed, added := DiffSubjects(ch.Previous, ch.Next)
	res := SyncResult{
		Success:               true,
		Conflicts:             []Conflict{},
		AddedSubjects:         infos(added, ch.Subjects),
		RemovedSubjects:       infos(removed, ch.Subjects),
		SubjectsWithConflicts: []SubjectInfo{},
	}

	n, err := st.DeleteForSubjects(ctx, ch.StudentID, ch.SemesterID, removed)
	if err != nil {
		return SyncResult{}, err
	}
	res.TimetableSlotsRemoved = n

	if len(added) == 0 {
		res.Message = "Subject enrollment updated successfully"
		if n > 0 {
			res.Message = fmt.Sprintf("Removed %d timetable slot(s) for unenrolled subjects", n)
		}
		return res, nil
	}

	existing, err := st.Entries(ctx, ch.StudentID, ch.SemesterID)
	if err != nil {
		return SyncResult{}, err
	}
	p := planAdditions(ch.Defaults, added, existing)
	if err := st.Insert(ctx, ch.StudentID, ch.SemesterID, p.insert); err != nil {
		return SyncResult{}, err
	}
	res.TimetableSlotsAdded = len(p.insert)

	if len(p.conflicts) > 0 {
		res.Success = false
		res.HasConflicts = true
		res.Conflicts = p.conflicts
		res.SubjectsWithConflicts = infos(p.conflictSubjects, ch.Subjects)
		res.Message = fmt.Sprintf("Timetable conflicts detected. %d slot(s) could not be added. Please resolve conflicts manually.", len(p.conflicts))
		return res, nil
	}
	res.Message = fmt.Sprintf("Subject enrollment updated successfully. %d timetable slot(s) added.", len(p.insert))
	return res, nil
}

func infos(ids []int64, subjects map[int64]academic.Subject) []SubjectInfo {
	out := make([]SubjectInfo, 0, len(ids))
	for _, id := range ids {
		if sub, ok := subjects[id]; ok {
			out = append(out, SubjectInfo{SubjectID: id, SubjectCode: sub.Code, SubjectName: sub.Name})
		}
	}
	return out
}
