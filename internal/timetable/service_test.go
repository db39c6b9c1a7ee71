package timetable

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendanceio/internal/academic"
	"attendanceio/internal/apperr"
)

type memStore struct {
	rows     []Entry
	subjects map[int64]academic.Subject
	days     map[int]academic.WeekDay
	slots    map[int]academic.TimeSlot
	nextID   int64
	txCalls  int
}

func newMemStore(subjects ...academic.Subject) *memStore {
	m := &memStore{
		subjects: map[int64]academic.Subject{},
		days:     map[int]academic.WeekDay{1: monday, 2: tuesday},
		slots:    map[int]academic.TimeSlot{1: first, 2: second},
	}
	for _, s := range subjects {
		m.subjects[s.ID] = s
	}
	return m
}

func (m *memStore) seed(entries ...Entry) {
	for _, e := range entries {
		m.nextID++
		e.ID = m.nextID
		m.rows = append(m.rows, e)
	}
}

func (m *memStore) Entries(_ context.Context, studentID, semesterID int64) ([]Entry, error) {
	var out []Entry
	for _, e := range m.rows {
		if e.StudentID == studentID && e.SemesterID == semesterID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) DeleteForSubjects(_ context.Context, studentID, semesterID int64, subjectIDs []int64) (int, error) {
	drop := toSet(subjectIDs)
	kept := m.rows[:0]
	n := 0
	for _, e := range m.rows {
		if _, ok := drop[e.Subject.ID]; ok && e.StudentID == studentID && e.SemesterID == semesterID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.rows = kept
	return n, nil
}

func (m *memStore) DeleteAll(_ context.Context, studentID, semesterID int64) error {
	kept := m.rows[:0]
	for _, e := range m.rows {
		if e.StudentID != studentID || e.SemesterID != semesterID {
			kept = append(kept, e)
		}
	}
	m.rows = kept
	return nil
}

func (m *memStore) Insert(_ context.Context, studentID, semesterID int64, rows []Placement) error {
	for _, p := range rows {
		for _, e := range m.rows {
			if e.StudentID == studentID && e.SemesterID == semesterID && e.Day.ID == p.DayID && e.Slot.ID == p.SlotID {
				return fmt.Errorf("duplicate key for day %d slot %d", p.DayID, p.SlotID)
			}
		}
		m.seed(Entry{
			StudentID:  studentID,
			SemesterID: semesterID,
			Subject:    m.subjects[p.SubjectID],
			Day:        m.days[p.DayID],
			Slot:       m.slots[p.SlotID],
		})
	}
	return nil
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, st Store) error) error {
	m.txCalls++
	return fn(ctx, m)
}

func (m *memStore) cell(d academic.WeekDay, t academic.TimeSlot) []int64 {
	var ids []int64
	for _, e := range m.rows {
		if e.Day.ID == d.ID && e.Slot.ID == t.ID {
			ids = append(ids, e.Subject.ID)
		}
	}
	return ids
}

type fakeCatalog struct {
	semester *academic.Semester
	subjects map[int64]academic.Subject
}

func (f fakeCatalog) CurrentSemester(context.Context) (academic.Semester, error) {
	if f.semester == nil {
		return academic.Semester{}, apperr.NotFound("no active semester")
	}
	return *f.semester, nil
}

func (f fakeCatalog) WeekDays(context.Context) ([]academic.WeekDay, error) {
	return []academic.WeekDay{monday, tuesday}, nil
}

func (f fakeCatalog) TimeSlots(context.Context) ([]academic.TimeSlot, error) {
	return []academic.TimeSlot{first, second}, nil
}

func (f fakeCatalog) SubjectsByIDs(_ context.Context, ids []int64) ([]academic.Subject, error) {
	var out []academic.Subject
	for _, id := range ids {
		if s, ok := f.subjects[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func subjectMap(subjects ...academic.Subject) map[int64]academic.Subject {
	m := map[int64]academic.Subject{}
	for _, s := range subjects {
		m[s.ID] = s
	}
	return m
}

func TestSyncLeavesCollidingCellUntouched(t *testing.T) {
	algo, net := subj(1, "ALGO"), subj(2, "NET")
	st := newMemStore(algo, net)
	st.seed(entry(algo, monday, first))

	res, err := Sync(context.Background(), st, Change{
		StudentID:  7,
		SemesterID: 1,
		Previous:   []int64{algo.ID},
		Next:       []int64{algo.ID, net.ID},
		Subjects:   subjectMap(algo, net),
		Defaults:   []academic.ScheduleSlot{sched(algo, monday, first), sched(net, monday, first), sched(net, tuesday, second)},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.HasConflicts)
	assert.Len(t, res.Conflicts, 1)
	assert.Equal(t, 1, res.TimetableSlotsAdded)
	assert.Equal(t, []SubjectInfo{{SubjectID: 2, SubjectCode: "NET", SubjectName: "NET name"}}, res.SubjectsWithConflicts)
	assert.Equal(t, []SubjectInfo{{SubjectID: 2, SubjectCode: "NET", SubjectName: "NET name"}}, res.AddedSubjects)
	assert.Empty(t, res.RemovedSubjects)
	assert.Contains(t, res.Message, "1 slot(s) could not be added")

	assert.Equal(t, []int64{algo.ID}, st.cell(monday, first))
	assert.Equal(t, []int64{net.ID}, st.cell(tuesday, second))
	assert.Len(t, st.rows, 2)
}

func TestSyncRemovalsAndPartialAdditions(t *testing.T) {
	algo, old, x, y := subj(1, "ALGO"), subj(2, "OLD"), subj(3, "X"), subj(4, "Y")
	st := newMemStore(algo, old, x, y)
	st.seed(
		entry(algo, monday, first),
		entry(old, monday, second),
		entry(old, tuesday, first),
		entry(old, tuesday, second),
	)

	res, err := Sync(context.Background(), st, Change{
		StudentID:  7,
		SemesterID: 1,
		Previous:   []int64{algo.ID, old.ID},
		Next:       []int64{algo.ID, x.ID, y.ID},
		Subjects:   subjectMap(algo, old, x, y),
		Defaults:   []academic.ScheduleSlot{sched(x, monday, first), sched(y, tuesday, first)},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.TimetableSlotsRemoved)
	assert.Equal(t, 1, res.TimetableSlotsAdded)
	assert.Len(t, res.Conflicts, 1)
	assert.Equal(t, []SubjectInfo{{SubjectID: 2, SubjectCode: "OLD", SubjectName: "OLD name"}}, res.RemovedSubjects)

	assert.Len(t, st.rows, 2)
	assert.Equal(t, []int64{algo.ID}, st.cell(monday, first))
	assert.Equal(t, []int64{y.ID}, st.cell(tuesday, first))
	assert.Empty(t, st.cell(monday, second))
}

func TestSyncOnlyRemovals(t *testing.T) {
	algo := subj(1, "ALGO")
	st := newMemStore(algo)
	st.seed(entry(algo, monday, first), entry(algo, tuesday, first))

	res, err := Sync(context.Background(), st, Change{
		StudentID:  7,
		SemesterID: 1,
		Previous:   []int64{algo.ID},
		Subjects:   subjectMap(algo),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.TimetableSlotsRemoved)
	assert.Equal(t, "Removed 2 timetable slot(s) for unenrolled subjects", res.Message)
	assert.Empty(t, st.rows)

	res, err = Sync(context.Background(), st, Change{StudentID: 7, SemesterID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Subject enrollment updated successfully", res.Message)
}

func TestSyncWithoutConflicts(t *testing.T) {
	net := subj(2, "NET")
	st := newMemStore(net)

	res, err := Sync(context.Background(), st, Change{
		StudentID:  7,
		SemesterID: 1,
		Next:       []int64{net.ID},
		Subjects:   subjectMap(net),
		Defaults:   []academic.ScheduleSlot{sched(net, monday, first), sched(net, tuesday, first)},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.HasConflicts)
	assert.Equal(t, 2, res.TimetableSlotsAdded)
	assert.Equal(t, "Subject enrollment updated successfully. 2 timetable slot(s) added.", res.Message)
}

func TestServiceGet(t *testing.T) {
	algo := subj(11, "ALGO")
	st := newMemStore(algo)
	st.seed(entry(algo, tuesday, second))
	other := entry(algo, monday, first)
	other.SemesterID = 2
	st.seed(other)

	svc := NewService(st, st, fakeCatalog{semester: &academic.Semester{ID: 1}})
	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []SlotView{{Day: 1, TimeSlot: 1, SubjectID: "11"}}, got)

	svc = NewService(st, st, fakeCatalog{})
	got, err = svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func strp(s string) *string { return &s }

func TestServiceSave(t *testing.T) {
	algo, net := subj(1, "ALGO"), subj(2, "NET")
	cat := fakeCatalog{semester: &academic.Semester{ID: 1}, subjects: subjectMap(algo, net)}

	t.Run("replaces current timetable", func(t *testing.T) {
		st := newMemStore(algo, net)
		st.seed(entry(algo, monday, second))
		svc := NewService(st, st, cat)

		n, err := svc.Save(context.Background(), 7, SaveRequest{Slots: []SlotRequest{
			{Day: 0, TimeSlot: 0, SubjectID: strp("1")},
			{Day: 1, TimeSlot: 1, SubjectID: strp("2")},
			{Day: 1, TimeSlot: 0, SubjectID: nil},
		}})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, st.txCalls)
		assert.Len(t, st.rows, 2)
		assert.Empty(t, st.cell(monday, second))
		assert.Equal(t, []int64{net.ID}, st.cell(tuesday, second))
	})

	cases := []struct {
		name  string
		cat   fakeCatalog
		slots []SlotRequest
	}{
		{"no active semester", fakeCatalog{}, nil},
		{"unknown day", cat, []SlotRequest{{Day: 4, TimeSlot: 0, SubjectID: strp("1")}}},
		{"unknown slot", cat, []SlotRequest{{Day: 0, TimeSlot: 5, SubjectID: strp("1")}}},
		{"bad subject id", cat, []SlotRequest{{Day: 0, TimeSlot: 0, SubjectID: strp("abc")}}},
		{"missing subject", cat, []SlotRequest{{Day: 0, TimeSlot: 0, SubjectID: strp("99")}}},
		{"duplicate cell", cat, []SlotRequest{
			{Day: 0, TimeSlot: 0, SubjectID: strp("1")},
			{Day: 0, TimeSlot: 0, SubjectID: strp("2")},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newMemStore(algo, net)
			st.seed(entry(algo, monday, first))
			svc := NewService(st, st, tc.cat)

			_, err := svc.Save(context.Background(), 7, SaveRequest{Slots: tc.slots})
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
			assert.Len(t, st.rows, 1)
			assert.Zero(t, st.txCalls)
		})
	}
}
