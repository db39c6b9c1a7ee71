package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"attendanceio/internal/academic"
)

var (
	monday  = academic.WeekDay{ID: 1, Name: "MONDAY"}
	tuesday = academic.WeekDay{ID: 2, Name: "TUESDAY"}
	first   = academic.TimeSlot{ID: 1, Start: "09:00", End: "10:00"}
	second  = academic.TimeSlot{ID: 2, Start: "10:00", End: "11:00"}
)

func subj(id int64, code string) academic.Subject {
	return academic.Subject{ID: id, Code: code, Name: code + " name", SemesterID: 1}
}

func sched(s academic.Subject, d academic.WeekDay, t academic.TimeSlot) academic.ScheduleSlot {
	return academic.ScheduleSlot{Subject: s, Day: d, Slot: t}
}

func entry(s academic.Subject, d academic.WeekDay, t academic.TimeSlot) Entry {
	return Entry{StudentID: 7, SemesterID: 1, Subject: s, Day: d, Slot: t}
}

func TestDiffSubjects(t *testing.T) {
	removed, added := DiffSubjects([]int64{3, 1, 2}, []int64{2, 5, 4})
	assert.Equal(t, []int64{1, 3}, removed)
	assert.Equal(t, []int64{4, 5}, added)

	removed, added = DiffSubjects(nil, nil)
	assert.Empty(t, removed)
	assert.Empty(t, added)
}

func TestPlanAdditions(t *testing.T) {
	algo, net, ml := subj(1, "ALGO"), subj(2, "NET"), subj(3, "ML")

	t.Run("occupied cell yields one conflict", func(t *testing.T) {
		p := planAdditions(
			[]academic.ScheduleSlot{sched(net, monday, first), sched(net, tuesday, second)},
			[]int64{net.ID},
			[]Entry{entry(algo, monday, first)},
		)
		assert.Equal(t, []Placement{{SubjectID: net.ID, DayID: 2, SlotID: 2}}, p.insert)
		if assert.Len(t, p.conflicts, 1) {
			c := p.conflicts[0]
			assert.Equal(t, algo.ID, c.ExistingSubjectID)
			assert.Equal(t, net.ID, c.NewSubjectID)
			assert.Equal(t, "MONDAY", c.DayName)
			assert.Equal(t, "09:00", c.SlotStartTime)
			assert.Equal(t, "10:00", c.SlotEndTime)
		}
		assert.Equal(t, []int64{net.ID}, p.conflictSubjects)
	})

	t.Run("two added subjects share a default cell", func(t *testing.T) {
		p := planAdditions(
			[]academic.ScheduleSlot{sched(ml, monday, first), sched(net, monday, first)},
			[]int64{net.ID, ml.ID},
			nil,
		)
		assert.Equal(t, []Placement{{SubjectID: net.ID, DayID: 1, SlotID: 1}}, p.insert)
		if assert.Len(t, p.conflicts, 1) {
			assert.Equal(t, net.ID, p.conflicts[0].ExistingSubjectID)
			assert.Equal(t, ml.ID, p.conflicts[0].NewSubjectID)
		}
	})

	t.Run("defaults of subjects not added are ignored", func(t *testing.T) {
		p := planAdditions([]academic.ScheduleSlot{sched(algo, monday, first)}, []int64{net.ID}, nil)
		assert.Empty(t, p.insert)
		assert.Empty(t, p.conflicts)
	})

	t.Run("same subject already in the cell", func(t *testing.T) {
		p := planAdditions(
			[]academic.ScheduleSlot{sched(net, monday, first)},
			[]int64{net.ID},
			[]Entry{entry(net, monday, first)},
		)
		assert.Empty(t, p.insert)
		assert.Empty(t, p.conflicts)
	})
}

func TestDetectConflicts(t *testing.T) {
	algo, net, ml := subj(1, "ALGO"), subj(2, "NET"), subj(3, "ML")

	t.Run("no overlap", func(t *testing.T) {
		got := DetectConflicts([]academic.ScheduleSlot{sched(net, monday, first)}, []Entry{entry(algo, tuesday, first)})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("proposed subjects collide pairwise", func(t *testing.T) {
		got := DetectConflicts([]academic.ScheduleSlot{
			sched(algo, monday, first), sched(net, monday, first), sched(ml, monday, first),
		}, nil)
		assert.Len(t, got, 3)
		assert.Equal(t, algo.ID, got[0].ExistingSubjectID)
		assert.Equal(t, net.ID, got[0].NewSubjectID)
	})

	t.Run("proposed subject against existing timetable", func(t *testing.T) {
		got := DetectConflicts(
			[]academic.ScheduleSlot{sched(net, monday, second)},
			[]Entry{entry(algo, monday, second)},
		)
		if assert.Len(t, got, 1) {
			assert.Equal(t, algo.ID, got[0].ExistingSubjectID)
			assert.Equal(t, net.ID, got[0].NewSubjectID)
			assert.Equal(t, 2, got[0].SlotID)
		}
	})

	t.Run("already enrolled subject does not clash with itself", func(t *testing.T) {
		got := DetectConflicts(
			[]academic.ScheduleSlot{sched(algo, monday, first)},
			[]Entry{entry(algo, monday, first)},
		)
		assert.Empty(t, got)
	})
}
