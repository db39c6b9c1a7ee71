package timetable

import "attendanceio/internal/academic"

// Entry is one row of a student's timetable with subject, day and slot loaded.
type Entry struct {
	ID         int64
	StudentID  int64
	SemesterID int64
	Subject    academic.Subject
	Day        academic.WeekDay
	Slot       academic.TimeSlot
}

func (e Entry) Key() academic.SlotKey {
	return academic.SlotKey{DayID: e.Day.ID, SlotID: e.Slot.ID}
}

// Placement is a timetable row waiting to be inserted.
type Placement struct {
	SubjectID int64
	DayID     int
	SlotID    int
}

func placementOf(s academic.ScheduleSlot) Placement {
	return Placement{SubjectID: s.Subject.ID, DayID: s.Day.ID, SlotID: s.Slot.ID}
}

// Conflict describes a grid cell that two subjects want.
type Conflict struct {
	DayID               int    `json:"dayId"`
	DayName             string `json:"dayName"`
	SlotID              int    `json:"slotId"`
	SlotStartTime       string `json:"slotStartTime"`
	SlotEndTime         string `json:"slotEndTime"`
	ExistingSubjectID   int64  `json:"existingSubjectId"`
	ExistingSubjectCode string `json:"existingSubjectCode"`
	ExistingSubjectName string `json:"existingSubjectName"`
	NewSubjectID        int64  `json:"newSubjectId"`
	NewSubjectCode      string `json:"newSubjectCode"`
	NewSubjectName      string `json:"newSubjectName"`
}

func newConflict(day academic.WeekDay, slot academic.TimeSlot, existing, incoming academic.Subject) Conflict {
	return Conflict{
		DayID:               day.ID,
		DayName:             day.Name,
		SlotID:              slot.ID,
		SlotStartTime:       slot.Start,
		SlotEndTime:         slot.End,
		ExistingSubjectID:   existing.ID,
		ExistingSubjectCode: existing.Code,
		ExistingSubjectName: existing.Name,
		NewSubjectID:        incoming.ID,
		NewSubjectCode:      incoming.Code,
		NewSubjectName:      incoming.Name,
	}
}

// SubjectInfo is the short form of a subject used in sync summaries.
type SubjectInfo struct {
	SubjectID   int64  `json:"subjectId"`
	SubjectCode string `json:"subjectCode"`
	SubjectName string `json:"subjectName"`
}

// SyncResult reports what an enrollment change did to the timetable.
type SyncResult struct {
	Success               bool          `json:"success"`
	HasConflicts          bool          `json:"hasConflicts"`
	Conflicts             []Conflict    `json:"conflicts"`
	AddedSubjects         []SubjectInfo `json:"addedSubjects"`
	RemovedSubjects       []SubjectInfo `json:"removedSubjects"`
	SubjectsWithConflicts []SubjectInfo `json:"subjectsWithConflicts"`
	TimetableSlotsAdded   int           `json:"timetableSlotsAdded"`
	TimetableSlotsRemoved int           `json:"timetableSlotsRemoved"`
	Message               string        `json:"message"`
}

// SlotView is a filled cell in index form: day 0-4, timeSlot 0-N.
type SlotView struct {
	Day       int    `json:"day"`
	TimeSlot  int    `json:"timeSlot"`
	SubjectID string `json:"subjectId"`
}

// SlotRequest assigns a subject to a cell. A nil SubjectID leaves the cell empty.
type SlotRequest struct {
	Day       int     `json:"day"`
	TimeSlot  int     `json:"timeSlot"`
	SubjectID *string `json:"subjectId"`
}

// SaveRequest replaces the whole timetable for the current semester.
type SaveRequest struct {
	Slots []SlotRequest `json:"slots"`
}
