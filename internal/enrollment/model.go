package enrollment

import (
	"attendanceio/internal/academic"
	"attendanceio/internal/timetable"
)

// Enrolled is a current-semester enrollment row.
type Enrolled struct {
	Subject         academic.Subject
	MinimumCriteria *int
}

// Row is an enrollment to insert.
type Row struct {
	SubjectID       int64
	MinimumCriteria int
}

// EnrolledSubject is the API view of an enrollment.
type EnrolledSubject struct {
	SubjectID       string `json:"subjectId"`
	SubjectCode     string `json:"subjectCode"`
	SubjectName     string `json:"subjectName"`
	LecturePlace    string `json:"lecturePlace,omitempty"`
	Color           string `json:"color"`
	MinimumCriteria *int   `json:"minimumCriteria"`
}

type SaveRequest struct {
	SubjectIDs []string `json:"subjectIds"`
}

// SaveResult echoes the selection together with the timetable sync outcome.
type SaveResult struct {
	SubjectIDs []string `json:"subjectIds"`
	Count      int      `json:"count"`
	timetable.SyncResult
}

// Preview lists the conflicts a selection would produce.
type Preview struct {
	HasConflicts          bool                    `json:"hasConflicts"`
	Conflicts             []timetable.Conflict    `json:"conflicts"`
	Message               string                  `json:"message"`
	AddedSubjects         []timetable.SubjectInfo `json:"addedSubjects"`
	RemovedSubjects       []timetable.SubjectInfo `json:"removedSubjects"`
	SubjectsWithConflicts []timetable.SubjectInfo `json:"subjectsWithConflicts"`
}

// CriteriaRequest sets or clears a custom minimum. A nil value clears it.
type CriteriaRequest struct {
	SubjectID       string `json:"subjectId"`
	MinimumCriteria *int   `json:"minimumCriteria"`
}
