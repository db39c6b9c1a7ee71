package attendance

import (
	"strings"
	"time"

	"attendanceio/internal/apperr"
)

// Status of a single lecture record.
type Status string

const (
	StatusPresent   Status = "PRESENT"
	StatusAbsent    Status = "ABSENT"
	StatusLeave     Status = "LEAVE"
	StatusCancelled Status = "CANCELLED"
)

// SourceStudent tags records marked by the student themselves.
const SourceStudent = "STUDENT"

// ParseStatus accepts any casing of the four statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPresent, StatusAbsent, StatusLeave, StatusCancelled:
		return st, nil
	}
	return "", apperr.Invalid("invalid status: %s. Must be 'present', 'absent', 'leave', or 'cancelled'", s)
}

// Lower renders the status the way clients send it.
func (s Status) Lower() string { return strings.ToLower(string(s)) }

// Record is one marked lecture.
type Record struct {
	ID          int64
	StudentID   int64
	SubjectID   int64
	LectureDate time.Time
	Status      Status
	Source      string
}

// Baseline is an institute supplied snapshot as of CutoffDate.
type Baseline struct {
	ID             int64
	StudentID      int64
	SubjectID      int64
	CutoffDate     time.Time
	TotalClasses   int
	PresentClasses int
}

// Counts is the merged tally for one student and subject.
// Total includes cancelled records after the cutoff; Cancelled reports them separately.
type Counts struct {
	Present   int
	Absent    int
	Leave     int
	Cancelled int
	Total     int
}

// SubjectStats is the per-subject view returned to students.
type SubjectStats struct {
	SubjectID         string  `json:"subjectId"`
	Present           int     `json:"present"`
	Absent            int     `json:"absent"`
	Leave             int     `json:"leave"`
	Total             int     `json:"total"`
	TotalUntilEndDate int     `json:"totalUntilEndDate"`
	Percentage        float64 `json:"percentage"`
	ClassesNeeded     int     `json:"classesNeeded"`
	BunkableClasses   int     `json:"bunkableClasses"`
	MinimumCriteria   int     `json:"minimumCriteria"`
}

// DayRecord is a record on the requested date.
type DayRecord struct {
	AttendanceID int64  `json:"attendanceId"`
	SubjectID    string `json:"subjectId"`
	LectureDate  string `json:"lectureDate"`
	Status       string `json:"status"`
}

// Overview answers GET /api/attendance.
type Overview struct {
	SubjectStats    []SubjectStats `json:"subjectStats"`
	TodayAttendance []DayRecord    `json:"todayAttendance"`
}

// MarkRequest is the body of POST /api/attendance.
type MarkRequest struct {
	SubjectID   string `json:"subjectId" binding:"required"`
	LectureDate string `json:"lectureDate" binding:"required"`
	Status      string `json:"status" binding:"required"`
}

// MarkResult echoes the stored record.
type MarkResult struct {
	Message      string `json:"message"`
	AttendanceID int64  `json:"attendanceId"`
	SubjectID    string `json:"subjectId"`
	LectureDate  string `json:"lectureDate"`
	Status       string `json:"status"`
}

// BaselineRequest is the body of POST /api/student/enrollment/baseline.
type BaselineRequest struct {
	SubjectID      string `json:"subjectId" binding:"required"`
	CutoffDate     string `json:"cutoffDate" binding:"required"`
	TotalClasses   int    `json:"totalClasses"`
	PresentClasses int    `json:"presentClasses"`
}
