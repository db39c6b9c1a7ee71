package academic

import (
	"strconv"
	"strings"
	"time"
)

// Semester is an academic term.
type Semester struct {
	ID       int64  `json:"id"`
	Year     int    `json:"year"`
	Type     string `json:"type"`
	IsActive bool   `json:"isActive"`
}

// Label renders "2024 Winter" style names.
func (s Semester) Label() string {
	return strings.TrimSpace(strconv.Itoa(s.Year) + " " + TypeName(s.Type))
}

// TypeName title-cases a semester type such as WINTER.
func TypeName(t string) string {
	if t == "" {
		return ""
	}
	lower := strings.ToLower(t)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// Subject belongs to exactly one semester.
type Subject struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	LecturePlace string `json:"lecturePlace,omitempty"`
	Color        string `json:"color"`
	SemesterID   int64  `json:"semesterId"`
}

// WeekDay ids run 1 (MONDAY) to 5 (FRIDAY).
type WeekDay struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Weekday converts the day id to time.Weekday; ids share Go's Monday=1 numbering.
func (d WeekDay) Weekday() time.Weekday {
	return time.Weekday(d.ID % 7)
}

// TimeSlot is a fixed lecture slot, times formatted HH:MM.
type TimeSlot struct {
	ID    int    `json:"id"`
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// StartOn returns the slot start as a time on the given date.
func (s TimeSlot) StartOn(date time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", s.Start)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// ScheduleSlot is a default (subject, day, slot) triple with its rows loaded.
type ScheduleSlot struct {
	Subject Subject  `json:"subject"`
	Day     WeekDay  `json:"day"`
	Slot    TimeSlot `json:"slot"`
}

// SlotKey identifies a cell of the weekly grid.
type SlotKey struct {
	DayID  int
	SlotID int
}

func (s ScheduleSlot) Key() SlotKey {
	return SlotKey{DayID: s.Day.ID, SlotID: s.Slot.ID}
}
