package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProjectClassesWalksCalendar(t *testing.T) {
	// 2024-01-01 is a Monday; two full weeks.
	total, ok := ProjectClasses(day("2024-01-01"), day("2024-01-14"), []time.Weekday{time.Monday, time.Wednesday})
	assert.True(t, ok)
	assert.Equal(t, 4, total)
}

func TestProjectClassesCountsRepeatedWeekday(t *testing.T) {
	days := []time.Weekday{time.Wednesday, time.Wednesday, time.Friday}
	total, ok := ProjectClasses(day("2024-01-01"), day("2024-01-07"), days)
	assert.True(t, ok)
	assert.Equal(t, 3, total)
}

func TestProjectClassesPartialWeeksInclusive(t *testing.T) {
	// Wed 2024-01-03 .. Mon 2024-01-08 includes Wed, Fri, Mon.
	days := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	total, ok := ProjectClasses(day("2024-01-03"), day("2024-01-08"), days)
	assert.True(t, ok)
	assert.Equal(t, 3, total)
}

func TestProjectClassesFallbackSignals(t *testing.T) {
	_, ok := ProjectClasses(time.Time{}, day("2024-01-08"), []time.Weekday{time.Monday})
	assert.False(t, ok, "no start date")

	_, ok = ProjectClasses(day("2024-01-01"), day("2024-01-08"), nil)
	assert.False(t, ok, "no timetable rows")

	_, ok = ProjectClasses(day("2024-02-01"), day("2024-01-08"), []time.Weekday{time.Monday})
	assert.False(t, ok, "end before start")
}

func TestExpectedTotalFloorsAtZero(t *testing.T) {
	assert.Equal(t, 7, ExpectedTotal(10, 3))
	assert.Equal(t, 0, ExpectedTotal(2, 5))
}

func TestCountCancelledUntil(t *testing.T) {
	records := []Record{
		{LectureDate: day("2024-01-02"), Status: StatusCancelled},
		{LectureDate: day("2024-01-09"), Status: StatusCancelled},
		{LectureDate: day("2024-01-10"), Status: StatusCancelled},
		{LectureDate: day("2024-01-05"), Status: StatusPresent},
	}
	assert.Equal(t, 2, CountCancelledUntil(records, day("2024-01-09")))
}
