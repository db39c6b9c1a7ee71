package academic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemesterLabel(t *testing.T) {
	assert.Equal(t, "2024 Winter", Semester{Year: 2024, Type: "WINTER"}.Label())
	assert.Equal(t, "2025 Summer", Semester{Year: 2025, Type: "summer"}.Label())
}

func TestWeekDayMapsToGoWeekday(t *testing.T) {
	assert.Equal(t, time.Monday, WeekDay{ID: 1}.Weekday())
	assert.Equal(t, time.Friday, WeekDay{ID: 5}.Weekday())
	assert.Equal(t, time.Sunday, WeekDay{ID: 7}.Weekday())
}

func TestTimeSlotStartOn(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	start, err := TimeSlot{Start: "08:30"}.StartOn(day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC), start)

	_, err = TimeSlot{Start: "8.30am"}.StartOn(day)
	assert.Error(t, err)
}
