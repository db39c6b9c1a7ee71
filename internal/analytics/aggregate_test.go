package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateBands(t *testing.T) {
	s := Aggregate([]float64{85, 65, 55, 72})

	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 69.25, s.Average, 1e-9)
	assert.Equal(t, 2, s.Above70)
	assert.Equal(t, 1, s.Below60)
	assert.Equal(t, []Distribution{
		{Name: "Above 70%", Value: 50, Color: colorSuccess},
		{Name: "60-70%", Value: 25, Color: colorWarning},
		{Name: "Below 60%", Value: 25, Color: colorDestructive},
	}, s.Distribution)
}

func TestAggregateRanges(t *testing.T) {
	s := Aggregate([]float64{0, 19.99, 20, 59.5, 60, 69.99, 70, 89, 90, 100})

	got := map[string]int{}
	for _, r := range s.Ranges {
		got[r.Range] = r.Count
	}
	assert.Equal(t, map[string]int{
		"0-20%":   2,
		"20-40%":  1,
		"40-60%":  1,
		"60-70%":  2,
		"70-80%":  1,
		"80-90%":  1,
		"90-100%": 2,
	}, got)
	assert.Equal(t, "0-20%", s.Ranges[0].Range)
	assert.Equal(t, "90-100%", s.Ranges[6].Range)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	assert.Zero(t, s.Average)
	assert.Len(t, s.Distribution, 3)
	for _, d := range s.Distribution {
		assert.Zero(t, d.Value)
	}
	assert.Len(t, s.Ranges, 7)
	for _, r := range s.Ranges {
		assert.Zero(t, r.Count)
	}
}

func TestAggregateRoundsShares(t *testing.T) {
	s := Aggregate([]float64{80, 50, 40})
	assert.Equal(t, 33.33, s.Distribution[0].Value)
	assert.Equal(t, 66.67, s.Distribution[2].Value)
	assert.Equal(t, 56.67, s.Average)
}

func TestBandColor(t *testing.T) {
	assert.Equal(t, colorSuccess, BandColor(70))
	assert.Equal(t, colorWarning, BandColor(69.99))
	assert.Equal(t, colorWarning, BandColor(60))
	assert.Equal(t, colorDestructive, BandColor(59.99))
}
