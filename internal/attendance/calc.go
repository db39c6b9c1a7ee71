package attendance

import "math"

// classesNeededCap bounds the search for unreachable targets such as 100%.
const classesNeededCap = 1000

// Percentage returns present/total*100, or 0 with no classes.
func Percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// Round2 rounds to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClassesNeeded is the smallest n with (present+n)/(total+n)*100 >= minRequired,
// compared in float64 like Percentage. With no classes yet it returns 1.
func ClassesNeeded(present, total, minRequired int) int {
	if total == 0 {
		return 1
	}
	n := 0
	for Percentage(present+n, total+n) < float64(minRequired) && n < classesNeededCap {
		n++
	}
	return n
}

// BunkableClasses is how many of the remaining lectures until the end date can be
// missed while still finishing at or above minRequired%.
func BunkableClasses(present, currentTotal, totalUntilEndDate, minRequired int) int {
	if totalUntilEndDate == 0 || currentTotal >= totalUntilEndDate {
		return 0
	}
	remaining := totalUntilEndDate - currentTotal
	need := ceilDiv(minRequired*totalUntilEndDate-100*present, 100)
	if need > remaining || need < 0 {
		return 0
	}
	return max(0, remaining-need)
}

// ceilDiv rounds a/b toward positive infinity for b > 0.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}
