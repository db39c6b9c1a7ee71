package attendance

import "time"

// ProjectClasses counts lectures between start and end inclusive for a weekly pattern.
// days holds one entry per timetable row, so two rows on a weekday count twice.
// ok is false when there is nothing to project and callers should fall back to
// record based totals.
func ProjectClasses(start, end time.Time, days []time.Weekday) (total int, ok bool) {
	if start.IsZero() || len(days) == 0 {
		return 0, false
	}
	start, end = dateOf(start), dateOf(end)
	if end.Before(start) {
		return 0, false
	}

	var perDay [7]int
	for _, d := range days {
		perDay[d]++
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		total += perDay[d.Weekday()]
	}
	return total, total > 0
}

// ExpectedTotal subtracts cancelled lectures from a projection, floored at zero.
func ExpectedTotal(projected, cancelled int) int {
	return max(0, projected-cancelled)
}

// CountCancelledUntil counts cancelled records on or before end.
func CountCancelledUntil(records []Record, end time.Time) int {
	end = dateOf(end)
	n := 0
	for _, r := range records {
		if r.Status == StatusCancelled && !dateOf(r.LectureDate).After(end) {
			n++
		}
	}
	return n
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
