package attendance

// LatestBaseline picks the snapshot with the greatest cutoff date.
// Equal cutoff dates resolve to the highest id.
func LatestBaseline(baselines []Baseline) (Baseline, bool) {
	var best Baseline
	found := false
	for _, b := range baselines {
		if !found || b.CutoffDate.After(best.CutoffDate) ||
			(b.CutoffDate.Equal(best.CutoffDate) && b.ID > best.ID) {
			best = b
			found = true
		}
	}
	return best, found
}

// Merge combines the latest baseline with the records dated strictly after its cutoff.
// Without a baseline every record counts. Inputs must belong to one student and subject.
func Merge(baselines []Baseline, records []Record) Counts {
	var c Counts
	base, hasBase := LatestBaseline(baselines)
	if hasBase {
		c.Present = base.PresentClasses
		c.Absent = base.TotalClasses - base.PresentClasses
		c.Total = base.TotalClasses
	}
	for _, r := range records {
		if hasBase && !r.LectureDate.After(base.CutoffDate) {
			continue
		}
		c.Total++
		switch r.Status {
		case StatusPresent:
			c.Present++
		case StatusAbsent:
			c.Absent++
		case StatusLeave:
			c.Leave++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}
