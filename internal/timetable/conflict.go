package timetable

import (
	"sort"

	"attendanceio/internal/academic"
)

// DiffSubjects splits an enrollment change into removed and added subject ids.
// Both results are sorted.
func DiffSubjects(previous, next []int64) (removed, added []int64) {
	prev := toSet(previous)
	nxt := toSet(next)
	for id := range prev {
		if _, ok := nxt[id]; !ok {
			removed = append(removed, id)
		}
	}
	for id := range nxt {
		if _, ok := prev[id]; !ok {
			added = append(added, id)
		}
	}
	sortIDs(removed)
	sortIDs(added)
	return removed, added
}

// Placement plan for newly added subjects.
type plan struct {
	insert           []Placement
	conflicts        []Conflict
	conflictSubjects []int64
}

// planAdditions places the default schedule rows of added subjects into the
// grid. A cell already held by another subject, either in the existing
// timetable or by a row placed earlier in the same pass, yields a conflict and
// the row is skipped. Rows whose cell already holds the same subject are no-ops.
func planAdditions(defaults []academic.ScheduleSlot, added []int64, existing []Entry) plan {
	want := toSet(added)
	taken := make(map[academic.SlotKey]academic.Subject, len(existing))
	for _, e := range existing {
		taken[e.Key()] = e.Subject
	}

	var p plan
	seen := map[int64]struct{}{}
	for _, d := range sortedSlots(defaults) {
		if _, ok := want[d.Subject.ID]; !ok {
			continue
		}
		holder, ok := taken[d.Key()]
		switch {
		case !ok:
			taken[d.Key()] = d.Subject
			p.insert = append(p.insert, placementOf(d))
		case holder.ID == d.Subject.ID:
		default:
			p.conflicts = append(p.conflicts, newConflict(d.Day, d.Slot, holder, d.Subject))
			if _, dup := seen[d.Subject.ID]; !dup {
				seen[d.Subject.ID] = struct{}{}
				p.conflictSubjects = append(p.conflictSubjects, d.Subject.ID)
			}
		}
	}
	return p
}

// DetectConflicts previews collisions for a proposed subject set without
// changing anything. Proposed subjects sharing a default cell conflict
// pairwise; each proposed subject also conflicts with a different subject
// already holding that cell in the existing timetable.
func DetectConflicts(proposed []academic.ScheduleSlot, existing []Entry) []Conflict {
	held := make(map[academic.SlotKey]academic.Subject, len(existing))
	for _, e := range existing {
		held[e.Key()] = e.Subject
	}

	groups := map[academic.SlotKey][]academic.ScheduleSlot{}
	var keys []academic.SlotKey
	for _, s := range sortedSlots(proposed) {
		k := s.Key()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], s)
	}

	conflicts := []Conflict{}
	for _, k := range keys {
		group := groups[k]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].Subject.ID == group[j].Subject.ID {
					continue
				}
				conflicts = append(conflicts, newConflict(group[i].Day, group[i].Slot, group[i].Subject, group[j].Subject))
			}
		}
		holder, ok := held[k]
		if !ok {
			continue
		}
		for _, s := range group {
			if s.Subject.ID == holder.ID {
				continue
			}
			conflicts = append(conflicts, newConflict(s.Day, s.Slot, holder, s.Subject))
		}
	}
	return conflicts
}

func sortedSlots(in []academic.ScheduleSlot) []academic.ScheduleSlot {
	out := append([]academic.ScheduleSlot(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Day.ID != b.Day.ID {
			return a.Day.ID < b.Day.ID
		}
		if a.Slot.ID != b.Slot.ID {
			return a.Slot.ID < b.Slot.ID
		}
		return a.Subject.ID < b.Subject.ID
	})
	return out
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
