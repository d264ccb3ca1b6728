// v0
// internal/attendance/diff.go
package attendance

import "sort"

// MarkChange records one person's status transition between two mark sets.
type MarkChange struct {
	PersonID string
	From     Status
	To       Status
}

// DiffMarks compares two person-to-status mappings and returns the changes
// sorted by person id. Entries missing on either side are treated as
// Absent, so newly added and removed marks both surface as transitions.
func DiffMarks(prev, next map[string]Status) []MarkChange {
	seen := make(map[string]struct{}, len(prev)+len(next))
	ids := make([]string, 0, len(prev)+len(next))
	for id := range prev {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for id := range next {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var changes []MarkChange
	for _, id := range ids {
		before := prev[id]
		after := next[id]
		if before == after {
			continue
		}
		changes = append(changes, MarkChange{PersonID: id, From: before, To: after})
	}
	return changes
}
