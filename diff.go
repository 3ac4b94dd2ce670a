package control

// Changes is the difference between two snapshots.
type Changes struct {
	// Removed holds regions of the old snapshot with no counterpart in the new.
	Removed []Region `json:"removed" yaml:"removed"`
	// Added holds regions of the new snapshot with no counterpart in the old.
	Added []Region `json:"added" yaml:"added"`
}

// Empty reports whether the snapshots were equivalent.
func (c Changes) Empty() bool {
	return len(c.Removed) == 0 && len(c.Added) == 0
}

// Diff compares two snapshots as multisets of regions. Each region in prev
// cancels at most one equal region in next and vice versa; what remains is
// reported in the order it appears in its own snapshot. Reordering alone is
// never a change.
func Diff(prev, next Snapshot) Changes {
	return Changes{
		Removed: unmatched(prev, next),
		Added:   unmatched(next, prev),
	}
}

// unmatched returns the regions of a left over after cancelling each against
// one equal region of b.
func unmatched(a, b Snapshot) []Region {
	counts := make(map[Region]int, len(b))
	for _, r := range b {
		counts[r]++
	}
	var rest []Region
	for _, r := range a {
		if counts[r] > 0 {
			counts[r]--
			continue
		}
		rest = append(rest, r)
	}
	return rest
}
