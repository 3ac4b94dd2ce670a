package store

import "time"

// RunKind distinguishes recording a snapshot from checking against one.
type RunKind string

const (
	RunRecord RunKind = "record"
	RunCheck  RunKind = "check"
)

// ChangeKind is the side of a diff a region fell on.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
)

type Run struct {
	ID           int64
	Kind         RunKind
	Root         string
	Language     string
	SnapshotPath string
	Files        int
	Regions      int
	Added        int
	Removed      int
	StartedAt    time.Time
}

// Drifted reports whether a check run found changes.
func (r *Run) Drifted() bool {
	return r.Added > 0 || r.Removed > 0
}

// Change is one region reported by a check run. Content is stored as a
// hash; the snapshot file keeps the text.
type Change struct {
	ID          int64
	RunID       int64
	Ordinal     int
	Kind        ChangeKind
	Path        string
	Annotation  string
	ControlIDs  []string
	ContentHash string
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
}
