package snapshot

import "fmt"

// Position is a zero-based (row, column) point as reported by tree-sitter.
// Column is a byte offset within the row.
type Position struct {
	Row    int `json:"row" yaml:"row"`
	Column int `json:"column" yaml:"column"`
}

// Region is one control-annotated span of source. Two regions are equal
// (==) only when every field is equal; the Differ relies on that.
type Region struct {
	Path       string   `json:"path" yaml:"path"`
	Annotation string   `json:"annotation" yaml:"annotation"`
	Content    string   `json:"content" yaml:"content"`
	Start      Position `json:"start" yaml:"start"`
	End        Position `json:"end" yaml:"end"`
}

// Lines returns the 1-based inclusive start and end lines of the region.
func (r Region) Lines() (start, end int) {
	return r.Start.Row + 1, r.End.Row + 1
}

func (r Region) String() string {
	start, end := r.Lines()
	return fmt.Sprintf("%s;%d:%d", r.Path, start, end)
}

// Snapshot is the ordered list of regions produced by one extraction run.
type Snapshot []Region
