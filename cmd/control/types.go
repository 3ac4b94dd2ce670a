package main

import (
	"time"

	"github.com/jward/control/internal/store"
)

// CLIRun is a JSON/YAML-friendly ledger run.
type CLIRun struct {
	ID        int64       `json:"id" yaml:"id"`
	Kind      string      `json:"kind" yaml:"kind"`
	Root      string      `json:"root" yaml:"root"`
	Language  string      `json:"language" yaml:"language"`
	Snapshot  string      `json:"snapshot" yaml:"snapshot"`
	Files     int         `json:"files" yaml:"files"`
	Regions   int         `json:"regions" yaml:"regions"`
	Added     int         `json:"added" yaml:"added"`
	Removed   int         `json:"removed" yaml:"removed"`
	StartedAt time.Time   `json:"started_at" yaml:"started_at"`
	Changes   []CLIChange `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// CLIChange is a JSON/YAML-friendly region change. Lines are 1-based.
type CLIChange struct {
	Change      string   `json:"change" yaml:"change"`
	Path        string   `json:"path" yaml:"path"`
	Annotation  string   `json:"annotation" yaml:"annotation"`
	ControlIDs  []string `json:"control_ids,omitempty" yaml:"control_ids,omitempty"`
	ContentHash string   `json:"content_hash" yaml:"content_hash"`
	StartLine   int      `json:"start_line" yaml:"start_line"`
	StartCol    int      `json:"start_col" yaml:"start_col"`
	EndLine     int      `json:"end_line" yaml:"end_line"`
	EndCol      int      `json:"end_col" yaml:"end_col"`
}

func toCLIRun(r *store.Run) CLIRun {
	return CLIRun{
		ID:        r.ID,
		Kind:      string(r.Kind),
		Root:      r.Root,
		Language:  r.Language,
		Snapshot:  r.SnapshotPath,
		Files:     r.Files,
		Regions:   r.Regions,
		Added:     r.Added,
		Removed:   r.Removed,
		StartedAt: r.StartedAt,
	}
}

func toCLIChange(c *store.Change) CLIChange {
	return CLIChange{
		Change:      string(c.Kind),
		Path:        c.Path,
		Annotation:  c.Annotation,
		ControlIDs:  c.ControlIDs,
		ContentHash: c.ContentHash,
		StartLine:   c.StartLine,
		StartCol:    c.StartCol,
		EndLine:     c.EndLine,
		EndCol:      c.EndCol,
	}
}
