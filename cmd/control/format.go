package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/jward/control"
	"github.com/jward/control/internal/runtime"
)

// styles holds the color formatters for human-readable output.
type styles struct {
	heading *color.Color
	removed *color.Color
	added   *color.Color
	muted   *color.Color
}

// newStyles creates formatters that follow the global color.NoColor switch.
func newStyles() *styles {
	s := &styles{
		heading: color.New(color.Bold, color.FgHiWhite),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
		muted:   color.New(color.FgHiBlack),
	}
	if color.NoColor {
		s.heading.DisableColor()
		s.removed.DisableColor()
		s.added.DisableColor()
		s.muted.DisableColor()
	}
	return s
}

// printChanges writes a drift report: a heading, then one line per removed
// region and one per added region, each as path;startLine:endLine.
func printChanges(w io.Writer, s *styles, c control.Changes) {
	if c.Empty() {
		fmt.Fprintln(w, "No changes detected.")
		return
	}
	s.heading.Fprintln(w, "Changes Detected!")
	for _, r := range c.Removed {
		s.removed.Fprintf(w, "\t- %s\n", r)
	}
	for _, r := range c.Added {
		s.added.Fprintf(w, "\t+ %s\n", r)
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "yaml", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, ", "))
}

// writeStructured encodes v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
}

// formatSnapshotText prints one region per block: location, annotation and
// the recorded code.
func formatSnapshotText(w io.Writer, s *styles, snap control.Snapshot) {
	for i, r := range snap {
		if i > 0 {
			fmt.Fprintln(w)
		}
		s.heading.Fprintln(w, r.String())
		s.muted.Fprintln(w, r.Annotation)
		fmt.Fprintln(w, r.Content)
	}
}

// formatGrammarsText formats the supported grammars as aligned columns.
func formatGrammarsText(w io.Writer, grammars []*runtime.Grammar) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tEXTENSIONS\tCOMMENT KINDS")
	for _, g := range grammars {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			g.Name, strings.Join(g.Extensions, ","), strings.Join(g.CommentKinds, ","))
	}
	tw.Flush()
}

// formatRunsText formats ledger runs as aligned columns, each followed by
// its changes when present.
func formatRunsText(w io.Writer, s *styles, runs []CLIRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTARTED\tLANGUAGE\tROOT\tREGIONS\tADDED\tREMOVED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Kind, r.StartedAt.Format("2006-01-02 15:04:05"), r.Language, r.Root,
			r.Regions, r.Added, r.Removed)
	}
	tw.Flush()

	for _, r := range runs {
		if len(r.Changes) == 0 {
			continue
		}
		fmt.Fprintln(w)
		s.heading.Fprintf(w, "Run %d\n", r.ID)
		for _, c := range r.Changes {
			line := fmt.Sprintf("%s;%d:%d", c.Path, c.StartLine, c.EndLine)
			if ids := strings.Join(c.ControlIDs, " "); ids != "" {
				line += " [" + ids + "]"
			}
			if c.Change == "removed" {
				s.removed.Fprintf(w, "\t- %s\n", line)
			} else {
				s.added.Fprintf(w, "\t+ %s\n", line)
			}
		}
	}
}
