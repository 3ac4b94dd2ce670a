package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/control"
	"github.com/jward/control/internal/runtime"
	"github.com/jward/control/internal/snapshot"
	"github.com/jward/control/internal/store"
	"github.com/jward/control/scripts"
)

var (
	flagLang        string
	flagExt         []string
	flagOutput      string
	flagDiff        bool
	flagExclude     []string
	flagFilter      string
	flagWorkers     int
	flagNoGitignore bool
)

var codeCmd = &cobra.Command{
	Use:   "code <dir>",
	Short: "Snapshot annotated code, or check it for changes",
	Long: `Scans <dir> for files of the given language, pairs every control annotation
with the code that follows it, and writes the result to the snapshot file.

With --diff the snapshot file is read instead, and any region that changed
since it was written is reported. Drift exits with status 1.`,
	Args: cobra.ExactArgs(1),
	RunE: runCode,
}

func init() {
	codeCmd.Flags().StringVar(&flagLang, "lang", "", "source language (see `control parser list`)")
	codeCmd.Flags().StringSliceVar(&flagExt, "ext", nil, "file extensions to scan (default: the language's extensions)")
	codeCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "snapshot file (default: config output_file)")
	codeCmd.Flags().BoolVar(&flagDiff, "diff", false, "compare against the snapshot file instead of writing it")
	codeCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "glob patterns to skip, relative to <dir> (adds to config exclude)")
	codeCmd.Flags().StringVar(&flagFilter, "filter", "", "Risor filter script, or builtin:<name> (default: config filter)")
	codeCmd.Flags().IntVar(&flagWorkers, "workers", -1, "parallel workers; 0 means one per CPU, 1 disables parallelism (default: config workers)")
	codeCmd.Flags().BoolVar(&flagNoGitignore, "no-gitignore", false, "scan files ignored by .gitignore")
	_ = codeCmd.MarkFlagRequired("lang")
}

func runCode(cmd *cobra.Command, args []string) error {
	start := time.Now()
	root := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, err := buildEngine()
	if err != nil {
		return err
	}

	current, err := engine.ExtractDirectory(ctx, root)
	if err != nil {
		return err
	}
	logger.Info("extraction complete", "root", root, "regions", len(current), "elapsed", time.Since(start).Round(time.Millisecond))

	output := flagOutput
	if output == "" {
		output = cfg.OutputFile
	}

	run := &store.Run{
		Root:         root,
		Language:     engine.Language(),
		SnapshotPath: output,
		Files:        countFiles(current),
		Regions:      len(current),
		StartedAt:    start,
	}

	if flagDiff {
		return checkSnapshot(cmd, output, current, run)
	}
	return writeSnapshot(cmd, output, current, run)
}

func buildEngine() (*control.Engine, error) {
	exclude := append(append([]string{}, cfg.Exclude...), flagExclude...)
	workers := cfg.Workers
	if flagWorkers >= 0 {
		workers = flagWorkers
	}

	opts := []control.Option{
		control.WithLogger(logger),
		control.WithExclude(exclude...),
		control.WithGitignore(cfg.Gitignore && !flagNoGitignore),
		control.WithParallel(workers != 1),
		control.WithWorkers(workers),
	}
	if len(flagExt) > 0 {
		opts = append(opts, control.WithExtensions(flagExt...))
	}

	filterPath := flagFilter
	if filterPath == "" {
		filterPath = cfg.Filter
	}
	if filterPath != "" {
		rt, err := loadFilter(filterPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, control.WithFilter(rt))
	}

	return control.New(flagLang, opts...)
}

// loadFilter loads a filter script from disk, or from the embedded scripts
// when value is builtin:<name>.
func loadFilter(value string) (*runtime.Runtime, error) {
	opts := []runtime.RuntimeOption{
		runtime.WithLogger(logger),
		runtime.WithControlIDs(control.ControlIDs),
	}
	if p, ok := scripts.FilterPath(value); ok {
		return runtime.LoadRuntimeFS(scripts.FS, p, opts...)
	}
	return runtime.LoadRuntime(value, opts...)
}

func writeSnapshot(cmd *cobra.Command, output string, current control.Snapshot, run *store.Run) error {
	if len(current) == 0 {
		return control.ErrNoRegions
	}
	if err := snapshot.WriteFile(output, current); err != nil {
		return err
	}

	run.Kind = store.RunRecord
	if err := recordRun(run, control.Changes{}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s generated.\n", output)
	fmt.Fprintf(out, "%d annotated region(s) recorded.\n", len(current))
	return nil
}

func checkSnapshot(cmd *cobra.Command, output string, current control.Snapshot, run *store.Run) error {
	previous, err := snapshot.ReadFile(output)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no snapshot at %s (run `control code` without --diff first): %w", output, err)
		}
		return err
	}

	changes := control.Diff(previous, current)
	run.Kind = store.RunCheck
	if err := recordRun(run, changes); err != nil {
		return err
	}

	printChanges(cmd.OutOrStdout(), newStyles(), changes)
	if changes.Empty() {
		return nil
	}
	errorHandled = true
	return errChangesDetected
}

// recordRun appends the run to the ledger when one is configured.
func recordRun(run *store.Run, changes control.Changes) error {
	if cfg.Ledger == "" {
		return nil
	}
	s, err := store.Open(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer s.Close()

	var rows []store.Change
	for _, r := range changes.Removed {
		rows = append(rows, ledgerChange(store.ChangeRemoved, r))
	}
	for _, r := range changes.Added {
		rows = append(rows, ledgerChange(store.ChangeAdded, r))
	}
	if _, err := s.RecordRun(run, rows); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	logger.Debug("run recorded", "ledger", cfg.Ledger, "run", run.ID)
	return nil
}

func ledgerChange(kind store.ChangeKind, r control.Region) store.Change {
	start, end := r.Lines()
	return store.Change{
		Kind:        kind,
		Path:        r.Path,
		Annotation:  r.Annotation,
		ControlIDs:  control.ControlIDs(r.Annotation),
		ContentHash: store.ContentHash(r.Content),
		StartLine:   start,
		StartCol:    r.Start.Column,
		EndLine:     end,
		EndCol:      r.End.Column,
	}
}

func countFiles(s control.Snapshot) int {
	seen := make(map[string]bool)
	for _, r := range s {
		seen[r.Path] = true
	}
	return len(seen)
}
