package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/control/internal/config"
	"github.com/jward/control/internal/runtime"
	"github.com/jward/control/internal/snapshot"
	"github.com/jward/control/internal/store"
	"github.com/jward/control/scripts"
)

// --- log ---

var (
	flagLogFile   string
	flagLogFormat string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print a stored snapshot",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVarP(&flagLogFile, "log", "l", "", "snapshot file (default: config output_file)")
	logCmd.Flags().StringVar(&flagLogFormat, "format", "json", "output format: json|yaml|text")
}

func runLog(cmd *cobra.Command, args []string) error {
	if err := validateFormat(flagLogFormat); err != nil {
		return err
	}
	path := flagLogFile
	if path == "" {
		path = cfg.OutputFile
	}

	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}

	if flagLogFormat == "text" {
		formatSnapshotText(cmd.OutOrStdout(), newStyles(), snap)
		return nil
	}
	return writeStructured(cmd.OutOrStdout(), flagLogFormat, snap)
}

// --- parser ---

var parserCmd = &cobra.Command{
	Use:   "parser",
	Short: "Inspect the compiled-in language grammars",
}

var parserListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatGrammarsText(cmd.OutOrStdout(), runtime.Grammars())
		return nil
	},
}

var parserFiltersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List built-in filter scripts usable as --filter builtin:<name>",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range scripts.Filters() {
			fmt.Fprintln(cmd.OutOrStdout(), scripts.BuiltinPrefix+name)
		}
		return nil
	},
}

func init() {
	parserCmd.AddCommand(parserListCmd)
	parserCmd.AddCommand(parserFiltersCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change settings",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting (" + strings.Join(config.Keys, ", ") + ")",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.Set(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q in %s\n", args[0], args[1], path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, key := range config.Keys {
			value, err := cfg.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s = %s\n", key, value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// --- history ---

var (
	flagHistoryLimit   int
	flagHistoryChanges bool
	flagHistoryFormat  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs from the ledger",
	Long:  "Lists runs recorded in the SQLite ledger configured with `control config set ledger <path>`.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&flagHistoryChanges, "changes", false, "include the regions each check reported")
	historyCmd.Flags().StringVar(&flagHistoryFormat, "format", "text", "output format: json|yaml|text")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := validateFormat(flagHistoryFormat); err != nil {
		return err
	}
	if cfg.Ledger == "" {
		return fmt.Errorf("no ledger configured (run `control config set ledger <path>`)")
	}

	s, err := store.Open(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer s.Close()

	runs, err := s.Runs(flagHistoryLimit)
	if err != nil {
		return err
	}

	out := make([]CLIRun, 0, len(runs))
	index := make(map[int64]int, len(runs))
	ids := make([]int64, 0, len(runs))
	for i, r := range runs {
		out = append(out, toCLIRun(r))
		index[r.ID] = i
		ids = append(ids, r.ID)
	}

	if flagHistoryChanges {
		changes, err := s.ChangesByRuns(ids)
		if err != nil {
			return err
		}
		for _, c := range changes {
			i := index[c.RunID]
			out[i].Changes = append(out[i].Changes, toCLIChange(c))
		}
	}

	if flagHistoryFormat == "text" {
		formatRunsText(cmd.OutOrStdout(), newStyles(), out)
		return nil
	}
	return writeStructured(cmd.OutOrStdout(), flagHistoryFormat, out)
}
