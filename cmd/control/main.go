package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jward/control/internal/config"
)

var (
	flagConfig  string
	flagVerbose bool
	flagColor   string
)

// cfg holds the settings loaded before every command runs.
var cfg *config.Config

// logger is the structured logger for the current invocation.
var logger = slog.New(slog.DiscardHandler)

// errorHandled is set when a command has already reported its failure, so
// main() exits 1 without printing again.
var errorHandled bool

// errChangesDetected reports drift from `control code --diff`.
var errChangesDetected = errors.New("changes detected")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "control",
	Short:         "Record and verify code covered by control annotations",
	Long:          "Control finds comments such as `// control HE-110` with tree-sitter, snapshots the code that follows each one, and reports when that code changes.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(flagColor); err != nil {
			return err
		}
		logger = newLogger(cmd.ErrOrStderr(), flagVerbose)

		loaded, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		return nil
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: <user config dir>/control/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log extraction details to stderr")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output: auto|always|never")

	rootCmd.AddCommand(codeCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(parserCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
}

// setupColor applies --color. "auto" keeps fatih/color's own detection,
// which honours NO_COLOR and disables color when stdout is not a terminal.
func setupColor(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto":
	default:
		return fmt.Errorf("invalid color mode %q: must be auto, always or never", mode)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
