package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	configPath string
	logDir     string

	// stdout is swapped by tests.
	stdout io.Writer = os.Stdout

	storeConfig = aterm.DefaultConfig()
	closeLog    = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "atermctl",
	Short: "Inspect, convert and exercise maximally shared term files",
	Long: `atermctl reads and writes term files in the shared binary format and the
compressed stream format. It reports store statistics, renders terms as text,
converts between formats, keeps named terms in a database and runs synthetic
collector workloads.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeLog()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output (and log) in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Store configuration YAML file")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write logs to a dated file in this directory")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup configures logging and the store configuration from global flags.
func setup(*cobra.Command, []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	c, err := logger.Init(logger.Options{
		Enabled: verbose || logDir != "",
		JSON:    jsonOut,
		Level:   level,
		LogDir:  logDir,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	closeLog = c

	storeConfig = aterm.DefaultConfig()
	if configPath != "" {
		if storeConfig, err = aterm.LoadConfig(configPath); err != nil {
			return err
		}
	}
	storeConfig.Logger = logger.L
	return nil
}

// newStore opens a store with the configured tuning.
func newStore() (*aterm.Store, error) {
	return aterm.New(storeConfig)
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	f, ok := stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

// colorize wraps s in an ANSI color when stdout is a terminal.
func colorize(color, s string) string {
	if noColor || !isTerminal() {
		return s
	}
	return color + s + ansiReset
}
