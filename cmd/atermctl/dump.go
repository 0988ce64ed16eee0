package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/atermkit/aterm/printer"
)

var (
	dumpIndent  int
	dumpMaxBlob int
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpIndent, "indent", -1, "Indent width for multi-line output (default: 2 on a terminal, 0 otherwise)")
	cmd.Flags().IntVar(&dumpMaxBlob, "max-blob", 32, "Truncate blob payloads to this many bytes (0 for no limit)")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the terms of a file in text syntax",
		Long: `The dump command renders every term of a binary or stream file, one per
line. On a terminal nested applications are laid out over several lines.

Example:
  atermctl dump states.taf
  atermctl dump states.ats --indent 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0])
		},
	}
}

func runDump(path string) error {
	s, err := newStore()
	if err != nil {
		return err
	}
	l, err := load(s, path)
	if err != nil {
		return err
	}
	defer l.Release()

	indent := dumpIndent
	if indent < 0 {
		indent = 0
		if isTerminal() {
			indent = 2
		}
	}
	p := printer.New(stdout, s, printer.Options{Indent: indent, MaxBlobBytes: dumpMaxBlob})

	printVerbose("%s: %d terms (%s)\n", path, len(l.Terms), l.Format)
	for _, t := range l.Terms {
		if err := p.Print(t); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout); err != nil {
			return err
		}
	}
	return nil
}
