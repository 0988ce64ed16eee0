package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/codec"
	"github.com/joshuapare/atermkit/aterm/codec/stream"
	"github.com/joshuapare/atermkit/internal/writer"
)

var convertTo string

func init() {
	cmd := newConvertCmd()
	cmd.Flags().StringVar(&convertTo, "to", formatStream, "Output format: stream or binary")
	rootCmd.AddCommand(cmd)
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a term file between the binary and stream formats",
		Long: `The convert command reads every term of <in>, whichever format it is in,
and writes them to <out> in the format selected by --to. The output file is
replaced atomically.

Example:
  atermctl convert --to stream states.taf states.ats
  atermctl convert --to binary states.ats states.taf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1], convertTo)
		},
	}
}

func runConvert(in, out, to string) error {
	if to != formatStream && to != formatBinary {
		return fmt.Errorf("unknown output format %q (want %s or %s)", to, formatStream, formatBinary)
	}
	s, err := newStore()
	if err != nil {
		return err
	}
	l, err := load(s, in)
	if err != nil {
		return err
	}
	defer l.Release()

	sink := &writer.FileWriter{Path: out}
	switch to {
	case formatBinary:
		err = codec.Write(sink, s, l.Terms...)
	case formatStream:
		err = writeStream(sink, s, l.Terms)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return err
	}
	printInfo("%s (%s) -> %s (%s): %d terms, %d bytes\n", in, l.Format, out, to, len(l.Terms), info.Size())
	return nil
}

func writeStream(sink writer.Sink, s *aterm.Store, terms []aterm.Term) error {
	var buf bytes.Buffer
	w, err := stream.NewWriter(&buf, s)
	if err != nil {
		return err
	}
	for _, t := range terms {
		if err := w.Write(t); err != nil {
			w.Close()
			return err
		}
	}
	printVerbose("stream table: %d nodes for %d terms\n", w.TableLen(), w.Terms())
	if err := w.Close(); err != nil {
		return err
	}
	return sink.WriteTerms(buf.Bytes())
}
