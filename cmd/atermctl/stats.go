package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/internal/logger"
)

var statsCollect bool

func init() {
	cmd := newStatsCmd()
	cmd.Flags().BoolVar(&statsCollect, "collect", false, "Run a major collection before reporting")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>...",
		Short: "Show store statistics for term files",
		Long: `The stats command loads each file into its own store and reports how many
terms, cells and symbols it needs. Files are loaded in parallel.

Example:
  atermctl stats states.taf
  atermctl stats a.taf b.ats --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), args)
		},
	}
}

// FileStats is the stats report for one file.
type FileStats struct {
	Path      string             `json:"path"`
	Format    string             `json:"format"`
	FileSize  int64              `json:"file_size"`
	Terms     int                `json:"terms"`
	LiveCells int                `json:"live_cells"`
	Symbols   int                `json:"symbols"`
	Blocks    int                `json:"blocks"`
	Classes   []aterm.ClassStats `json:"classes"`
}

func runStats(ctx context.Context, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := collectStats(ctx, paths)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		printInfo("%s (%s, %d bytes)\n", r.Path, r.Format, r.FileSize)
		printInfo("  terms:      %d\n", r.Terms)
		printInfo("  live cells: %d\n", r.LiveCells)
		printInfo("  symbols:    %d\n", r.Symbols)
		printInfo("  blocks:     %d\n", r.Blocks)
		for _, c := range r.Classes {
			printVerbose("    %2d words: %d live, %d free\n", c.Words, c.Live, c.Free)
		}
	}
	return nil
}

// collectStats loads every path into a store of its own, concurrently.
func collectStats(ctx context.Context, paths []string) ([]FileStats, error) {
	results := make([]FileStats, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := fileStats(path)
			if err != nil {
				return err
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fileStats(path string) (FileStats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileStats{}, fmt.Errorf("failed to stat file: %w", err)
	}
	s, err := newStore()
	if err != nil {
		return FileStats{}, err
	}
	l, err := load(s, path)
	if err != nil {
		return FileStats{}, err
	}
	defer l.Release()
	if statsCollect {
		s.Collect()
	}

	st := s.Stats()
	logger.L.Debug("loaded", "path", path, "store", st.StoreID, "terms", len(l.Terms), "live", st.LiveCells)
	return FileStats{
		Path:      path,
		Format:    l.Format,
		FileSize:  info.Size(),
		Terms:     len(l.Terms),
		LiveCells: st.LiveCells,
		Symbols:   st.Symbols,
		Blocks:    st.Blocks,
		Classes:   st.Classes,
	}, nil
}
