package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/aterm/metrics"
)

var (
	benchTerms        int
	benchShapes       int
	benchGenerational bool
	benchMetrics      bool
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchTerms, "terms", 10000, "Number of protected terms to build")
	cmd.Flags().IntVar(&benchShapes, "shapes", 10, "Number of distinct shared shapes")
	cmd.Flags().BoolVar(&benchGenerational, "generational", false, "Use minor collections between majors")
	cmd.Flags().BoolVar(&benchMetrics, "metrics", false, "Print the store metrics in Prometheus text format")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic construction and collection workload",
		Long: `The bench command builds --shapes distinct shared shapes, protects --terms
terms combining them in varying orders, interleaves one unprotected term per
protected one, then forces a major collection and reports collector
statistics.

Example:
  atermctl bench --terms 100000 --shapes 50 --generational`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runBench(benchTerms, benchShapes, benchGenerational)
			if err != nil {
				return err
			}
			return reportBench(res)
		},
	}
}

// BenchResult is the outcome of one bench run.
type BenchResult struct {
	Terms         int           `json:"terms"`
	Shapes        int           `json:"shapes"`
	Distinct      int           `json:"distinct"`
	LiveCells     int           `json:"live_cells"`
	Constructed   uint64        `json:"constructed"`
	MajorCycles   uint64        `json:"major_cycles"`
	MinorCycles   uint64        `json:"minor_cycles"`
	Reclaimed     uint64        `json:"reclaimed"`
	Spans         int           `json:"spans"`
	SlowestCycle  time.Duration `json:"slowest_cycle_ns"`
	TotalGCTime   time.Duration `json:"total_gc_ns"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	TermsPerSec   float64       `json:"terms_per_sec"`
	metricsSource *aterm.Store
}

func runBench(terms, shapes int, generational bool) (*BenchResult, error) {
	if terms < 1 || shapes < 1 {
		return nil, fmt.Errorf("--terms and --shapes must be positive")
	}
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer tp.Shutdown(context.Background())

	cfg := storeConfig
	cfg.Generational = cfg.Generational || generational
	cfg.TracerProvider = tp
	s, err := aterm.New(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	w, err := newWorkload(s, shapes)
	if err != nil {
		return nil, err
	}
	defer w.release()
	if err := w.run(terms); err != nil {
		return nil, err
	}
	s.Collect()
	elapsed := time.Since(start)

	distinct := make(map[aterm.Term]struct{}, len(w.roots))
	for _, t := range w.roots {
		distinct[t] = struct{}{}
	}
	st := s.Stats()
	res := &BenchResult{
		Terms:         terms,
		Shapes:        shapes,
		Distinct:      len(distinct),
		LiveCells:     st.LiveCells,
		Constructed:   st.Constructed,
		MajorCycles:   st.MajorCycles,
		MinorCycles:   st.MinorCycles,
		Reclaimed:     st.ReclaimedTotal,
		TotalGCTime:   st.TotalGCTime,
		Elapsed:       elapsed,
		TermsPerSec:   float64(terms) / elapsed.Seconds(),
		metricsSource: s,
	}
	for _, sp := range spans.Ended() {
		res.Spans++
		res.SlowestCycle = max(res.SlowestCycle, sp.EndTime().Sub(sp.StartTime()))
	}
	return res, nil
}

func reportBench(res *BenchResult) error {
	if benchMetrics {
		reg := prometheus.NewRegistry()
		if err := reg.Register(metrics.NewCollector(res.metricsSource, "aterm")); err != nil {
			return err
		}
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(stdout, mf); err != nil {
				return err
			}
		}
		return nil
	}
	if jsonOut {
		return printJSON(res)
	}
	printInfo("terms:        %d (%d distinct, %d shapes)\n", res.Terms, res.Distinct, res.Shapes)
	printInfo("live cells:   %d\n", res.LiveCells)
	printInfo("constructed:  %d\n", res.Constructed)
	printInfo("collections:  %d major, %d minor\n", res.MajorCycles, res.MinorCycles)
	printInfo("reclaimed:    %d cells\n", res.Reclaimed)
	printInfo("gc time:      %s (slowest %s over %d spans)\n", res.TotalGCTime, res.SlowestCycle, res.Spans)
	printInfo("elapsed:      %s (%.0f terms/s)\n", res.Elapsed, res.TermsPerSec)
	return nil
}

// workload holds the protected state of one bench run.
type workload struct {
	s      *aterm.Store
	pair   afun.Symbol
	junk   afun.Symbol
	shapes []aterm.Term
	roots  []aterm.Term
	regs   []*aterm.Registration
}

func newWorkload(s *aterm.Store, shapes int) (*workload, error) {
	w := &workload{s: s}
	w.regs = append(w.regs, s.ProtectSlice(&w.shapes), s.ProtectSlice(&w.roots))

	var err error
	if w.pair, err = s.Symbol("pair", 2, false); err != nil {
		return nil, err
	}
	if w.junk, err = s.Symbol("junk", 1, false); err != nil {
		return nil, err
	}
	if err := s.ProtectSymbol(w.pair); err != nil {
		return nil, err
	}
	if err := s.ProtectSymbol(w.junk); err != nil {
		return nil, err
	}

	// shape k is node_k(k, [k, k+1]).
	for k := range shapes {
		sym, err := s.Symbol(fmt.Sprintf("node%d", k), 2, false)
		if err != nil {
			return nil, err
		}
		if err := s.ProtectSymbol(sym); err != nil {
			return nil, err
		}
		n, err := s.MakeInt(int64(k))
		if err != nil {
			return nil, err
		}
		w.shapes = append(w.shapes, n)
		n1, err := s.MakeInt(int64(k + 1))
		if err != nil {
			return nil, err
		}
		list, err := s.MakeList(n, n1)
		if err != nil {
			return nil, err
		}
		shape, err := s.MakeAppl(sym, n, list)
		if err != nil {
			return nil, err
		}
		w.shapes[k] = shape
	}
	return w, nil
}

// run protects terms pairs of shapes and builds as many unprotected terms.
func (w *workload) run(terms int) error {
	k := len(w.shapes)
	for j := range terms {
		t, err := w.s.MakeAppl(w.pair, w.shapes[j%k], w.shapes[(j/k+j)%k])
		if err != nil {
			return err
		}
		w.roots = append(w.roots, t)

		n, err := w.s.MakeInt(int64(j))
		if err != nil {
			return err
		}
		if _, err := w.s.MakeAppl(w.junk, n); err != nil {
			return err
		}
	}
	return nil
}

func (w *workload) release() {
	for i := len(w.regs) - 1; i >= 0; i-- {
		w.regs[i].Release()
	}
}
