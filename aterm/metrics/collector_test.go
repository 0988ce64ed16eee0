package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/atermkit/aterm"
)

type fixed aterm.Stats

func (f fixed) Snapshot() aterm.Stats { return aterm.Stats(f) }

func TestCollector_Exposition(t *testing.T) {
	src := fixed{
		StoreID:        "s1",
		Blocks:         4,
		FreeBlocks:     1,
		Classes:        []aterm.ClassStats{{Words: 1, Live: 2}, {Words: 3, Live: 10}},
		Symbols:        7,
		TableEntries:   12,
		Roots:          2,
		MajorCycles:    3,
		MinorCycles:    5,
		ReclaimedTotal: 40,
		LastCycle:      250 * time.Millisecond,
	}
	c := NewCollector(src, "aterm")

	expected := `
# HELP aterm_live_cells Allocated cells by size class in words.
# TYPE aterm_live_cells gauge
aterm_live_cells{size_class="1",store="s1"} 2
aterm_live_cells{size_class="3",store="s1"} 10
# HELP aterm_collections_total Completed collection cycles.
# TYPE aterm_collections_total counter
aterm_collections_total{kind="major",store="s1"} 3
aterm_collections_total{kind="minor",store="s1"} 5
# HELP aterm_reclaimed_cells_total Cells reclaimed by all collections.
# TYPE aterm_reclaimed_cells_total counter
aterm_reclaimed_cells_total{store="s1"} 40
# HELP aterm_last_collection_seconds Duration of the most recent collection.
# TYPE aterm_last_collection_seconds gauge
aterm_last_collection_seconds{store="s1"} 0.25
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"aterm_live_cells", "aterm_collections_total", "aterm_reclaimed_cells_total", "aterm_last_collection_seconds")
	require.NoError(t, err)

	// Two size classes, two collection kinds and seven single series.
	assert.Equal(t, 11, testutil.CollectAndCount(c))
}

func TestCollector_LiveStore(t *testing.T) {
	s, err := aterm.New(aterm.DefaultConfig())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(s, "aterm")))

	f, err := s.Symbol("f", 1, false)
	require.NoError(t, err)
	x, err := s.MakeInt(1)
	require.NoError(t, err)
	_, err = s.MakeAppl(f, x)
	require.NoError(t, err)
	s.Collect()

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetGauge() != nil:
				values[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "store" {
					assert.Equal(t, s.ID().String(), lp.GetValue())
				}
			}
		}
	}

	st := s.Snapshot()
	assert.Equal(t, float64(1), values["aterm_collections_total"])
	assert.Equal(t, float64(st.ReclaimedTotal), values["aterm_reclaimed_cells_total"])
	assert.Equal(t, float64(st.LiveCells), values["aterm_live_cells"])
	assert.Equal(t, float64(st.Symbols), values["aterm_symbols"])
}

func TestCollector_TwoStoresShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(fixed{StoreID: "a"}, "aterm")))
	require.NoError(t, reg.Register(NewCollector(fixed{StoreID: "b"}, "aterm")))
}
