// Package metrics exports term store statistics to Prometheus.
//
// The collector reads the snapshot a store publishes after every
// collection, so scraping never touches the owning goroutine:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewCollector(store, "aterm"))
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/atermkit/aterm"
)

// Snapshotter is satisfied by *aterm.Store.
type Snapshotter interface {
	Snapshot() aterm.Stats
}

// Collector is a prometheus.Collector over one store.
type Collector struct {
	src Snapshotter

	liveCells     *prometheus.Desc
	blocks        *prometheus.Desc
	freeBlocks    *prometheus.Desc
	symbols       *prometheus.Desc
	tableEntries  *prometheus.Desc
	roots         *prometheus.Desc
	collections   *prometheus.Desc
	reclaimed     *prometheus.Desc
	lastCollected *prometheus.Desc
}

// NewCollector builds a collector for src. Every series carries a constant
// store label taken from the snapshot, so several stores can share one
// registry and namespace.
func NewCollector(src Snapshotter, namespace string) *Collector {
	labels := prometheus.Labels{"store": src.Snapshot().StoreID}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, variable, labels)
	}
	return &Collector{
		src:           src,
		liveCells:     desc("live_cells", "Allocated cells by size class in words.", "size_class"),
		blocks:        desc("blocks", "Blocks owned by the allocator."),
		freeBlocks:    desc("free_blocks", "Blocks with no live cell."),
		symbols:       desc("symbols", "Live function symbols."),
		tableEntries:  desc("table_entries", "Cells registered in the hash-consing table."),
		roots:         desc("roots", "Protected single-term roots."),
		collections:   desc("collections_total", "Completed collection cycles.", "kind"),
		reclaimed:     desc("reclaimed_cells_total", "Cells reclaimed by all collections."),
		lastCollected: desc("last_collection_seconds", "Duration of the most recent collection."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.liveCells, c.blocks, c.freeBlocks, c.symbols, c.tableEntries,
		c.roots, c.collections, c.reclaimed, c.lastCollected,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Snapshot()

	for _, cl := range st.Classes {
		ch <- prometheus.MustNewConstMetric(c.liveCells, prometheus.GaugeValue,
			float64(cl.Live), strconv.Itoa(cl.Words))
	}
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	gauge(c.blocks, st.Blocks)
	gauge(c.freeBlocks, st.FreeBlocks)
	gauge(c.symbols, st.Symbols)
	gauge(c.tableEntries, st.TableEntries)
	gauge(c.roots, st.Roots)

	ch <- prometheus.MustNewConstMetric(c.collections, prometheus.CounterValue, float64(st.MajorCycles), "major")
	ch <- prometheus.MustNewConstMetric(c.collections, prometheus.CounterValue, float64(st.MinorCycles), "minor")
	ch <- prometheus.MustNewConstMetric(c.reclaimed, prometheus.CounterValue, float64(st.ReclaimedTotal))
	ch <- prometheus.MustNewConstMetric(c.lastCollected, prometheus.GaugeValue, st.LastCycle.Seconds())
}
