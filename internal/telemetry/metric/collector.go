package metric

import "github.com/prometheus/client_golang/prometheus"

// StoreStats is a snapshot of the local session store.
type StoreStats struct {
	Keys  uint64
	Bytes uint64
}

// StatsFunc returns the current store statistics.
type StatsFunc func() (StoreStats, error)

// Collector reports token store statistics at scrape time.
type Collector struct {
	stats StatsFunc
	keys  *prometheus.Desc
	bytes *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for the given engine label.
func NewCollector(engine string, stats StatsFunc) *Collector {
	labels := prometheus.Labels{"engine": engine}
	return &Collector{
		stats: stats,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "keys"),
			"Number of keys in the local session store",
			nil, labels),
		bytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "size_bytes"),
			"Size of the local session store in bytes",
			nil, labels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.bytes
}

// Collect implements prometheus.Collector. A failing stats call reports nothing.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s, err := c.stats()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.Keys))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(s.Bytes))
}
