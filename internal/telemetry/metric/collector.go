package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/secdesk-go/internal/ratelimit"
)

// StatsSource reports live rate limiter state.
type StatsSource interface {
	Stats() ratelimit.Stats
}

// Collector exports rate limiter state at scrape time.
type Collector struct {
	source  StatsSource
	windows *prometheus.Desc
	locks   *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		windows: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "ratelimit", "windows"),
			"Live fixed windows held by the rate limiter.",
			nil, nil,
		),
		locks: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "ratelimit", "locks"),
			"Live duplicate-request locks held by the rate limiter.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.windows
	ch <- c.locks
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.windows, prometheus.GaugeValue, float64(st.Windows))
	ch <- prometheus.MustNewConstMetric(c.locks, prometheus.GaugeValue, float64(st.Locks))
}
