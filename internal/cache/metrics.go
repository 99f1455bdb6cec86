package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Every metric carries a "cache" label holding the ProviderConfig.Group, so
// several cache instances can share the process.
var (
	hitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits.",
		},
		[]string{"cache"},
	)

	missesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses.",
		},
		[]string{"cache"},
	)

	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of entries evicted from the cache.",
		},
		[]string{"cache"},
	)
)

func init() {
	prometheus.MustRegister(hitsTotal, missesTotal, evictionsTotal)
}

// entriesCollector reports the current entry count for one cache group by
// calling lenFunc at scrape time. Reading lazily keeps the gauge honest for
// backends where TTL expiry removes entries outside the process.
type entriesCollector struct {
	desc    *prometheus.Desc
	lenFunc func() int
}

func (c *entriesCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *entriesCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.lenFunc()))
}

var (
	entriesMu sync.Mutex
	entries   = make(map[string]*entriesCollector)

	// metricsRegisterer is swapped for an isolated registry in tests.
	metricsRegisterer prometheus.Registerer = prometheus.DefaultRegisterer
)

// registerEntries installs the entries collector for a group, replacing any
// collector a previous instance of the same group left behind.
func registerEntries(group string, lenFunc func() int) {
	desc := prometheus.NewDesc(
		"cache_entries",
		"Current number of entries in the cache.",
		nil,
		prometheus.Labels{"cache": group},
	)
	c := &entriesCollector{desc: desc, lenFunc: lenFunc}

	entriesMu.Lock()
	defer entriesMu.Unlock()

	if old, ok := entries[group]; ok {
		metricsRegisterer.Unregister(old)
	}
	entries[group] = c
	_ = metricsRegisterer.Register(c)
}

func unregisterEntries(group string) {
	entriesMu.Lock()
	defer entriesMu.Unlock()

	if c, ok := entries[group]; ok {
		metricsRegisterer.Unregister(c)
		delete(entries, group)
	}
}
