package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Poster proxy metrics. The status label records how a request was served:
// "hit" from cache, "fetched" from the upstream host, or "error".
var (
	PosterFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_fetches_total",
			Help: "Total number of poster fetches by outcome.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		PosterFetchesTotal,
	)
}
