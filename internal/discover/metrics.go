package discover

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoverRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emberly_discover_requests_total",
		Help: "Total discovery feed requests served",
	})

	discoverTopUps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emberly_discover_topups_total",
		Help: "Queue top-up runs by ranking mode",
	}, []string{"mode"})

	discoverConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emberly_discover_consumed_total",
		Help: "Queue entries consumed by swipes",
	})

	discoverDeckSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "emberly_discover_deck_size",
		Help:    "Number of profiles returned per discovery request",
		Buckets: prometheus.LinearBuckets(0, 2, 11),
	})
)
