package kdtree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queryTotal counts queries by result: "ok", "capacity", "out_of_bounds"
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightsampler_kdtree_queries_total",
		Help: "Total k-d tree neighbour queries by result",
	}, []string{"result"})

	queryNeighbours = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lightsampler_kdtree_query_neighbours",
		Help:    "Neighbours returned per k-d tree query",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	})
)
