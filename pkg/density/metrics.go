package density

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// hitsTotal counts Add calls by result: "added", "rejected", "outside"
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightsampler_density_hits_total",
		Help: "Density buffer hits by result",
	}, []string{"result"})

	reconstructDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lightsampler_density_reconstruct_duration_seconds",
		Help:    "Screen reconstruction duration by adaptation method",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 10},
	}, []string{"adaptation"})
)
