package renderer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "lightsampler_renderer_batch_duration_seconds",
	Help:    "Time spent tracing one batch of light particles",
	Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
})
