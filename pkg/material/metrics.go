package material

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// splitSamples counts split BSDF samples by the technique that produced them
var splitSamples = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lightsampler_split_bsdf_samples_total",
	Help: "Split BSDF samples by sampling mode",
}, []string{"mode"})
