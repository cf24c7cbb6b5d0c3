package integrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// pathsTotal counts light particles by how they ended
var pathsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lightsampler_light_paths_total",
	Help: "Light particles traced, by how they ended",
}, []string{"end"})
