package spar

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var chainEvaluations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lightsampler_spar_chain_evaluations_total",
	Help: "Flag chains evaluated against bidirectional paths",
})
