// Package integrator transports light from emitters to the eye.
package integrator

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/density"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/photon"
)

var logger = log.New("integrator")

// Integrator traces one sample of a light transport algorithm. Results are
// recorded in the density buffer and, for algorithms that store them, the
// photon map.
type Integrator interface {
	Trace(sampler core.Sampler, buf *density.Buffer, photons *photon.Map, stats *TraceStats)
}

var _ Integrator = (*LightTracer)(nil)
