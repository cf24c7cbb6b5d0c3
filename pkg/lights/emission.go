// Package lights picks emitters and starts light particles on them.
package lights

import (
	"sort"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/geometry"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/material"
)

var logger = log.New("lights")

// EmissionSample is a light particle leaving an emitter.
type EmissionSample struct {
	Hit          *material.HitRecord // Origin on the emitter surface
	Emitter      geometry.Emitter
	Direction    core.Vec3 // Emission direction away from the surface
	AreaPDF      float64   // Position density, including the emitter choice
	DirectionPDF float64   // Solid angle density of Direction
}

// PowerSampler picks emitters with probability proportional to their
// emitted power.
type PowerSampler struct {
	emitters []geometry.Emitter
	cdf      []float64
	total    float64
}

// Power returns the flux leaving e: its exitance times its area.
func Power(e geometry.Emitter) float64 {
	mat := e.Material()
	if mat == nil || mat.EDF == nil {
		return 0
	}
	return mat.EDF.Emittance(material.AllComponents).Average() * e.Area()
}

// NewPowerSampler creates a sampler over emitters. Emitters without power are
// never picked.
func NewPowerSampler(emitters []geometry.Emitter) *PowerSampler {
	s := &PowerSampler{emitters: emitters, cdf: make([]float64, len(emitters))}
	for i, e := range emitters {
		s.total += Power(e)
		s.cdf[i] = s.total
	}
	if len(emitters) > 0 && s.total <= 0 {
		logger.Warningf("%d emitters but none of them emits", len(emitters))
	}
	return s
}

// Len returns the number of emitters.
func (s *PowerSampler) Len() int {
	return len(s.emitters)
}

// TotalPower returns the summed flux of every emitter.
func (s *PowerSampler) TotalPower() float64 {
	return s.total
}

// Probability returns the chance of picking emitter i.
func (s *PowerSampler) Probability(i int) float64 {
	if i < 0 || i >= len(s.emitters) || s.total <= 0 {
		return 0
	}
	lo := 0.0
	if i > 0 {
		lo = s.cdf[i-1]
	}
	return (s.cdf[i] - lo) / s.total
}

// Pick maps u in [0, 1) to an emitter index and its probability. It returns
// -1 when nothing emits.
func (s *PowerSampler) Pick(u float64) (int, float64) {
	if s.total <= 0 {
		return -1, 0
	}
	target := u * s.total
	i := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > target })
	if i == len(s.cdf) {
		i = len(s.cdf) - 1
	}
	return i, s.Probability(i)
}

// SampleEmission picks an emitter, a point on it and an emission direction.
// It reports false when nothing can be emitted.
func (s *PowerSampler) SampleEmission(sampler core.Sampler) (EmissionSample, bool) {
	i, prob := s.Pick(sampler.Get1D())
	if i < 0 || prob <= 0 {
		return EmissionSample{}, false
	}
	emitter := s.emitters[i]
	hit := emitter.SampleSurface(sampler.Get2D())

	u := sampler.Get2D()
	direction, pdf := emitter.Material().EDF.Sample(hit, material.AllComponents, u.X, u.Y)
	if pdf <= 0 {
		return EmissionSample{}, false
	}
	return EmissionSample{
		Hit:          hit,
		Emitter:      emitter,
		Direction:    direction,
		AreaPDF:      prob / emitter.Area(),
		DirectionPDF: pdf,
	}, true
}
