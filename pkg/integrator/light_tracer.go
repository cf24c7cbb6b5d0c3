package integrator

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/density"
	"github.com/df07/go-lightsampler/pkg/material"
	"github.com/df07/go-lightsampler/pkg/path"
	"github.com/df07/go-lightsampler/pkg/photon"
	"github.com/df07/go-lightsampler/pkg/scene"
	"github.com/df07/go-lightsampler/pkg/spar"
)

// LightTracerConfig controls how light particles are followed.
type LightTracerConfig struct {
	MaxDepth        int     // Surface bounces before a particle is dropped
	RussianRoulette bool    // Terminate particles by scattered power
	MinBounces      int     // Bounces before Russian roulette starts
	RayEpsilon      float64 // Offset against self intersection
}

// DefaultLightTracerConfig returns the settings used by the renderer.
func DefaultLightTracerConfig() LightTracerConfig {
	return LightTracerConfig{
		MaxDepth:        8,
		RussianRoulette: true,
		MinBounces:      1,
		RayEpsilon:      1e-4,
	}
}

// MaxPathLength returns the longest bidirectional path the tracer builds:
// the light origin, every surface vertex and the eye.
func (c LightTracerConfig) MaxPathLength() int {
	return c.MaxDepth + 2
}

// TraceStats counts what traced particles did.
type TraceStats struct {
	Paths       int64 // Particles emitted
	Absorbed    int64 // Particles ended by absorption or Russian roulette
	Escaped     int64 // Particles that left the scene
	Connections int64 // Eye connections with a nonzero contribution
	Hits        int64 // Contributions stored in the density buffer
	Photons     int64 // Photons deposited
}

// Add accumulates other into s.
func (s *TraceStats) Add(other TraceStats) {
	s.Paths += other.Paths
	s.Absorbed += other.Absorbed
	s.Escaped += other.Escaped
	s.Connections += other.Connections
	s.Hits += other.Hits
	s.Photons += other.Photons
}

// LightTracer starts particles on emitters and follows them through the
// scene. At every vertex it connects to the orthographic eye, weighs the
// resulting path with its spars and records the contribution on screen.
type LightTracer struct {
	config LightTracerConfig
	scene  *scene.Scene
	spars  spar.SparList
}

// NewLightTracer creates a tracer for a preprocessed scene. The spars
// decide which paths the tracer accounts for.
func NewLightTracer(s *scene.Scene, spars spar.SparList, config LightTracerConfig) *LightTracer {
	if config.MaxDepth < 1 {
		logger.Warningf("max depth %d is too small, using 1", config.MaxDepth)
		config.MaxDepth = 1
	}
	return &LightTracer{config: config, scene: s, spars: spars}
}

// Config returns the tracer settings.
func (lt *LightTracer) Config() LightTracerConfig {
	return lt.config
}

// tracer holds the state of one particle.
type tracer struct {
	*LightTracer
	buf     *density.Buffer
	photons *photon.Map
	stats   *TraceStats

	toEye    core.Vec3 // Direction from any scene point to the eye
	eyeScale float64   // Undoes the pixel area and sample count applied by the buffer
	light    []path.Node
	bipath   path.Bipath
}

// Trace follows one particle. Contributions go to buf and, when photons is
// not nil, photons are deposited on non-specular surfaces.
func (lt *LightTracer) Trace(sampler core.Sampler, buf *density.Buffer, photons *photon.Map, stats *TraceStats) {
	t := tracer{
		LightTracer: lt,
		buf:         buf,
		photons:     photons,
		stats:       stats,
		toEye:       lt.scene.Camera.Forward().Negate(),
		eyeScale:    1 / (buf.PixelArea() * float64(buf.Config().TotalSamples)),
		light:       make([]path.Node, 0, lt.config.MaxDepth+1),
	}
	t.trace(sampler)
}

func (t *tracer) trace(sampler core.Sampler) {
	emission, ok := t.scene.LightSampler.SampleEmission(sampler)
	if !ok {
		pathsTotal.WithLabelValues("no_emission").Inc()
		return
	}
	t.stats.Paths++
	if t.photons != nil {
		t.photons.AddEmitted(1)
	}

	origin := emission.Hit
	edf := emission.Emitter.Material().EDF

	// Light seen directly
	if x, y, ok := t.visible(origin.Point); ok {
		le := edf.Evaluate(origin, t.toEye, material.AllComponents).Multiply(1 / emission.AreaPDF)
		t.connect(path.NewEndpointNode(origin.Point, origin.ShadingNormal(), le), origin.ShadingNormal(), x, y)
	}

	// Throughput leaving the light: Le cos / (pdfA pdfW)
	cos := math.Abs(emission.Direction.Dot(origin.ShadingNormal()))
	le := edf.Evaluate(origin, emission.Direction, material.AllComponents)
	beta := le.Multiply(cos / (emission.AreaPDF * emission.DirectionPDF))
	t.light = append(t.light, path.NewEndpointNode(origin.Point, origin.ShadingNormal(), beta))

	ray := core.NewRay(origin.Point, emission.Direction)
	specular := false
	for depth := 0; depth < t.config.MaxDepth; depth++ {
		hit, ok := t.scene.Hit(ray, t.config.RayEpsilon, math.Inf(1))
		if !ok {
			t.stats.Escaped++
			pathsTotal.WithLabelValues("escaped").Inc()
			return
		}
		mat := hit.Material()
		if mat == nil || mat.BSDF == nil {
			t.stats.Absorbed++
			pathsTotal.WithLabelValues("absorbed").Inc()
			return
		}
		in := ray.Direction

		if t.photons != nil && t.storesPhotons(hit) {
			if t.photons.Store(photon.Photon{Pos: hit.Point, Dir: in, Power: beta}, specular) {
				t.stats.Photons++
			}
		}

		if x, y, ok := t.visible(hit.Point); ok {
			t.connect(path.NewSurfaceNode(hit, in, t.toEye), hit.ShadingNormal(), x, y)
		}

		if depth == t.config.MaxDepth-1 {
			break
		}

		inIndex, outIndex := mat.BSDF.Indices(hit)
		doRR := t.config.RussianRoulette && depth >= t.config.MinBounces
		u := sampler.Get2D()
		sample := mat.BSDF.Sample(hit, in, inIndex, outIndex, doRR, material.AllComponents, u.X, u.Y)
		if sample.Absorbed() {
			t.stats.Absorbed++
			pathsTotal.WithLabelValues("absorbed").Inc()
			return
		}

		node := path.NewSurfaceNode(hit, in, sample.Direction)
		node.Scale(math.Abs(sample.Direction.Dot(hit.ShadingNormal())) / sample.PDF)
		beta = beta.MultiplyVec(node.Components.Sum(material.AllComponents))
		specular = node.Components.Sum(material.Specular).Average() > node.Components.Sum(material.Diffuse|material.Glossy).Average()
		t.light = append(t.light, node)

		ray = core.NewRay(hit.Point, sample.Direction)
	}
	pathsTotal.WithLabelValues("max_depth").Inc()
}

// visible projects point onto the screen and checks that nothing lies
// between it and the image plane.
func (t *tracer) visible(point core.Vec3) (x, y float64, ok bool) {
	x, y, depth, ok := t.scene.Camera.Project(point)
	if !ok || !t.buf.Window().Contains(x, y) {
		return 0, 0, false
	}
	if !t.scene.Visible(core.NewRay(point, t.toEye), t.config.RayEpsilon, depth) {
		return 0, 0, false
	}
	return x, y, true
}

// connect closes the current light subpath with vertex, whose components
// are evaluated toward the eye, and records the classified contribution.
func (t *tracer) connect(vertex path.Node, normal core.Vec3, x, y float64) {
	cos := math.Abs(normal.Dot(t.toEye))
	eye := path.NewEndpointNode(t.scene.Camera.GetRay(x, y).Origin, t.toEye, core.NewVec3(1, 1, 1).Multiply(cos*t.eyeScale))

	t.bipath.Light = append(t.light, vertex)
	t.bipath.Eye = append(t.bipath.Eye[:0], eye)
	c := t.spars.Compute(&t.bipath)
	if c.IsZero() {
		return
	}
	t.stats.Connections++
	if t.buf.Add(x, y, c) {
		t.stats.Hits++
	}
}

// storesPhotons reports whether hit scatters non-specularly, so that a
// photon lookup there is meaningful.
func (t *tracer) storesPhotons(hit *material.HitRecord) bool {
	bsdf := hit.Material().BSDF
	flags := material.Diffuse | material.Glossy
	return bsdf.Reflectance(hit, flags).Add(bsdf.Transmittance(hit, flags)).Average() > material.Epsilon
}
