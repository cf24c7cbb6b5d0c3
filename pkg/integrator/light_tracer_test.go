package integrator

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/density"
	"github.com/df07/go-lightsampler/pkg/geometry"
	"github.com/df07/go-lightsampler/pkg/material"
	"github.com/df07/go-lightsampler/pkg/photon"
	"github.com/df07/go-lightsampler/pkg/scene"
	"github.com/df07/go-lightsampler/pkg/screen"
	"github.com/df07/go-lightsampler/pkg/spar"
)

// lookDown returns a camera above the XY plane looking down -Z.
func lookDown(size float64) *geometry.Camera {
	return geometry.NewCamera(geometry.CameraConfig{
		Center: core.NewVec3(0, 0, 10),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		Width:  size,
		Height: size,
	})
}

// traceAll traces n particles into a fresh density buffer over the camera
// window and returns the reconstructed image.
func traceAll(t *testing.T, s *scene.Scene, config LightTracerConfig, width, n int, photons *photon.Map) (*screen.Buffer, TraceStats) {
	t.Helper()
	if err := s.Preprocess(); err != nil {
		t.Fatal(err)
	}
	spars, err := spar.StandardSpars(config.MaxPathLength())
	if err != nil {
		t.Fatal(err)
	}
	lt := NewLightTracer(s, spars, config)

	img := screen.New(width, width, s.Camera.Window())
	buf := density.NewBuffer(img, density.DefaultConfig(n))
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	var stats TraceStats
	for i := 0; i < n; i++ {
		lt.Trace(sampler, buf, photons, &stats)
	}
	if err := buf.Reconstruct(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	return img, stats
}

func TestLightTracer_DirectView(t *testing.T) {
	// A 2x2 light facing the eye with radiance 1 in a 4x4 window
	s := &scene.Scene{Name: "direct", Camera: lookDown(4)}
	s.AddQuadLight(core.NewVec3(-1, -1, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), core.NewVec3(math.Pi, math.Pi, math.Pi))

	const width = 16
	img, stats := traceAll(t, s, DefaultLightTracerConfig(), width, width*width*64, nil)
	if stats.Paths != width*width*64 {
		t.Errorf("expected every particle emitted, got %d", stats.Paths)
	}
	if stats.Escaped != stats.Paths {
		t.Errorf("expected every particle to escape, got %d of %d", stats.Escaped, stats.Paths)
	}

	// Pixels at least a kernel width inside the light
	var sum float64
	count := 0
	for j := 5; j <= 10; j++ {
		for i := 5; i <= 10; i++ {
			sum += img.Get(i, j).X
			count++
		}
	}
	if avg := sum / float64(count); math.Abs(avg-1) > 0.05 {
		t.Errorf("expected radiance 1 inside the light, got %f", avg)
	}
	// Corners are outside the light
	if c := img.Get(0, 0); !c.IsZero() {
		t.Errorf("expected black corner, got %v", c)
	}
}

// floorScene is a large diffuse floor under a small light facing down.
func floorScene(albedo float64) *scene.Scene {
	s := &scene.Scene{Name: "floor", Camera: lookDown(20)}
	s.AddShapes(geometry.NewQuad(core.NewVec3(-10, -10, 0), core.NewVec3(20, 0, 0), core.NewVec3(0, 20, 0),
		material.NewLambertian(core.NewVec3(albedo, albedo, albedo))))
	s.AddQuadLight(core.NewVec3(-0.1, -0.1, 1), core.NewVec3(0, 0.2, 0), core.NewVec3(0.2, 0, 0), core.NewVec3(100, 100, 100))
	return s
}

func TestLightTracer_ReflectedEnergy(t *testing.T) {
	const albedo = 0.5
	s := floorScene(albedo)

	const width = 32
	img, stats := traceAll(t, s, DefaultLightTracerConfig(), width, width*width*16, nil)
	if stats.Hits == 0 || stats.Connections < stats.Hits {
		t.Fatalf("unexpected stats %+v", stats)
	}

	// The image integrates the radiance leaving the floor toward the eye:
	// albedo/π of the light's power, minus what misses the floor, what
	// lands under the light and the kernel mass lost at the window edge
	pw, ph := img.PixelSize()
	total := img.Sum().X * pw * ph
	power := 100 * 0.04
	expected := albedo * power / math.Pi * 0.9795 * 0.996
	if math.Abs(total-expected)/expected > 0.03 {
		t.Errorf("expected image integral %f, got %f", expected, total)
	}
}

func TestLightTracer_Photons(t *testing.T) {
	const albedo = 0.5
	s := floorScene(albedo)
	photons := photon.NewMap(photon.DefaultConfig())

	const n = 16384
	_, stats := traceAll(t, s, DefaultLightTracerConfig(), 16, n, photons)
	if int(stats.Photons) != photons.Size() || photons.Emitted() != n {
		t.Fatalf("expected %d photons from %d paths, got %d from %d", stats.Photons, n, photons.Size(), photons.Emitted())
	}
	photons.Balance()

	// Irradiance under a small Lambertian light of power P at height 1 is
	// P/π
	hit, ok := s.Hit(core.NewRay(core.NewVec3(0, 0, 0.5), core.NewVec3(0, 0, -1)), 1e-4, math.Inf(1))
	if !ok {
		t.Fatal("expected to hit the floor")
	}
	got := photons.Estimate(hit, core.NewVec3(0, 0, 1), 200, 1)
	expected := albedo / math.Pi * 4 / math.Pi
	if math.Abs(got.X-expected)/expected > 0.2 {
		t.Errorf("expected photon radiance %f, got %f", expected, got.X)
	}
}

func TestLightTracer_MaxDepthOne(t *testing.T) {
	s := floorScene(1)
	config := DefaultLightTracerConfig()
	config.MaxDepth = 1
	_, stats := traceAll(t, s, config, 8, 2000, nil)

	// One surface vertex, then the particle is dropped
	if stats.Absorbed != 0 {
		t.Errorf("expected no absorption with a white floor and one bounce, got %d", stats.Absorbed)
	}
	// About one particle in a hundred misses the floor
	if stats.Escaped > stats.Paths/50 {
		t.Errorf("expected few escaped particles, got %d of %d", stats.Escaped, stats.Paths)
	}
	if stats.Connections < stats.Paths*9/10 || stats.Photons != 0 {
		t.Errorf("expected a connection per floor hit and no photons, got %+v", stats)
	}
}

func TestLightTracer_SparsSelectPaths(t *testing.T) {
	s := floorScene(0.5)
	if err := s.Preprocess(); err != nil {
		t.Fatal(err)
	}
	config := DefaultLightTracerConfig()

	// Only the direct view of the light; it faces away from the eye, so
	// nothing is recorded
	direct, err := spar.NewSpar("direct", config.MaxPathLength(), "(L)(E)")
	if err != nil {
		t.Fatal(err)
	}
	lt := NewLightTracer(s, spar.SparList{direct}, config)

	img := screen.New(8, 8, s.Camera.Window())
	buf := density.NewBuffer(img, density.DefaultConfig(1000))
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))
	var stats TraceStats
	for i := 0; i < 1000; i++ {
		lt.Trace(sampler, buf, nil, &stats)
	}
	if buf.Count() != 0 || stats.Connections != 0 {
		t.Errorf("expected no contributions, got %d hits", buf.Count())
	}
}
