package photon

import (
	"math"
	"testing"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// floor is the plane z = 0 facing up.
type floor struct {
	material *material.Material
}

func (f *floor) GeometricNormal() core.Vec3 { return core.NewVec3(0, 0, 1) }
func (f *floor) ShadingNormal(point core.Vec3) core.Vec3 { return core.NewVec3(0, 0, 1) }
func (f *floor) TexCoord(point core.Vec3) core.Vec2 { return core.Vec2{} }
func (f *floor) Material() *material.Material { return f.material }

func floorHit(mat *material.Material, x, y float64) *material.HitRecord {
	return material.NewHitRecord(&floor{material: mat}, core.NewVec3(x, y, 0), 1, core.NewVec3(0, 0, -1))
}

// storeGrid stores a photon of the given power at every point of a square
// grid on the floor and returns the grid spacing.
func storeGrid(m *Map, power core.Vec3, caustic func(i, j int) bool) float64 {
	const spacing = 0.1
	for i := -50; i <= 50; i++ {
		for j := -50; j <= 50; j++ {
			m.Store(Photon{
				Pos:   core.NewVec3(float64(i)*spacing, float64(j)*spacing, 0),
				Dir:   core.NewVec3(0, 0, -1),
				Power: power,
			}, caustic != nil && caustic(i, j))
		}
	}
	return spacing
}

func TestEstimate_UniformField(t *testing.T) {
	albedo := 0.5
	mat := material.NewLambertian(core.NewVec3(albedo, albedo, albedo))
	power := 2.0

	m := NewMap(Config{K: 100, Radius: 1})
	spacing := storeGrid(m, core.NewVec3(power, power, power), nil)
	m.Balance()

	// Irradiance is power per unit area; a Lambertian surface reflects
	// albedo/pi of it
	expected := albedo / math.Pi * power / (spacing * spacing)

	for _, p := range []core.Vec2{core.NewVec2(0, 0), core.NewVec2(0.03, 0.07), core.NewVec2(-1.21, 2.5)} {
		got := m.Estimate(floorHit(mat, p.X, p.Y), core.NewVec3(0, 0, 1), 100, 1)
		if math.Abs(got.X-expected)/expected > 0.05 {
			t.Errorf("at %v: expected radiance %f, got %f", p, expected, got.X)
		}
	}
}

func TestEstimate_EmittedScaling(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(1, 1, 1))
	m := NewMap(DefaultConfig())
	storeGrid(m, core.NewVec3(1, 1, 1), nil)
	m.Balance()

	hit := floorHit(mat, 0, 0)
	out := core.NewVec3(0, 0, 1)
	unscaled := m.Estimate(hit, out, 50, 1)
	m.AddEmitted(4)
	scaled := m.Estimate(hit, out, 50, 1)
	if math.Abs(scaled.X*4-unscaled.X) > 1e-9 {
		t.Errorf("expected estimate divided by emitted count: %f vs %f", scaled.X, unscaled.X)
	}
}

func TestEstimate_ExcludesCaustics(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(1, 1, 1))
	m := NewMap(DefaultConfig())
	// Every other column is caustic, halving the density of the rest
	storeGrid(m, core.NewVec3(1, 1, 1), func(i, j int) bool { return i%2 != 0 })
	m.Balance()

	hit := floorHit(mat, 0.02, 0.03)
	out := core.NewVec3(0, 0, 1)
	all := m.Estimate(hit, out, 100, 2)
	global := m.EstimateExcluding(hit, out, 100, 2, Caustic)
	ratio := global.X / all.X
	if ratio < 0.4 || ratio > 0.6 {
		t.Errorf("expected about half the radiance without caustics, got ratio %f", ratio)
	}
}

func TestEstimate_Degenerate(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(1, 1, 1))
	m := NewMap(DefaultConfig())
	out := core.NewVec3(0, 0, 1)

	if got := m.Estimate(floorHit(mat, 0, 0), out, 10, 1); !got.IsZero() {
		t.Errorf("expected zero from an empty map, got %v", got)
	}

	m.Store(Photon{Pos: core.NewVec3(5, 5, 0), Dir: core.NewVec3(0, 0, -1), Power: core.NewVec3(1, 1, 1)}, false)
	if got := m.Estimate(floorHit(mat, 0, 0), out, 10, 1); !got.IsZero() {
		t.Errorf("expected zero with no photon in range, got %v", got)
	}

	// Photons arriving from below do not light the top of the floor
	m.Reset()
	m.Store(Photon{Pos: core.NewVec3(0, 0, 0), Dir: core.NewVec3(0, 0, 1), Power: core.NewVec3(1, 1, 1)}, false)
	if got := m.Estimate(floorHit(mat, 0.1, 0), out, 10, 1); !got.IsZero() {
		t.Errorf("expected zero for photons on the other side, got %v", got)
	}

	if got := m.Estimate(floorHit(nil, 0, 0), out, 10, 1); !got.IsZero() {
		t.Errorf("expected zero without a material, got %v", got)
	}
}

func TestMap_StoreLimitAndMerge(t *testing.T) {
	a := NewMap(Config{MaxPhotons: 3, K: 10, Radius: 1})
	for i := 0; i < 5; i++ {
		a.Store(Photon{Pos: core.NewVec3(float64(i), 0, 0)}, i == 0)
	}
	if a.Size() != 3 || a.Dropped() != 2 {
		t.Fatalf("expected 3 stored and 2 dropped, got %d and %d", a.Size(), a.Dropped())
	}
	a.AddEmitted(5)

	b := NewMap(Config{K: 10, Radius: 1})
	b.Store(Photon{Pos: core.NewVec3(10, 0, 0)}, false)
	b.AddEmitted(1)
	b.Merge(a)
	b.Balance()

	if b.Size() != 4 || b.Emitted() != 6 {
		t.Errorf("expected 4 photons from 6 paths, got %d from %d", b.Size(), b.Emitted())
	}
	near := b.tree.Query(core.NewVec3(0, 0, 0), 1, 0.5, Caustic)
	if len(near) != 0 {
		t.Errorf("expected the caustic flag to survive the merge, got %v", near)
	}
}
