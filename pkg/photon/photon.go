// Package photon stores light particles deposited on surfaces and estimates
// reflected radiance from their local density.
package photon

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/kdtree"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/material"
)

var logger = log.New("photon")

// Caustic marks photons that reached their surface through a specular
// bounce. Estimates may exclude them.
var Caustic = kdtree.UserFlag(0)

// Photon is a packet of power arriving at a surface point.
type Photon struct {
	Pos   core.Vec3
	Dir   core.Vec3 // Direction of travel toward the surface
	Power core.Vec3
}

// Position implements kdtree.Positioned.
func (p Photon) Position() core.Vec3 { return p.Pos }

// Config controls photon storage and lookup.
type Config struct {
	MaxPhotons int     // Photons beyond this count are dropped; 0 means no limit
	K          int     // Photons gathered per estimate
	Radius     float64 // Largest gather radius
}

// DefaultConfig returns the settings used by the renderer.
func DefaultConfig() Config {
	return Config{
		MaxPhotons: 1 << 20,
		K:          100,
		Radius:     0.25,
	}
}

// Map is a k-d tree of photons. Like the tree it wraps, it is safe for
// concurrent estimates but not for concurrent stores.
type Map struct {
	config  Config
	tree    *kdtree.Tree[Photon]
	emitted int
	dropped int
}

// NewMap creates an empty map.
func NewMap(config Config) *Map {
	return &Map{config: config, tree: kdtree.New[Photon]()}
}

// Config returns the map settings.
func (m *Map) Config() Config {
	return m.config
}

// Store adds p to the map. It reports false when the map is full.
func (m *Map) Store(p Photon, caustic bool) bool {
	if m.config.MaxPhotons > 0 && m.tree.Size() >= m.config.MaxPhotons {
		if m.dropped == 0 {
			logger.Warningf("photon map full at %d photons, dropping further photons", m.config.MaxPhotons)
		}
		m.dropped++
		return false
	}
	var flags kdtree.Flags
	if caustic {
		flags |= Caustic
	}
	m.tree.AddPoint(p, flags)
	return true
}

// AddEmitted records n more light paths traced. Stored power is divided by
// the total when estimating.
func (m *Map) AddEmitted(n int) {
	m.emitted += n
}

// Emitted returns the number of light paths recorded.
func (m *Map) Emitted() int {
	return m.emitted
}

// Size returns the number of stored photons.
func (m *Map) Size() int {
	return m.tree.Size()
}

// Dropped returns the number of photons rejected because the map was full.
func (m *Map) Dropped() int {
	return m.dropped
}

// Balance rebuilds the tree for fast lookups.
func (m *Map) Balance() {
	m.tree.Balance()
}

// Merge balances other and stores all its photons in m.
func (m *Map) Merge(other *Map) {
	other.Balance()
	other.tree.Iterate(func(p Photon, flags kdtree.Flags) {
		m.Store(p, flags&Caustic != 0)
	})
	m.emitted += other.emitted
	m.dropped += other.dropped
}

// Reset removes every photon.
func (m *Map) Reset() {
	m.tree.Reset()
	m.emitted = 0
	m.dropped = 0
}

// Estimate returns the radiance leaving hit toward out, estimated from the k
// nearest photons within radius.
func (m *Map) Estimate(hit *material.HitRecord, out core.Vec3, k int, radius float64) core.Vec3 {
	return m.EstimateExcluding(hit, out, k, radius, 0)
}

// EstimateExcluding is Estimate ignoring photons whose flags intersect
// exclude.
func (m *Map) EstimateExcluding(hit *material.HitRecord, out core.Vec3, k int, radius float64, exclude kdtree.Flags) core.Vec3 {
	mat := hit.Material()
	if mat == nil || mat.BSDF == nil {
		return core.Vec3{}
	}
	neighbors := m.tree.Query(hit.Point, k, radius, exclude)
	if len(neighbors) == 0 {
		return core.Vec3{}
	}

	// The gather disc is bounded by the farthest photon when the search
	// filled up, and by the search radius otherwise
	r2 := radius * radius
	if len(neighbors) == k {
		r2 = neighbors[len(neighbors)-1].Distance
	}
	if r2 <= 0 || math.IsInf(r2, 0) {
		return core.Vec3{}
	}

	var sum core.Vec3
	for _, nb := range neighbors {
		f := mat.BSDF.Evaluate(hit, nb.Data.Dir, out, material.AllComponents)
		sum = sum.Add(f.MultiplyVec(nb.Data.Power))
	}
	scale := 1 / (math.Pi * r2)
	if m.emitted > 0 {
		scale /= float64(m.emitted)
	}
	return sum.Multiply(scale)
}
