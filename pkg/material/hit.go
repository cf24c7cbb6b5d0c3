package material

import (
	"github.com/df07/go-lightsampler/pkg/core"
)

// Surface is the geometry a ray hit. Shading quantities are computed on
// demand, so a surface may make them as expensive as it likes.
type Surface interface {
	// GeometricNormal returns the outward facing normal of the surface.
	GeometricNormal() core.Vec3
	// ShadingNormal returns the (possibly interpolated) normal at point.
	ShadingNormal(point core.Vec3) core.Vec3
	// TexCoord returns texture coordinates at point.
	TexCoord(point core.Vec3) core.Vec2
	Material() *Material
}

// HitFlags records which HitRecord fields have been resolved.
type HitFlags uint8

const (
	HitFront HitFlags = 1 << iota // Ray arrived on the side the geometric normal points to
	HitShadingNormal
	HitTexCoord
)

// HitRecord describes a ray-surface intersection. Shading normal and texture
// coordinates are fetched from the surface the first time they are asked for
// and cached.
type HitRecord struct {
	Point   core.Vec3
	T       float64
	Surface Surface
	Flags   HitFlags

	shadingNormal core.Vec3
	texCoord      core.Vec2
}

// NewHitRecord creates a hit record for a ray travelling along direction.
func NewHitRecord(surface Surface, point core.Vec3, t float64, direction core.Vec3) *HitRecord {
	hit := &HitRecord{Point: point, T: t, Surface: surface}
	if direction.Dot(surface.GeometricNormal()) < 0 {
		hit.Flags |= HitFront
	}
	return hit
}

// FrontFace reports whether the ray hit the outward side of the surface.
func (h *HitRecord) FrontFace() bool {
	return h.Flags&HitFront != 0
}

// ShadingNormal returns the shading normal on the outward side.
func (h *HitRecord) ShadingNormal() core.Vec3 {
	if h.Flags&HitShadingNormal == 0 {
		h.shadingNormal = h.Surface.ShadingNormal(h.Point)
		h.Flags |= HitShadingNormal
	}
	return h.shadingNormal
}

// TexCoord returns the texture coordinates of the hit point.
func (h *HitRecord) TexCoord() core.Vec2 {
	if h.Flags&HitTexCoord == 0 {
		h.texCoord = h.Surface.TexCoord(h.Point)
		h.Flags |= HitTexCoord
	}
	return h.texCoord
}

// Material returns the material of the surface that was hit.
func (h *HitRecord) Material() *Material {
	return h.Surface.Material()
}

// orient flips normal so it faces the side direction arrives from.
func orient(normal, direction core.Vec3) core.Vec3 {
	if direction.Dot(normal) > 0 {
		return normal.Negate()
	}
	return normal
}
