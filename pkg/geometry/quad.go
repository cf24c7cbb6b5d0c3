package geometry

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// Quad is a parallelogram defined by a corner and two edge vectors. Its
// front side faces U × V.
type Quad struct {
	Corner core.Vec3
	U      core.Vec3
	V      core.Vec3
	Normal core.Vec3 // U × V, normalized
	D      float64   // Plane constant: Normal · x = D
	W      core.Vec3 // Cached for planar coordinates

	area float64
	mat  *material.Material
}

// NewQuad creates a quad from a corner point and two edge vectors.
func NewQuad(corner, u, v core.Vec3, mat *material.Material) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()
	return &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		Normal: normal,
		D:      normal.Dot(corner),
		W:      cross.Multiply(1.0 / cross.Dot(cross)),
		area:   cross.Length(),
		mat:    mat,
	}
}

// planar returns the coordinates of point along U and V. Points on the quad
// have both in [0, 1].
func (q *Quad) planar(point core.Vec3) (alpha, beta float64) {
	p := point.Subtract(q.Corner)
	return q.W.Dot(p.Cross(q.V)), q.W.Dot(q.U.Cross(p))
}

// Hit tests if a ray intersects the quad.
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	denominator := ray.Direction.Dot(q.Normal)
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	point := ray.At(t)
	alpha, beta := q.planar(point)
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return nil, false
	}
	return material.NewHitRecord(q, point, t, ray.Direction), true
}

// BoundingBox returns the box around the four corners, padded so that axis
// aligned quads have some thickness.
func (q *Quad) BoundingBox() AABB {
	return NewAABBFromPoints(
		q.Corner,
		q.Corner.Add(q.U),
		q.Corner.Add(q.V),
		q.Corner.Add(q.U).Add(q.V),
	).Expand(1e-4)
}

// GeometricNormal implements material.Surface.
func (q *Quad) GeometricNormal() core.Vec3 { return q.Normal }

// ShadingNormal implements material.Surface. Quads are flat.
func (q *Quad) ShadingNormal(point core.Vec3) core.Vec3 { return q.Normal }

// TexCoord maps the quad onto the unit square.
func (q *Quad) TexCoord(point core.Vec3) core.Vec2 {
	alpha, beta := q.planar(point)
	return core.NewVec2(alpha, beta)
}

// Material implements material.Surface.
func (q *Quad) Material() *material.Material { return q.mat }

// Area returns the surface area.
func (q *Quad) Area() float64 { return q.area }

// SampleSurface picks a point uniformly over the quad.
func (q *Quad) SampleSurface(sample core.Vec2) *material.HitRecord {
	point := q.Corner.Add(q.U.Multiply(sample.X)).Add(q.V.Multiply(sample.Y))
	return material.NewHitRecord(q, point, 0, q.Normal.Negate())
}
