package geometry

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// Disc is a flat circle whose front side faces Normal.
type Disc struct {
	Center core.Vec3
	Normal core.Vec3
	Radius float64
	Right  core.Vec3 // Perpendicular to Normal
	Up     core.Vec3 // Normal × Right

	mat *material.Material
}

// NewDisc creates a disc. normal need not be normalized.
func NewDisc(center, normal core.Vec3, radius float64, mat *material.Material) *Disc {
	n := normal.Normalize()

	var right core.Vec3
	if math.Abs(n.X) > 0.1 {
		right = core.NewVec3(0, 1, 0)
	} else {
		right = core.NewVec3(1, 0, 0)
	}
	right = right.Cross(n).Normalize()

	return &Disc{
		Center: center,
		Normal: n,
		Radius: radius,
		Right:  right,
		Up:     n.Cross(right),
		mat:    mat,
	}
}

// Hit tests if a ray intersects the disc.
func (d *Disc) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	denom := d.Normal.Dot(ray.Direction)
	if math.Abs(denom) < 1e-8 {
		return nil, false
	}

	t := d.Normal.Dot(d.Center.Subtract(ray.Origin)) / denom
	if t < tMin || t > tMax {
		return nil, false
	}

	point := ray.At(t)
	if point.Subtract(d.Center).LengthSquared() > d.Radius*d.Radius {
		return nil, false
	}
	return material.NewHitRecord(d, point, t, ray.Direction), true
}

// BoundingBox returns the box around the square enclosing the disc.
func (d *Disc) BoundingBox() AABB {
	r := d.Right.Multiply(d.Radius)
	u := d.Up.Multiply(d.Radius)
	return NewAABBFromPoints(
		d.Center.Add(r).Add(u),
		d.Center.Add(r).Subtract(u),
		d.Center.Subtract(r).Add(u),
		d.Center.Subtract(r).Subtract(u),
	).Expand(1e-4)
}

// GeometricNormal implements material.Surface.
func (d *Disc) GeometricNormal() core.Vec3 { return d.Normal }

// ShadingNormal implements material.Surface.
func (d *Disc) ShadingNormal(point core.Vec3) core.Vec3 { return d.Normal }

// TexCoord maps the disc onto the unit square.
func (d *Disc) TexCoord(point core.Vec3) core.Vec2 {
	local := point.Subtract(d.Center).Multiply(1 / d.Radius)
	return core.NewVec2(0.5+0.5*local.Dot(d.Right), 0.5+0.5*local.Dot(d.Up))
}

// Material implements material.Surface.
func (d *Disc) Material() *material.Material { return d.mat }

// Area returns the surface area.
func (d *Disc) Area() float64 {
	return math.Pi * d.Radius * d.Radius
}

// SampleSurface picks a point uniformly over the disc.
func (d *Disc) SampleSurface(sample core.Vec2) *material.HitRecord {
	r := math.Sqrt(sample.X) * d.Radius
	theta := 2 * math.Pi * sample.Y
	point := d.Center.Add(d.Right.Multiply(r * math.Cos(theta))).Add(d.Up.Multiply(r * math.Sin(theta)))
	return material.NewHitRecord(d, point, 0, d.Normal.Negate())
}
