package geometry

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// Sphere is a sphere with its front side outward.
type Sphere struct {
	Center core.Vec3
	Radius float64

	mat *material.Material
}

// NewSphere creates a sphere.
func NewSphere(center core.Vec3, radius float64, mat *material.Material) *Sphere {
	return &Sphere{Center: center, Radius: radius, mat: mat}
}

// spherePatch is the surface of a sphere around one hit point.
type spherePatch struct {
	sphere *Sphere
	normal core.Vec3
}

func (p *spherePatch) GeometricNormal() core.Vec3 { return p.normal }

func (p *spherePatch) ShadingNormal(point core.Vec3) core.Vec3 { return p.normal }

// TexCoord uses longitude and latitude around the Y axis.
func (p *spherePatch) TexCoord(point core.Vec3) core.Vec2 {
	theta := math.Acos(-p.normal.Y)
	phi := math.Atan2(-p.normal.Z, p.normal.X) + math.Pi
	return core.NewVec2(phi/(2*math.Pi), theta/math.Pi)
}

func (p *spherePatch) Material() *material.Material { return p.sphere.mat }

// Hit tests if a ray intersects the sphere.
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return nil, false
	}

	// Nearest root in range
	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return nil, false
		}
	}

	point := ray.At(root)
	patch := &spherePatch{sphere: s, normal: point.Subtract(s.Center).Multiply(1.0 / s.Radius)}
	return material.NewHitRecord(patch, point, root, ray.Direction), true
}

// BoundingBox returns the axis-aligned bounding box for this sphere.
func (s *Sphere) BoundingBox() AABB {
	r := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return NewAABB(s.Center.Subtract(r), s.Center.Add(r))
}

// Material returns the material of the sphere.
func (s *Sphere) Material() *material.Material { return s.mat }

// Area returns the surface area.
func (s *Sphere) Area() float64 {
	return 4 * math.Pi * s.Radius * s.Radius
}

// SampleSurface picks a point uniformly over the sphere.
func (s *Sphere) SampleSurface(sample core.Vec2) *material.HitRecord {
	normal := core.SampleOnUnitSphere(sample)
	patch := &spherePatch{sphere: s, normal: normal}
	return material.NewHitRecord(patch, s.Center.Add(normal.Multiply(s.Radius)), 0, normal.Negate())
}
