package geometry

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min core.Vec3
	Max core.Vec3
}

// NewAABB creates a box from its corners.
func NewAABB(min, max core.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBFromPoints returns the smallest box containing every point.
func NewAABBFromPoints(points ...core.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = core.NewVec3(math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z))
		hi = core.NewVec3(math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z))
	}
	return AABB{Min: lo, Max: hi}
}

// Hit tests a ray against the box using the slab method.
func (b AABB) Hit(ray core.Ray, tMin, tMax float64) bool {
	for axis := 0; axis < 3; axis++ {
		lo, hi := b.Min.Component(axis), b.Max.Component(axis)
		origin, direction := ray.Origin.Component(axis), ray.Direction.Component(axis)

		// Parallel to the slab
		if math.Abs(direction) < 1e-8 {
			if origin < lo || origin > hi {
				return false
			}
			continue
		}

		inv := 1.0 / direction
		t1 := (lo - origin) * inv
		t2 := (hi - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}

// Union returns the box bounding both b and other.
func (b AABB) Union(other AABB) AABB {
	return NewAABBFromPoints(b.Min, b.Max, other.Min, other.Max)
}

// Center returns the middle of the box.
func (b AABB) Center() core.Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// Size returns the extent along each axis.
func (b AABB) Size() core.Vec3 {
	return b.Max.Subtract(b.Min)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the largest extent.
func (b AABB) LongestAxis() int {
	size := b.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// Expand grows the box by amount in every direction.
func (b AABB) Expand(amount float64) AABB {
	e := core.NewVec3(amount, amount, amount)
	return AABB{Min: b.Min.Subtract(e), Max: b.Max.Add(e)}
}
