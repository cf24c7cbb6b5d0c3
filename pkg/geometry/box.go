package geometry

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// Box is a rectangular box made of six quads, optionally turned about the
// vertical axis.
type Box struct {
	Center core.Vec3
	Size   core.Vec3 // Half extents along each axis
	Angle  float64   // Rotation about +Y in radians

	faces [6]*Quad
	bbox  AABB
}

// NewBox creates a box with half extents size, turned by angle radians
// about the Y axis.
func NewBox(center, size core.Vec3, angle float64, mat *material.Material) *Box {
	b := &Box{Center: center, Size: size, Angle: angle}
	b.generateFaces(mat)
	return b
}

// NewAxisAlignedBox creates a box that is not rotated.
func NewAxisAlignedBox(center, size core.Vec3, mat *material.Material) *Box {
	return NewBox(center, size, 0, mat)
}

func rotateY(v core.Vec3, angle float64) core.Vec3 {
	sin, cos := math.Sincos(angle)
	return core.NewVec3(cos*v.X+sin*v.Z, v.Y, -sin*v.X+cos*v.Z)
}

// generateFaces builds outward facing quads from the eight corners.
func (b *Box) generateFaces(mat *material.Material) {
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		scaled := core.NewVec3(corners[i].X*b.Size.X, corners[i].Y*b.Size.Y, corners[i].Z*b.Size.Z)
		corners[i] = rotateY(scaled, b.Angle).Add(b.Center)
	}

	face := func(origin, u, v int) *Quad {
		return NewQuad(corners[origin], corners[u].Subtract(corners[origin]), corners[v].Subtract(corners[origin]), mat)
	}
	b.faces = [6]*Quad{
		face(4, 5, 7), // Z+
		face(1, 0, 2), // Z-
		face(5, 1, 6), // X+
		face(0, 4, 3), // X-
		face(3, 7, 2), // Y+
		face(4, 0, 5), // Y-
	}
	b.bbox = NewAABBFromPoints(corners[:]...)
}

// Faces returns the six quads of the box.
func (b *Box) Faces() []*Quad {
	return b.faces[:]
}

// Hit returns the nearest face hit.
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	closestT := tMax
	for _, face := range b.faces {
		if hit, ok := face.Hit(ray, tMin, closestT); ok {
			closestT = hit.T
			closest = hit
		}
	}
	return closest, closest != nil
}

// BoundingBox returns the axis-aligned bounding box for this box.
func (b *Box) BoundingBox() AABB {
	return b.bbox
}
