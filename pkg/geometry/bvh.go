package geometry

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// leafThreshold is the largest number of shapes stored in a leaf.
const leafThreshold = 8

// BVHNode is a node of a bounding volume hierarchy. Leaves hold shapes,
// internal nodes hold children.
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []Shape
}

// BVH accelerates ray queries over a set of shapes.
type BVH struct {
	Root   *BVHNode
	Center core.Vec3
	Radius float64 // Radius of a sphere around the whole scene
}

// NewBVH builds a hierarchy over shapes. The slice is not modified.
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}
	shapesCopy := make([]Shape, len(shapes))
	copy(shapesCopy, shapes)

	root := buildBVH(shapesCopy)
	center := root.BoundingBox.Center()
	return &BVH{
		Root:   root,
		Center: center,
		Radius: root.BoundingBox.Max.Subtract(center).Length(),
	}
}

// buildBVH splits at the middle of the longest axis until few shapes remain.
func buildBVH(shapes []Shape) *BVHNode {
	bbox := shapes[0].BoundingBox()
	for _, s := range shapes[1:] {
		bbox = bbox.Union(s.BoundingBox())
	}
	leaf := &BVHNode{BoundingBox: bbox, Shapes: shapes}
	if len(shapes) <= leafThreshold {
		return leaf
	}

	axis := bbox.LongestAxis()
	lo, hi := bbox.Min.Component(axis), bbox.Max.Component(axis)
	if hi <= lo {
		return leaf
	}
	split := (lo + hi) * 0.5

	var left, right []Shape
	for _, s := range shapes {
		if s.BoundingBox().Center().Component(axis) < split {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}
	return &BVHNode{
		BoundingBox: bbox,
		Left:        buildBVH(left),
		Right:       buildBVH(right),
	}
}

// Hit returns the nearest intersection of ray with any shape in (tMin, tMax).
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	return hitNode(bvh.Root, ray, tMin, tMax)
}

func hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return nil, false
	}

	var closest *material.HitRecord
	closestT := tMax
	if node.Shapes != nil {
		for _, s := range node.Shapes {
			if hit, ok := s.Hit(ray, tMin, closestT); ok {
				closest, closestT = hit, hit.T
			}
		}
		return closest, closest != nil
	}

	for _, child := range []*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if hit, ok := hitNode(child, ray, tMin, closestT); ok {
			closest, closestT = hit, hit.T
		}
	}
	return closest, closest != nil
}

// BoundingBox returns the bounds of every shape.
func (bvh *BVH) BoundingBox() AABB {
	if bvh.Root == nil {
		return AABB{}
	}
	return bvh.Root.BoundingBox
}
