package geometry

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/material"
)

// Shape is anything a ray can hit.
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
	BoundingBox() AABB
}

// Emitter is a shape whose surface can be sampled uniformly by area. Light
// particles start on emitters.
type Emitter interface {
	Shape
	Area() float64
	// SampleSurface returns a front facing hit record at a point chosen
	// uniformly over the surface.
	SampleSurface(sample core.Vec2) *material.HitRecord
	Material() *material.Material
}
