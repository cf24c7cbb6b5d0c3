// Package scene assembles shapes, emitters and an eye into renderable
// scenes.
package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/geometry"
	"github.com/df07/go-lightsampler/pkg/lights"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/material"
)

var logger = log.New("scene")

// ErrNoEmitters is returned when preparing a scene with nothing that emits.
var ErrNoEmitters = errors.New("scene: no emitters")

// Scene contains everything needed for rendering.
type Scene struct {
	Name     string
	Camera   *geometry.Camera
	Shapes   []geometry.Shape
	Emitters []geometry.Emitter

	BVH          *geometry.BVH        // Built by Preprocess
	LightSampler *lights.PowerSampler // Built by Preprocess
}

// AddShapes adds non-emitting shapes.
func (s *Scene) AddShapes(shapes ...geometry.Shape) {
	s.Shapes = append(s.Shapes, shapes...)
}

// AddEmitter adds a shape that both emits and can be hit.
func (s *Scene) AddEmitter(e geometry.Emitter) {
	s.Emitters = append(s.Emitters, e)
	s.Shapes = append(s.Shapes, e)
}

// AddQuadLight adds a rectangular light emitting toward u × v.
func (s *Scene) AddQuadLight(corner, u, v, exitance core.Vec3) *geometry.Quad {
	q := geometry.NewQuad(corner, u, v, material.NewEmissive(exitance))
	s.AddEmitter(q)
	return q
}

// AddDiscLight adds a round light emitting toward normal.
func (s *Scene) AddDiscLight(center, normal core.Vec3, radius float64, exitance core.Vec3) *geometry.Disc {
	d := geometry.NewDisc(center, normal, radius, material.NewEmissive(exitance))
	s.AddEmitter(d)
	return d
}

// AddSphereLight adds a spherical light.
func (s *Scene) AddSphereLight(center core.Vec3, radius float64, exitance core.Vec3) *geometry.Sphere {
	sphere := geometry.NewSphere(center, radius, material.NewEmissive(exitance))
	s.AddEmitter(sphere)
	return sphere
}

// Preprocess builds the acceleration structure and the emitter sampler.
func (s *Scene) Preprocess() error {
	if s.Camera == nil {
		return fmt.Errorf("scene %q has no camera", s.Name)
	}
	s.BVH = geometry.NewBVH(s.Shapes)
	s.LightSampler = lights.NewPowerSampler(s.Emitters)
	if s.LightSampler.TotalPower() <= 0 {
		return fmt.Errorf("scene %q: %w", s.Name, ErrNoEmitters)
	}
	logger.Infof("scene %q: %d shapes, %d emitters, radius %.1f", s.Name, len(s.Shapes), len(s.Emitters), s.BVH.Radius)
	return nil
}

// Hit returns the nearest surface along ray in (tMin, tMax).
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return s.BVH.Hit(ray, tMin, tMax)
}

// Visible reports whether nothing lies along ray in (tMin, tMax).
func (s *Scene) Visible(ray core.Ray, tMin, tMax float64) bool {
	_, blocked := s.BVH.Hit(ray, tMin, tMax)
	return !blocked
}
