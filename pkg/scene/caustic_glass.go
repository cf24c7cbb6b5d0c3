package scene

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/geometry"
	"github.com/df07/go-lightsampler/pkg/material"
)

// NewCausticGlassScene creates a glass sphere and a glossy metal sphere on a
// checkered floor, lit from above so that the glass focuses a caustic onto
// the floor. The eye looks straight down.
func NewCausticGlassScene() *Scene {
	s := &Scene{
		Name: "caustic",
		Camera: geometry.NewCamera(geometry.CameraConfig{
			Center: core.NewVec3(0, 10, 0),
			LookAt: core.NewVec3(0, 0, 0),
			Up:     core.NewVec3(0, 0, 1),
			Width:  6,
			Height: 6,
		}),
	}

	checker := material.NewCheckerboardTexture(256, 256, 32,
		core.NewVec3(0.8, 0.8, 0.8), core.NewVec3(0.3, 0.3, 0.35))
	floor := material.NewTexturedLambertian(checker)

	// X × Z faces down; the floor BSDF scatters on both sides
	s.AddShapes(
		geometry.NewQuad(core.NewVec3(-3, 0, -3), core.NewVec3(6, 0, 0), core.NewVec3(0, 0, 6), floor),
		geometry.NewSphere(core.NewVec3(-0.6, 0.8, 0), 0.8, material.NewGlass(1.5)),
		geometry.NewSphere(core.NewVec3(1.4, 0.5, 0.9), 0.5, material.NewMetal(core.NewVec3(0.8, 0.7, 0.5), 0.2)),
	)

	// Small bright lamp up and to the side, facing down
	s.AddDiscLight(core.NewVec3(-1, 5, -1), core.NewVec3(0, -1, 0), 0.5, core.NewVec3(75, 75, 75))
	return s
}
