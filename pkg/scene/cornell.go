package scene

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/geometry"
	"github.com/df07/go-lightsampler/pkg/material"
)

const boxSize = 555.0

// NewCornellScene creates the classic Cornell box lit by a ceiling quad,
// with two boxes inside, seen through an orthographic eye in front of the
// open side.
func NewCornellScene() *Scene {
	s := &Scene{
		Name: "cornell",
		Camera: geometry.NewCamera(geometry.CameraConfig{
			Center: core.NewVec3(boxSize/2, boxSize/2, -800),
			LookAt: core.NewVec3(boxSize/2, boxSize/2, 0),
			Up:     core.NewVec3(0, 1, 0),
			Width:  boxSize,
			Height: boxSize,
		}),
	}

	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	s.AddShapes(
		// Floor and ceiling
		geometry.NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), white),
		geometry.NewQuad(core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), white),
		// Back wall
		geometry.NewQuad(core.NewVec3(0, 0, boxSize), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, boxSize, 0), white),
		// Side walls
		geometry.NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), red),
		geometry.NewQuad(core.NewVec3(boxSize, 0, 0), core.NewVec3(0, boxSize, 0), core.NewVec3(0, 0, boxSize), green),
	)

	// Light just below the ceiling, facing down
	const lightSize = 130.0
	offset := (boxSize - lightSize) / 2
	s.AddQuadLight(
		core.NewVec3(offset, boxSize-1, offset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
		core.NewVec3(15, 15, 15),
	)

	s.AddShapes(
		geometry.NewBox(core.NewVec3(185, 82.5, 169), core.NewVec3(82.5, 82.5, 82.5), -0.314, white),
		geometry.NewBox(core.NewVec3(368, 165, 351), core.NewVec3(82.5, 165, 82.5), 0.262, white),
	)
	return s
}
