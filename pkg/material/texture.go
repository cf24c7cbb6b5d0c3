package material

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
)

// ColorSource provides spatially-varying colors. A split BSDF uses one to
// modulate its diffuse reflectance.
type ColorSource interface {
	// Evaluate returns color at given UV coordinates and 3D point
	Evaluate(uv core.Vec2, point core.Vec3) core.Vec3
}

// SolidColor provides a uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of UV or position
func (s *SolidColor) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	return s.Color
}

// ImageTexture provides color from a 2D image
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x]
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Evaluate samples the texture at given UV coordinates using nearest-neighbor filtering.
// UVs wrap; V=0 is the bottom row of the image.
func (t *ImageTexture) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	u := uv.X - math.Floor(uv.X)
	v := uv.Y - math.Floor(uv.Y)

	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int((1.0-v)*float64(t.Height)), t.Height-1)
	return t.Pixels[max(y, 0)*t.Width+max(x, 0)]
}

// NewCheckerboardTexture creates a checkerboard of checkSize pixel squares
func NewCheckerboardTexture(width, height, checkSize int, color1, color2 core.Vec3) *ImageTexture {
	pixels := make([]core.Vec3, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/checkSize+y/checkSize)%2 == 0 {
				pixels[y*width+x] = color1
			} else {
				pixels[y*width+x] = color2
			}
		}
	}
	return NewImageTexture(width, height, pixels)
}

// NewGradientTexture creates a vertical gradient from color1 (top) to color2 (bottom)
func NewGradientTexture(width, height int, color1, color2 core.Vec3) *ImageTexture {
	pixels := make([]core.Vec3, width*height)
	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		color := color1.Multiply(1.0 - t).Add(color2.Multiply(t))
		for x := 0; x < width; x++ {
			pixels[y*width+x] = color
		}
	}
	return NewImageTexture(width, height, pixels)
}
