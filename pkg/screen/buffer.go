// Package screen provides the pixel buffer that light-tracing samples and
// density reconstruction write radiance into.
package screen

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
)

// Window is the rectangle of screen space covered by a buffer.
type Window struct {
	MinX, MinY, MaxX, MaxY float64
}

// UnitWindow spans [-1, 1] on both axes.
var UnitWindow = Window{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}

// Width returns the horizontal extent of the window.
func (w Window) Width() float64 { return w.MaxX - w.MinX }

// Height returns the vertical extent of the window.
func (w Window) Height() float64 { return w.MaxY - w.MinY }

// Contains reports whether (x, y) lies inside the window.
func (w Window) Contains(x, y float64) bool {
	return x >= w.MinX && x < w.MaxX && y >= w.MinY && y < w.MaxY
}

// Buffer is a grid of radiance values over a screen window. Pixel (0, 0) is
// at the bottom left, matching screen space where y grows upward.
type Buffer struct {
	Width, Height int
	Window        Window
	Pixels        []core.Vec3 // Row-major: Pixels[j*Width + i]
}

// New creates a zeroed buffer of width x height pixels over window.
func New(width, height int, window Window) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Window: window,
		Pixels: make([]core.Vec3, width*height),
	}
}

// PixelSize returns the extent of one pixel in screen units.
func (b *Buffer) PixelSize() (float64, float64) {
	return b.Window.Width() / float64(b.Width), b.Window.Height() / float64(b.Height)
}

// PixelCenter returns the screen position of the centre of pixel (i, j).
func (b *Buffer) PixelCenter(i, j int) (float64, float64) {
	pw, ph := b.PixelSize()
	return b.Window.MinX + (float64(i)+0.5)*pw, b.Window.MinY + (float64(j)+0.5)*ph
}

// PixelIndex returns the pixel covering screen position (x, y). ok is false
// outside the window.
func (b *Buffer) PixelIndex(x, y float64) (i, j int, ok bool) {
	if !b.Window.Contains(x, y) {
		return 0, 0, false
	}
	pw, ph := b.PixelSize()
	i = min(int((x-b.Window.MinX)/pw), b.Width-1)
	j = min(int((y-b.Window.MinY)/ph), b.Height-1)
	return i, j, true
}

// Get returns the value of pixel (i, j).
func (b *Buffer) Get(i, j int) core.Vec3 {
	return b.Pixels[j*b.Width+i]
}

// Set overwrites pixel (i, j).
func (b *Buffer) Set(i, j int, c core.Vec3) {
	b.Pixels[j*b.Width+i] = c
}

// Add accumulates c into the pixel covering screen position (x, y). Points
// outside the window are dropped.
func (b *Buffer) Add(x, y float64, c core.Vec3) bool {
	i, j, ok := b.PixelIndex(x, y)
	if !ok {
		return false
	}
	b.AddPixel(i, j, c)
	return true
}

// AddPixel accumulates c into pixel (i, j).
func (b *Buffer) AddPixel(i, j int, c core.Vec3) {
	idx := j*b.Width + i
	b.Pixels[idx] = b.Pixels[idx].Add(c)
}

// GetBilinear interpolates between the four pixel centres around screen
// position (x, y). Positions beyond the outer centres clamp to the edge.
func (b *Buffer) GetBilinear(x, y float64) core.Vec3 {
	pw, ph := b.PixelSize()
	fx := (x-b.Window.MinX)/pw - 0.5
	fy := (y-b.Window.MinY)/ph - 0.5
	fx = max(0, min(float64(b.Width-1), fx))
	fy = max(0, min(float64(b.Height-1), fy))

	i0, j0 := int(math.Floor(fx)), int(math.Floor(fy))
	i1, j1 := min(i0+1, b.Width-1), min(j0+1, b.Height-1)
	tx, ty := fx-float64(i0), fy-float64(j0)

	bottom := b.Get(i0, j0).Multiply(1 - tx).Add(b.Get(i1, j0).Multiply(tx))
	top := b.Get(i0, j1).Multiply(1 - tx).Add(b.Get(i1, j1).Multiply(tx))
	return bottom.Multiply(1 - ty).Add(top.Multiply(ty))
}

// Clear zeroes every pixel.
func (b *Buffer) Clear() {
	clear(b.Pixels)
}

// Scale multiplies every pixel by s.
func (b *Buffer) Scale(s float64) {
	for i := range b.Pixels {
		b.Pixels[i] = b.Pixels[i].Multiply(s)
	}
}

// Sum returns the total of all pixels.
func (b *Buffer) Sum() core.Vec3 {
	var total core.Vec3
	for _, p := range b.Pixels {
		total = total.Add(p)
	}
	return total
}

// ToImage converts the buffer to an 8-bit image after scaling by exposure,
// with gamma 2 and clamping. Image row 0 is the top of the screen.
func (b *Buffer) ToImage(exposure float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for j := 0; j < b.Height; j++ {
		for i := 0; i < b.Width; i++ {
			c := b.Get(i, j).Multiply(exposure).GammaCorrect(2.0).Clamp(0.0, 1.0)
			img.SetRGBA(i, b.Height-1-j, color.RGBA{
				R: uint8(255 * c.X),
				G: uint8(255 * c.Y),
				B: uint8(255 * c.Z),
				A: 255,
			})
		}
	}
	return img
}
