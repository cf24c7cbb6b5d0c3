// Package density turns screen-space light-tracing hits into an image by
// kernel density estimation.
//
// Hits are kept in a coarse grid over the screen window. Reconstruction
// splats every hit with a Kernel whose width is either fixed by the sample
// count or adapted per hit from a reference image.
package density

import (
	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/screen"
)

var logger = log.New("density")

// GridResolution is the number of grid cells along each screen axis.
const GridResolution = 64

// Epsilon is the colour average below which hits and reference values are
// treated as zero.
const Epsilon = 1e-6

// Hit is a single screen-space contribution.
type Hit struct {
	X, Y  float64
	Color core.Vec3
}

// Buffer collects hits for one screen. It is not safe for concurrent use;
// give each worker its own buffer and Merge them.
type Buffer struct {
	config Config

	window          screen.Window
	width, height   int
	pixelW, pixelH  float64
	samplesPerPixel float64

	cells [GridResolution * GridResolution][]Hit
	count int
}

// NewBuffer creates an empty hit buffer for screens shaped like s.
func NewBuffer(s *screen.Buffer, config Config) *Buffer {
	// Validate logs an unknown method and falls back to AdaptationNone.
	if err := config.Validate(); err != nil {
		logger.Warningf("hit buffer uses %v reconstruction", config.Adaptation)
	}
	pw, ph := s.PixelSize()
	spp := config.SamplesPerPixel
	if spp <= 0 {
		spp = float64(config.TotalSamples) / float64(s.Width*s.Height)
	}
	return &Buffer{
		config:          config,
		window:          s.Window,
		width:           s.Width,
		height:          s.Height,
		pixelW:          pw,
		pixelH:          ph,
		samplesPerPixel: spp,
	}
}

// Config returns the validated configuration of the buffer.
func (b *Buffer) Config() Config {
	return b.config
}

// Count returns the number of stored hits.
func (b *Buffer) Count() int {
	return b.count
}

// SamplesPerPixel returns the sample density used to size kernels.
func (b *Buffer) SamplesPerPixel() float64 {
	return b.samplesPerPixel
}

// PixelArea returns the screen area covered by one pixel.
func (b *Buffer) PixelArea() float64 {
	return b.pixelW * b.pixelH
}

// Window returns the screen region hits are recorded in.
func (b *Buffer) Window() screen.Window {
	return b.window
}

func (b *Buffer) cellIndex(x, y float64) int {
	cx := int((x - b.window.MinX) / b.window.Width() * GridResolution)
	cy := int((y - b.window.MinY) / b.window.Height() * GridResolution)
	cx = max(0, min(GridResolution-1, cx))
	cy = max(0, min(GridResolution-1, cy))
	return cy*GridResolution + cx
}

// Add records a contribution c at screen position (x, y). Hits with a
// negligible average or outside the window are dropped.
func (b *Buffer) Add(x, y float64, c core.Vec3) bool {
	if c.Average() < Epsilon {
		hitsTotal.WithLabelValues("rejected").Inc()
		return false
	}
	if !b.window.Contains(x, y) {
		hitsTotal.WithLabelValues("outside").Inc()
		return false
	}
	scale := b.pixelW * b.pixelH * float64(b.config.TotalSamples)
	idx := b.cellIndex(x, y)
	b.cells[idx] = append(b.cells[idx], Hit{X: x, Y: y, Color: c.Multiply(scale)})
	b.count++
	hitsTotal.WithLabelValues("added").Inc()
	return true
}

// Merge appends the hits of other. Both buffers must use the same
// configuration, since stored colours are already scaled by it.
func (b *Buffer) Merge(other *Buffer) {
	other.Each(func(h Hit) {
		idx := b.cellIndex(h.X, h.Y)
		b.cells[idx] = append(b.cells[idx], h)
		b.count++
	})
}

// Each calls fn for every stored hit, cell by cell.
func (b *Buffer) Each(fn func(Hit)) {
	for _, cell := range b.cells {
		for _, h := range cell {
			fn(h)
		}
	}
}

// Reset drops all hits.
func (b *Buffer) Reset() {
	for i := range b.cells {
		b.cells[i] = nil
	}
	b.count = 0
}
