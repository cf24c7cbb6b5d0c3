package density

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/screen"
)

// Kernel is the Epanechnikov-style splatting kernel
// (2/π)(1 - d²/h²)/h², which integrates to one over the disc of radius H.
type Kernel struct {
	H float64
}

// Evaluate returns the kernel weight at offset (dx, dy) from its centre.
func (k Kernel) Evaluate(dx, dy float64) float64 {
	h2 := k.H * k.H
	d2 := dx*dx + dy*dy
	if d2 >= h2 {
		return 0
	}
	return 2.0 / math.Pi * (1.0 - d2/h2) / h2
}

// Splat adds c weighted by the kernel centred at (x, y) to every pixel of
// dest whose centre lies within H.
func (k Kernel) Splat(dest *screen.Buffer, x, y float64, c core.Vec3) {
	pw, ph := dest.PixelSize()
	w := dest.Window

	iMin := max(0, int(math.Ceil((x-k.H-w.MinX)/pw-0.5)))
	iMax := min(dest.Width-1, int(math.Floor((x+k.H-w.MinX)/pw-0.5)))
	jMin := max(0, int(math.Ceil((y-k.H-w.MinY)/ph-0.5)))
	jMax := min(dest.Height-1, int(math.Floor((y+k.H-w.MinY)/ph-0.5)))

	for j := jMin; j <= jMax; j++ {
		for i := iMin; i <= iMax; i++ {
			cx, cy := dest.PixelCenter(i, j)
			if weight := k.Evaluate(cx-x, cy-y); weight > 0 {
				dest.AddPixel(i, j, c.Multiply(weight))
			}
		}
	}
}
