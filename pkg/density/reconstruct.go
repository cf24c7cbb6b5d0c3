package density

import (
	"context"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/df07/go-lightsampler/pkg/screen"
)

// variableExponent scales variable kernels with the sample density.
const variableExponent = -1.5 / 5.0

var (
	tracerOnce    sync.Once
	densityTracer trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		densityTracer = otel.Tracer("density")
	})
	return densityTracer
}

// FixedKernel returns the kernel used by Reconstruct: eight pixels wide at
// one sample per pixel, shrinking with the square root of the sample count.
func (b *Buffer) FixedKernel() Kernel {
	return Kernel{H: 8 * max(b.pixelW, b.pixelH) / math.Sqrt(b.samplesPerPixel)}
}

// Reconstruct zeroes dest and splats every hit with the fixed kernel.
func (b *Buffer) Reconstruct(ctx context.Context, dest *screen.Buffer) error {
	ctx, span := getTracer().Start(ctx, "density.Buffer.Reconstruct")
	defer span.End()
	start := time.Now()

	kernel := b.FixedKernel()
	scale := 1.0 / float64(b.config.TotalSamples)
	dest.Clear()

	for _, cell := range b.cells {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "context canceled")
			return err
		}
		for _, h := range cell {
			kernel.Splat(dest, h.X, h.Y, h.Color.Multiply(scale))
		}
	}

	reconstructDuration.WithLabelValues(AdaptationNone.String()).Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("hits", b.count),
		attribute.Float64("kernel_width", kernel.H),
	)
	return nil
}

// VariableKernel returns the kernel for a hit whose colour, as passed to
// Add, averages cAverage over a reference radiance ref. ok is false when the
// reference is negligible and the hit should not contribute.
func (b *Buffer) VariableKernel(cAverage, ref, baseSize float64) (Kernel, bool) {
	if ref < Epsilon {
		return Kernel{}, false
	}
	screenScale := max(b.window.Width(), b.window.Height())
	h := baseSize * screenScale * math.Sqrt(cAverage/ref) * math.Pow(b.samplesPerPixel, variableExponent)
	return Kernel{H: max(h, max(b.pixelW, b.pixelH))}, true
}

// ReconstructVariable zeroes dest and splats every hit with a kernel sized
// from the bilinear reference lookup at its position: hits in bright areas
// get narrow kernels and hits in dark areas wide ones.
func (b *Buffer) ReconstructVariable(ctx context.Context, dest, reference *screen.Buffer, baseSize float64) error {
	ctx, span := getTracer().Start(ctx, "density.Buffer.ReconstructVariable",
		trace.WithAttributes(attribute.Float64("base_size", baseSize)),
	)
	defer span.End()
	start := time.Now()

	scale := 1.0 / float64(b.config.TotalSamples)
	area := b.pixelW * b.pixelH
	dest.Clear()

	skipped := 0
	for _, cell := range b.cells {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "context canceled")
			return err
		}
		for _, h := range cell {
			c := h.Color.Multiply(scale)
			ref := reference.GetBilinear(h.X, h.Y).Average()
			kernel, ok := b.VariableKernel(c.Average()/area, ref, baseSize)
			if !ok {
				skipped++
				continue
			}
			kernel.Splat(dest, h.X, h.Y, c)
		}
	}

	reconstructDuration.WithLabelValues(AdaptationVariable.String()).Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("hits", b.count),
		attribute.Int("skipped", skipped),
	)
	return nil
}

// ReconstructConfigured reconstructs dest with the configured adaptation.
// Variable reconstruction first builds a fixed-width reference image.
func (b *Buffer) ReconstructConfigured(ctx context.Context, dest *screen.Buffer) error {
	switch b.config.Adaptation {
	case AdaptationVariable:
		reference := screen.New(dest.Width, dest.Height, dest.Window)
		if err := b.Reconstruct(ctx, reference); err != nil {
			return err
		}
		return b.ReconstructVariable(ctx, dest, reference, b.config.BaseSize)
	default:
		return b.Reconstruct(ctx, dest)
	}
}
