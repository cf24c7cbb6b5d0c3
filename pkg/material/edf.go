package material

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
)

// EDF is an emittance distribution. Directions point away from the surface.
type EDF interface {
	Emittance(flags Flags) core.Vec3
	Evaluate(hit *HitRecord, out core.Vec3, flags Flags) core.Vec3
	Sample(hit *HitRecord, flags Flags, x1, x2 float64) (core.Vec3, float64)
	EvalPdf(hit *HitRecord, out core.Vec3, flags Flags) float64
}

// PhongEDF emits diffusely from the front side of a surface. Non-diffuse
// emission coefficients are accepted but ignored.
type PhongEDF struct {
	Kd, Ks core.Vec3
	Ns     float64

	avgKd float64
}

// NewPhongEDF creates a diffuse emitter with exitance kd.
func NewPhongEDF(kd, ks core.Vec3, ns float64) *PhongEDF {
	if !ks.IsZero() {
		logger.Warningf("non-diffuse emission %v is not supported and will be ignored", ks)
	}
	return &PhongEDF{Kd: kd, Ks: ks, Ns: ns, avgKd: kd.Average()}
}

// Emittance returns the exitance selected by flags.
func (e *PhongEDF) Emittance(flags Flags) core.Vec3 {
	if flags&Diffuse == 0 {
		return core.Vec3{}
	}
	return e.Kd
}

// Evaluate returns the emitted radiance along out. The back side emits
// nothing.
func (e *PhongEDF) Evaluate(hit *HitRecord, out core.Vec3, flags Flags) core.Vec3 {
	if flags&Diffuse == 0 || out.Dot(hit.ShadingNormal()) <= 0 {
		return core.Vec3{}
	}
	return e.Kd.Multiply(1.0 / math.Pi)
}

// Sample draws a cosine weighted emission direction around the shading
// normal. A zero pdf means nothing is emitted.
func (e *PhongEDF) Sample(hit *HitRecord, flags Flags, x1, x2 float64) (core.Vec3, float64) {
	if flags&Diffuse == 0 || e.avgKd < Epsilon {
		return core.Vec3{}, 0
	}
	normal := hit.ShadingNormal()
	out := core.SampleCosineHemisphere(normal, core.NewVec2(x1, x2))
	return out, core.CosineHemispherePDF(out.Dot(normal))
}

// EvalPdf returns the pdf of Sample producing out.
func (e *PhongEDF) EvalPdf(hit *HitRecord, out core.Vec3, flags Flags) float64 {
	if flags&Diffuse == 0 || e.avgKd < Epsilon {
		return 0
	}
	return core.CosineHemispherePDF(out.Dot(hit.ShadingNormal()))
}
