package material

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
)

// BRDF is a reflection distribution. Directions follow the convention that
// in travels toward the surface and out leaves it.
type BRDF interface {
	Reflectance(flags Flags) core.Vec3
	Evaluate(in, out, normal core.Vec3, flags Flags) core.Vec3
	Sample(in, normal core.Vec3, doRussianRoulette bool, flags Flags, x1, x2 float64) (core.Vec3, float64)
	EvalPdf(in, out, normal core.Vec3, flags Flags) (pdf, pdfRR float64)
}

// BTDF is a transmission distribution.
type BTDF interface {
	RefractionIndex() RefractionIndex
	Transmittance(flags Flags) core.Vec3
	Evaluate(in, out, normal core.Vec3, inIndex, outIndex RefractionIndex, flags Flags) core.Vec3
	Sample(in, normal core.Vec3, inIndex, outIndex RefractionIndex, doRussianRoulette bool, flags Flags, x1, x2 float64) (core.Vec3, float64)
	EvalPdf(in, out, normal core.Vec3, inIndex, outIndex RefractionIndex, flags Flags) (pdf, pdfRR float64)
}

// SamplingMode identifies which technique a split BSDF sample used.
type SamplingMode int

const (
	SampleAbsorption SamplingMode = iota
	SampleTexture
	SampleReflection
	SampleTransmission
)

func (m SamplingMode) String() string {
	switch m {
	case SampleTexture:
		return "texture"
	case SampleReflection:
		return "reflection"
	case SampleTransmission:
		return "transmission"
	default:
		return "absorption"
	}
}

// SampleResult is the outcome of SplitBSDF.Sample. An absorbed sample has a
// zero direction and zero pdf.
type SampleResult struct {
	Direction core.Vec3
	PDF       float64
	Mode      SamplingMode
}

// Absorbed reports whether the path ends here.
func (r SampleResult) Absorbed() bool {
	return r.PDF == 0
}

// SplitBSDF combines an optional reflection, an optional transmission and an
// optional texture. The texture, when present, takes over diffuse
// reflection from the BRDF.
type SplitBSDF struct {
	Reflection   BRDF
	Transmission BTDF
	Texture      ColorSource
}

// NewSplitBSDF creates a split BSDF. Any argument may be nil.
func NewSplitBSDF(reflection BRDF, transmission BTDF, texture ColorSource) *SplitBSDF {
	return &SplitBSDF{Reflection: reflection, Transmission: transmission, Texture: texture}
}

// IndexOf returns the refraction index behind a surface with bsdf, which is
// vacuum if it does not transmit.
func IndexOf(bsdf *SplitBSDF) RefractionIndex {
	if bsdf == nil || bsdf.Transmission == nil {
		return Vacuum
	}
	return bsdf.Transmission.RefractionIndex()
}

// Indices returns the refraction indices on the incident and far side of hit.
func (b *SplitBSDF) Indices(hit *HitRecord) (inIndex, outIndex RefractionIndex) {
	if hit.FrontFace() {
		return Vacuum, IndexOf(b)
	}
	return IndexOf(b), Vacuum
}

// textureColor returns the texture colour at the hit, or zero when the
// texture does not take part for flags.
func (b *SplitBSDF) textureColor(hit *HitRecord, flags Flags) (core.Vec3, bool) {
	if b.Texture == nil || flags&DiffuseReflection == 0 {
		return core.Vec3{}, false
	}
	return b.Texture.Evaluate(hit.TexCoord(), hit.Point), true
}

// powers splits the scattered power at hit into the texture, reflection and
// transmission shares. reflFlags are the flags to pass on to the BRDF.
func (b *SplitBSDF) powers(hit *HitRecord, flags Flags) (texPower, reflPower, transPower float64, reflFlags Flags) {
	reflFlags = flags
	if color, ok := b.textureColor(hit, flags); ok {
		texPower = color.Average()
		reflFlags &^= DiffuseReflection
	}
	if b.Reflection != nil {
		reflPower = b.Reflection.Reflectance(reflFlags).Average()
	}
	if b.Transmission != nil {
		transPower = b.Transmission.Transmittance(flags).Average()
	}
	return texPower, reflPower, transPower, reflFlags
}

// Reflectance returns the reflected energy at hit.
func (b *SplitBSDF) Reflectance(hit *HitRecord, flags Flags) core.Vec3 {
	var result core.Vec3
	reflFlags := flags
	if color, ok := b.textureColor(hit, flags); ok {
		result = color
		reflFlags &^= DiffuseReflection
	}
	if b.Reflection != nil {
		result = result.Add(b.Reflection.Reflectance(reflFlags))
	}
	return result
}

// Transmittance returns the transmitted energy at hit.
func (b *SplitBSDF) Transmittance(hit *HitRecord, flags Flags) core.Vec3 {
	if b.Transmission == nil {
		return core.Vec3{}
	}
	return b.Transmission.Transmittance(flags)
}

// Evaluate returns the BSDF value at hit for a particle arriving along in
// and leaving along out.
func (b *SplitBSDF) Evaluate(hit *HitRecord, in, out core.Vec3, flags Flags) core.Vec3 {
	var c Components
	b.EvaluateComponents(hit, in, out, flags, &c)
	return c.Sum(AllComponents)
}

// EvaluateComponents evaluates each component selected by flags separately
// and stores the values in result. Unselected components are zeroed.
func (b *SplitBSDF) EvaluateComponents(hit *HitRecord, in, out core.Vec3, flags Flags, result *Components) {
	*result = Components{}
	normal := hit.ShadingNormal()
	inIndex, outIndex := b.Indices(hit)

	for i := 0; i < NumComponents; i++ {
		component := Flags(1 << i)
		if flags&component == 0 {
			continue
		}
		var value core.Vec3
		if component&Reflection != 0 {
			reflFlags := component
			if color, ok := b.textureColor(hit, component); ok {
				if out.Dot(orient(normal, in)) > 0 {
					value = color.Multiply(1.0 / math.Pi)
				}
				reflFlags = 0
			}
			if b.Reflection != nil && reflFlags != 0 {
				value = value.Add(b.Reflection.Evaluate(in, out, normal, reflFlags))
			}
		} else if b.Transmission != nil {
			value = b.Transmission.Evaluate(in, out, normal, inIndex, outIndex, component)
		}
		result.Set(component, value)
	}
}

// Sample picks a technique by stick-breaking x1 over the texture,
// reflection, transmission and absorption shares in that order and draws a
// direction from it. The pdf is the mixture over every technique at the
// sampled direction, scaled by the survival probability when Russian
// roulette is on.
func (b *SplitBSDF) Sample(hit *HitRecord, in core.Vec3, inIndex, outIndex RefractionIndex, doRussianRoulette bool, flags Flags, x1, x2 float64) SampleResult {
	texPower, reflPower, transPower, reflFlags := b.powers(hit, flags)
	scattered := texPower + reflPower + transPower
	if scattered < Epsilon {
		splitSamples.WithLabelValues(SampleAbsorption.String()).Inc()
		return SampleResult{Mode: SampleAbsorption}
	}

	if !doRussianRoulette {
		x1 *= scattered
	}

	normal := hit.ShadingNormal()
	var out core.Vec3
	var pdf float64
	mode := SampleAbsorption
	switch {
	case x1 < texPower:
		mode = SampleTexture
		x1 /= texPower
		out = core.SampleCosineHemisphere(orient(normal, in), core.NewVec2(x1, x2))
		pdf = 1
	case x1 < texPower+reflPower:
		mode = SampleReflection
		x1 = (x1 - texPower) / reflPower
		out, pdf = b.Reflection.Sample(in, normal, false, reflFlags, x1, x2)
	case x1 < scattered:
		mode = SampleTransmission
		x1 = (x1 - texPower - reflPower) / transPower
		out, pdf = b.Transmission.Sample(in, normal, inIndex, outIndex, false, flags, x1, x2)
	}
	if mode == SampleAbsorption || pdf == 0 {
		splitSamples.WithLabelValues(SampleAbsorption.String()).Inc()
		return SampleResult{Mode: SampleAbsorption}
	}

	pdf, pdfRR := b.EvalPdf(hit, in, out, inIndex, outIndex, flags)
	if pdf == 0 {
		splitSamples.WithLabelValues(SampleAbsorption.String()).Inc()
		return SampleResult{Mode: SampleAbsorption}
	}
	if doRussianRoulette {
		pdf *= pdfRR
	}
	splitSamples.WithLabelValues(mode.String()).Inc()
	return SampleResult{Direction: out, PDF: pdf, Mode: mode}
}

// EvalPdf returns the normalized mixture pdf of sampling out at hit, and
// the total scattered power used as Russian roulette survival probability.
func (b *SplitBSDF) EvalPdf(hit *HitRecord, in, out core.Vec3, inIndex, outIndex RefractionIndex, flags Flags) (pdf, pdfRR float64) {
	texPower, reflPower, transPower, reflFlags := b.powers(hit, flags)
	scattered := texPower + reflPower + transPower
	if scattered < Epsilon {
		return 0, 0
	}

	normal := hit.ShadingNormal()
	if texPower > 0 {
		pdf += texPower * core.CosineHemispherePDF(out.Dot(orient(normal, in)))
	}
	if reflPower > 0 {
		p, _ := b.Reflection.EvalPdf(in, out, normal, reflFlags)
		pdf += reflPower * p
	}
	if transPower > 0 {
		p, _ := b.Transmission.EvalPdf(in, out, normal, inIndex, outIndex, flags)
		pdf += transPower * p
	}
	return pdf / scattered, scattered
}
