package material

import (
	"fmt"
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
)

const (
	// SpecularThreshold is the lowest Phong exponent treated as specular
	// rather than glossy.
	SpecularThreshold = 250.0

	// Epsilon is the scattered power below which a surface is treated as
	// absorbing everything.
	Epsilon = 1e-6
)

// phongLobe is the part shared by the reflection and transmission Phong
// models: a diffuse term and a cos^Ns lobe around an ideal direction.
type phongLobe struct {
	Kd, Ks core.Vec3
	Ns     float64

	avgKd, avgKs float64
}

func newPhongLobe(kd, ks core.Vec3, ns float64) phongLobe {
	if !kd.IsFinite() || !ks.IsFinite() || math.IsNaN(ns) || math.IsInf(ns, 0) {
		panic(fmt.Sprintf("material: non-finite Phong coefficients kd=%v ks=%v ns=%v", kd, ks, ns))
	}
	return phongLobe{Kd: kd, Ks: ks, Ns: ns, avgKd: kd.Average(), avgKs: ks.Average()}
}

// IsSpecular reports whether the non-diffuse lobe is sharp enough to count
// as specular.
func (p *phongLobe) IsSpecular() bool {
	return p.Ns >= SpecularThreshold
}

// powers returns the average diffuse and non-diffuse energy selected by
// flags, given which bits mean diffuse/glossy/specular for this side.
func (p *phongLobe) powers(flags, diffuse, glossy, specular Flags) (avgKd, avgKs float64) {
	if flags&diffuse != 0 {
		avgKd = p.avgKd
	}
	if p.IsSpecular() {
		if flags&specular != 0 {
			avgKs = p.avgKs
		}
	} else if flags&glossy != 0 {
		avgKs = p.avgKs
	}
	return avgKd, avgKs
}

func (p *phongLobe) energy(flags, diffuse, glossy, specular Flags) core.Vec3 {
	var result core.Vec3
	if flags&diffuse != 0 {
		result = result.Add(p.Kd)
	}
	if p.IsSpecular() {
		if flags&specular != 0 {
			result = result.Add(p.Ks)
		}
	} else if flags&glossy != 0 {
		result = result.Add(p.Ks)
	}
	if !result.IsFinite() {
		panic(fmt.Sprintf("material: non-finite reflectance %v", result))
	}
	return result
}

// evaluate returns the radiance scaling for out, where side is the axis of
// the hemisphere out must lie in and ideal is the lobe axis.
func (p *phongLobe) evaluate(out, side, ideal core.Vec3, idealOK bool, avgKd, avgKs float64) core.Vec3 {
	var result core.Vec3
	if out.Dot(side) < 0 {
		return result
	}
	if avgKd > 0 {
		result = result.Add(p.Kd.Multiply(1.0 / math.Pi))
	}
	if avgKs > 0 && idealOK {
		if cos := ideal.Dot(out); cos > 0 {
			lobe := math.Pow(cos, p.Ns) * (p.Ns + 2.0) / (2.0 * math.Pi)
			result = result.Add(p.Ks.Multiply(lobe))
		}
	}
	return result
}

// mixturePDF returns the energy weighted sum of the diffuse and lobe pdfs
// at out, not normalized by total power.
func (p *phongLobe) mixturePDF(out, side, ideal core.Vec3, idealOK bool, avgKd, avgKs float64) float64 {
	pdf := 0.0
	if avgKd > 0 {
		pdf += avgKd * core.CosineHemispherePDF(out.Dot(side))
	}
	if avgKs > 0 && idealOK {
		pdf += avgKs * core.CosineLobePDF(ideal.Dot(out), p.Ns)
	}
	return pdf
}

// sample picks the diffuse or lobe technique with x1 and draws a direction.
// It returns pdf 0 when the path is absorbed.
func (p *phongLobe) sample(side, ideal core.Vec3, idealOK bool, doRussianRoulette bool, avgKd, avgKs, x1, x2 float64) (core.Vec3, float64) {
	scattered := avgKd + avgKs
	if scattered < Epsilon {
		return core.Vec3{}, 0
	}

	if doRussianRoulette {
		if x1 > scattered {
			return core.Vec3{}, 0
		}
		x1 /= scattered
	}

	var out core.Vec3
	diffuseShare := avgKd / scattered
	if x1 < diffuseShare {
		x1 = x1 / diffuseShare
		out = core.SampleCosineHemisphere(side, core.NewVec2(x1, x2))
	} else {
		if !idealOK {
			return core.Vec3{}, 0
		}
		x1 = (x1 - diffuseShare) / (1.0 - diffuseShare)
		out = core.SampleCosineLobe(ideal, p.Ns, core.NewVec2(x1, x2))
		if out.Dot(side) <= 0 {
			return core.Vec3{}, 0
		}
	}

	pdf := p.mixturePDF(out, side, ideal, idealOK, avgKd, avgKs)
	if !doRussianRoulette {
		pdf /= scattered
	}
	return out, pdf
}

// PhongBRDF is a Phong reflection model: diffuse Kd plus a cos^Ns lobe of
// weight Ks around the mirror direction.
type PhongBRDF struct {
	phongLobe
}

// NewPhongBRDF creates a Phong reflection model.
func NewPhongBRDF(kd, ks core.Vec3, ns float64) *PhongBRDF {
	return &PhongBRDF{phongLobe: newPhongLobe(kd, ks, ns)}
}

// Reflectance returns the energy reflected by the components in flags.
func (b *PhongBRDF) Reflectance(flags Flags) core.Vec3 {
	return b.energy(flags, DiffuseReflection, GlossyReflection, SpecularReflection)
}

// Evaluate returns the BRDF value for a particle travelling along in and
// leaving along out.
func (b *PhongBRDF) Evaluate(in, out, normal core.Vec3, flags Flags) core.Vec3 {
	avgKd, avgKs := b.powers(flags, DiffuseReflection, GlossyReflection, SpecularReflection)
	n := orient(normal, in)
	return b.evaluate(out, n, core.Reflect(in, n), true, avgKd, avgKs)
}

// Sample draws an outgoing direction. With Russian roulette the returned
// pdf includes the survival probability; without it the pdf is normalized.
// A zero pdf means the particle was absorbed.
func (b *PhongBRDF) Sample(in, normal core.Vec3, doRussianRoulette bool, flags Flags, x1, x2 float64) (core.Vec3, float64) {
	avgKd, avgKs := b.powers(flags, DiffuseReflection, GlossyReflection, SpecularReflection)
	n := orient(normal, in)
	return b.sample(n, core.Reflect(in, n), true, doRussianRoulette, avgKd, avgKs, x1, x2)
}

// EvalPdf returns the normalized pdf of sampling out and the total scattered
// power, which callers use as Russian roulette survival probability.
func (b *PhongBRDF) EvalPdf(in, out, normal core.Vec3, flags Flags) (pdf, pdfRR float64) {
	avgKd, avgKs := b.powers(flags, DiffuseReflection, GlossyReflection, SpecularReflection)
	scattered := avgKd + avgKs
	if scattered < Epsilon {
		return 0, 0
	}
	n := orient(normal, in)
	if out.Dot(n) <= 0 {
		return 0, scattered
	}
	return b.mixturePDF(out, n, core.Reflect(in, n), true, avgKd, avgKs) / scattered, scattered
}

// RefractionIndex is a complex index of refraction.
type RefractionIndex struct {
	Nr, Ni float64
}

// Vacuum is the refraction index used when a surface has no BTDF.
var Vacuum = RefractionIndex{Nr: 1, Ni: 0}

// PhongBTDF is the transmission counterpart of PhongBRDF: diffuse
// transmission plus a lobe around the ideal refracted direction.
type PhongBTDF struct {
	phongLobe
	Index RefractionIndex
}

// NewPhongBTDF creates a Phong transmission model for a medium with the
// given refraction index.
func NewPhongBTDF(kd, ks core.Vec3, ns float64, index RefractionIndex) *PhongBTDF {
	return &PhongBTDF{phongLobe: newPhongLobe(kd, ks, ns), Index: index}
}

// RefractionIndex returns the index of the medium behind the surface.
func (b *PhongBTDF) RefractionIndex() RefractionIndex {
	return b.Index
}

// Transmittance returns the energy transmitted by the components in flags.
func (b *PhongBTDF) Transmittance(flags Flags) core.Vec3 {
	return b.energy(flags, DiffuseTransmission, GlossyTransmission, SpecularTransmission)
}

// refracted returns the normal facing the incident side and the ideal
// refracted direction. ok is false on total internal reflection.
func refracted(in, normal core.Vec3, inIndex, outIndex RefractionIndex) (n, ideal core.Vec3, ok bool) {
	n = orient(normal, in)
	ideal, ok = core.Refract(in.Normalize(), n, inIndex.Nr/outIndex.Nr)
	return n, ideal, ok
}

// Evaluate returns the BTDF value for a particle travelling along in from a
// medium of inIndex into outIndex, leaving along out.
func (b *PhongBTDF) Evaluate(in, out, normal core.Vec3, inIndex, outIndex RefractionIndex, flags Flags) core.Vec3 {
	avgKd, avgKs := b.powers(flags, DiffuseTransmission, GlossyTransmission, SpecularTransmission)
	n, ideal, ok := refracted(in, normal, inIndex, outIndex)
	return b.evaluate(out, n.Negate(), ideal, ok, avgKd, avgKs)
}

// Sample draws a transmitted direction, with the same pdf conventions as
// PhongBRDF.Sample.
func (b *PhongBTDF) Sample(in, normal core.Vec3, inIndex, outIndex RefractionIndex, doRussianRoulette bool, flags Flags, x1, x2 float64) (core.Vec3, float64) {
	avgKd, avgKs := b.powers(flags, DiffuseTransmission, GlossyTransmission, SpecularTransmission)
	n, ideal, ok := refracted(in, normal, inIndex, outIndex)
	return b.sample(n.Negate(), ideal, ok, doRussianRoulette, avgKd, avgKs, x1, x2)
}

// EvalPdf returns the normalized pdf of sampling out and the total
// transmitted power.
func (b *PhongBTDF) EvalPdf(in, out, normal core.Vec3, inIndex, outIndex RefractionIndex, flags Flags) (pdf, pdfRR float64) {
	avgKd, avgKs := b.powers(flags, DiffuseTransmission, GlossyTransmission, SpecularTransmission)
	scattered := avgKd + avgKs
	if scattered < Epsilon {
		return 0, 0
	}
	n, ideal, ok := refracted(in, normal, inIndex, outIndex)
	side := n.Negate()
	if out.Dot(side) <= 0 {
		return 0, scattered
	}
	return b.mixturePDF(out, side, ideal, ok, avgKd, avgKs) / scattered, scattered
}
