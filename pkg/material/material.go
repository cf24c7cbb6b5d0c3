// Package material holds the scattering and emission functions evaluated at
// surface hits: Phong reflection, transmission and emission, and the split
// BSDF that combines them with an optional texture.
package material

import (
	"math"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/log"
)

var logger = log.New("material")

// Material pairs an optional BSDF with an optional EDF. Both are evaluated
// in the shading frame of the hit.
type Material struct {
	Name string
	BSDF *SplitBSDF
	EDF  EDF
}

// Emits reports whether the material has an emitter.
func (m *Material) Emits() bool {
	return m.EDF != nil
}

// Scatters reports whether the material has a BSDF.
func (m *Material) Scatters() bool {
	return m.BSDF != nil
}

// NewLambertian creates a perfectly diffuse reflector.
func NewLambertian(albedo core.Vec3) *Material {
	return &Material{
		Name: "lambertian",
		BSDF: NewSplitBSDF(NewPhongBRDF(albedo, core.Vec3{}, 0), nil, nil),
	}
}

// NewTexturedLambertian creates a diffuse reflector whose albedo comes from a
// texture.
func NewTexturedLambertian(albedo ColorSource) *Material {
	return &Material{
		Name: "textured",
		BSDF: NewSplitBSDF(nil, nil, albedo),
	}
}

// NewMetal creates a glossy reflector. A fuzzness of 0 is a perfect mirror,
// 1 is very rough.
func NewMetal(albedo core.Vec3, fuzzness float64) *Material {
	fuzzness = max(0, min(1, fuzzness))
	return &Material{
		Name: "metal",
		BSDF: NewSplitBSDF(NewPhongBRDF(core.Vec3{}, albedo, fuzzExponent(fuzzness)), nil, nil),
	}
}

// fuzzExponent maps a fuzzness in [0, 1] to a Phong exponent. Zero maps to
// a specular exponent.
func fuzzExponent(fuzzness float64) float64 {
	if fuzzness < 0.05 {
		return 1000
	}
	return 2/(fuzzness*fuzzness) - 1
}

// NewGlass creates a clear dielectric that splits energy between specular
// reflection and transmission by the Fresnel reflectance at normal
// incidence.
func NewGlass(refractiveIndex float64) *Material {
	r0 := SchlickReflectance(1, 1/refractiveIndex)
	return &Material{
		Name: "glass",
		BSDF: NewSplitBSDF(
			NewPhongBRDF(core.Vec3{}, core.NewVec3(r0, r0, r0), 1000),
			NewPhongBTDF(core.Vec3{}, core.NewVec3(1-r0, 1-r0, 1-r0), 1000, RefractionIndex{Nr: refractiveIndex}),
			nil,
		),
	}
}

// NewEmissive creates a diffuse light source with exitance emission.
func NewEmissive(emission core.Vec3) *Material {
	return &Material{
		Name: "emissive",
		EDF:  NewPhongEDF(emission, core.Vec3{}, 0),
	}
}

// SchlickReflectance approximates Fresnel reflectance.
func SchlickReflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
