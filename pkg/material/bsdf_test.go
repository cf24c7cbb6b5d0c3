package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-lightsampler/pkg/core"
)

// testSurface is a flat surface with a fixed normal that counts shading
// queries.
type testSurface struct {
	normal   core.Vec3
	uv       core.Vec2
	material *Material

	normalCalls   int
	texCoordCalls int
}

func newTestSurface(normal core.Vec3, material *Material) *testSurface {
	return &testSurface{normal: normal, uv: core.NewVec2(0.5, 0.5), material: material}
}

func (s *testSurface) GeometricNormal() core.Vec3 { return s.normal }

func (s *testSurface) ShadingNormal(point core.Vec3) core.Vec3 {
	s.normalCalls++
	return s.normal
}

func (s *testSurface) TexCoord(point core.Vec3) core.Vec2 {
	s.texCoordCalls++
	return s.uv
}

func (s *testSurface) Material() *Material { return s.material }

func newTestHit(bsdf *SplitBSDF) *HitRecord {
	surface := newTestSurface(up, &Material{Name: "test", BSDF: bsdf})
	return NewHitRecord(surface, core.Vec3{}, 1, down)
}

func TestHitRecord_CachesShadingQueries(t *testing.T) {
	surface := newTestSurface(up, nil)
	hit := NewHitRecord(surface, core.NewVec3(1, 2, 3), 2, down)

	if !hit.FrontFace() {
		t.Error("expected front face hit")
	}
	for i := 0; i < 3; i++ {
		if n := hit.ShadingNormal(); !n.Equals(up) {
			t.Errorf("unexpected normal %v", n)
		}
		hit.TexCoord()
	}
	if surface.normalCalls != 1 || surface.texCoordCalls != 1 {
		t.Errorf("expected one surface query each, got normal=%d texcoord=%d", surface.normalCalls, surface.texCoordCalls)
	}
	if hit.Flags&(HitShadingNormal|HitTexCoord) != HitShadingNormal|HitTexCoord {
		t.Errorf("expected resolved flags, got %b", hit.Flags)
	}

	back := NewHitRecord(surface, core.Vec3{}, 1, up)
	if back.FrontFace() {
		t.Error("expected back face hit")
	}
}

func TestSplitBSDF_EnergyConservation(t *testing.T) {
	kd := core.NewVec3(0.4, 0.3, 0.2)
	ks := core.NewVec3(0.5, 0.6, 0.7)

	tests := []struct {
		name string
		ns   float64
	}{
		{"glossy", 50},
		{"specular", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bsdf := NewSplitBSDF(NewPhongBRDF(kd, ks, tt.ns), nil, nil)
			hit := newTestHit(bsdf)
			got := bsdf.Reflectance(hit, AllComponents)
			if !got.Equals(kd.Add(ks)) {
				t.Errorf("expected %v, got %v", kd.Add(ks), got)
			}
			if got := bsdf.Transmittance(hit, AllComponents); !got.IsZero() {
				t.Errorf("expected no transmittance, got %v", got)
			}
		})
	}
}

func TestSplitBSDF_TextureReplacesDiffuse(t *testing.T) {
	texColor := core.NewVec3(0.1, 0.2, 0.3)
	ks := core.NewVec3(0.2, 0.2, 0.2)
	bsdf := NewSplitBSDF(NewPhongBRDF(core.NewVec3(0.9, 0.9, 0.9), ks, 20), nil, NewSolidColor(texColor))
	hit := newTestHit(bsdf)

	got := bsdf.Reflectance(hit, AllComponents)
	if !got.Equals(texColor.Add(ks)) {
		t.Errorf("expected %v, got %v", texColor.Add(ks), got)
	}
	if got := bsdf.Reflectance(hit, GlossyReflection); !got.Equals(ks) {
		t.Errorf("glossy only: expected %v, got %v", ks, got)
	}
}

func TestSplitBSDF_TextureRoutedSample(t *testing.T) {
	bsdf := NewSplitBSDF(nil, nil, NewSolidColor(core.NewVec3(0.6, 0.5, 0.4)))
	hit := newTestHit(bsdf)
	inIndex, outIndex := bsdf.Indices(hit)

	random := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		result := bsdf.Sample(hit, down, inIndex, outIndex, false, AllComponents, 0.0, random.Float64())
		if result.Mode != SampleTexture {
			t.Fatalf("expected texture mode, got %v", result.Mode)
		}
		cos := result.Direction.Dot(up)
		if cos <= 0 {
			t.Fatalf("texture sample below surface: %v", result.Direction)
		}
		if math.Abs(result.PDF-cos/math.Pi) > 1e-12 {
			t.Fatalf("expected pdf %f, got %f", cos/math.Pi, result.PDF)
		}
	}
}

func TestSplitBSDF_Absorption(t *testing.T) {
	bsdf := NewSplitBSDF(NewPhongBRDF(core.NewVec3(0.3, 0.3, 0.3), core.Vec3{}, 0), nil, nil)
	hit := newTestHit(bsdf)

	result := bsdf.Sample(hit, down, Vacuum, Vacuum, true, AllComponents, 0.5, 0.5)
	if !result.Absorbed() || result.Mode != SampleAbsorption {
		t.Errorf("expected absorption, got %+v", result)
	}
	if !result.Direction.IsZero() {
		t.Errorf("absorbed sample should have zero direction, got %v", result.Direction)
	}

	empty := NewSplitBSDF(nil, nil, nil)
	if result := empty.Sample(hit, down, Vacuum, Vacuum, false, AllComponents, 0.1, 0.1); !result.Absorbed() {
		t.Errorf("empty BSDF should absorb, got %+v", result)
	}
}

func TestSplitBSDF_ModeSelection(t *testing.T) {
	glass := RefractionIndex{Nr: 1.5}
	bsdf := NewSplitBSDF(
		NewPhongBRDF(core.NewVec3(0.5, 0.5, 0.5), core.Vec3{}, 0),
		NewPhongBTDF(core.NewVec3(0.25, 0.25, 0.25), core.Vec3{}, 0, glass),
		nil,
	)
	hit := newTestHit(bsdf)
	inIndex, outIndex := bsdf.Indices(hit)
	if inIndex != Vacuum || outIndex != glass {
		t.Fatalf("unexpected indices %v %v", inIndex, outIndex)
	}

	tests := []struct {
		name     string
		x1       float64
		rr       bool
		mode     SamplingMode
		positive bool
	}{
		{"reflection", 0.3, false, SampleReflection, true},
		{"transmission", 0.9, false, SampleTransmission, false},
		{"reflection with roulette", 0.3, true, SampleReflection, true},
		{"transmission with roulette", 0.6, true, SampleTransmission, false},
		{"absorbed by roulette", 0.8, true, SampleAbsorption, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bsdf.Sample(hit, down, inIndex, outIndex, tt.rr, AllComponents, tt.x1, 0.4)
			if result.Mode != tt.mode {
				t.Fatalf("expected mode %v, got %v", tt.mode, result.Mode)
			}
			if tt.mode == SampleAbsorption {
				return
			}
			if (result.Direction.Z > 0) != tt.positive {
				t.Errorf("direction %v on the wrong side", result.Direction)
			}

			pdf, pdfRR := bsdf.EvalPdf(hit, down, result.Direction, inIndex, outIndex, AllComponents)
			if math.Abs(pdfRR-0.75) > 1e-12 {
				t.Errorf("expected pdfRR 0.75, got %f", pdfRR)
			}
			if tt.rr {
				pdf *= pdfRR
			}
			if math.Abs(result.PDF-pdf) > 1e-12 {
				t.Errorf("Sample pdf %f != EvalPdf %f", result.PDF, pdf)
			}
		})
	}
}

func TestSplitBSDF_MixturePdfNormalized(t *testing.T) {
	bsdf := NewSplitBSDF(
		NewPhongBRDF(core.NewVec3(0.2, 0.2, 0.2), core.NewVec3(0.3, 0.3, 0.3), 10),
		NewPhongBTDF(core.NewVec3(0.2, 0.2, 0.2), core.Vec3{}, 0, RefractionIndex{Nr: 1.2}),
		NewSolidColor(core.NewVec3(0.1, 0.1, 0.1)),
	)
	hit := newTestHit(bsdf)
	inIndex, outIndex := bsdf.Indices(hit)

	total := integrateSphere(600, false, func(dir core.Vec3) float64 {
		pdf, _ := bsdf.EvalPdf(hit, down, dir, inIndex, outIndex, AllComponents)
		return pdf
	})
	if math.Abs(total-1) > 0.01 {
		t.Errorf("expected pdf to integrate to 1, got %f", total)
	}
}

func TestSplitBSDF_EvaluateComponents(t *testing.T) {
	kd := core.NewVec3(0.4, 0.4, 0.4)
	ks := core.NewVec3(0.3, 0.3, 0.3)
	bsdf := NewSplitBSDF(NewPhongBRDF(kd, ks, 5), nil, nil)
	hit := newTestHit(bsdf)

	var c Components
	bsdf.EvaluateComponents(hit, down, up, AllComponents, &c)

	diffuse := c.Sum(DiffuseReflection)
	if math.Abs(diffuse.X-0.4/math.Pi) > 1e-12 {
		t.Errorf("diffuse component: expected %f, got %f", 0.4/math.Pi, diffuse.X)
	}
	glossy := c.Sum(GlossyReflection)
	if math.Abs(glossy.X-0.3*7/(2*math.Pi)) > 1e-12 {
		t.Errorf("glossy component: expected %f, got %f", 0.3*7/(2*math.Pi), glossy.X)
	}
	if !c.Sum(Specular | Transmission).IsZero() {
		t.Errorf("unexpected specular or transmitted value")
	}

	total := bsdf.Evaluate(hit, down, up, AllComponents)
	if math.Abs(total.X-diffuse.X-glossy.X) > 1e-12 {
		t.Errorf("Evaluate %v != component sum %v", total, diffuse.Add(glossy))
	}

	bsdf.EvaluateComponents(hit, down, up, GlossyReflection, &c)
	if !c.Sum(DiffuseReflection).IsZero() {
		t.Error("unselected components should be cleared")
	}
}

func TestIndexOf(t *testing.T) {
	if got := IndexOf(nil); got != Vacuum {
		t.Errorf("nil BSDF: expected vacuum, got %v", got)
	}
	if got := IndexOf(NewSplitBSDF(NewPhongBRDF(core.Vec3{}, core.Vec3{}, 0), nil, nil)); got != Vacuum {
		t.Errorf("no BTDF: expected vacuum, got %v", got)
	}
	water := RefractionIndex{Nr: 1.33, Ni: 0.01}
	if got := IndexOf(NewSplitBSDF(nil, NewPhongBTDF(core.Vec3{}, core.Vec3{}, 0, water), nil)); got != water {
		t.Errorf("expected %v, got %v", water, got)
	}
}

func TestMaterialPresets(t *testing.T) {
	hit := newTestHit(nil)

	glass := NewGlass(1.5)
	total := glass.BSDF.Reflectance(hit, AllComponents).Add(glass.BSDF.Transmittance(hit, AllComponents))
	if math.Abs(total.X-1) > 1e-12 {
		t.Errorf("glass should conserve energy, got %v", total)
	}
	if r := glass.BSDF.Reflectance(hit, AllComponents).X; math.Abs(r-0.04) > 1e-12 {
		t.Errorf("glass reflectance: expected 0.04, got %f", r)
	}

	mirror := NewMetal(core.NewVec3(0.9, 0.8, 0.7), 0)
	if got := mirror.BSDF.Reflectance(hit, SpecularReflection); !got.Equals(core.NewVec3(0.9, 0.8, 0.7)) {
		t.Errorf("mirror should be specular, got %v", got)
	}
	rough := NewMetal(core.NewVec3(0.9, 0.8, 0.7), 0.5)
	if got := rough.BSDF.Reflectance(hit, GlossyReflection); got.IsZero() {
		t.Error("rough metal should be glossy")
	}

	light := NewEmissive(core.NewVec3(4, 4, 4))
	if !light.Emits() || light.Scatters() {
		t.Error("emissive material should only emit")
	}
	if !NewLambertian(core.NewVec3(0.5, 0.5, 0.5)).Scatters() {
		t.Error("lambertian should scatter")
	}
}
