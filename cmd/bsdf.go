package cmd

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/urfave/cli"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/geometry"
	"github.com/df07/go-lightsampler/pkg/material"
)

// BSDFFlags are the flags accepted by the bsdf command.
var BSDFFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "samples",
		Value: 100000,
		Usage: "Monte Carlo samples per material and angle",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed",
	},
}

var bsdfAngles = []float64{0, 30, 60, 80}

type namedMaterial struct {
	name string
	mat  *material.Material
}

func testMaterials() []namedMaterial {
	gray := core.NewVec3(0.8, 0.8, 0.8)
	return []namedMaterial{
		{"lambertian", material.NewLambertian(gray)},
		{"phong", &material.Material{
			Name: "phong",
			BSDF: material.NewSplitBSDF(material.NewPhongBRDF(core.NewVec3(0.5, 0.5, 0.5), core.NewVec3(0.3, 0.3, 0.3), 20), nil, nil),
		}},
		{"metal", material.NewMetal(gray, 0.3)},
		{"glass", material.NewGlass(1.5)},
	}
}

// bsdfMeasurement holds Monte Carlo estimates for one incident angle.
type bsdfMeasurement struct {
	Energy      float64 // Mean of f |cos| / pdf over sampled directions
	Albedo      float64 // Reflectance plus transmittance
	PDFIntegral float64 // Integral of the sampling pdf over the sphere
}

// Check that sampled BSDF weights reproduce the albedo and that sampling
// pdfs integrate to one.
func BSDFStats(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	samples := ctx.Int("samples")
	if samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", samples)
	}

	var rows [][]string
	for _, nm := range testMaterials() {
		for _, angle := range bsdfAngles {
			m := measureBSDF(nm.mat, angle, samples, ctx.Int64("seed"))
			rows = append(rows, []string{
				nm.name,
				fmt.Sprintf("%.0f", angle),
				fmt.Sprintf("%.4f", m.Albedo),
				fmt.Sprintf("%.4f", m.Energy),
				fmt.Sprintf("%.4f", m.PDFIntegral),
			})
		}
	}
	logger.Noticef("BSDF energy and pdf normalisation over %d samples\n%s", samples,
		renderTable([]string{"Material", "Angle", "Albedo", "Energy", "PDF integral"}, rows))
	return nil
}

// measureBSDF illuminates a unit quad in the XY plane at theta degrees from
// its normal and estimates the scattered energy and the pdf normalisation.
func measureBSDF(mat *material.Material, theta float64, samples int, seed int64) bsdfMeasurement {
	quad := geometry.NewQuad(core.NewVec3(-1, -1, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), mat)
	rad := theta * math.Pi / 180
	in := core.NewVec3(math.Sin(rad), 0, -math.Cos(rad))
	hit, ok := quad.Hit(core.NewRay(in.Negate(), in), 1e-6, math.Inf(1))
	if !ok {
		return bsdfMeasurement{}
	}

	bsdf := mat.BSDF
	normal := hit.ShadingNormal()
	inIndex, outIndex := bsdf.Indices(hit)
	random := rand.New(rand.NewSource(seed))

	var m bsdfMeasurement
	m.Albedo = bsdf.Reflectance(hit, material.AllComponents).Add(bsdf.Transmittance(hit, material.AllComponents)).Average()

	for i := 0; i < samples; i++ {
		s := bsdf.Sample(hit, in, inIndex, outIndex, false, material.AllComponents, random.Float64(), random.Float64())
		if s.Absorbed() {
			continue
		}
		f := bsdf.Evaluate(hit, in, s.Direction, material.AllComponents)
		m.Energy += f.Average() * math.Abs(s.Direction.Dot(normal)) / s.PDF

		out := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64()))
		pdf, _ := bsdf.EvalPdf(hit, in, out, inIndex, outIndex, material.AllComponents)
		m.PDFIntegral += pdf * 4 * math.Pi
	}
	m.Energy /= float64(samples)
	m.PDFIntegral /= float64(samples)
	return m
}
