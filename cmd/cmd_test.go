package cmd

import (
	"errors"
	"flag"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/density"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/material"
	"github.com/df07/go-lightsampler/pkg/renderer"
)

// newContext parses args against flags the way the cli app would.
func newContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestRenderConfig(t *testing.T) {
	ctx := newContext(t, RenderFlags,
		"--width", "32", "--height", "24", "--spp", "3", "--variable", "--base-size", "0.1",
		"--spar", "LD", "--photons", "--max-depth", "4", "cornell")
	config, err := renderConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if config.Width != 32 || config.Height != 24 || config.SamplesPerPixel != 3 {
		t.Errorf("unexpected size %dx%d at %d spp", config.Width, config.Height, config.SamplesPerPixel)
	}
	if config.Density.Adaptation != density.AdaptationVariable || config.Density.BaseSize != 0.1 {
		t.Errorf("unexpected density config %+v", config.Density)
	}
	if len(config.Spars) != 1 || config.Spars[0] != "LD" || !config.Photons {
		t.Errorf("unexpected spars %v or photons %v", config.Spars, config.Photons)
	}
	if config.LightTracer.MaxDepth != 4 {
		t.Errorf("expected max depth 4, got %d", config.LightTracer.MaxDepth)
	}
	if ctx.Args().First() != "cornell" {
		t.Errorf("expected the scene argument, got %q", ctx.Args().First())
	}
}

func TestRenderConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero width", []string{"--width", "0"}},
		{"negative spp", []string{"--spp", "-1"}},
		{"zero base size", []string{"--base-size", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := renderConfig(newContext(t, RenderFlags, tt.args...)); !errors.Is(err, renderer.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	tests := []struct {
		scene    string
		expected string
	}{
		{"cornell", filepath.Join("output", "cornell", "render_20240305_140709.png")},
		{"nested/caustic", filepath.Join("output", "caustic", "render_20240305_140709.png")},
		{"", filepath.Join("output", "scene", "render_20240305_140709.png")},
	}
	for _, tt := range tests {
		t.Run(tt.scene, func(t *testing.T) {
			if got := defaultOutputPath(tt.scene, now); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestWriteImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	dir := t.TempDir()

	tests := []struct {
		file string
		ok   bool
	}{
		{"frame.png", true},
		{"sub/frame.BMP", true},
		{"frame.jpg", false},
		{"frame", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			encode, err := imageEncoder(path)
			if !tt.ok {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if err := writeImage(path, img, encode); err != nil {
				t.Fatal(err)
			}

			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			decoded, format, err := image.Decode(f)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.EqualFold(format, strings.TrimPrefix(filepath.Ext(tt.file), ".")) {
				t.Errorf("expected %s data, got %s", filepath.Ext(tt.file), format)
			}
			if r, _, _, _ := decoded.At(1, 1).RGBA(); r>>8 != 255 {
				t.Errorf("expected a red pixel, got %v", decoded.At(1, 1))
			}
		})
	}
}

func TestMeasureBSDF_Lambertian(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.8))
	for _, angle := range []float64{0, 45, 80} {
		m := measureBSDF(mat, angle, 20000, 3)
		// Cosine sampling makes every weight equal to the albedo
		if math.Abs(m.Energy-0.8) > 1e-9 {
			t.Errorf("angle %v: expected energy 0.8, got %f", angle, m.Energy)
		}
		if math.Abs(m.Albedo-0.8) > 1e-9 {
			t.Errorf("angle %v: expected albedo 0.8, got %f", angle, m.Albedo)
		}
		if math.Abs(m.PDFIntegral-1) > 0.03 {
			t.Errorf("angle %v: expected pdf integral 1, got %f", angle, m.PDFIntegral)
		}
	}
}

func TestBenchmarkKDTree(t *testing.T) {
	rows := benchmarkKDTree(2000, 200, []int{1, 16}, 0.2, 5)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.found == 0 || r.found > r.k*200 {
			t.Errorf("%s k=%d: unexpected neighbour total %d", r.layout, r.k, r.found)
		}
		if r.mismatch != 0 {
			t.Errorf("%s k=%d: balanced and unbalanced trees disagree on %d queries", r.layout, r.k, r.mismatch)
		}
	}
	if rows[0].layout != "unbalanced" || rows[3].layout != "balanced" {
		t.Errorf("unexpected layout order %s, %s", rows[0].layout, rows[3].layout)
	}
}

func TestSetupLogging(t *testing.T) {
	defer log.Redirect(os.Stdout)()
	globalFlags := []cli.Flag{
		cli.BoolFlag{Name: "v"},
		cli.BoolFlag{Name: "vv"},
		cli.StringFlag{Name: "log-level"},
	}

	tests := []struct {
		name     string
		args     []string
		expected log.Level
		err      error
	}{
		{"default", nil, log.Notice, nil},
		{"named level", []string{"--log-level", "warning"}, log.Warning, nil},
		{"verbose overrides", []string{"--log-level", "error", "-v"}, log.Info, nil},
		{"very verbose", []string{"-vv"}, log.Debug, nil},
		{"unknown level", []string{"--log-level", "loud"}, log.Notice, log.ErrUnknownLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.SetLevel(log.Notice)
			err := setupLogging(newContext(t, globalFlags, tt.args...))
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if got := log.CurrentLevel(); got != tt.expected {
				t.Errorf("expected level %v, got %v", tt.expected, got)
			}
		})
	}
}
