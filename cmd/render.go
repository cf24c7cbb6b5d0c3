package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/image/bmp"

	"github.com/df07/go-lightsampler/pkg/density"
	"github.com/df07/go-lightsampler/pkg/renderer"
	"github.com/df07/go-lightsampler/pkg/scene"
)

var (
	// ErrMissingScene is returned when render is called without a scene name.
	ErrMissingScene = errors.New("missing scene name argument")
	// ErrUnsupportedFormat is returned for output files that are neither PNG
	// nor BMP.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// RenderFlags are the flags accepted by the render command.
var RenderFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 256,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 256,
		Usage: "frame height",
	},
	cli.IntFlag{
		Name:  "spp",
		Value: 16,
		Usage: "light particles per pixel",
	},
	cli.IntFlag{
		Name:  "max-depth",
		Value: 8,
		Usage: "maximum number of surface interactions per particle",
	},
	cli.IntFlag{
		Name:  "workers",
		Value: 0,
		Usage: "number of parallel workers (0 = number of CPUs)",
	},
	cli.IntFlag{
		Name:  "batch-size",
		Value: 4096,
		Usage: "particles traced per worker task",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed of the first batch",
	},
	cli.BoolFlag{
		Name:  "variable",
		Usage: "size reconstruction kernels from a reference image",
	},
	cli.Float64Flag{
		Name:  "base-size",
		Value: 0.05,
		Usage: "relative kernel size for variable reconstruction",
	},
	cli.StringSliceFlag{
		Name:  "spar, s",
		Usage: "only accumulate the named spar (LD or EL); may be repeated",
	},
	cli.BoolFlag{
		Name:  "photons",
		Usage: "deposit photons while tracing and report the map size",
	},
	cli.Float64Flag{
		Name:  "exposure",
		Value: 1.0,
		Usage: "exposure applied when converting to 8-bit colour",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "",
		Usage: "image filename (.png or .bmp); defaults to output/<scene>/render_<timestamp>.png",
	},
}

// Render a still frame of a built-in scene.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return fmt.Errorf("%w; available scenes: %s", ErrMissingScene, strings.Join(scene.Names(), ", "))
	}
	name := ctx.Args().First()

	out := ctx.String("out")
	if out == "" {
		out = defaultOutputPath(name, time.Now())
	}
	encode, err := imageEncoder(out)
	if err != nil {
		return err
	}

	config, err := renderConfig(ctx)
	if err != nil {
		return err
	}

	sc, err := scene.Load(name)
	if err != nil {
		return err
	}
	r, err := renderer.NewRenderer(sc, config)
	if err != nil {
		return err
	}

	renderCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger.Noticef("rendering %q at %dx%d with %d particles per pixel", name, config.Width, config.Height, config.SamplesPerPixel)
	result, err := r.Render(renderCtx)
	if err != nil {
		return err
	}

	logger.Noticef("frame statistics\n%s", result.Stats.Table())
	if result.Photons != nil {
		logger.Noticef("photon map holds %d photons from %d emitted (%d dropped)",
			result.Photons.Size(), result.Photons.Emitted(), result.Photons.Dropped())
	}

	start := time.Now()
	if err := writeImage(out, result.Image.ToImage(ctx.Float64("exposure")), encode); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", out, time.Since(start).Milliseconds())
	return nil
}

// renderConfig maps the render flags onto a renderer configuration.
func renderConfig(ctx *cli.Context) (renderer.Config, error) {
	config := renderer.DefaultConfig()
	config.Width = ctx.Int("width")
	config.Height = ctx.Int("height")
	config.SamplesPerPixel = ctx.Int("spp")
	config.NumWorkers = ctx.Int("workers")
	config.BatchSize = ctx.Int("batch-size")
	config.Seed = ctx.Int64("seed")
	config.Spars = ctx.StringSlice("spar")
	config.Photons = ctx.Bool("photons")
	config.LightTracer.MaxDepth = ctx.Int("max-depth")

	if ctx.Bool("variable") {
		config.Density.Adaptation = density.AdaptationVariable
	}
	config.Density.BaseSize = ctx.Float64("base-size")
	if config.Density.BaseSize <= 0 {
		return config, fmt.Errorf("base size %v must be positive: %w", config.Density.BaseSize, renderer.ErrInvalidConfig)
	}

	return config, config.Validate()
}

// defaultOutputPath returns output/<scene>/render_<timestamp>.png.
func defaultOutputPath(sceneName string, now time.Time) string {
	base := filepath.Base(strings.TrimSpace(sceneName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "scene"
	}
	return filepath.Join("output", base, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

// imageEncoder picks the encoder for the extension of filename.
func imageEncoder(filename string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	default:
		return nil, fmt.Errorf("%q: %w", filename, ErrUnsupportedFormat)
	}
}

// writeImage encodes img into filename, creating its directory.
func writeImage(filename string, img image.Image, encode func(io.Writer, image.Image) error) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", filename, err)
	}
	return f.Close()
}
