// Package renderer traces light particles in parallel and reconstructs the
// image from the merged density buffers.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/df07/go-lightsampler/pkg/density"
	"github.com/df07/go-lightsampler/pkg/integrator"
	"github.com/df07/go-lightsampler/pkg/log"
	"github.com/df07/go-lightsampler/pkg/photon"
	"github.com/df07/go-lightsampler/pkg/scene"
	"github.com/df07/go-lightsampler/pkg/screen"
	"github.com/df07/go-lightsampler/pkg/spar"
)

var logger = log.New("renderer")

var (
	// ErrUnknownSpar is returned when a configured spar name is not one of
	// the standard spars.
	ErrUnknownSpar = errors.New("renderer: unknown spar")
	// ErrInvalidConfig is returned for non-positive image sizes or sample
	// counts.
	ErrInvalidConfig = errors.New("renderer: invalid configuration")
)

var (
	tracerOnce     sync.Once
	rendererTracer trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		rendererTracer = otel.Tracer("renderer")
	})
	return rendererTracer
}

// Config contains configuration for a render
type Config struct {
	Width, Height   int                          // Image size in pixels
	SamplesPerPixel int                          // Light particles per pixel
	BatchSize       int                          // Particles per worker task
	NumWorkers      int                          // Number of parallel workers (0 = use CPU count)
	Seed            int64                        // Seed of the first batch; batch i uses Seed+i
	Spars           []string                     // Standard spars to accumulate (empty = all)
	Photons         bool                         // Deposit photons while tracing
	Density         density.Config               // Reconstruction; TotalSamples is derived
	LightTracer     integrator.LightTracerConfig // Particle tracing
	Photon          photon.Config                // Photon map limits
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:           256,
		Height:          256,
		SamplesPerPixel: 16,
		BatchSize:       4096,
		NumWorkers:      0,
		Seed:            1,
		Density:         density.DefaultConfig(1),
		LightTracer:     integrator.DefaultLightTracerConfig(),
		Photon:          photon.DefaultConfig(),
	}
}

// TotalSamples returns the number of particles traced for the image.
func (c Config) TotalSamples() int {
	return c.Width * c.Height * c.SamplesPerPixel
}

// Validate checks the image size and sample counts.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("image size %dx%d: %w", c.Width, c.Height, ErrInvalidConfig)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("%d samples per pixel: %w", c.SamplesPerPixel, ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size %d: %w", c.BatchSize, ErrInvalidConfig)
	}
	return nil
}

// Result holds everything a render produced.
type Result struct {
	Image   *screen.Buffer
	Hits    *density.Buffer
	Photons *photon.Map // nil unless photons were requested
	Stats   RenderStats
}

// Renderer renders one scene with a fixed configuration.
type Renderer struct {
	scene  *scene.Scene
	config Config
	tracer *integrator.LightTracer
}

// NewRenderer validates config and prepares the light tracer for s, which
// must already be preprocessed.
func NewRenderer(s *scene.Scene, config Config) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if s.Camera == nil || s.LightSampler == nil {
		return nil, fmt.Errorf("scene %q is not preprocessed: %w", s.Name, ErrInvalidConfig)
	}
	spars, err := selectSpars(config.Spars, config.LightTracer.MaxPathLength())
	if err != nil {
		return nil, err
	}
	config.Density.TotalSamples = config.TotalSamples()
	config.Density.SamplesPerPixel = 0

	return &Renderer{
		scene:  s,
		config: config,
		tracer: integrator.NewLightTracer(s, spars, config.LightTracer),
	}, nil
}

// selectSpars builds the standard spars and keeps the named ones, in the
// order given.
func selectSpars(names []string, maxLength int) (spar.SparList, error) {
	all, err := spar.StandardSpars(maxLength)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return all, nil
	}
	selected := make(spar.SparList, 0, len(names))
	for _, name := range names {
		s := all.Find(name)
		if s == nil {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownSpar)
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// Config returns the effective configuration.
func (r *Renderer) Config() Config {
	return r.config
}

// Render traces every particle, merges the per-worker buffers and
// reconstructs the image. Batches are seeded by index, so the set of hits
// does not depend on the number of workers; only their summation order does.
func (r *Renderer) Render(ctx context.Context) (*Result, error) {
	ctx, span := getTracer().Start(ctx, "renderer.Render")
	defer span.End()
	start := time.Now()

	img := screen.New(r.config.Width, r.config.Height, r.scene.Camera.Window())
	total := r.config.TotalSamples()
	numTasks := (total + r.config.BatchSize - 1) / r.config.BatchSize

	var photonConfig *photon.Config
	if r.config.Photons {
		photonConfig = &r.config.Photon
	}
	pool := NewWorkerPool(r.tracer, img, r.config.Density, photonConfig, r.config.NumWorkers, numTasks)
	logger.Infof("rendering %q at %dx%d: %d particles in %d batches on %d workers",
		r.scene.Name, r.config.Width, r.config.Height, total, numTasks, pool.GetNumWorkers())

	pool.Start(ctx)
	for i := 0; i < numTasks; i++ {
		pool.SubmitTask(BatchTask{
			TaskID: i,
			Count:  min(r.config.BatchSize, total-i*r.config.BatchSize),
			Seed:   r.config.Seed + int64(i),
		})
	}
	pool.Stop()

	stats := RenderStats{Samples: total, Workers: pool.GetNumWorkers()}
	var firstErr error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		stats.AddTrace(result.Stats)
	}
	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, "render aborted")
		return nil, firstErr
	}

	hits := density.NewBuffer(img, r.config.Density)
	var photons *photon.Map
	if photonConfig != nil {
		photons = photon.NewMap(*photonConfig)
	}
	for _, w := range pool.Workers() {
		hits.Merge(w.Hits())
		if photons != nil {
			photons.Merge(w.Photons())
		}
	}
	if photons != nil {
		photons.Balance()
	}

	if err := hits.ReconstructConfigured(ctx, img); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconstruction failed")
		return nil, err
	}

	stats.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("samples", stats.Samples),
		attribute.Int64("hits", stats.Hits),
		attribute.Int("workers", stats.Workers),
	)
	logger.Infof("rendered %q in %v (%.0f paths/s)", r.scene.Name, stats.Duration, stats.PathsPerSecond())

	return &Result{Image: img, Hits: hits, Photons: photons, Stats: stats}, nil
}
