package renderer

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/density"
	"github.com/df07/go-lightsampler/pkg/integrator"
	"github.com/df07/go-lightsampler/pkg/photon"
	"github.com/df07/go-lightsampler/pkg/screen"
)

// cancelCheckInterval is how many particles a worker traces between
// context checks inside a batch.
const cancelCheckInterval = 1024

// BatchTask asks a worker to trace Count particles from a sampler seeded
// with Seed.
type BatchTask struct {
	TaskID int // For deterministic seeding
	Count  int
	Seed   int64
}

// BatchResult reports the outcome of one batch
type BatchResult struct {
	TaskID int
	Stats  integrator.TraceStats
	Error  error
}

// WorkerPool runs light tracing batches in parallel. Every worker owns its
// density buffer and photon map, so batches never share mutable state.
type WorkerPool struct {
	taskQueue   chan BatchTask
	resultQueue chan BatchResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker traces batches into its own buffers
type Worker struct {
	ID          int
	tracer      integrator.Integrator
	hits        *density.Buffer
	photons     *photon.Map
	taskQueue   chan BatchTask
	resultQueue chan BatchResult
}

// NewWorkerPool creates numWorkers workers with buffers shaped like img.
// A nil photonConfig disables photon deposits. The queues hold maxTasks
// entries so submitting never blocks.
func NewWorkerPool(tracer integrator.Integrator, img *screen.Buffer, densityConfig density.Config, photonConfig *photon.Config, numWorkers, maxTasks int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan BatchTask, maxTasks),
		resultQueue: make(chan BatchResult, maxTasks),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			tracer:      tracer,
			hits:        density.NewBuffer(img, densityConfig),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		if photonConfig != nil {
			worker.photons = photon.NewMap(*photonConfig)
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers. Once ctx is done, remaining batches are
// reported with the context error without being traced.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop waits for the queued batches and closes the result queue
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask queues a batch
func (wp *WorkerPool) SubmitTask(task BatchTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed batch result
func (wp *WorkerPool) GetResult() (BatchResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Workers returns the workers in ID order. Their buffers may only be read
// after Stop.
func (wp *WorkerPool) Workers() []*Worker {
	return wp.workers
}

// Hits returns the density buffer the worker traced into
func (w *Worker) Hits() *density.Buffer {
	return w.hits
}

// Photons returns the photons the worker deposited, or nil
func (w *Worker) Photons() *photon.Map {
	return w.photons
}

func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- BatchResult{TaskID: task.TaskID, Error: err}
			continue
		}
		stats, err := w.trace(ctx, task)
		w.resultQueue <- BatchResult{TaskID: task.TaskID, Stats: stats, Error: err}
	}
}

func (w *Worker) trace(ctx context.Context, task BatchTask) (integrator.TraceStats, error) {
	_, span := getTracer().Start(ctx, "renderer.Worker.trace")
	defer span.End()
	span.SetAttributes(
		attribute.Int("worker", w.ID),
		attribute.Int("task", task.TaskID),
		attribute.Int("count", task.Count),
	)
	start := time.Now()

	var stats integrator.TraceStats
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(task.Seed)))
	for i := 0; i < task.Count; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "context canceled")
				return stats, err
			}
		}
		w.tracer.Trace(sampler, w.hits, w.photons, &stats)
	}

	batchDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int64("paths", stats.Paths),
		attribute.Int64("hits", stats.Hits),
	)
	return stats, nil
}
