// Package export schedules renders across a batch of images with a fixed
// concurrency bound, per-image failure isolation, cooperative cancellation
// and explicit retry of failures.
package export

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/internal/entity"
)

// DefaultConcurrency bounds in-flight renders when the caller does not
// choose a value.
const DefaultConcurrency = 2

// Renderer renders one image with its resolved layers. Implemented by
// renderer.Renderer; tests substitute instrumented fakes.
type Renderer interface {
	Render(src entity.SourceImage, layers []entity.Layer, opts entity.RenderOptions) ([]byte, error)
}

// LayerResolver yields the layer list for one image id. Per-image overrides
// are folded in here so the controller stays ignorant of design storage.
type LayerResolver func(imageID string) []entity.Layer

// NewLayerResolver builds a resolver from a global layer list and an
// optional per-image replacement map.
func NewLayerResolver(global []entity.Layer, overrides map[string][]entity.Layer) LayerResolver {
	return func(imageID string) []entity.Layer {
		if layers, ok := overrides[imageID]; ok {
			return layers
		}
		return global
	}
}

// ProgressFunc receives a snapshot after every per-image state transition.
type ProgressFunc func(entity.Progress)

// Controller owns the results table of one export batch. Each image's
// working data is exclusive to its own render call; only the results table
// is shared, and every update to it happens under one mutex.
type Controller struct {
	renderer    Renderer
	concurrency int
	onProgress  ProgressFunc

	mu      sync.Mutex
	images  []entity.SourceImage
	results []entity.ExportResult
	current int

	cancelled atomic.Bool
}

func NewController(renderer Renderer, concurrency int, onProgress ProgressFunc) *Controller {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Controller{
		renderer:    renderer,
		concurrency: concurrency,
		onProgress:  onProgress,
	}
}

// ExportAll schedules every image, waits for completion and returns the
// results table ordered like the input. A cancelled run returns
// ErrBatchCancelled with whatever completed before the cancel recorded.
func (c *Controller) ExportAll(ctx context.Context, images []entity.SourceImage, resolve LayerResolver, opts entity.RenderOptions) ([]entity.ExportResult, error) {
	c.mu.Lock()
	c.images = images
	c.current = 0
	c.results = make([]entity.ExportResult, len(images))
	for i, img := range images {
		c.results[i] = entity.ExportResult{
			ImageID:  img.ID,
			Filename: entity.SafeFilename(img.Name, img.ID, opts.Format),
			Status:   entity.StatusPending,
		}
	}
	c.mu.Unlock()

	indices := make([]int, len(images))
	for i := range indices {
		indices[i] = i
	}
	c.run(ctx, indices, resolve, opts)

	if c.cancelled.Load() || ctx.Err() != nil {
		return c.Results(), entity.ErrBatchCancelled
	}
	return c.Results(), nil
}

// RetryFailed re-runs only images whose last recorded status is failed,
// under the same concurrency bound. Success flips the entry to done and
// clears the error; a repeated failure keeps only the latest message.
func (c *Controller) RetryFailed(ctx context.Context, resolve LayerResolver, opts entity.RenderOptions) ([]entity.ExportResult, error) {
	c.mu.Lock()
	var indices []int
	for i, res := range c.results {
		if res.Status == entity.StatusFailed {
			indices = append(indices, i)
		}
	}
	c.mu.Unlock()

	if len(indices) == 0 {
		return c.Results(), nil
	}

	logrus.WithField("count", len(indices)).Info("Retrying failed images")
	c.run(ctx, indices, resolve, opts)

	if c.cancelled.Load() || ctx.Err() != nil {
		return c.Results(), entity.ErrBatchCancelled
	}
	return c.Results(), nil
}

// Cancel marks the controller cancelled. In-flight renders finish and are
// recorded; nothing new is dispatched. Cooperative, never preemptive.
func (c *Controller) Cancel() {
	if c.cancelled.CompareAndSwap(false, true) {
		logrus.Info("Export batch cancelled")
	}
}

// Cancelled reports whether Cancel has been called.
func (c *Controller) Cancelled() bool {
	return c.cancelled.Load()
}

// Results returns a snapshot of the results table in input order.
func (c *Controller) Results() []entity.ExportResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entity.ExportResult, len(c.results))
	copy(out, c.results)
	return out
}

// Cleanup drops held output bytes for completed or cancelled entries so a
// finished batch does not pin every export in memory. Idempotent.
func (c *Controller) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.results {
		c.results[i].Data = nil
	}
}

// run drives a fixed pool of workers over the given result indices. At most
// concurrency renders are in flight at any instant; a worker that receives
// a task after cancellation skips it, leaving the entry pending.
func (c *Controller) run(ctx context.Context, indices []int, resolve LayerResolver, opts entity.RenderOptions) {
	tasks := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				if c.cancelled.Load() || ctx.Err() != nil {
					continue
				}
				c.process(idx, resolve, opts)
			}
		}()
	}

	for _, idx := range indices {
		tasks <- idx
	}
	close(tasks)
	wg.Wait()
}

func (c *Controller) process(idx int, resolve LayerResolver, opts entity.RenderOptions) {
	c.mu.Lock()
	img := c.images[idx]
	if c.results[idx].Status == entity.StatusFailed {
		// A retried entry leaves the settled count only once it is truly
		// back in flight; entries skipped by cancellation stay counted.
		c.current--
	}
	c.results[idx].Status = entity.StatusProcessing
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)

	data, err := c.renderer.Render(img, resolve(img.ID), opts)

	c.mu.Lock()
	if err != nil {
		c.results[idx].Status = entity.StatusFailed
		c.results[idx].Error = err.Error()
		c.results[idx].Data = nil
		logrus.WithFields(logrus.Fields{
			"image_id": img.ID,
		}).Errorf("Render failed: %v", err)
	} else {
		c.results[idx].Status = entity.StatusDone
		c.results[idx].Error = ""
		c.results[idx].Data = data
	}
	c.current++
	snapshot = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) snapshotLocked() entity.Progress {
	results := make([]entity.ExportResult, len(c.results))
	copy(results, c.results)
	return entity.Progress{Current: c.current, Total: len(c.results), Results: results}
}

func (c *Controller) notify(p entity.Progress) {
	if c.onProgress != nil {
		c.onProgress(p)
	}
}
