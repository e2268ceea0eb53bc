package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

// HistogramSource is the part of the image service the coordinator needs.
type HistogramSource interface {
	ComputeHistogram(ctx context.Context, path string) (imaging.Histogram, error)
}

// Chart is a live chart instance drawn by a ChartFactory.
type Chart interface {
	Destroy()
}

// ChartFactory draws histogram charts.
// Draw and Destroy are called with the coordinator lock held and must not
// call back into the coordinator.
type ChartFactory interface {
	Draw(path string, datasets []imaging.Dataset) Chart
}

// HistogramCoordinator keeps one chart in sync with the selected path.
type HistogramCoordinator struct {
	source HistogramSource
	charts ChartFactory
	ctx    context.Context

	mu       sync.Mutex
	path     string
	gen      int64 // bumped on every path change; responses carry the gen they were issued for
	active   Chart
	cancelFn context.CancelFunc
	closed   bool

	wg sync.WaitGroup
}

// NewHistogramCoordinator creates a coordinator whose requests are bound to ctx.
func NewHistogramCoordinator(ctx context.Context, source HistogramSource, charts ChartFactory) *HistogramCoordinator {
	return &HistogramCoordinator{
		source: source,
		charts: charts,
		ctx:    ctx,
	}
}

// Select follows a change of the selected path. The previous chart is
// destroyed before anything else happens, then exactly one request is
// issued for path. An empty path only tears down. Re-selecting the
// current path does nothing.
func (h *HistogramCoordinator) Select(path string) {
	h.mu.Lock()
	if h.closed || path == h.path {
		h.mu.Unlock()
		return
	}

	h.teardownLocked()
	h.path = path
	h.gen++
	gen := h.gen

	if path == "" {
		h.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(h.ctx)
	h.cancelFn = cancel
	h.wg.Add(1)
	h.mu.Unlock()

	debug.Log(debug.HIST, "Select: request gen=%d %s", gen, path)
	go h.request(ctx, gen, path)
}

func (h *HistogramCoordinator) request(ctx context.Context, gen int64, path string) {
	defer h.wg.Done()

	data, err := h.source.ComputeHistogram(ctx, path)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || gen != h.gen || path != h.path {
		debug.Log(debug.HIST, "request: stale gen=%d %s (current gen=%d %s)", gen, path, h.gen, h.path)
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("Histogram: compute failed for %s: %v", path, err)
		}
		return
	}

	h.active = h.charts.Draw(path, data.Datasets())
	debug.Log(debug.HIST, "request: drew gen=%d %s", gen, path)
}

// Path returns the path the coordinator currently follows.
func (h *HistogramCoordinator) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

// HasChart reports whether a chart is currently drawn.
func (h *HistogramCoordinator) HasChart() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active != nil
}

// Close destroys the chart and drops every outstanding request.
func (h *HistogramCoordinator) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.teardownLocked()
	h.path = ""
	h.gen++
}

// Wait blocks until all issued requests have returned.
func (h *HistogramCoordinator) Wait() {
	h.wg.Wait()
}

func (h *HistogramCoordinator) teardownLocked() {
	if h.cancelFn != nil {
		h.cancelFn()
		h.cancelFn = nil
	}
	if h.active != nil {
		h.active.Destroy()
		h.active = nil
	}
}

// nopCharts is used when no chart surface is attached
type nopCharts struct{}

func (nopCharts) Draw(string, []imaging.Dataset) Chart { return nopChart{} }

type nopChart struct{}

func (nopChart) Destroy() {}
