package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fjyeo/Open-Photo-Lab/internal/catalog"
	"github.com/fjyeo/Open-Photo-Lab/internal/config"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

// fakeService answers every operation from memory. A call blocks while a
// gate is installed for "op:path" and fails when an error is installed.
type fakeService struct {
	mu        sync.Mutex
	gates     map[string]chan struct{}
	fail      map[string]error
	calls     map[string]int
	exported  [][]string
	exportErr error
}

func newFakeService() *fakeService {
	return &fakeService{
		gates: make(map[string]chan struct{}),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// gate installs a gate for op:path and returns the func that opens it
func (f *fakeService) gate(op, path string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[op+":"+path] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeService) setFail(op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op+":"+path)
		return
	}
	f.fail[op+":"+path] = err
}

func (f *fakeService) count(op, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op+":"+path]
}

func (f *fakeService) wait(ctx context.Context, op, path string) error {
	f.mu.Lock()
	key := op + ":" + path
	f.calls[key]++
	gate := f.gates[key]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[key]
}

func (f *fakeService) LoadThumbnail(ctx context.Context, path string, maxDim int) (imaging.Thumbnail, error) {
	if err := f.wait(ctx, "thumb", path); err != nil {
		return imaging.Thumbnail{}, err
	}
	return imaging.Thumbnail{Width: maxDim, Height: maxDim, Format: "png", Data: "thumb:" + path}, nil
}

func (f *fakeService) LoadFullImage(ctx context.Context, path string) (string, error) {
	if err := f.wait(ctx, "full", path); err != nil {
		return "", err
	}
	return "full:" + path, nil
}

func (f *fakeService) ComputeHistogram(ctx context.Context, path string) (imaging.Histogram, error) {
	if err := f.wait(ctx, "hist", path); err != nil {
		return imaging.Histogram{}, err
	}
	var h imaging.Histogram
	h.Lum[0] = uint64(len(path))
	return h, nil
}

func (f *fakeService) ExportImages(ctx context.Context, destination string, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exportErr != nil {
		return f.exportErr
	}
	f.exported = append(f.exported, append([]string{destination}, paths...))
	return nil
}

type fakePicker struct {
	images    []string
	imagesOK  bool
	directory string
	dirOK     bool
}

func (p *fakePicker) PickImages(context.Context) ([]string, bool) { return p.images, p.imagesOK }

func (p *fakePicker) PickDirectory(context.Context) (string, bool) { return p.directory, p.dirOK }

type fakeConfirmer struct {
	answer bool
	asked  []string
}

func (c *fakeConfirmer) Confirm(message string) bool {
	c.asked = append(c.asked, message)
	return c.answer
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *fakeNotifier) Alert(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, message)
}

type fakeRecorder struct {
	mu       sync.Mutex
	exports  []string
	counts   []int
	settings map[string]string
}

func (r *fakeRecorder) RecordExport(destination string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, destination)
	r.counts = append(r.counts, count)
}

func (r *fakeRecorder) SaveSetting(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		r.settings = make(map[string]string)
	}
	r.settings[key] = value
}

// fakeCharts records every chart drawn and destroyed
type fakeCharts struct {
	mu        sync.Mutex
	drawn     []string
	destroyed []string
}

type fakeChart struct {
	parent *fakeCharts
	path   string
}

func (c *fakeCharts) Draw(path string, datasets []imaging.Dataset) Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawn = append(c.drawn, path)
	return &fakeChart{parent: c, path: path}
}

func (c *fakeChart) Destroy() {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.parent.destroyed = append(c.parent.destroyed, c.path)
}

func (c *fakeCharts) snapshot() (drawn, destroyed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.drawn...), append([]string(nil), c.destroyed...)
}

type harness struct {
	engine    *Engine
	service   *fakeService
	picker    *fakePicker
	confirmer *fakeConfirmer
	notifier  *fakeNotifier
	recorder  *fakeRecorder
	charts    *fakeCharts
	progress  chan ImportStatus
	dir       string
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := *config.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	h := &harness{
		service:   newFakeService(),
		picker:    &fakePicker{},
		confirmer: &fakeConfirmer{answer: true},
		notifier:  &fakeNotifier{},
		recorder:  &fakeRecorder{},
		charts:    &fakeCharts{},
		progress:  make(chan ImportStatus, 64),
		dir:       t.TempDir(),
	}
	h.engine = NewEngine(cfg, Deps{
		Service:   h.service,
		Picker:    h.picker,
		Confirmer: h.confirmer,
		Notifier:  h.notifier,
		Charts:    h.charts,
		Recorder:  h.recorder,
		OnImportProgress: func(s ImportStatus) {
			select {
			case h.progress <- s:
			default:
			}
		},
	})
	t.Cleanup(func() {
		h.engine.Close()
		h.engine.Wait()
	})
	return h
}

// files creates empty image files in the harness directory
func (h *harness) files(t *testing.T, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(h.dir, name)
		require.NoError(t, os.WriteFile(paths[i], nil, 0o644))
	}
	return paths
}

// importNames imports names synchronously and returns their ids in order
func (h *harness) importNames(t *testing.T, names ...string) []string {
	t.Helper()
	paths := h.files(t, names...)
	require.NoError(t, h.engine.ImportPaths(context.Background(), paths))
	h.drainProgress()

	entries := h.engine.Entries()
	ids := make([]string, 0, len(names))
	for _, e := range entries[len(entries)-len(names):] {
		ids = append(ids, e.ID)
	}
	return ids
}

func (h *harness) drainProgress() {
	for {
		select {
		case <-h.progress:
		default:
			return
		}
	}
}

func (h *harness) nextProgress(t *testing.T) ImportStatus {
	t.Helper()
	select {
	case s := <-h.progress:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for import progress")
		return ImportStatus{}
	}
}

func sourcePaths(entries []catalog.Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.SourcePath
	}
	return paths
}
