// Package app is the catalog and viewport state engine: it owns the
// imported catalog, the selection and preview state, and every
// asynchronous request made to the image service on their behalf.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"gioui.org/io/key"

	"github.com/fjyeo/Open-Photo-Lab/internal/catalog"
	"github.com/fjyeo/Open-Photo-Lab/internal/config"
	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
	"github.com/fjyeo/Open-Photo-Lab/internal/fs"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
	"github.com/fjyeo/Open-Photo-Lab/internal/store"
)

// ErrClosed is returned by operations started after Close.
var ErrClosed = errors.New("engine closed")

// ImageService is the external image-processing backend.
type ImageService interface {
	ThumbnailLoader
	FullImageLoader
	HistogramSource
	ExportImages(ctx context.Context, destination string, paths []string) error
}

// Picker obtains source paths and export destinations from the user.
// ok is false when the user cancels.
type Picker interface {
	PickImages(ctx context.Context) (paths []string, ok bool)
	PickDirectory(ctx context.Context) (dir string, ok bool)
}

// Confirmer gates destructive actions behind a yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// Notifier shows user-visible alerts.
type Notifier interface {
	Alert(message string)
}

// Recorder persists export history and remembered directories.
// *store.DB satisfies it.
type Recorder interface {
	RecordExport(destination string, count int)
	SaveSetting(key, value string)
}

// Deps holds the collaborators of an Engine. Service is required; the
// rest may be nil.
type Deps struct {
	Service     ImageService
	Picker      Picker
	Confirmer   Confirmer
	Notifier    Notifier
	Charts      ChartFactory
	Recorder    Recorder
	Invalidator catalog.Invalidator

	// OnImportProgress is called with every change of the import session
	OnImportProgress func(ImportStatus)
}

// Snapshot is an immutable view of engine state for rendering
type Snapshot struct {
	Entries          []catalog.Entry
	View             ViewState
	Import           ImportStatus
	LoadingFullImage bool
	Loading          map[string]bool
}

// Engine is the single owner of catalog, view state and in-flight work.
//
// Every transition runs under mu, so a transition is never interleaved
// with another. Blocking work (service calls, dialogs) happens outside mu
// and applies its result with a new transition keyed by entry id.
type Engine struct {
	mu     sync.Mutex
	view   ViewState
	cfg    config.Config
	hotkey *config.HotkeyMatcher
	bound  map[Binding]func()
	closed bool

	store    *catalog.Store
	importer *Importer
	cache    *ResourceCache
	hist     *HistogramCoordinator
	keys     *Dispatcher

	service   ImageService
	picker    Picker
	confirmer Confirmer
	notifier  Notifier
	recorder  Recorder
	inv       catalog.Invalidator

	// lifetime of all work the engine starts; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine with an empty catalog.
func NewEngine(cfg config.Config, deps Deps) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:       cfg,
		hotkey:    config.NewHotkeyMatcher(cfg.Hotkeys),
		bound:     make(map[Binding]func()),
		store:     catalog.NewStore(deps.Invalidator),
		keys:      NewDispatcher(),
		service:   deps.Service,
		picker:    deps.Picker,
		confirmer: deps.Confirmer,
		notifier:  deps.Notifier,
		recorder:  deps.Recorder,
		inv:       deps.Invalidator,
		ctx:       ctx,
		cancel:    cancel,
	}

	progress := deps.OnImportProgress
	e.importer = NewImporter(deps.Service, cfg.Import.ThumbnailMaxDim, cfg.Import.KeepPartial, func(s ImportStatus) {
		if progress != nil {
			progress(s)
		}
		e.invalidate()
	})
	e.cache = NewResourceCache(ctx, e.store, deps.Service, e.invalidate)

	charts := deps.Charts
	if charts == nil {
		charts = nopCharts{}
	}
	e.hist = NewHistogramCoordinator(ctx, deps.Service, charts)

	e.mu.Lock()
	e.syncBindingsLocked()
	e.mu.Unlock()

	debug.Log(debug.APP, "NewEngine: maxDim=%d keepPartial=%v", cfg.Import.ThumbnailMaxDim, cfg.Import.KeepPartial)
	return e
}

// ===== READ ACCESS =====

// Snapshot returns an immutable snapshot for rendering
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Entries:          e.store.Entries(),
		View:             e.view,
		Import:           e.importer.Status(),
		LoadingFullImage: e.cache.Loading(),
		Loading:          e.cache.LoadingIDs(),
	}
}

// View returns the current selection and preview state
func (e *Engine) View() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Entries returns the catalog in import order
func (e *Engine) Entries() []catalog.Entry {
	return e.store.Entries()
}

// Find returns the entry with id
func (e *Engine) Find(id string) (catalog.Entry, bool) {
	return e.store.Find(id)
}

// IsLoading reports whether the full-resolution fetch of id is outstanding
func (e *Engine) IsLoading(id string) bool {
	return e.cache.IsLoading(id)
}

// LoadingFullImage reports whether any full-resolution fetch is outstanding
func (e *Engine) LoadingFullImage() bool {
	return e.cache.Loading()
}

// ImportStatus returns the current import session
func (e *Engine) ImportStatus() ImportStatus {
	return e.importer.Status()
}

// Keys returns the keyboard dispatcher
func (e *Engine) Keys() *Dispatcher {
	return e.keys
}

// HandleKey forwards a key event to the registered bindings
func (e *Engine) HandleKey(ev key.Event) bool {
	return e.keys.HandleKey(ev)
}

// ===== SELECTION & NAVIGATION =====

// Select marks id as the selected entry. Unknown ids are ignored.
func (e *Engine) Select(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.store.Contains(id) {
		return
	}
	e.applyLocked(SelectAction{ID: id})
}

// OpenPreview selects id and shows it full screen, fetching its full
// resolution if it is not cached yet. Unknown ids are ignored.
func (e *Engine) OpenPreview(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.store.Contains(id) {
		return
	}
	e.applyLocked(OpenPreviewAction{ID: id})
	e.prefetchLocked(id)
}

// BackToGrid leaves the preview; the selection is kept.
func (e *Engine) BackToGrid() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.applyLocked(BackToGridAction{})
}

// Navigate moves the preview step entries through the catalog with
// circular wraparound. It does nothing unless previewing.
func (e *Engine) Navigate(step int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.view.IsPreviewing() {
		return
	}
	target, ok := e.store.Neighbor(e.view.Previewing, step)
	if !ok {
		return
	}
	e.applyLocked(NavigateAction{Target: target})
	e.prefetchLocked(target)
}

// Next previews the following entry
func (e *Engine) Next() { e.Navigate(1) }

// Previous previews the preceding entry
func (e *Engine) Previous() { e.Navigate(-1) }

// ===== CATALOG MUTATION =====

// DeleteSelected removes the selected entry after confirmation.
// Returns true if an entry was removed.
func (e *Engine) DeleteSelected() bool {
	e.mu.Lock()
	id := e.view.Selected
	confirm := e.cfg.Behavior.ConfirmDelete
	closed := e.closed
	e.mu.Unlock()

	if closed || id == "" {
		return false
	}

	if confirm && e.confirmer != nil {
		entry, ok := e.store.Find(id)
		if !ok {
			return false
		}
		if !e.confirmer.Confirm(fmt.Sprintf("Remove %s from the catalog?", entry.DisplayName)) {
			debug.Log(debug.CATALOG, "DeleteSelected: declined %s", id)
			return false
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// The selection may have moved while the dialog was open
	if e.closed || e.view.Selected != id {
		return false
	}
	return e.removeLocked([]string{id}) > 0
}

// Remove deletes ids from the catalog and clears any selection or
// preview that referenced them. Returns the number removed.
func (e *Engine) Remove(ids ...string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}
	return e.removeLocked(ids)
}

func (e *Engine) removeLocked(ids []string) int {
	removed := e.store.Remove(ids...)
	if len(removed) == 0 {
		return 0
	}
	e.applyLocked(RemovedAction{IDs: removed})
	return len(removed)
}

// ===== RESOURCES =====

// EnsureFullResolution fetches the full-resolution payload of id unless cached
func (e *Engine) EnsureFullResolution(ctx context.Context, id string) error {
	ctx, done := e.bind(ctx)
	defer done()
	return e.cache.Ensure(ctx, id)
}

// ===== IMPORT & EXPORT =====

// Import asks the picker for images and imports them as one batch.
// A cancelled picker is a no-op. Failures are logged and returned.
func (e *Engine) Import(ctx context.Context) error {
	if e.picker == nil {
		return nil
	}
	paths, ok := e.picker.PickImages(ctx)
	if !ok || len(paths) == 0 {
		debug.Log(debug.IMPORT, "Import: picker cancelled")
		return nil
	}
	return e.ImportPaths(ctx, paths)
}

// ImportPaths imports paths, expanding directories to the image files
// they contain, and appends the new entries in the given order.
func (e *Engine) ImportPaths(ctx context.Context, paths []string) error {
	ctx, done := e.bind(ctx)
	defer done()

	e.mu.Lock()
	closed, recursive := e.closed, e.cfg.Import.Recursive
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	files, err := fs.ExpandImages(ctx, paths, recursive)
	if err != nil {
		log.Printf("Import: failed to expand selection: %v", err)
		return err
	}
	if len(files) == 0 {
		return nil
	}

	err = e.importer.Run(ctx, files, func(entries []catalog.Entry) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		e.store.Append(entries...)
	})
	if errors.Is(err, ErrImportInProgress) {
		log.Printf("Import: %v", err)
		return err
	}

	var partial *PartialImportError
	if (err == nil || errors.As(err, &partial)) && e.recorder != nil {
		e.recorder.SaveSetting(store.KeyLastImportDir, filepath.Dir(files[0]))
	}
	return err
}

// Export asks the picker for a destination and exports the selected
// entry, or the whole catalog when nothing is selected. Failures are
// shown to the user.
func (e *Engine) Export(ctx context.Context) error {
	if e.picker == nil {
		return nil
	}
	dest, ok := e.picker.PickDirectory(ctx)
	if !ok || dest == "" {
		debug.Log(debug.APP, "Export: picker cancelled")
		return nil
	}
	return e.ExportTo(ctx, dest)
}

// ExportTo exports to destination without asking the picker
func (e *Engine) ExportTo(ctx context.Context, destination string) error {
	ctx, done := e.bind(ctx)
	defer done()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	paths := e.exportPathsLocked()
	e.mu.Unlock()

	if len(paths) == 0 {
		e.alert("Nothing to export")
		return nil
	}

	debug.Log(debug.APP, "Export: %d images to %s", len(paths), destination)
	if err := e.service.ExportImages(ctx, destination, paths); err != nil {
		e.alert(fmt.Sprintf("Export failed: %v", err))
		return err
	}

	if e.recorder != nil {
		e.recorder.RecordExport(destination, len(paths))
	}
	return nil
}

func (e *Engine) exportPathsLocked() []string {
	if e.view.HasSelection() {
		if entry, ok := e.store.Find(e.view.Selected); ok {
			return []string{entry.SourcePath}
		}
	}
	entries := e.store.Entries()
	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = entry.SourcePath
	}
	return paths
}

// ===== CONFIGURATION & LIFETIME =====

// SetConfig applies a reloaded configuration. Key bindings are rebound
// and import settings take effect with the next batch.
func (e *Engine) SetConfig(cfg config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.cfg = cfg
	e.hotkey = config.NewHotkeyMatcher(cfg.Hotkeys)
	e.importer.Configure(cfg.Import.ThumbnailMaxDim, cfg.Import.KeepPartial)

	e.unbindAllLocked()
	e.syncBindingsLocked()
	debug.Log(debug.CONFIG, "SetConfig: applied")
}

// Close cancels all in-flight work, tears down the chart and removes
// every key binding. It does not wait; see Wait.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancel()
	e.unbindAllLocked()
	e.hist.Close()
	debug.Log(debug.APP, "Close: engine closed")
}

// Wait blocks until every background fetch has returned
func (e *Engine) Wait() {
	e.wg.Wait()
	e.hist.Wait()
}

// ===== INTERNALS =====

// applyLocked reduces action and runs the side effects of the change
func (e *Engine) applyLocked(action Action) {
	prev := e.view
	e.view = Reduce(prev, action)
	if e.view == prev {
		return
	}
	debug.Log(debug.NAV, "%T: selected=%q previewing=%q", action, e.view.Selected, e.view.Previewing)

	if e.view.Selected != prev.Selected {
		e.hist.Select(e.pathOf(e.view.Selected))
	}
	e.syncBindingsLocked()
	e.invalidate()
}

func (e *Engine) pathOf(id string) string {
	if id == "" {
		return ""
	}
	entry, ok := e.store.Find(id)
	if !ok {
		return ""
	}
	return entry.SourcePath
}

// prefetchLocked starts the full-resolution fetch of id unless it is cached.
// It runs on every preview access, so a failed load is retried on the next one.
func (e *Engine) prefetchLocked(id string) {
	if entry, ok := e.store.Find(id); ok && entry.HasFull() {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.cache.Ensure(e.ctx, id); err != nil {
			debug.Log(debug.CACHE, "prefetch %s: %v", id, err)
		}
	}()
}

// syncBindingsLocked registers exactly the bindings relevant to the
// current view: delete while something is selected, arrows and back while
// previewing, export while the engine is open.
func (e *Engine) syncBindingsLocked() {
	open := !e.closed
	e.setBindingLocked(BindDelete, open && e.view.HasSelection(), e.hotkey.Delete, func() { e.DeleteSelected() })
	e.setBindingLocked(BindPrevious, open && e.view.IsPreviewing(), e.hotkey.Previous, e.Previous)
	e.setBindingLocked(BindNext, open && e.view.IsPreviewing(), e.hotkey.Next, e.Next)
	e.setBindingLocked(BindBackToGrid, open && e.view.IsPreviewing(), e.hotkey.BackToGrid, e.BackToGrid)
	e.setBindingLocked(BindExport, open, e.hotkey.Export, func() { _ = e.Export(e.ctx) })
}

func (e *Engine) setBindingLocked(b Binding, want bool, hk config.Hotkey, fn func()) {
	want = want && !hk.IsEmpty()
	unregister, has := e.bound[b]
	switch {
	case want && !has:
		e.bound[b] = e.keys.Register(b, hk, fn)
	case !want && has:
		unregister()
		delete(e.bound, b)
	}
}

func (e *Engine) unbindAllLocked() {
	for b, unregister := range e.bound {
		unregister()
		delete(e.bound, b)
	}
}

// bind derives a context that is also cancelled when the engine closes
func (e *Engine) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (e *Engine) alert(message string) {
	if e.notifier != nil {
		e.notifier.Alert(message)
		return
	}
	log.Printf("Alert: %s", message)
}

func (e *Engine) invalidate() {
	if e.inv != nil {
		e.inv.Invalidate()
	}
}

// imaging.Service is the in-process backend
var _ ImageService = (*imaging.Service)(nil)
