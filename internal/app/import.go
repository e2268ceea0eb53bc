package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fjyeo/Open-Photo-Lab/internal/catalog"
	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

// ErrImportInProgress is returned when a batch is started while another runs.
var ErrImportInProgress = errors.New("import already in progress")

// ThumbnailLoader is the part of the image service an import needs.
type ThumbnailLoader interface {
	LoadThumbnail(ctx context.Context, path string, maxDim int) (imaging.Thumbnail, error)
}

// ImportStatus is the transient session state of a batch import.
// The zero value is the idle state.
type ImportStatus struct {
	Importing bool
	Total     int
	Completed int
}

// Progress returns floor(Completed / Total * 100), or 0 when idle.
func (s ImportStatus) Progress() int {
	if s.Total <= 0 {
		return 0
	}
	return s.Completed * 100 / s.Total
}

// PartialImportError reports the paths that failed in a batch that kept
// its successful entries.
type PartialImportError struct {
	Failed []string
	Err    error
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("%d thumbnails failed (%s): %v", len(e.Failed), strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialImportError) Unwrap() error { return e.Err }

// Importer runs one thumbnail batch at a time.
type Importer struct {
	loader ThumbnailLoader

	settingsMu  sync.RWMutex
	maxDim      int
	keepPartial bool

	sessionMu sync.Mutex
	status    ImportStatus

	// progressMu serializes completion counting with the progress callback
	// so observers see a non-decreasing sequence
	progressMu sync.Mutex
	onProgress func(ImportStatus)
}

// NewImporter creates an importer. onProgress may be nil; it is called
// once when a batch starts and after every completion, never concurrently.
func NewImporter(loader ThumbnailLoader, maxDim int, keepPartial bool, onProgress func(ImportStatus)) *Importer {
	return &Importer{
		loader:      loader,
		maxDim:      maxDim,
		keepPartial: keepPartial,
		onProgress:  onProgress,
	}
}

// Configure updates the settings applied to the next batch.
func (im *Importer) Configure(maxDim int, keepPartial bool) {
	im.settingsMu.Lock()
	defer im.settingsMu.Unlock()
	im.maxDim = maxDim
	im.keepPartial = keepPartial
}

// Status returns the current session state.
func (im *Importer) Status() ImportStatus {
	im.sessionMu.Lock()
	defer im.sessionMu.Unlock()
	return im.status
}

// Run loads one thumbnail per path, all requests in flight at once, and
// waits for every one of them to settle. commit receives the new entries
// in submission order before the session returns to idle.
//
// If any request fails the whole batch is discarded and commit is not
// called, unless the importer keeps partial batches; then commit gets the
// successes and the returned error is a *PartialImportError.
// An empty path list is a no-op.
func (im *Importer) Run(ctx context.Context, paths []string, commit func([]catalog.Entry)) error {
	if len(paths) == 0 {
		return nil
	}
	if err := im.begin(len(paths)); err != nil {
		return err
	}
	defer im.reset()

	im.settingsMu.RLock()
	maxDim, keepPartial := im.maxDim, im.keepPartial
	im.settingsMu.RUnlock()

	debug.Log(debug.IMPORT, "Run: %d paths, maxDim=%d", len(paths), maxDim)

	results := make([]*catalog.Metadata, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			thumb, err := im.loader.LoadThumbnail(ctx, path, maxDim)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
			} else {
				results[i] = &catalog.Metadata{
					Width:     thumb.Width,
					Height:    thumb.Height,
					Format:    thumb.Format,
					Thumbnail: thumb.Data,
				}
			}
			im.complete()
			return errs[i]
		})
	}
	firstErr := g.Wait()

	if firstErr == nil {
		entries := make([]catalog.Entry, len(paths))
		for i, path := range paths {
			entries[i] = catalog.NewEntry(path, results[i])
		}
		commit(entries)
		debug.Log(debug.IMPORT, "Run: committed %d entries", len(entries))
		return nil
	}

	if !keepPartial {
		log.Printf("Import: batch of %d discarded: %v", len(paths), firstErr)
		return fmt.Errorf("import batch of %d: %w", len(paths), firstErr)
	}

	var kept []catalog.Entry
	var failed []string
	for i, path := range paths {
		if errs[i] != nil {
			failed = append(failed, path)
			continue
		}
		kept = append(kept, catalog.NewEntry(path, results[i]))
	}
	if len(kept) > 0 {
		commit(kept)
	}
	perr := &PartialImportError{Failed: failed, Err: errors.Join(errs...)}
	log.Printf("Import: kept %d of %d: %v", len(kept), len(paths), perr)
	return perr
}

func (im *Importer) begin(total int) error {
	im.progressMu.Lock()
	defer im.progressMu.Unlock()

	im.sessionMu.Lock()
	if im.status.Importing {
		im.sessionMu.Unlock()
		return ErrImportInProgress
	}
	im.status = ImportStatus{Importing: true, Total: total}
	status := im.status
	im.sessionMu.Unlock()

	im.report(status)
	return nil
}

func (im *Importer) complete() {
	im.progressMu.Lock()
	defer im.progressMu.Unlock()

	im.sessionMu.Lock()
	im.status.Completed++
	status := im.status
	im.sessionMu.Unlock()

	debug.Log(debug.IMPORT_PROGRESS, "%d/%d (%d%%)", status.Completed, status.Total, status.Progress())
	im.report(status)
}

func (im *Importer) reset() {
	im.progressMu.Lock()
	defer im.progressMu.Unlock()

	im.sessionMu.Lock()
	im.status = ImportStatus{}
	im.sessionMu.Unlock()

	im.report(ImportStatus{})
}

// report must be called with progressMu held
func (im *Importer) report(status ImportStatus) {
	if im.onProgress != nil {
		im.onProgress(status)
	}
}
