package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fjyeo/Open-Photo-Lab/internal/catalog"
	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
)

// ErrUnknownEntry is returned for ids that are not in the catalog.
var ErrUnknownEntry = errors.New("unknown catalog entry")

// FullImageLoader is the part of the image service the cache needs.
type FullImageLoader interface {
	LoadFullImage(ctx context.Context, path string) (string, error)
}

// ResourceCache fetches full-resolution payloads on first access and
// attaches them to the catalog entry by id.
type ResourceCache struct {
	store  *catalog.Store
	loader FullImageLoader

	// flights run on the cache lifetime, not on any one caller's context
	ctx   context.Context
	group singleflight.Group

	mu      sync.Mutex
	loading map[string]int // in-flight fetches per entry id

	onChange func()
}

// NewResourceCache creates a cache whose fetches are bound to ctx.
// onChange may be nil; it is called whenever the loading set changes.
func NewResourceCache(ctx context.Context, store *catalog.Store, loader FullImageLoader, onChange func()) *ResourceCache {
	return &ResourceCache{
		store:    store,
		loader:   loader,
		ctx:      ctx,
		loading:  make(map[string]int),
		onChange: onChange,
	}
}

// Ensure makes sure entry id has its full-resolution payload.
// A cached entry returns immediately without a service call. Concurrent
// calls for the same id share one request. ctx only bounds how long the
// caller waits; the fetch itself keeps running for the other waiters.
func (c *ResourceCache) Ensure(ctx context.Context, id string) error {
	entry, ok := c.store.Find(id)
	if !ok {
		return ErrUnknownEntry
	}
	if entry.HasFull() {
		debug.Log(debug.CACHE, "Ensure: hit %s", id)
		return nil
	}

	ch := c.group.DoChan(id, func() (interface{}, error) {
		return nil, c.fetch(id)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ResourceCache) fetch(id string) error {
	// A flight that finished just before this one started may already have attached it
	entry, ok := c.store.Find(id)
	if !ok || entry.HasFull() {
		return nil
	}

	c.begin(id)
	defer c.end(id)

	debug.Log(debug.CACHE, "fetch: %s (%s)", id, entry.SourcePath)
	rep, err := c.loader.LoadFullImage(c.ctx, entry.SourcePath)
	if err != nil {
		log.Printf("Cache: full image load failed for %s: %v", entry.SourcePath, err)
		return err
	}

	// Patching by id is a no-op when the entry was removed meanwhile
	if !c.store.AttachFull(id, rep) {
		debug.Log(debug.CACHE, "fetch: %s dropped, entry gone or already set", id)
	}
	return nil
}

// IsLoading reports whether a fetch for id is outstanding.
func (c *ResourceCache) IsLoading(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[id] > 0
}

// Loading reports whether any fetch is outstanding.
func (c *ResourceCache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.loading) > 0
}

// LoadingIDs returns the ids with an outstanding fetch.
func (c *ResourceCache) LoadingIDs() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make(map[string]bool, len(c.loading))
	for id := range c.loading {
		ids[id] = true
	}
	return ids
}

func (c *ResourceCache) begin(id string) {
	c.mu.Lock()
	c.loading[id]++
	c.mu.Unlock()
	c.changed()
}

func (c *ResourceCache) end(id string) {
	c.mu.Lock()
	if c.loading[id]--; c.loading[id] <= 0 {
		delete(c.loading, id)
	}
	c.mu.Unlock()
	c.changed()
}

func (c *ResourceCache) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
