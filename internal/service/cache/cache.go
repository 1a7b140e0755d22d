// Package cache holds the client-side copy of fetched assets.
//
// Three views of the same logical asset are kept: the full cache (every asset
// fetched this session, by id), the displayed page (the slice the current
// filters and page produced) and the open detail view. Every mutation goes
// through the Cache so the three views never disagree once a call returns.
package cache

import (
	"sync"

	"assetflow/internal/domain"
)

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	all     map[string]*domain.Asset
	order   []string
	page    []*domain.Asset
	detail  *domain.Asset
	version uint64
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{all: make(map[string]*domain.Asset)}
}

// SetPage replaces the displayed page and upserts its assets into the full
// cache. The displayed entries are independent copies.
func (c *Cache) SetPage(assets []domain.Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.page = make([]*domain.Asset, 0, len(assets))
	for i := range assets {
		a := assets[i].Clone()
		c.upsertLocked(a.Clone())
		c.page = append(c.page, a)
		if c.detail != nil && c.detail.ID == a.ID {
			c.detail = a.Clone()
		}
	}
	c.version++
}

// ClearPage empties the displayed page. The full cache is kept.
func (c *Cache) ClearPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = nil
	c.version++
}

// Put upserts one asset into the full cache and refreshes any displayed or
// detail copy of it.
func (c *Cache) Put(a domain.Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(a.Clone())
	c.syncViewsLocked(a.ID)
	c.version++
}

func (c *Cache) upsertLocked(a *domain.Asset) {
	if _, ok := c.all[a.ID]; !ok {
		c.order = append(c.order, a.ID)
	}
	c.all[a.ID] = a
}

// syncViewsLocked copies the full cache entry into the displayed page and the
// detail view.
func (c *Cache) syncViewsLocked(id string) {
	src, ok := c.all[id]
	if !ok {
		return
	}
	for i, a := range c.page {
		if a.ID == id {
			c.page[i] = src.Clone()
		}
	}
	if c.detail != nil && c.detail.ID == id {
		c.detail = src.Clone()
	}
}

// Get returns a copy of the cached asset.
func (c *Cache) Get(id string) (*domain.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.all[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// Snapshot returns a deep copy of the cached asset for later rollback.
func (c *Cache) Snapshot(id string) (*domain.Asset, error) {
	a, ok := c.Get(id)
	if !ok {
		return nil, domain.ErrNotFound("asset %q is not cached", id)
	}
	return a, nil
}

// Update applies fn to the full cache entry and propagates the result to the
// displayed page and the detail view in one step.
func (c *Cache) Update(id string, fn func(a *domain.Asset)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.all[id]
	if !ok {
		return domain.ErrNotFound("asset %q is not cached", id)
	}
	fn(a)
	c.syncViewsLocked(id)
	c.version++
	return nil
}

// Merge applies a server delta to every view of the asset.
func (c *Cache) Merge(id string, delta *domain.AssetDelta) error {
	return c.Update(id, delta.MergeInto)
}

// Restore writes a snapshot back into every view of the asset.
func (c *Cache) Restore(snapshot *domain.Asset) {
	if snapshot == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(snapshot.Clone())
	c.syncViewsLocked(snapshot.ID)
	c.version++
}

// UpdateColumn applies fn to one column of one asset in every view.
func (c *Cache) UpdateColumn(key domain.ColumnKey, fn func(col *domain.Column)) error {
	var found bool
	err := c.Update(key.AssetID, func(a *domain.Asset) {
		if col, ok := a.Column(key.Column); ok {
			fn(col)
			col.Normalize()
			found = true
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound("column %q not found on asset %q", key.Column, key.AssetID)
	}
	return nil
}

// Page returns copies of the displayed assets in display order.
func (c *Cache) Page() []domain.Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Asset, 0, len(c.page))
	for _, a := range c.page {
		out = append(out, *a.Clone())
	}
	return out
}

// PageAsset returns the displayed copy of an asset.
func (c *Cache) PageAsset(id string) (*domain.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.page {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return nil, false
}

// All returns copies of every cached asset in insertion order.
func (c *Cache) All() []domain.Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Asset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.all[id].Clone())
	}
	return out
}

// Len returns the number of assets in the full cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.all)
}

// Open sets the detail view to the asset, caching it first.
func (c *Cache) Open(a domain.Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(a.Clone())
	c.detail = a.Clone()
	c.syncViewsLocked(a.ID)
	c.version++
}

// Detail returns a copy of the open asset, if any.
func (c *Cache) Detail() (*domain.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.detail == nil {
		return nil, false
	}
	return c.detail.Clone(), true
}

// CloseDetail clears the detail view.
func (c *Cache) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail = nil
	c.version++
}

// Version increments on every mutation. Callers use it to detect changes.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
