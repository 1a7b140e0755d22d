// Package coordinator translates filter criteria and page position into asset
// listing queries and owns the displayed page and its totals.
package coordinator

import (
	"context"
	"log/slog"
	"sync"

	"assetflow/internal/domain"
	"assetflow/internal/service/cache"
)

// State is a snapshot of the coordinator's listing position.
type State struct {
	Filters    domain.FilterSet
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// Coordinator owns the filter set, the page index and the totals. Fetched
// pages are written to the cache.
type Coordinator struct {
	catalog domain.CatalogService
	cache   *cache.Cache
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	// fetchMu serialises fetches so a slow response never overwrites a newer one.
	fetchMu sync.Mutex
}

// New creates a Coordinator starting at page 0 with pageSize.
func New(catalog domain.CatalogService, c *cache.Cache, pageSize int, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		catalog: catalog,
		cache:   c,
		logger:  logger.With("component", "coordinator"),
		state:   State{PageSize: domain.ClampPageSize(pageSize)},
	}
}

// State returns the current listing position and totals.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FetchPage fetches the given page with the given filters, writes it to the
// cache and records the totals. When filters or pageSize differ from the
// current ones, page is reset to 0. On failure the displayed page is cleared and
// the totals reset to zero.
func (c *Coordinator) FetchPage(ctx context.Context, filters domain.FilterSet, page, pageSize int) (*domain.AssetPage, error) {
	filters = filters.Clean()
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}
	pageSize = domain.ClampPageSize(pageSize)

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	c.mu.Lock()
	if !filters.Equal(c.state.Filters) || pageSize != c.state.PageSize {
		// Any predicate or page-size change restarts at the first page.
		page = 0
	}
	c.state.Filters = filters
	c.state.Page = page
	c.state.PageSize = pageSize
	c.mu.Unlock()

	result, err := c.catalog.ListAssets(ctx, domain.PageRequest{Filters: filters, Index: page, PageSize: pageSize})
	if err != nil {
		c.cache.ClearPage()
		c.mu.Lock()
		c.state.Total = 0
		c.state.TotalPages = 0
		c.mu.Unlock()
		c.logger.Warn("fetch page failed", "page", page, "error", err)
		return nil, &domain.FetchError{Page: page, Err: err}
	}

	c.cache.SetPage(result.Assets)
	c.mu.Lock()
	c.state.Total = result.Total
	c.state.TotalPages = result.TotalPages
	c.mu.Unlock()
	c.logger.Debug("fetched page", "page", page, "assets", len(result.Assets), "total", result.Total)
	return result, nil
}

// SetPosition moves to filters, page and pageSize without fetching. Sessions
// that resume a listing position call it before Refresh.
func (c *Coordinator) SetPosition(filters domain.FilterSet, page, pageSize int) error {
	filters = filters.Clean()
	if err := filters.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Filters = filters
	c.state.Page = max(page, 0)
	c.state.PageSize = domain.ClampPageSize(pageSize)
	return nil
}

// Refresh refetches the current page with the current filters.
func (c *Coordinator) Refresh(ctx context.Context) (*domain.AssetPage, error) {
	s := c.State()
	return c.FetchPage(ctx, s.Filters, s.Page, s.PageSize)
}

// SetFilters replaces the filter set and fetches from page 0.
func (c *Coordinator) SetFilters(ctx context.Context, filters domain.FilterSet) (*domain.AssetPage, error) {
	s := c.State()
	return c.FetchPage(ctx, filters, 0, s.PageSize)
}

// SetPageSize changes the page size and fetches from page 0.
func (c *Coordinator) SetPageSize(ctx context.Context, pageSize int) (*domain.AssetPage, error) {
	s := c.State()
	return c.FetchPage(ctx, s.Filters, 0, pageSize)
}

// GoToPage fetches the given page with the current filters.
func (c *Coordinator) GoToPage(ctx context.Context, page int) (*domain.AssetPage, error) {
	s := c.State()
	return c.FetchPage(ctx, s.Filters, page, s.PageSize)
}

// Reload refetches from page 0 with the current filters.
func (c *Coordinator) Reload(ctx context.Context) error {
	s := c.State()
	_, err := c.FetchPage(ctx, s.Filters, 0, s.PageSize)
	return err
}

// Repair resynchronises the displayed page after a mutation that may have
// moved an asset out of the active filter. If the current page comes back
// empty and is not the first page, it steps back one page and refetches so
// the listing never rests on a dead empty page.
func (c *Coordinator) Repair(ctx context.Context) error {
	result, err := c.Refresh(ctx)
	if err != nil {
		return err
	}
	s := c.State()
	if len(result.Assets) > 0 || s.Page == 0 {
		return nil
	}
	c.logger.Info("current page emptied, stepping back", "page", s.Page)
	_, err = c.FetchPage(ctx, s.Filters, s.Page-1, s.PageSize)
	return err
}

var (
	_ domain.PageRepairer = (*Coordinator)(nil)
	_ domain.PageReloader = (*Coordinator)(nil)
)
