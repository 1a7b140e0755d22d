// Package discovery drives discovery runs across connections and the
// deduplication workflow over discovered records.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"assetflow/internal/domain"
	"assetflow/internal/service/jobs"
)

// DefaultConcurrency bounds parallel discovery triggers.
const DefaultConcurrency = 8

// Pages is the view of the listing coordinator this service refreshes.
type Pages interface {
	domain.PageRepairer
	domain.PageReloader
}

// Service coordinates discovery and deduplication.
type Service struct {
	discovery   domain.DiscoveryService
	connections domain.ConnectionService
	poller      *jobs.Poller
	pages       Pages
	concurrency int
	logger      *slog.Logger
}

// NewService creates a discovery Service. pages may be nil.
func NewService(
	discovery domain.DiscoveryService,
	connections domain.ConnectionService,
	poller *jobs.Poller,
	pages Pages,
	concurrency int,
	logger *slog.Logger,
) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		discovery:   discovery,
		connections: connections,
		poller:      poller,
		pages:       pages,
		concurrency: concurrency,
		logger:      logger.With("component", "discovery"),
	}
}

// Deduplicate asks the server to hide duplicate discoveries. An immediate
// result reloads the listing right away; an accepted job is polled in the
// background and reloads the listing once it completes.
func (s *Service) Deduplicate(ctx context.Context, onProgress jobs.ProgressFunc) (*domain.DeduplicateResult, error) {
	res, err := s.discovery.Deduplicate(ctx)
	if err != nil {
		return nil, fmt.Errorf("deduplicate: %w", err)
	}
	if !res.IsAsync() {
		s.logger.Info("deduplication finished", "hidden", res.Hidden)
		s.reload(ctx)
		return res, nil
	}
	s.logger.Info("deduplication job accepted", "job_id", res.JobID, "total_discoveries", res.TotalDiscoveries)
	if err := s.poller.Start(ctx, res.JobID, onProgress); err != nil {
		return res, fmt.Errorf("poll deduplication job: %w", err)
	}
	return res, nil
}

// WaitJob blocks until the poll loop of an accepted job ends.
func (s *Service) WaitJob(ctx context.Context, jobID string) (*domain.JobResult, error) {
	return s.poller.Wait(ctx, jobID)
}

// WatchJob polls a job accepted earlier until it ends.
func (s *Service) WatchJob(ctx context.Context, jobID string, onProgress jobs.ProgressFunc) (*domain.JobResult, error) {
	return s.poller.Run(ctx, jobID, onProgress)
}

// ListHidden returns one page of discoveries hidden as duplicates. page is
// 1-based.
func (s *Service) ListHidden(ctx context.Context, page, perPage int) (*domain.DiscoveryPage, error) {
	if page < 1 {
		page = 1
	}
	perPage = domain.ClampPageSize(perPage)
	return s.discovery.ListHidden(ctx, page, perPage)
}

// Restore unhides a discovery and resynchronises the displayed page.
func (s *Service) Restore(ctx context.Context, discoveryID string) error {
	if discoveryID == "" {
		return domain.ErrValidation("discovery id is required")
	}
	if err := s.discovery.RestoreDiscovery(ctx, discoveryID); err != nil {
		return fmt.Errorf("restore discovery %s: %w", discoveryID, err)
	}
	s.logger.Info("discovery restored", "discovery_id", discoveryID)
	if s.pages != nil {
		if err := s.pages.Repair(ctx); err != nil {
			s.logger.Warn("resync after restore failed", "error", err)
		}
	}
	return nil
}

// TriggerAll starts discovery on the given connections, or on every
// connection when ids is empty. Requests run concurrently and a failure on
// one connection is recorded in its run without aborting the others. The
// listing is reloaded once all runs have settled.
func (s *Service) TriggerAll(ctx context.Context, ids []string) ([]domain.DiscoveryRun, error) {
	if len(ids) == 0 {
		conns, err := s.connections.ListConnections(ctx)
		if err != nil {
			return nil, fmt.Errorf("list connections: %w", err)
		}
		for _, c := range conns {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		s.logger.Info("no connections to discover")
		return nil, nil
	}

	runs := make([]domain.DiscoveryRun, len(ids))
	var failed int
	var mu sync.Mutex

	// Workers never return an error so that one failing connection does not
	// cancel its siblings; failures live in runs.
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			run, err := s.connections.TriggerDiscovery(ctx, id)
			if err != nil {
				runs[i] = domain.DiscoveryRun{ConnectionID: id, Status: "error", Err: err}
				mu.Lock()
				failed++
				mu.Unlock()
				s.logger.Warn("trigger discovery failed", "connection_id", id, "error", err)
				return nil
			}
			run.ConnectionID = id
			runs[i] = *run
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("discovery triggered", "connections", len(ids), "failed", failed)
	s.reload(ctx)
	return runs, nil
}

// Progress returns the discovery progress of one connection.
func (s *Service) Progress(ctx context.Context, connectionID string) (*domain.DiscoveryProgress, error) {
	if connectionID == "" {
		return nil, domain.ErrValidation("connection id is required")
	}
	return s.connections.DiscoveryProgress(ctx, connectionID)
}

// Connections lists the configured connections.
func (s *Service) Connections(ctx context.Context) ([]domain.Connection, error) {
	return s.connections.ListConnections(ctx)
}

func (s *Service) reload(ctx context.Context) {
	if s.pages == nil {
		return
	}
	if err := s.pages.Reload(ctx); err != nil {
		s.logger.Warn("reload after discovery failed", "error", err)
	}
}
