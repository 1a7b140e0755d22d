package discovery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers discovery on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	svc     *Service
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID // schedule → cron entry
}

// NewScheduler creates a discovery scheduler.
func NewScheduler(svc *Service, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		svc:     svc,
		logger:  logger.With("component", "discovery-scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers a schedule that triggers discovery on connectionIDs, or on
// every connection when none are given.
func (s *Scheduler) Add(schedule string, connectionIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[schedule]; ok {
		s.cron.Remove(id)
	}
	ids := append([]string(nil), connectionIDs...)
	entryID, err := s.cron.AddFunc(schedule, func() {
		runs, err := s.svc.TriggerAll(context.Background(), ids)
		if err != nil {
			s.logger.Warn("scheduled discovery failed", "schedule", schedule, "error", err)
			return
		}
		s.logger.Info("scheduled discovery ran", "schedule", schedule, "connections", len(runs))
	})
	if err != nil {
		s.logger.Warn("invalid cron schedule", "schedule", schedule, "error", err)
		return err
	}
	s.entries[schedule] = entryID
	s.logger.Info("scheduled discovery", "schedule", schedule)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("discovery scheduler started")
}

// Stop stops the scheduler and waits for running triggers.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("discovery scheduler stopped")
}

// Len returns the number of registered schedules.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
