// Package preferences keeps client-local display preferences, such as which
// metadata fields the asset detail view shows.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"assetflow/internal/domain"
)

// Service loads, reconciles and persists the field visibility map.
type Service struct {
	repo   domain.PreferenceRepository
	logger *slog.Logger

	loadMu sync.Mutex
	loaded bool

	mu     sync.Mutex
	fields map[string]bool
}

// NewService creates a preferences Service.
func NewService(repo domain.PreferenceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger.With("component", "preferences")}
}

// Load returns the visibility map. The stored map is reconciled
// against the metadata schema once per process: obsolete fields are pruned,
// new fields take their default and the result is written back. A failed
// load is retried on the next call.
func (s *Service) Load(ctx context.Context) (map[string]bool, error) {
	s.loadMu.Lock()
	if !s.loaded {
		if err := s.load(ctx); err != nil {
			s.loadMu.Unlock()
			return nil, err
		}
		s.loaded = true
	}
	s.loadMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.fields), nil
}

func (s *Service) load(ctx context.Context) error {
	var stored map[string]bool
	raw, err := s.repo.Get(ctx, domain.FieldVisibilityKey)
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
	case err != nil:
		return fmt.Errorf("load field visibility: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.logger.Warn("stored field visibility is malformed, using defaults", "error", err)
			stored = nil
		}
	}

	fields, changed := domain.ReconcileFieldVisibility(stored)
	s.mu.Lock()
	s.fields = fields
	s.mu.Unlock()

	if changed {
		if err := s.persist(ctx, fields); err != nil {
			return err
		}
		s.logger.Info("field visibility reconciled", "fields", len(fields))
	}
	return nil
}

// SetVisible shows or hides one metadata field and persists the map.
func (s *Service) SetVisible(ctx context.Context, field string, visible bool) error {
	if !domain.IsMetadataField(field) {
		return domain.ErrValidation("unknown metadata field %q", field)
	}
	if _, err := s.Load(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.fields[field] = visible
	snapshot := maps.Clone(s.fields)
	s.mu.Unlock()

	return s.persist(ctx, snapshot)
}

// Reset restores every field to its default visibility.
func (s *Service) Reset(ctx context.Context) error {
	if _, err := s.Load(ctx); err != nil {
		return err
	}
	defaults := domain.DefaultFieldVisibility()
	s.mu.Lock()
	s.fields = maps.Clone(defaults)
	s.mu.Unlock()
	return s.persist(ctx, defaults)
}

func (s *Service) persist(ctx context.Context, fields map[string]bool) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode field visibility: %w", err)
	}
	if err := s.repo.Put(ctx, domain.FieldVisibilityKey, string(data)); err != nil {
		return fmt.Errorf("save field visibility: %w", err)
	}
	return nil
}
