package pii

import (
	"context"
	"slices"

	"assetflow/internal/domain"
)

// Save writes the buffered PII state of one column with a column-level PUT.
// On success the response is merged into every cached view of the asset and
// the buffer is cleared; on failure the buffer stays dirty and the cache is
// untouched.
func (m *Manager) Save(ctx context.Context, key domain.ColumnKey) (*domain.Column, error) {
	m.mu.Lock()
	b, err := m.bufferLocked(key)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	snap := b.clone()
	m.mu.Unlock()

	if !snap.Dirty {
		a, ok := m.cache.Get(key.AssetID)
		if !ok {
			return nil, domain.ErrNotFound("asset %q is not cached", key.AssetID)
		}
		col, ok := a.Column(key.Column)
		if !ok {
			return nil, domain.ErrNotFound("column %q not found on asset %q", key.Column, key.AssetID)
		}
		return col, nil
	}

	update := domain.ColumnPIIUpdate{
		PIIDetected:             snap.PIIDetected,
		PIITypes:                snap.PIITypes,
		MaskingLogicAnalytical:  snap.Analytical,
		MaskingLogicOperational: snap.Operational,
	}
	if !update.PIIDetected {
		update.PIITypes = nil
		update.MaskingLogicAnalytical = nil
		update.MaskingLogicOperational = nil
	} else if len(update.PIITypes) == 0 {
		return nil, domain.ErrValidation("column %q is marked as PII but has no PII type", key.Column)
	}

	saved, err := m.catalog.UpdateColumnPII(ctx, key, update)
	if err != nil {
		m.logger.Warn("save column PII failed", "asset_id", key.AssetID, "column", key.Column, "error", err)
		return nil, err
	}

	err = m.cache.UpdateColumn(key, func(col *domain.Column) {
		col.PIIDetected = saved.PIIDetected
		col.PIITypes = slices.Clone(saved.PIITypes)
		col.MaskingLogicAnalytical = cloneString(saved.MaskingLogicAnalytical)
		col.MaskingLogicOperational = cloneString(saved.MaskingLogicOperational)
	})
	if err != nil {
		m.logger.Warn("saved column is not cached", "asset_id", key.AssetID, "column", key.Column, "error", err)
	}

	m.mu.Lock()
	if cur, ok := m.buffers[key]; ok {
		if cur.rev == snap.rev {
			delete(m.buffers, key)
		} else {
			// Edited while the save was in flight; keep the newer values dirty.
			m.logger.Debug("buffer changed during save", "asset_id", key.AssetID, "column", key.Column)
		}
	}
	m.mu.Unlock()

	m.logger.Info("column PII saved", "asset_id", key.AssetID, "column", key.Column, "pii", saved.PIIDetected)
	out := saved.Clone()
	return &out, nil
}
