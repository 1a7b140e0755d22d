// Package pii manages per-column PII classification and masking-logic edits.
//
// Edits are buffered per (asset, column) and only written on Save. While the
// edit dialog of a column is open, EffectivePII reflects the unsaved state so
// adjacent views (the masking table row) can follow it.
package pii

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"assetflow/internal/domain"
	"assetflow/internal/service/cache"
)

// Buffer holds the unsaved PII state of one column.
type Buffer struct {
	PIIDetected bool
	PIITypes    []string
	Analytical  *string
	Operational *string
	Dirty       bool
	Editing     bool

	rev uint64
}

func (b *Buffer) clone() Buffer {
	out := *b
	out.PIITypes = slices.Clone(b.PIITypes)
	out.Analytical = cloneString(b.Analytical)
	out.Operational = cloneString(b.Operational)
	return out
}

func (b *Buffer) touch() {
	b.Dirty = true
	b.rev++
}

// Manager owns the edit buffers and the session's custom PII types.
type Manager struct {
	cache   *cache.Cache
	catalog domain.CatalogService
	logger  *slog.Logger

	mu          sync.Mutex
	buffers     map[domain.ColumnKey]*Buffer
	customTypes []string
}

// NewManager creates a Manager.
func NewManager(c *cache.Cache, catalog domain.CatalogService, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cache:   c,
		catalog: catalog,
		logger:  logger.With("component", "pii"),
		buffers: make(map[domain.ColumnKey]*Buffer),
	}
}

func seedFrom(col *domain.Column) *Buffer {
	return &Buffer{
		PIIDetected: col.PIIDetected,
		PIITypes:    slices.Clone(col.PIITypes),
		Analytical:  cloneString(col.MaskingLogicAnalytical),
		Operational: cloneString(col.MaskingLogicOperational),
	}
}

// bufferLocked returns the buffer for key, seeding it from the cached column
// when absent.
func (m *Manager) bufferLocked(key domain.ColumnKey) (*Buffer, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if b, ok := m.buffers[key]; ok {
		return b, nil
	}
	a, ok := m.cache.Get(key.AssetID)
	if !ok {
		return nil, domain.ErrNotFound("asset %q is not cached", key.AssetID)
	}
	col, ok := a.Column(key.Column)
	if !ok {
		return nil, domain.ErrNotFound("column %q not found on asset %q", key.Column, key.AssetID)
	}
	b := seedFrom(col)
	m.buffers[key] = b
	return b, nil
}

// SeedAsset creates buffers for every column of a selected asset. Existing
// buffers, including unsaved edits, are kept.
func (m *Manager) SeedAsset(assetID string) error {
	a, ok := m.cache.Get(assetID)
	if !ok {
		return domain.ErrNotFound("asset %q is not cached", assetID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range a.Columns {
		key := domain.ColumnKey{AssetID: assetID, Column: a.Columns[i].Name}
		if _, ok := m.buffers[key]; !ok {
			m.buffers[key] = seedFrom(&a.Columns[i])
		}
	}
	return nil
}

// OpenDialog marks the column as being edited and returns its buffer.
func (m *Manager) OpenDialog(key domain.ColumnKey) (Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bufferLocked(key)
	if err != nil {
		return Buffer{}, err
	}
	b.Editing = true
	return b.clone(), nil
}

// CloseDialog ends editing. Unsaved values stay buffered.
func (m *Manager) CloseDialog(key domain.ColumnKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buffers[key]; ok {
		b.Editing = false
	}
}

// Buffer returns a copy of the buffer for key.
func (m *Manager) Buffer(key domain.ColumnKey) (Buffer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buffers[key]
	if !ok {
		return Buffer{}, false
	}
	return b.clone(), true
}

// EffectivePII reports whether the column is PII or is being changed to PII
// in an open dialog.
func (m *Manager) EffectivePII(key domain.ColumnKey) bool {
	m.mu.Lock()
	b, ok := m.buffers[key]
	editing := ok && b.Editing && b.PIIDetected
	m.mu.Unlock()
	if editing {
		return true
	}
	a, found := m.cache.Get(key.AssetID)
	if !found {
		return false
	}
	col, found := a.Column(key.Column)
	return found && col.PIIDetected
}

// SetPII toggles the PII flag. Turning it off clears types and masking.
func (m *Manager) SetPII(key domain.ColumnKey, pii bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bufferLocked(key)
	if err != nil {
		return err
	}
	b.PIIDetected = pii
	if !pii {
		b.PIITypes = nil
		b.Analytical = nil
		b.Operational = nil
	}
	b.touch()
	return nil
}

// AddPIIType adds a catalog or registered custom type to the column and marks
// it as PII.
func (m *Manager) AddPIIType(key domain.ColumnKey, piiType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !domain.IsCatalogPIIType(piiType) && !slices.Contains(m.customTypes, piiType) {
		return domain.ErrValidation("unknown PII type %q", piiType)
	}
	return m.addTypeLocked(key, piiType)
}

// AddCustomPIIType registers a free-text PII type and adds it to the column.
// Blank values and case-sensitive duplicates of catalog or custom entries are
// rejected before anything changes.
func (m *Manager) AddCustomPIIType(key domain.ColumnKey, piiType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	piiType, err := m.checkCustomLocked(piiType)
	if err != nil {
		return err
	}
	b, err := m.bufferLocked(key)
	if err != nil {
		return err
	}
	if slices.Contains(b.PIITypes, piiType) {
		return domain.ErrValidation("PII type %q is already selected", piiType)
	}
	m.customTypes = append(m.customTypes, piiType)
	return m.addTypeLocked(key, piiType)
}

// RegisterCustomType adds a free-text PII type to the session's working set.
func (m *Manager) RegisterCustomType(piiType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	piiType, err := m.checkCustomLocked(piiType)
	if err != nil {
		return err
	}
	m.customTypes = append(m.customTypes, piiType)
	return nil
}

func (m *Manager) checkCustomLocked(piiType string) (string, error) {
	piiType = strings.TrimSpace(piiType)
	if piiType == "" {
		return "", domain.ErrValidation("custom PII type cannot be empty")
	}
	if domain.IsCatalogPIIType(piiType) {
		return "", domain.ErrValidation("PII type %q already exists in the catalog", piiType)
	}
	if slices.Contains(m.customTypes, piiType) {
		return "", domain.ErrValidation("custom PII type %q already exists", piiType)
	}
	return piiType, nil
}

func (m *Manager) addTypeLocked(key domain.ColumnKey, piiType string) error {
	b, err := m.bufferLocked(key)
	if err != nil {
		return err
	}
	if slices.Contains(b.PIITypes, piiType) {
		return domain.ErrValidation("PII type %q is already selected", piiType)
	}
	b.PIIDetected = true
	b.PIITypes = append(b.PIITypes, piiType)
	resetStaleMasking(b)
	b.touch()
	return nil
}

// RemovePIIType removes a type from the column.
func (m *Manager) RemovePIIType(key domain.ColumnKey, piiType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bufferLocked(key)
	if err != nil {
		return err
	}
	i := slices.Index(b.PIITypes, piiType)
	if i < 0 {
		return domain.ErrNotFound("PII type %q is not selected", piiType)
	}
	b.PIITypes = slices.Delete(b.PIITypes, i, i+1)
	resetStaleMasking(b)
	b.touch()
	return nil
}

// CustomTypes returns the custom PII types registered this session.
func (m *Manager) CustomTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.customTypes)
}

// MaskingOptions returns the masking option sets for the column, derived from
// its first buffered PII type.
func (m *Manager) MaskingOptions(key domain.ColumnKey) (domain.MaskingOptions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bufferLocked(key)
	if err != nil {
		return domain.MaskingOptions{}, err
	}
	return domain.MaskingOptionsFor(b.PIITypes), nil
}

// SelectMasking selects the masking logic of one tier and marks the buffer dirty.
func (m *Manager) SelectMasking(key domain.ColumnKey, tier domain.MaskingTier, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bufferLocked(key)
	if err != nil {
		return err
	}
	if !b.PIIDetected {
		return domain.ErrValidation("column %q is not marked as PII", key.Column)
	}
	opts := domain.MaskingOptionsFor(b.PIITypes).For(tier)
	if !slices.Contains(opts, value) {
		return domain.ErrValidation("masking logic %q is not available for %s tier (options: %s)",
			value, tier, strings.Join(opts, ", "))
	}
	v := value
	switch tier {
	case domain.TierOperational:
		b.Operational = &v
	default:
		b.Analytical = &v
	}
	b.touch()
	return nil
}

// resetStaleMasking drops selections no longer offered after a type change.
func resetStaleMasking(b *Buffer) {
	opts := domain.MaskingOptionsFor(b.PIITypes)
	if b.Analytical != nil && !slices.Contains(opts.Analytical, *b.Analytical) {
		b.Analytical = nil
	}
	if b.Operational != nil && !slices.Contains(opts.Operational, *b.Operational) {
		b.Operational = nil
	}
}

// Discard drops the buffer of one column without saving.
func (m *Manager) Discard(key domain.ColumnKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, key)
}

// DiscardAsset drops every buffer of an asset, as on navigation away.
func (m *Manager) DiscardAsset(assetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.buffers {
		if key.AssetID == assetID {
			delete(m.buffers, key)
		}
	}
}

// DirtyColumns lists the columns of an asset with unsaved edits.
func (m *Manager) DirtyColumns(assetID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for key, b := range m.buffers {
		if key.AssetID == assetID && b.Dirty {
			out = append(out, key.Column)
		}
	}
	slices.Sort(out)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
