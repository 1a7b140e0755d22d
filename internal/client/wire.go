package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"assetflow/internal/domain"
)

type wireAsset struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Type                string           `json:"type"`
	Catalog             string           `json:"catalog"`
	ConnectorID         string           `json:"connector_id"`
	DiscoveredAt        *time.Time       `json:"discovered_at,omitempty"`
	DiscoveryID         string           `json:"discovery_id,omitempty"`
	TechnicalMetadata   *wireTechnical   `json:"technical_metadata,omitempty"`
	OperationalMetadata *wireOperational `json:"operational_metadata,omitempty"`
	BusinessMetadata    *wireBusiness    `json:"business_metadata,omitempty"`
	Columns             []wireColumn     `json:"columns,omitempty"`
}

type wireTechnical struct {
	Location   string            `json:"location,omitempty"`
	Format     string            `json:"format,omitempty"`
	SizeBytes  int64             `json:"size_bytes,omitempty"`
	RowCount   int64             `json:"row_count,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type wireOperational struct {
	ApprovalStatus  *string    `json:"approval_status,omitempty"`
	PublishStatus   *string    `json:"publish_status,omitempty"`
	ApplicationName *string    `json:"application_name,omitempty"`
	Owner           *string    `json:"owner,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	PublishedTo     *string    `json:"published_to,omitempty"`
}

type wireBusiness struct {
	Classification *string           `json:"classification,omitempty"`
	Sensitivity    *string           `json:"sensitivity,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Department     *string           `json:"department,omitempty"`
	CustomColumns  map[string]string `json:"custom_columns,omitempty"`
}

type wireColumn struct {
	Name                    string   `json:"name"`
	Type                    string   `json:"type,omitempty"`
	Nullable                bool     `json:"nullable"`
	Description             string   `json:"description,omitempty"`
	PIIDetected             bool     `json:"pii_detected"`
	PIITypes                []string `json:"pii_types"`
	MaskingLogicAnalytical  *string  `json:"masking_logic_analytical"`
	MaskingLogicOperational *string  `json:"masking_logic_operational"`
}

// wireDelta is a partial asset returned by mutating endpoints.
type wireDelta struct {
	Name                *string          `json:"name,omitempty"`
	DiscoveryID         *string          `json:"discovery_id,omitempty"`
	OperationalMetadata *wireOperational `json:"operational_metadata,omitempty"`
	BusinessMetadata    *wireBusiness    `json:"business_metadata,omitempty"`
	Columns             []wireColumn     `json:"columns,omitempty"`
}

type wirePagination struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type wireDiscovery struct {
	ID           string     `json:"id"`
	AssetID      string     `json:"asset_id,omitempty"`
	ConnectionID string     `json:"connection_id,omitempty"`
	Name         string     `json:"name,omitempty"`
	Source       string     `json:"source,omitempty"`
	Status       string     `json:"status,omitempty"`
	Hidden       bool       `json:"hidden"`
	DuplicateOf  string     `json:"duplicate_of,omitempty"`
	DiscoveredAt *time.Time `json:"discovered_at,omitempty"`
}

type wireJobStatus struct {
	JobID           string   `json:"job_id"`
	Status          string   `json:"status"`
	ProgressPercent *float64 `json:"progress_percent,omitempty"`
	Progress        *float64 `json:"progress,omitempty"`
	ProcessedCount  int      `json:"processed_count"`
	Hidden          int      `json:"hidden"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	Error           string   `json:"error,omitempty"`
}

func (w wireAsset) toDomain() domain.Asset {
	a := domain.Asset{
		ID:          w.ID,
		Name:        w.Name,
		Type:        w.Type,
		Catalog:     w.Catalog,
		ConnectorID: w.ConnectorID,
		DiscoveryID: w.DiscoveryID,
	}
	if w.DiscoveredAt != nil {
		a.DiscoveredAt = *w.DiscoveredAt
	}
	if t := w.TechnicalMetadata; t != nil {
		a.TechnicalMetadata = domain.TechnicalMetadata{
			Location:   t.Location,
			Format:     t.Format,
			SizeBytes:  t.SizeBytes,
			RowCount:   t.RowCount,
			Properties: t.Properties,
		}
	}
	delta := domain.AssetDelta{
		OperationalMetadata: w.OperationalMetadata.toDelta(),
		BusinessMetadata:    w.BusinessMetadata.toDelta(),
	}
	delta.MergeInto(&a)
	for _, c := range w.Columns {
		col := c.toDomain()
		col.Normalize()
		a.Columns = append(a.Columns, col)
	}
	return a
}

func (w *wireOperational) toDelta() *domain.OperationalDelta {
	if w == nil {
		return nil
	}
	d := &domain.OperationalDelta{
		ApplicationName: w.ApplicationName,
		Owner:           w.Owner,
		ApprovedAt:      w.ApprovedAt,
		RejectedAt:      w.RejectedAt,
		RejectionReason: w.RejectionReason,
		PublishedAt:     w.PublishedAt,
		PublishedTo:     w.PublishedTo,
	}
	if w.ApprovalStatus != nil {
		s := domain.ApprovalStatus(*w.ApprovalStatus)
		d.ApprovalStatus = &s
	}
	if w.PublishStatus != nil {
		s := domain.PublishStatus(*w.PublishStatus)
		d.PublishStatus = &s
	}
	return d
}

func (w *wireBusiness) toDelta() *domain.BusinessDelta {
	if w == nil {
		return nil
	}
	return &domain.BusinessDelta{
		Classification: w.Classification,
		Sensitivity:    w.Sensitivity,
		Tags:           w.Tags,
		Description:    w.Description,
		Department:     w.Department,
		CustomColumns:  w.CustomColumns,
	}
}

func (w wireColumn) toDomain() domain.Column {
	return domain.Column{
		Name:                    w.Name,
		Type:                    w.Type,
		Nullable:                w.Nullable,
		Description:             w.Description,
		PIIDetected:             w.PIIDetected,
		PIITypes:                w.PIITypes,
		MaskingLogicAnalytical:  w.MaskingLogicAnalytical,
		MaskingLogicOperational: w.MaskingLogicOperational,
	}
}

func (w *wireDelta) toDomain() *domain.AssetDelta {
	if w == nil {
		return &domain.AssetDelta{}
	}
	d := &domain.AssetDelta{
		Name:                w.Name,
		DiscoveryID:         w.DiscoveryID,
		OperationalMetadata: w.OperationalMetadata.toDelta(),
		BusinessMetadata:    w.BusinessMetadata.toDelta(),
	}
	for _, c := range w.Columns {
		d.Columns = append(d.Columns, c.toDomain())
	}
	return d
}

func (w wireDiscovery) toDomain() domain.Discovery {
	d := domain.Discovery{
		ID:           w.ID,
		AssetID:      w.AssetID,
		ConnectionID: w.ConnectionID,
		Name:         w.Name,
		Source:       w.Source,
		Status:       w.Status,
		Hidden:       w.Hidden,
		DuplicateOf:  w.DuplicateOf,
	}
	if w.DiscoveredAt != nil {
		d.DiscoveredAt = *w.DiscoveredAt
	}
	return d
}

func (w wireJobStatus) toDomain(jobID string) *domain.JobStatus {
	s := &domain.JobStatus{
		JobID:          w.JobID,
		Status:         domain.JobState(w.Status),
		ProcessedCount: w.ProcessedCount,
		HiddenCount:    w.Hidden,
		ErrorMessage:   w.ErrorMessage,
	}
	if s.JobID == "" {
		s.JobID = jobID
	}
	switch {
	case w.ProgressPercent != nil:
		s.ProgressPercent = *w.ProgressPercent
	case w.Progress != nil:
		s.ProgressPercent = *w.Progress
	}
	if s.ErrorMessage == "" {
		s.ErrorMessage = w.Error
	}
	return s
}

func columnUpdateBody(u domain.ColumnPIIUpdate) wireColumn {
	types := u.PIITypes
	if types == nil {
		types = []string{}
	}
	return wireColumn{
		PIIDetected:             u.PIIDetected,
		PIITypes:                types,
		MaskingLogicAnalytical:  u.MaskingLogicAnalytical,
		MaskingLogicOperational: u.MaskingLogicOperational,
	}
}

func businessBody(d domain.BusinessDelta) map[string]interface{} {
	body := map[string]interface{}{}
	if d.Classification != nil || d.Sensitivity != nil || d.Tags != nil || d.Description != nil || d.Department != nil {
		body["business_metadata"] = wireBusiness{
			Classification: d.Classification,
			Sensitivity:    d.Sensitivity,
			Tags:           d.Tags,
			Description:    d.Description,
			Department:     d.Department,
		}
	}
	if d.CustomColumns != nil {
		body["custom_columns"] = d.CustomColumns
	}
	return body
}

// unwrapEnvelope returns the value under key when data is an object holding
// that key, and data itself otherwise.
func unwrapEnvelope(data []byte, key string) []byte {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return data
	}
	if inner, ok := env[key]; ok && len(inner) > 0 && !bytes.Equal(inner, []byte("null")) {
		return inner
	}
	return data
}

func decodeDelta(data []byte) (*domain.AssetDelta, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &domain.AssetDelta{}, nil
	}
	var w wireDelta
	if err := json.Unmarshal(unwrapEnvelope(data, "asset"), &w); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return w.toDomain(), nil
}

// isJSONArray reports whether the first non-blank byte opens an array.
func isJSONArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}
