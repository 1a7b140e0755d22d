package domain

import (
	"slices"
	"time"
)

// ApprovalStatus is the governance approval state stored in operational
// metadata. An empty value means the asset has not been reviewed yet.
type ApprovalStatus string

// Approval statuses.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Normalize maps the absent status to pending.
func (s ApprovalStatus) Normalize() ApprovalStatus {
	if s == "" {
		return ApprovalPending
	}
	return s
}

// PublishStatus records whether an approved asset is exposed in the catalog.
type PublishStatus string

// Publish statuses.
const (
	PublishNone      PublishStatus = ""
	PublishPublished PublishStatus = "published"
)

// Asset is a discovered data object (file, table, view) under governance review.
type Asset struct {
	ID                  string
	Name                string
	Type                string
	Catalog             string
	ConnectorID         string
	DiscoveredAt        time.Time
	DiscoveryID         string
	TechnicalMetadata   TechnicalMetadata
	OperationalMetadata OperationalMetadata
	BusinessMetadata    BusinessMetadata
	Columns             []Column
}

// TechnicalMetadata describes the physical shape of an asset.
type TechnicalMetadata struct {
	Location   string
	Format     string
	SizeBytes  int64
	RowCount   int64
	Properties map[string]string
}

// OperationalMetadata carries the lifecycle fields of an asset.
type OperationalMetadata struct {
	ApprovalStatus  ApprovalStatus
	PublishStatus   PublishStatus
	ApplicationName string
	Owner           string
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason string
	PublishedAt     *time.Time
	PublishedTo     string
}

// BusinessMetadata carries the descriptive fields curated by data stewards.
type BusinessMetadata struct {
	Classification string
	Sensitivity    string
	Tags           []string
	Description    string
	Department     string
	CustomColumns  map[string]string
}

// Column is a single column of an asset. Name is unique within the asset.
type Column struct {
	Name                    string
	Type                    string
	Nullable                bool
	Description             string
	PIIDetected             bool
	PIITypes                []string
	MaskingLogicAnalytical  *string
	MaskingLogicOperational *string
}

// Normalize enforces the column invariant: a non-PII column has no PII types
// and no masking logic.
func (c *Column) Normalize() {
	if c.PIIDetected {
		return
	}
	c.PIITypes = nil
	c.MaskingLogicAnalytical = nil
	c.MaskingLogicOperational = nil
}

// Column returns the column with the given name.
func (a *Asset) Column(name string) (*Column, bool) {
	for i := range a.Columns {
		if a.Columns[i].Name == name {
			return &a.Columns[i], true
		}
	}
	return nil, false
}

// State derives the lifecycle state from operational metadata.
func (a *Asset) State() LifecycleState {
	op := a.OperationalMetadata
	switch op.ApprovalStatus.Normalize() {
	case ApprovalRejected:
		return StateRejected
	case ApprovalApproved:
		if op.PublishStatus == PublishPublished {
			return StatePublished
		}
		return StateApproved
	default:
		return StatePending
	}
}

// HasTag reports whether the business tags contain tag.
func (a *Asset) HasTag(tag string) bool {
	return slices.Contains(a.BusinessMetadata.Tags, tag)
}

// Clone returns a deep copy of the asset. Snapshots taken for rollback must
// never share slices or maps with the live cache entry.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	out := *a
	out.TechnicalMetadata.Properties = cloneMap(a.TechnicalMetadata.Properties)
	out.OperationalMetadata.ApprovedAt = cloneTime(a.OperationalMetadata.ApprovedAt)
	out.OperationalMetadata.RejectedAt = cloneTime(a.OperationalMetadata.RejectedAt)
	out.OperationalMetadata.PublishedAt = cloneTime(a.OperationalMetadata.PublishedAt)
	out.BusinessMetadata.Tags = slices.Clone(a.BusinessMetadata.Tags)
	out.BusinessMetadata.CustomColumns = cloneMap(a.BusinessMetadata.CustomColumns)
	if a.Columns != nil {
		out.Columns = make([]Column, len(a.Columns))
		for i, c := range a.Columns {
			out.Columns[i] = c.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	out := c
	out.PIITypes = slices.Clone(c.PIITypes)
	out.MaskingLogicAnalytical = cloneString(c.MaskingLogicAnalytical)
	out.MaskingLogicOperational = cloneString(c.MaskingLogicOperational)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
