package domain

import (
	"slices"
	"time"
)

// AssetDelta carries the fields present in a server response to a mutating
// call. Nil fields were absent from the response and leave the cached value
// untouched.
type AssetDelta struct {
	Name                *string
	DiscoveryID         *string
	OperationalMetadata *OperationalDelta
	BusinessMetadata    *BusinessDelta
	Columns             []Column
}

// OperationalDelta is the operational-metadata part of an AssetDelta.
type OperationalDelta struct {
	ApprovalStatus  *ApprovalStatus
	PublishStatus   *PublishStatus
	ApplicationName *string
	Owner           *string
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason *string
	PublishedAt     *time.Time
	PublishedTo     *string
}

// BusinessDelta is the business-metadata part of an AssetDelta. It doubles as
// the body of a partial asset update.
type BusinessDelta struct {
	Classification *string
	Sensitivity    *string
	Tags           []string
	Description    *string
	Department     *string
	CustomColumns  map[string]string
}

// IsEmpty reports whether the delta sets nothing.
func (d *BusinessDelta) IsEmpty() bool {
	return d == nil || (d.Classification == nil && d.Sensitivity == nil && d.Tags == nil &&
		d.Description == nil && d.Department == nil && d.CustomColumns == nil)
}

// MergeInto applies every present field to a.
func (d *AssetDelta) MergeInto(a *Asset) {
	if d == nil || a == nil {
		return
	}
	if d.Name != nil {
		a.Name = *d.Name
	}
	if d.DiscoveryID != nil {
		a.DiscoveryID = *d.DiscoveryID
	}
	d.OperationalMetadata.mergeInto(&a.OperationalMetadata)
	d.BusinessMetadata.MergeInto(&a.BusinessMetadata)
	for _, c := range d.Columns {
		MergeColumn(a, c)
	}
}

func (d *OperationalDelta) mergeInto(op *OperationalMetadata) {
	if d == nil {
		return
	}
	if d.ApprovalStatus != nil {
		op.ApprovalStatus = *d.ApprovalStatus
	}
	if d.PublishStatus != nil {
		op.PublishStatus = *d.PublishStatus
	}
	if d.ApplicationName != nil {
		op.ApplicationName = *d.ApplicationName
	}
	if d.Owner != nil {
		op.Owner = *d.Owner
	}
	if d.ApprovedAt != nil {
		op.ApprovedAt = cloneTime(d.ApprovedAt)
	}
	if d.RejectedAt != nil {
		op.RejectedAt = cloneTime(d.RejectedAt)
	}
	if d.RejectionReason != nil {
		op.RejectionReason = *d.RejectionReason
	}
	if d.PublishedAt != nil {
		op.PublishedAt = cloneTime(d.PublishedAt)
	}
	if d.PublishedTo != nil {
		op.PublishedTo = *d.PublishedTo
	}
}

// MergeInto applies every present field to b.
func (d *BusinessDelta) MergeInto(b *BusinessMetadata) {
	if d == nil {
		return
	}
	if d.Classification != nil {
		b.Classification = *d.Classification
	}
	if d.Sensitivity != nil {
		b.Sensitivity = *d.Sensitivity
	}
	if d.Tags != nil {
		b.Tags = slices.Clone(d.Tags)
	}
	if d.Description != nil {
		b.Description = *d.Description
	}
	if d.Department != nil {
		b.Department = *d.Department
	}
	if d.CustomColumns != nil {
		b.CustomColumns = cloneMap(d.CustomColumns)
	}
}

// MergeColumn replaces the column of a with the same name as c, appending it
// when a has no such column.
func MergeColumn(a *Asset, c Column) {
	c = c.Clone()
	c.Normalize()
	for i := range a.Columns {
		if a.Columns[i].Name == c.Name {
			a.Columns[i] = c
			return
		}
	}
	a.Columns = append(a.Columns, c)
}
