package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"assetflow/internal/domain"
)

// Approve moves a pending asset to approved.
func (m *Machine) Approve(ctx context.Context, assetID string) (*domain.Asset, error) {
	return m.Execute(ctx, Command{
		AssetID: assetID,
		Action:  domain.ActionApprove,
		Apply: func(a *domain.Asset) {
			a.OperationalMetadata.ApprovalStatus = domain.ApprovalApproved
		},
		Commit: func(ctx context.Context) (*domain.AssetDelta, error) {
			return m.governance.Approve(ctx, assetID)
		},
	})
}

// Reject moves a pending asset to rejected and then tags it with a governance
// tag derived from the reason. The request is validated before anything else
// happens. A failed tag write does not undo the rejection.
func (m *Machine) Reject(ctx context.Context, assetID string, req domain.RejectRequest) (*domain.Asset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	reason := req.ReasonText()
	tag := req.Tag()

	return m.Execute(ctx, Command{
		AssetID: assetID,
		Action:  domain.ActionReject,
		Apply: func(a *domain.Asset) {
			a.OperationalMetadata.ApprovalStatus = domain.ApprovalRejected
			a.OperationalMetadata.RejectionReason = reason
		},
		Commit: func(ctx context.Context) (*domain.AssetDelta, error) {
			return m.governance.Reject(ctx, assetID, reason)
		},
		FollowUpStep: "tag write",
		FollowUp: func(ctx context.Context, committed *domain.Asset) (*domain.AssetDelta, error) {
			var current []string
			if committed != nil {
				current = committed.BusinessMetadata.Tags
			}
			tags := domain.AppendTag(current, tag)
			delta, err := m.catalog.UpdateAsset(ctx, assetID, domain.BusinessDelta{Tags: tags})
			if err != nil {
				return nil, err
			}
			if delta == nil {
				delta = &domain.AssetDelta{}
			}
			if delta.BusinessMetadata == nil || delta.BusinessMetadata.Tags == nil {
				// The server accepted the write without echoing the tags.
				if delta.BusinessMetadata == nil {
					delta.BusinessMetadata = &domain.BusinessDelta{}
				}
				delta.BusinessMetadata.Tags = tags
			}
			return delta, nil
		},
	})
}

// Publish marks an approved asset published, then confirms the linked
// discovery record. If the discovery cannot be fetched the publish is treated
// as not completed and the optimistic update is rolled back.
func (m *Machine) Publish(ctx context.Context, assetID, target string) (*domain.Asset, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		target = DefaultPublishTarget
	}
	return m.Execute(ctx, Command{
		AssetID: assetID,
		Action:  domain.ActionPublish,
		Apply: func(a *domain.Asset) {
			a.OperationalMetadata.PublishStatus = domain.PublishPublished
			a.OperationalMetadata.PublishedTo = target
		},
		Commit: func(ctx context.Context) (*domain.AssetDelta, error) {
			res, err := m.governance.Publish(ctx, assetID, target)
			if err != nil {
				return nil, err
			}
			disc, err := m.discovery.GetDiscovery(ctx, res.DiscoveryID)
			if err != nil {
				return nil, fmt.Errorf("confirm discovery %s: %w", res.DiscoveryID, err)
			}
			delta := res.Delta
			if delta == nil {
				delta = &domain.AssetDelta{}
			}
			delta.DiscoveryID = &disc.ID
			if delta.OperationalMetadata == nil {
				delta.OperationalMetadata = &domain.OperationalDelta{}
			}
			if delta.OperationalMetadata.PublishStatus == nil {
				published := domain.PublishPublished
				delta.OperationalMetadata.PublishStatus = &published
			}
			return delta, nil
		},
	})
}

// UpdateMetadata writes a partial business metadata update, including custom
// columns, with the same optimistic protocol.
func (m *Machine) UpdateMetadata(ctx context.Context, assetID string, patch domain.BusinessDelta) (*domain.Asset, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrValidation("metadata update for asset %s is empty", assetID)
	}
	return m.Execute(ctx, Command{
		AssetID: assetID,
		Action:  domain.ActionUpdateMetadata,
		Apply: func(a *domain.Asset) {
			patch.MergeInto(&a.BusinessMetadata)
		},
		Commit: func(ctx context.Context) (*domain.AssetDelta, error) {
			return m.catalog.UpdateAsset(ctx, assetID, patch)
		},
	})
}
