// Package lifecycle applies approval lifecycle transitions to cached assets.
//
// Every transition is a Command executed by the Machine with the same
// protocol: snapshot the cached asset, apply the change optimistically to
// every cached view, commit it to the server, then either merge the server's
// answer or restore the snapshot. Page repair runs in both cases.
package lifecycle

import (
	"context"

	"assetflow/internal/domain"
)

// Command describes one optimistic transition. Snapshot and rollback are
// uniform and performed by the Machine.
type Command struct {
	AssetID string
	Action  domain.Action

	// Apply mutates the cached asset before the server call.
	Apply func(a *domain.Asset)

	// Commit performs the server call. The returned delta is merged into the
	// cache; a nil delta keeps the optimistic state as is.
	Commit func(ctx context.Context) (*domain.AssetDelta, error)

	// FollowUp, when set, runs after a successful commit. Its failure does
	// not roll back the committed transition; it is reported as a
	// PartialFailureError and followed by a resync.
	FollowUp     func(ctx context.Context, committed *domain.Asset) (*domain.AssetDelta, error)
	FollowUpStep string
}

func (c Command) validate() error {
	if c.AssetID == "" {
		return domain.ErrValidation("asset id is required")
	}
	if c.Apply == nil || c.Commit == nil {
		return domain.ErrValidation("%s command is incomplete", c.Action)
	}
	return nil
}
