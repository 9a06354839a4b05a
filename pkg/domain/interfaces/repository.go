package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
)

// WatermarkStore persists the last successful poll time per source. The
// pipeline never deletes entries; resets are an external operation.
type WatermarkStore interface {
	// GetWatermark returns nil without error when no watermark exists.
	GetWatermark(ctx context.Context, id types.SourceID) (*time.Time, error)
	SetWatermark(ctx context.Context, id types.SourceID, ts time.Time) error
}

// UpdateSink receives detected updates at the end of each source poll.
// Emission is at-least-once across restarts; sinks must deduplicate on
// (source, tag).
type UpdateSink interface {
	Emit(ctx context.Context, updates []*model.DetectedUpdate) error
}

// UpdateRepository reads back persisted update records for the operational
// API. Implemented by the same adapters that implement UpdateSink.
type UpdateRepository interface {
	RecentUpdates(ctx context.Context, limit int) ([]model.UpdateRecord, error)
}

// SourceProvider supplies the monitored sources. Read once per cycle so that
// external configuration changes take effect without a restart.
type SourceProvider interface {
	Sources(ctx context.Context) ([]model.Source, error)
}
