package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
)

// WatermarkStore keeps watermarks for the process lifetime. The default
// store when no persistence backend is configured, and the store used in
// tests.
type WatermarkStore struct {
	mu    sync.RWMutex
	marks map[types.SourceID]time.Time
}

// NewWatermarkStore creates an empty in-memory watermark store.
func NewWatermarkStore() *WatermarkStore {
	return &WatermarkStore{
		marks: map[types.SourceID]time.Time{},
	}
}

// GetWatermark returns nil when the source has never been polled.
func (x *WatermarkStore) GetWatermark(_ context.Context, id types.SourceID) (*time.Time, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ts, ok := x.marks[id]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

// SetWatermark records the last successful poll time for the source.
func (x *WatermarkStore) SetWatermark(_ context.Context, id types.SourceID, ts time.Time) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.marks[id] = ts
	return nil
}

// UpdateLog is an in-memory update sink that retains everything emitted.
type UpdateLog struct {
	mu      sync.Mutex
	updates []*model.DetectedUpdate
}

// NewUpdateLog creates an empty update log.
func NewUpdateLog() *UpdateLog {
	return &UpdateLog{}
}

// Emit appends the updates to the log.
func (x *UpdateLog) Emit(_ context.Context, updates []*model.DetectedUpdate) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.updates = append(x.updates, updates...)
	return nil
}

// Updates returns a copy of everything emitted so far.
func (x *UpdateLog) Updates() []*model.DetectedUpdate {
	x.mu.Lock()
	defer x.mu.Unlock()

	return append([]*model.DetectedUpdate{}, x.updates...)
}

// RecentUpdates returns the most recently detected records, newest first.
func (x *UpdateLog) RecentUpdates(_ context.Context, limit int) ([]model.UpdateRecord, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if limit <= 0 || limit > len(x.updates) {
		limit = len(x.updates)
	}

	records := make([]model.UpdateRecord, 0, limit)
	for i := len(x.updates) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, x.updates[i].Record)
	}
	return records, nil
}

// StaticSources is a fixed source list implementing SourceProvider, used
// when sources come from a configuration file read at startup.
type StaticSources []model.Source

// Sources returns the configured list.
func (x StaticSources) Sources(_ context.Context) ([]model.Source, error) {
	return x, nil
}
