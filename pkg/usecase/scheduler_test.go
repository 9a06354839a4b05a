package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/infra/memory"
	"github.com/m-mizutani/forkwatch/pkg/usecase"
	"github.com/m-mizutani/gt"
)

// stubPoller is a function-field stub of interfaces.SourcePoller
type stubPoller struct {
	mu    sync.Mutex
	calls []model.Source
	poll  func(ctx context.Context, src model.Source) (*model.PollResult, error)
}

func (s *stubPoller) PollSource(ctx context.Context, src model.Source) (*model.PollResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, src)
	s.mu.Unlock()

	if s.poll != nil {
		return s.poll(ctx, src)
	}
	return &model.PollResult{Source: src, CompletedAt: time.Now()}, nil
}

func (s *stubPoller) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func schedulerSources() memory.StaticSources {
	return memory.StaticSources{
		{ID: "a", Name: "A", RepositoryURL: "https://github.com/acme/a", FetchMode: model.FetchModeReleases, Enabled: true},
		{ID: "b", Name: "B", RepositoryURL: "https://github.com/acme/b", FetchMode: model.FetchModeReleases, Enabled: true},
		{ID: "c", Name: "C", RepositoryURL: "https://github.com/acme/c", FetchMode: model.FetchModeReleases, Enabled: false},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestScheduler_StartRunsImmediateCycle(t *testing.T) {
	poller := &stubPoller{}
	store := memory.NewWatermarkStore()
	sink := memory.NewUpdateLog()

	s := usecase.NewScheduler(poller, schedulerSources(), sink, store,
		usecase.WithInterval(time.Hour),
		usecase.WithSourceDelay(0),
	)

	gt.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// Disabled sources are skipped; the immediate cycle covers the rest.
	waitFor(t, func() bool { return poller.callCount() == 2 })

	// Start is idempotent: no second immediate cycle.
	gt.NoError(t, s.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	gt.Value(t, poller.callCount()).Equal(2)
}

func TestScheduler_PollNowRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)

	poller := &stubPoller{
		poll: func(ctx context.Context, src model.Source) (*model.PollResult, error) {
			started <- struct{}{}
			<-release
			return &model.PollResult{Source: src}, nil
		},
	}
	store := memory.NewWatermarkStore()
	s := usecase.NewScheduler(poller, schedulerSources(), memory.NewUpdateLog(), store,
		usecase.WithInterval(time.Hour),
		usecase.WithSourceDelay(0),
	)

	done := make(chan error, 1)
	go func() { done <- s.PollNow(context.Background()) }()
	<-started

	// Second cycle while the first is in flight is refused.
	gt.Error(t, s.PollNow(context.Background()))

	close(release)
	gt.NoError(t, <-done)
}

func TestScheduler_CycleCollectsErrorsAndEmits(t *testing.T) {
	ctx := context.Background()

	update := &model.DetectedUpdate{
		Record: model.UpdateRecord{SourceID: "a", Tag: "v1.0.0"},
	}
	poller := &stubPoller{
		poll: func(ctx context.Context, src model.Source) (*model.PollResult, error) {
			if src.ID == "b" {
				return nil, errors.New("source b exploded")
			}
			return &model.PollResult{
				Source:  src,
				Updates: []*model.DetectedUpdate{update},
				Errors:  []string{"fetch tags: boom"},
			}, nil
		},
	}
	store := memory.NewWatermarkStore()
	sink := memory.NewUpdateLog()

	var reported []error
	var reportedMu sync.Mutex
	s := usecase.NewScheduler(poller, schedulerSources(), sink, store,
		usecase.WithInterval(time.Hour),
		usecase.WithSourceDelay(0),
		usecase.WithErrorReporter(func(err error) {
			reportedMu.Lock()
			reported = append(reported, err)
			reportedMu.Unlock()
		}),
	)

	gt.NoError(t, s.PollNow(ctx))

	// Updates from the healthy source reached the sink.
	gt.Array(t, sink.Updates()).Length(1)

	status, err := s.Status(ctx)
	gt.NoError(t, err)
	gt.Value(t, status.Running).Equal(false)
	gt.Value(t, status.TotalSources).Equal(3)
	gt.Value(t, status.ProcessedSources).Equal(2)
	gt.Number(t, len(status.LastErrors)).Greater(1)

	reportedMu.Lock()
	defer reportedMu.Unlock()
	gt.Array(t, reported).Length(1)
}

func TestScheduler_StatusReportsWatermarkAndNextRun(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWatermarkStore()

	older := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	gt.NoError(t, store.SetWatermark(ctx, "a", older))
	gt.NoError(t, store.SetWatermark(ctx, "b", newer))

	poller := &stubPoller{}
	s := usecase.NewScheduler(poller, schedulerSources(), memory.NewUpdateLog(), store,
		usecase.WithInterval(time.Hour),
		usecase.WithSourceDelay(0),
	)

	status, err := s.Status(ctx)
	gt.NoError(t, err)
	gt.Value(t, status.LastRun).NotNil()
	gt.Value(t, *status.LastRun).Equal(newer)
	gt.Value(t, status.NextRun).Nil()

	gt.NoError(t, s.Start(ctx))
	defer s.Stop()
	waitFor(t, func() bool { return poller.callCount() == 2 })

	status, err = s.Status(ctx)
	gt.NoError(t, err)
	gt.Value(t, status.Running).Equal(true)
	gt.Value(t, status.NextRun).NotNil()
}

func TestScheduler_StopPreventsFurtherTicks(t *testing.T) {
	poller := &stubPoller{}
	s := usecase.NewScheduler(poller, schedulerSources(), memory.NewUpdateLog(), memory.NewWatermarkStore(),
		usecase.WithInterval(30*time.Millisecond),
		usecase.WithSourceDelay(0),
	)

	gt.NoError(t, s.Start(context.Background()))
	waitFor(t, func() bool { return poller.callCount() >= 2 })
	s.Stop()

	count := poller.callCount()
	time.Sleep(100 * time.Millisecond)
	gt.Value(t, poller.callCount()).Equal(count)

	// Stop is safe to call twice.
	s.Stop()
}

func TestScheduler_SetIntervalRestartsTimer(t *testing.T) {
	poller := &stubPoller{}
	s := usecase.NewScheduler(poller, schedulerSources(), memory.NewUpdateLog(), memory.NewWatermarkStore(),
		usecase.WithInterval(time.Hour),
		usecase.WithSourceDelay(0),
	)

	gt.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	waitFor(t, func() bool { return poller.callCount() == 2 })

	// Restart applies the new cadence and runs a fresh immediate cycle.
	s.SetInterval(time.Hour)
	waitFor(t, func() bool { return poller.callCount() == 4 })
}
