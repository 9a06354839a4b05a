package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/forkwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	defaultInterval    = 30 * time.Minute
	defaultSourceDelay = time.Second
)

// Scheduler drives the poller across all configured sources on a fixed
// interval. One cycle at a time: sources are processed sequentially with an
// inter-source delay to stay under upstream rate limits, and a tick that
// fires while a cycle is in flight is skipped.
type Scheduler struct {
	poller     interfaces.SourcePoller
	sources    interfaces.SourceProvider
	sink       interfaces.UpdateSink
	watermarks interfaces.WatermarkStore

	now       func() time.Time
	reportErr func(error)

	mu           sync.Mutex
	interval     time.Duration
	sourceDelay  time.Duration
	running      bool
	cycleRunning bool
	stopCh       chan struct{}
	doneCh       chan struct{}
	baseCtx      context.Context
	lastErrors   []string
	processed    int
}

// SchedulerOption is a functional option for Scheduler construction.
type SchedulerOption func(*Scheduler)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithSourceDelay sets the pause between sources within a cycle.
func WithSourceDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.sourceDelay = d
	}
}

// WithSchedulerClock overrides the wall clock, for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithErrorReporter registers a hook invoked with each cycle level error,
// e.g. to forward to Sentry.
func WithErrorReporter(report func(error)) SchedulerOption {
	return func(s *Scheduler) {
		s.reportErr = report
	}
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	poller interfaces.SourcePoller,
	sources interfaces.SourceProvider,
	sink interfaces.UpdateSink,
	watermarks interfaces.WatermarkStore,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		poller:      poller,
		sources:     sources,
		sink:        sink,
		watermarks:  watermarks,
		now:         time.Now,
		interval:    defaultInterval,
		sourceDelay: defaultSourceDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the interval timer and runs one immediate cycle. Idempotent:
// calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.baseCtx = ctx
	stopCh, doneCh, interval := s.stopCh, s.doneCh, s.interval
	s.mu.Unlock()

	go s.loop(ctx, stopCh, doneCh, interval)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, stopCh, doneCh chan struct{}, interval time.Duration) {
	defer close(doneCh)

	s.runCycle(ctx, stopCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, stopCh)
		}
	}
}

// Stop prevents further ticks and waits for the in-flight cycle to wind
// down. The current source's fetch is never interrupted mid-call; the cycle
// checks for stop between sources.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	<-doneCh
}

// PollNow runs a single out-of-band cycle without disturbing the interval
// timer. Fails if a cycle is already in flight.
func (s *Scheduler) PollNow(ctx context.Context) error {
	if !s.runCycle(ctx, nil) {
		return goerr.New("a poll cycle is already in progress")
	}
	return nil
}

// SetInterval updates the polling cadence. When running, the timer is
// restarted so the new interval applies immediately.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	wasRunning := s.running
	ctx := s.baseCtx
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
		_ = s.Start(ctx)
	}
}

// Status reports a snapshot of the scheduler. LastRun is the max over all
// source watermarks; NextRun is estimated as now + interval while running.
func (s *Scheduler) Status(ctx context.Context) (*model.SchedulerStatus, error) {
	s.mu.Lock()
	status := &model.SchedulerStatus{
		Running:          s.running,
		ProcessedSources: s.processed,
		LastErrors:       append([]string{}, s.lastErrors...),
	}
	interval := s.interval
	s.mu.Unlock()

	sources, err := s.sources.Sources(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load sources for status")
	}
	status.TotalSources = len(sources)

	var lastRun *time.Time
	for _, src := range sources {
		wm, err := s.watermarks.GetWatermark(ctx, src.ID)
		if err != nil || wm == nil {
			continue
		}
		if lastRun == nil || wm.After(*lastRun) {
			lastRun = wm
		}
	}
	status.LastRun = lastRun

	if status.Running {
		next := s.now().Add(interval)
		status.NextRun = &next
	}

	return status, nil
}

// runCycle executes one full cycle. Returns false without doing anything
// when another cycle is already in flight, so ticks never overlap.
func (s *Scheduler) runCycle(ctx context.Context, stopCh chan struct{}) bool {
	s.mu.Lock()
	if s.cycleRunning {
		s.mu.Unlock()
		return false
	}
	s.cycleRunning = true
	sourceDelay := s.sourceDelay
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cycleRunning = false
		s.mu.Unlock()
	}()

	logger := ctxlog.From(ctx)
	var cycleErrors []string
	processed := 0

	sources, err := s.sources.Sources(ctx)
	if err != nil {
		cycleErrors = append(cycleErrors, fmt.Sprintf("load sources: %v", err))
		s.finishCycle(cycleErrors, processed)
		s.report(err)
		return true
	}

	for i, src := range sources {
		if !src.Enabled {
			continue
		}
		if stopped(stopCh) || ctx.Err() != nil {
			logger.Info("cycle interrupted by stop", "processed", processed)
			break
		}
		if i > 0 {
			sleepCtx(ctx, sourceDelay)
		}

		if errStrs := s.pollOne(ctx, src); len(errStrs) > 0 {
			cycleErrors = append(cycleErrors, errStrs...)
		}
		processed++
	}

	logger.Info("poll cycle complete",
		"sources", processed,
		"errors", len(cycleErrors),
	)

	s.finishCycle(cycleErrors, processed)
	return true
}

// pollOne polls a single source and hands its updates to the sink. Panics
// and errors are converted to strings; no source failure stops the cycle.
func (s *Scheduler) pollOne(ctx context.Context, src model.Source) (errStrs []string) {
	logger := ctxlog.From(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while polling source",
				"source_id", src.ID,
				"recover", r,
				"stack", string(debug.Stack()),
			)
			errStrs = append(errStrs, fmt.Sprintf("source %s: panic: %v", src.ID, r))
		}
	}()

	result, err := s.poller.PollSource(ctx, src)
	if err != nil {
		s.report(err)
		return []string{fmt.Sprintf("source %s: %v", src.ID, err)}
	}

	for _, msg := range result.Errors {
		errStrs = append(errStrs, fmt.Sprintf("source %s: %s", src.ID, msg))
	}

	if len(result.Updates) > 0 {
		if err := s.sink.Emit(ctx, result.Updates); err != nil {
			s.report(err)
			errStrs = append(errStrs, fmt.Sprintf("source %s: emit updates: %v", src.ID, err))
		}
	}

	return errStrs
}

func (s *Scheduler) finishCycle(errs []string, processed int) {
	s.mu.Lock()
	s.lastErrors = errs
	s.processed = processed
	s.mu.Unlock()
}

func (s *Scheduler) report(err error) {
	if s.reportErr != nil && err != nil {
		s.reportErr(err)
	}
}

func stopped(stopCh chan struct{}) bool {
	if stopCh == nil {
		return false
	}
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
