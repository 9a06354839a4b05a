package interfaces

import (
	"context"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
)

// SchedulerUseCase is the control surface the HTTP controller exposes.
type SchedulerUseCase interface {
	// PollNow runs one out-of-band cycle without disturbing the interval
	// timer. Returns immediately with an error if a cycle is in flight.
	PollNow(ctx context.Context) error

	// Status reports the current scheduler state. Read-only.
	Status(ctx context.Context) (*model.SchedulerStatus, error)
}

// SourcePoller polls a single source. Extracted as an interface so the
// scheduler can be tested against a stub poller.
type SourcePoller interface {
	PollSource(ctx context.Context, src model.Source) (*model.PollResult, error)
}
