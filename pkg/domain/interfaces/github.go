package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
)

// ReleaseClient defines the hosting API operations the poller depends on.
// Implementations must bound every call with a timeout and must not retry;
// retry policy belongs to the scheduling layer.
type ReleaseClient interface {
	// FetchReleases returns one page of published releases, newest first.
	// perPage is clamped to the API maximum of 100.
	FetchReleases(ctx context.Context, owner, repo string, page, perPage int) ([]*model.Release, error)

	// FetchTags returns one page of repository tags.
	FetchTags(ctx context.Context, owner, repo string, page, perPage int) ([]*model.Tag, error)

	// FetchReleasesSince returns releases published strictly after since.
	// The hosting API has no server-side "since" filter for releases, so
	// implementations page through a bounded window and filter locally.
	FetchReleasesSince(ctx context.Context, owner, repo string, since time.Time) ([]*model.Release, error)
}
