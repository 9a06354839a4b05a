package model

import (
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/types"
)

// UpdateRecord is the flattened persistence shape of a detected update.
// Consumers deduplicate on (SourceID, Tag); the ID is unique per emission.
type UpdateRecord struct {
	ID         string         `json:"id" firestore:"id"`
	SourceID   types.SourceID `json:"source_id" firestore:"source_id"`
	Name       string         `json:"name" firestore:"name"`
	Tag        string         `json:"tag" firestore:"tag"`
	URL        string         `json:"url" firestore:"url"`
	Notes      string         `json:"notes" firestore:"notes"`
	HardFork   bool           `json:"hard_fork" firestore:"hard_fork"`
	ForkDate   *time.Time     `json:"fork_date,omitempty" firestore:"fork_date,omitempty"`
	Draft      bool           `json:"draft" firestore:"draft"`
	Prerelease bool           `json:"prerelease" firestore:"prerelease"`
	DetectedAt time.Time      `json:"detected_at" firestore:"detected_at"`
}

// DetectedUpdate combines the raw fetched item with its classification and
// the derived record. Exactly one of Release or Tag is set, matching the
// fetch path that produced it.
type DetectedUpdate struct {
	Source         Source         `json:"source"`
	Release        *Release       `json:"release,omitempty"`
	Tag            *Tag           `json:"tag,omitempty"`
	Classification Classification `json:"classification"`
	Record         UpdateRecord   `json:"record"`
	Confidence     float64        `json:"confidence"`
}

// PollResult is the per-source outcome of one poll. Errors are non-fatal;
// partial results are always returned alongside them.
type PollResult struct {
	Source      Source            `json:"source"`
	Updates     []*DetectedUpdate `json:"updates"`
	Errors      []string          `json:"errors"`
	CompletedAt time.Time         `json:"completed_at"`
}
