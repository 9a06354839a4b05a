package model

import "github.com/m-mizutani/forkwatch/pkg/domain/types"

// FetchMode selects which endpoint of the hosting API a source is polled
// through. Repositories that do not publish releases are tracked via tags.
type FetchMode string

const (
	FetchModeReleases FetchMode = "releases"
	FetchModeTags     FetchMode = "tags"
	FetchModeBoth     FetchMode = "both"
)

// IsValid reports whether the fetch mode is one of the known values.
func (x FetchMode) IsValid() bool {
	switch x {
	case FetchModeReleases, FetchModeTags, FetchModeBoth:
		return true
	}
	return false
}

// WantsReleases reports whether the mode includes release fetching.
func (x FetchMode) WantsReleases() bool {
	return x == FetchModeReleases || x == FetchModeBoth
}

// WantsTags reports whether the mode includes tag fetching.
func (x FetchMode) WantsTags() bool {
	return x == FetchModeTags || x == FetchModeBoth
}

// Source is a monitored client repository. Sources are owned by external
// configuration; the pipeline only reads them at the start of each cycle.
type Source struct {
	ID            types.SourceID `json:"id" toml:"id"`
	Name          string         `json:"name" toml:"name"`
	RepositoryURL string         `json:"repository_url" toml:"repository_url"`
	FetchMode     FetchMode      `json:"fetch_mode" toml:"fetch_mode"`
	Enabled       bool           `json:"enabled" toml:"enabled"`
}
