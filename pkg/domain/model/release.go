package model

import "time"

// Release is a published release fetched from the hosting API. Immutable
// once fetched; all derived data lives in Classification.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
	AssetURL    string    `json:"asset_url"`
}

// Tag is a git tag fetched from the hosting API. Tags carry no publish
// timestamp and no release notes, which limits incremental polling (see
// Poller.pollTags).
type Tag struct {
	Name       string `json:"name"`
	CommitSHA  string `json:"commit_sha"`
	ZipballURL string `json:"zipball_url"`
	TarballURL string `json:"tarball_url"`
}
