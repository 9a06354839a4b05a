package model

import "time"

// ConfidenceTier is the coarse strength of a hard fork signal, derived from
// which indicator pattern groups matched.
type ConfidenceTier string

const (
	ConfidenceNone   ConfidenceTier = ""
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// ReleaseType classifies a tag name into semantic version buckets.
type ReleaseType string

const (
	ReleaseTypeMajor   ReleaseType = "major"
	ReleaseTypeMinor   ReleaseType = "minor"
	ReleaseTypePatch   ReleaseType = "patch"
	ReleaseTypeUnknown ReleaseType = "unknown"
)

// Classification is the analysis of one fetched item's text. It is derived,
// transient data; nothing here is persisted directly.
type Classification struct {
	HasHardFork  bool           `json:"has_hard_fork"`
	ForkDate     *time.Time     `json:"fork_date,omitempty"`
	Confidence   ConfidenceTier `json:"confidence"`
	Indicators   []string       `json:"indicators"`
	Dates        []time.Time    `json:"dates"`
	ReleaseType  ReleaseType    `json:"release_type"`
	BlockNumbers []uint64       `json:"block_numbers,omitempty"`
}
