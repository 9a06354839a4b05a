package model

import "time"

// SchedulerStatus is a snapshot of the polling scheduler for operational
// visibility. LastRun is the max over all source watermarks; NextRun is only
// set while the scheduler is running.
type SchedulerStatus struct {
	Running          bool       `json:"running"`
	LastRun          *time.Time `json:"last_run,omitempty"`
	NextRun          *time.Time `json:"next_run,omitempty"`
	TotalSources     int        `json:"total_sources"`
	ProcessedSources int        `json:"processed_sources"`
	LastErrors       []string   `json:"last_errors"`
}
