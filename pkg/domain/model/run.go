package model

import "time"

// RunResult summarizes one pipeline run
type RunResult struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Skipped     bool          `json:"skipped"`
	Outdated    int           `json:"outdated"`
	Notified    []IdentityKey `json:"notified"`
	BatchesSent int           `json:"batches_sent"`
	Error       string        `json:"error,omitempty"`
}

// Status is the runtime state exposed by the control plane
type Status struct {
	CacheSize int        `json:"cache_size"`
	LastRun   *RunResult `json:"last_run,omitempty"`
}
