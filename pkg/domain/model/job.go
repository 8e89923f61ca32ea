package model

import "time"

// JobKind is the workflow a job triggered through the HTTP server runs
type JobKind string

const (
	JobKindNexus   JobKind = "nexus"
	JobKindRename  JobKind = "rename"
	JobKindUnknown JobKind = "unknown"
)

// JobState represents the lifecycle of a job
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// Job is a workflow run requested over HTTP
type Job struct {
	ID          string     `json:"id"`
	Kind        JobKind    `json:"kind"`
	Domain      GameDomain `json:"domain"`
	State       JobState   `json:"state"`
	Error       string     `json:"error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	FinishedAt  time.Time  `json:"finished_at,omitzero"`
}

// IsFinished checks if the job reached a terminal state
func (j *Job) IsFinished() bool {
	switch j.State {
	case JobStateSucceeded, JobStateFailed:
		return true
	default:
		return false
	}
}

// ParseJobKind converts a path parameter into a JobKind
func ParseJobKind(s string) JobKind {
	switch JobKind(s) {
	case JobKindNexus, JobKindRename:
		return JobKind(s)
	default:
		return JobKindUnknown
	}
}
