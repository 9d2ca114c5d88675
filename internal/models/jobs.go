package models

import "encoding/json"

// JobID is the opaque identifier the backend assigns at submission time.
type JobID string

// JobType is a caller-chosen stable key identifying one kind of operation on
// one target, e.g. "statement-process-42". It is reused across retries of the
// same operation and drives duplicate-submission rejection.
type JobType string

type JobState string

const (
	JobStateQueued   JobState = "queued"
	JobStateRunning  JobState = "running"
	JobStateFinished JobState = "finished"
	JobStateFailed   JobState = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s JobState) Terminal() bool {
	return s == JobStateFinished || s == JobStateFailed
}

type JobMeta struct {
	Stage    string   `json:"stage,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

type JobStatus struct {
	ID     JobID           `json:"id"`
	State  JobState        `json:"status"`
	Meta   JobMeta         `json:"meta"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type JobSubmission struct {
	JobID JobID `json:"job_id"`
}

type JobStatusResponse = APIResponse[JobStatus]

type JobSubmissionResponse = APIResponse[JobSubmission]
