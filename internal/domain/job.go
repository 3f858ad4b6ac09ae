package domain

import "time"

// JobStatus enumerates download job lifecycle states.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobRecord is the persisted summary of one download job.
type JobRecord struct {
	ID              string     `json:"id"`
	PageCount       int        `json:"page_count"`
	RemoveWatermark bool       `json:"remove_watermark"`
	Status          JobStatus  `json:"status"`
	ImagesArchived  int        `json:"images_archived"`
	PageFailures    int        `json:"page_failures"`
	EmptyPages      int        `json:"empty_pages"`
	ImageFailures   int        `json:"image_failures"`
	ErrorMessage    string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (j *JobRecord) Done() bool {
	return j.Status != JobStatusRunning
}
