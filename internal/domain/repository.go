package domain

import "context"

// JobHistoryRepository persists download job summaries.
type JobHistoryRepository interface {
	Start(ctx context.Context, job *JobRecord) error
	Finish(ctx context.Context, job *JobRecord) error
	GetByID(ctx context.Context, jobID string) (*JobRecord, error)
}
