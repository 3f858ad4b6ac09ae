package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"imagegrab/internal/domain"
	"imagegrab/internal/infra"
	"imagegrab/internal/sqlinline"
)

// JobRunRepositoryPG implements domain.JobHistoryRepository on PostgreSQL.
type JobRunRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRunRepository creates a repository on top of the given executor.
func NewJobRunRepository(sql infra.SQLExecutor) *JobRunRepositoryPG {
	return &JobRunRepositoryPG{sql: sql}
}

// EnsureSchema creates the job_runs table when missing.
func (r *JobRunRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QCreateJobRunsTable); err != nil {
		return fmt.Errorf("create job_runs: %w", err)
	}
	return nil
}

// Start records a running job. Re-using an id restarts its record.
func (r *JobRunRepositoryPG) Start(ctx context.Context, job *domain.JobRecord) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidJobID
	}
	if job.Status == "" {
		job.Status = domain.JobStatusRunning
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJobRun, job.ID, job.PageCount, job.RemoveWatermark, string(job.Status))
	if err := row.Scan(&job.StartedAt); err != nil {
		return fmt.Errorf("insert job run: %w", err)
	}
	return nil
}

// Finish stores the outcome of a job. A job can be finished once.
func (r *JobRunRepositoryPG) Finish(ctx context.Context, job *domain.JobRecord) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidJobID
	}
	row := r.sql.QueryRow(ctx, sqlinline.QFinishJobRun,
		job.ID,
		string(job.Status),
		job.ImagesArchived,
		job.PageFailures,
		job.EmptyPages,
		job.ImageFailures,
		job.ErrorMessage,
	)
	var finished time.Time
	if err := row.Scan(&finished); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAlreadyFinished
		}
		return fmt.Errorf("finish job run: %w", err)
	}
	job.FinishedAt = &finished
	return nil
}

// GetByID fetches a job summary.
func (r *JobRunRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	if jobID == "" {
		return nil, domain.ErrInvalidJobID
	}
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJobRun, jobID)
	var job domain.JobRecord
	var status string
	if err := row.Scan(
		&job.ID,
		&job.PageCount,
		&job.RemoveWatermark,
		&status,
		&job.ImagesArchived,
		&job.PageFailures,
		&job.EmptyPages,
		&job.ImageFailures,
		&job.ErrorMessage,
		&job.StartedAt,
		&job.FinishedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select job run: %w", err)
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobHistoryRepository = (*JobRunRepositoryPG)(nil)
