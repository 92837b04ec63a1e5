package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnai-backend/internal/models"
)

// JobRepo tracks audio batch jobs so clients can poll their outcome.
type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, j *models.AudioBatchJob) error {
	j.ID = uuid.New()
	j.Status = models.JobPending
	j.RetryCount = 0

	query := `INSERT INTO audio_jobs (id, user_id, document_id, language, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		j.ID, j.UserID, j.DocumentID, j.Language, j.Status,
	).Scan(&j.CreatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AudioBatchJob, error) {
	j := &models.AudioBatchJob{}
	query := `SELECT id, user_id, document_id, language, status, generated, skipped, failed,
		retry_count, error_message, created_at, completed_at
		FROM audio_jobs WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.UserID, &j.DocumentID, &j.Language, &j.Status, &j.Generated, &j.Skipped, &j.Failed,
		&j.RetryCount, &j.ErrorMessage, &j.CreatedAt, &j.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	if status == models.JobCompleted || status == models.JobFailed {
		_, err := r.pool.Exec(ctx, "UPDATE audio_jobs SET status = $1, completed_at = NOW() WHERE id = $2", status, id)
		return err
	}
	_, err := r.pool.Exec(ctx, "UPDATE audio_jobs SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *JobRepo) Complete(ctx context.Context, id uuid.UUID, generated, skipped, failed int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE audio_jobs SET status = $1, generated = $2, skipped = $3, failed = $4, completed_at = NOW()
		 WHERE id = $5`,
		models.JobCompleted, generated, skipped, failed, id,
	)
	return err
}

func (r *JobRepo) UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE audio_jobs SET error_message = $1, retry_count = $2 WHERE id = $3",
		errMsg, retryCount, id,
	)
	return err
}
