package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"learnai-backend/internal/logger"
	"learnai-backend/internal/models"
	"learnai-backend/internal/repository"
	"learnai-backend/internal/services"
)

// AudioQueue is the Redis list holding pending audio batch jobs.
const AudioQueue = "queue:audio-batch"

// WebSocket event types published by the worker.
const (
	EventAudioProgress = "audio_progress"
	EventCompleted     = "completed"
	EventError         = "error"
)

var errNoAudio = errors.New("no audio lesson could be generated")

type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Save(ctx context.Context, documentID uuid.UUID, field, value string) error
}

type JobStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error
	Complete(ctx context.Context, id uuid.UUID, generated, skipped, failed int) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type EventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error
}

// StudyRunner is the slice of the study service a batch needs.
type StudyRunner interface {
	Summary(ctx context.Context, text string) (string, bool)
	Notes(ctx context.Context, text string) (string, bool)
	AudioForDocument(ctx context.Context, documentID, text string, language models.Language, progress func(models.AudioProgress)) services.AudioBatchResult
}

// Pool runs "generate all" jobs: missing summary and notes are written to
// the document, then every audio lesson is generated sequentially.
type Pool struct {
	redis       *redis.Client
	study       StudyRunner
	docs        DocumentStore
	jobs        JobStore
	events      EventPublisher
	log         *logger.Logger
	workerCount int
	maxRetries  int
	popTimeout  time.Duration
	backoff     func(retry int) time.Duration
}

func NewPool(
	redisClient *redis.Client,
	study StudyRunner,
	docs DocumentStore,
	jobs JobStore,
	events EventPublisher,
	workerCount int,
	log *logger.Logger,
) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pool{
		redis:       redisClient,
		study:       study,
		docs:        docs,
		jobs:        jobs,
		events:      events,
		log:         log.With("component", "worker"),
		workerCount: workerCount,
		maxRetries:  3,
		popTimeout:  5 * time.Second,
		backoff: func(retry int) time.Duration {
			return time.Duration(1<<uint(retry)) * time.Second
		},
	}
}

// Enqueue pushes a job created in the job store onto the queue.
func (p *Pool) Enqueue(ctx context.Context, job *models.AudioBatchJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return p.redis.LPush(ctx, AudioQueue, data).Err()
}

// Run blocks until ctx is done and every worker has returned.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workerCount; i++ {
		id := i
		g.Go(func() error {
			p.worker(ctx, id)
			return nil
		})
	}
	p.log.Info("started workers", "count", p.workerCount)
	return g.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			p.log.Debug("worker shutting down", "worker", id)
			return
		}

		result, err := p.redis.BRPop(ctx, p.popTimeout, AudioQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				p.log.Warn("queue pop failed", "worker", id, "error", err)
				sleep(ctx, time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.AudioBatchJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Warn("failed to parse job", "worker", id, "error", err)
			continue
		}

		p.handle(ctx, &job)
	}
}

func (p *Pool) handle(ctx context.Context, job *models.AudioBatchJob) {
	lockKey := "job_lock:" + job.ID.String()
	locked, err := p.redis.SetNX(ctx, lockKey, "1", 30*time.Minute).Result()
	if err != nil || !locked {
		return
	}
	defer p.redis.Del(context.Background(), lockKey)

	log := p.log.With("job_id", job.ID, "document_id", job.DocumentID)
	log.Info("processing audio batch")
	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobProcessing); err != nil {
		log.Warn("failed to mark job processing", "error", err)
	}

	result, err := p.process(ctx, job)
	switch {
	case ctx.Err() != nil:
		// Shutdown mid-batch: requeue; finished lessons are cached and skipped next time.
		log.Info("audio batch interrupted, requeueing")
		bg := context.Background()
		if err := p.jobs.UpdateStatus(bg, job.ID, models.JobPending); err != nil {
			log.Warn("failed to mark job pending", "error", err)
		}
		if err := p.Enqueue(bg, job); err != nil {
			log.Error("failed to requeue job", "error", err)
		}
	case err != nil:
		p.handleFailure(ctx, job, err)
	default:
		p.handleSuccess(ctx, job, result)
	}
}

func (p *Pool) process(ctx context.Context, job *models.AudioBatchJob) (services.AudioBatchResult, error) {
	doc, err := p.docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		return services.AudioBatchResult{}, fmt.Errorf("load document: %w", err)
	}
	if doc.UserID != job.UserID {
		return services.AudioBatchResult{}, fmt.Errorf("load document: %w", repository.ErrNotFound)
	}

	if doc.Summary == nil || *doc.Summary == "" {
		if html, _ := p.study.Summary(ctx, doc.Text); html != services.SummaryErrorHTML {
			if err := p.docs.Save(ctx, doc.ID, repository.FieldSummary, html); err != nil {
				return services.AudioBatchResult{}, fmt.Errorf("save summary: %w", err)
			}
		}
	}
	if doc.Notes == nil || *doc.Notes == "" {
		if notes, _ := p.study.Notes(ctx, doc.Text); notes != services.NotesErrorText {
			if err := p.docs.Save(ctx, doc.ID, repository.FieldNotes, notes); err != nil {
				return services.AudioBatchResult{}, fmt.Errorf("save notes: %w", err)
			}
		}
	}

	result := p.study.AudioForDocument(ctx, doc.ID.String(), doc.Text, job.Language, func(pr models.AudioProgress) {
		pr.JobID = job.ID
		p.publish(ctx, job.UserID, EventAudioProgress, pr)
	})
	if result.Total > 0 && result.Generated+result.Skipped == 0 {
		return result, errNoAudio
	}
	return result, nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.AudioBatchJob, result services.AudioBatchResult) {
	if err := p.jobs.Complete(ctx, job.ID, result.Generated, result.Skipped, result.Failed); err != nil {
		p.log.Error("failed to mark job complete", "job_id", job.ID, "error", err)
	}

	p.publish(ctx, job.UserID, EventCompleted, models.CompletedEvent{
		JobID:      job.ID,
		DocumentID: job.DocumentID,
		Generated:  result.Generated,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
	})
	p.log.Info("audio batch completed", "job_id", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.AudioBatchJob, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < p.maxRetries && !errors.Is(err, repository.ErrNotFound) {
		p.log.Warn("audio batch failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "error", errMsg)
		p.recordFailure(ctx, job, models.JobPending, errMsg)

		retry := *job
		time.AfterFunc(p.backoff(job.RetryCount), func() {
			if err := p.Enqueue(context.Background(), &retry); err != nil {
				p.log.Error("failed to requeue job", "job_id", retry.ID, "error", err)
			}
		})
		return
	}

	p.log.Error("audio batch failed permanently", "job_id", job.ID, "error", errMsg)
	p.recordFailure(ctx, job, models.JobFailed, errMsg)

	p.publish(ctx, job.UserID, EventError, models.ErrorEvent{
		JobID:        job.ID,
		ErrorCode:    "JOB_FAILED",
		ErrorMessage: errMsg,
	})
}

func (p *Pool) recordFailure(ctx context.Context, job *models.AudioBatchJob, status models.JobStatus, errMsg string) {
	if err := p.jobs.UpdateStatus(ctx, job.ID, status); err != nil {
		p.log.Warn("failed to update job status", "job_id", job.ID, "status", status, "error", err)
	}
	if err := p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount); err != nil {
		p.log.Warn("failed to record job error", "job_id", job.ID, "error", err)
	}
}

func (p *Pool) publish(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, userID, models.WSMessage{Type: eventType, Payload: payload}); err != nil {
		p.log.Warn("failed to publish event", "type", eventType, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
