package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"chancehr/internal/platform/logger"
)

const (
	JobPayrollBatch = "payroll_batch"
	JobQRRotation   = "qr_rotation"

	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrRunNotFound = errors.New("job run not found")
)

type RunFunc func(ctx context.Context) (any, error)

type Run struct {
	ID          string          `json:"id"`
	WorkplaceID string          `json:"workplaceId"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type Service struct {
	DB    *pgxpool.Pool
	queue chan job
}

type job struct {
	RunID       string
	Type        string
	WorkplaceID string
	Run         RunFunc
}

func New(db *pgxpool.Pool) *Service {
	return &Service{
		DB:    db,
		queue: make(chan job, 128),
	}
}

// Start runs the queue worker until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue records a queued run and hands it to the worker. The run id is returned so callers can poll it.
func (s *Service) Enqueue(ctx context.Context, jobType, workplaceID string, run RunFunc) (string, error) {
	var runID string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (workplace_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, workplaceID, jobType, StatusQueued).Scan(&runID); err != nil {
		return "", err
	}

	select {
	case s.queue <- job{RunID: runID, Type: jobType, WorkplaceID: workplaceID, Run: run}:
		return runID, nil
	default:
		s.finish(ctx, runID, nil, ErrQueueFull)
		logger.FromContext(ctx).Warn("job queue full", zap.String("job_type", jobType), zap.String("workplace_id", workplaceID))
		return "", ErrQueueFull
	}
}

func (s *Service) Get(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.DB.QueryRow(ctx, `
    SELECT id, workplace_id, job_type, status, details_json, error, created_at, completed_at
    FROM job_runs WHERE id = $1
  `, runID).Scan(&run.ID, &run.WorkplaceID, &run.JobType, &run.Status, &run.Details, &run.Error, &run.CreatedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

// ScheduleEvery enqueues fn once per workplace on every tick. A non-positive interval disables it.
func (s *Service) ScheduleEvery(ctx context.Context, jobType string, interval time.Duration, fn func(ctx context.Context, workplaceID string) (any, error)) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log := logger.FromContext(ctx).With(zap.String("job_type", jobType))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				workplaces, err := s.listWorkplaces(ctx)
				if err != nil {
					log.Warn("scheduler workplace lookup failed", zap.Error(err))
					continue
				}
				for _, workplaceID := range workplaces {
					id := workplaceID
					if _, err := s.Enqueue(ctx, jobType, id, func(ctx context.Context) (any, error) {
						return fn(ctx, id)
					}); err != nil {
						log.Warn("scheduled job not enqueued", zap.String("workplace_id", id), zap.Error(err))
					}
				}
			}
		}
	}()
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.runJob(ctx, j); err != nil {
				logger.FromContext(ctx).Warn("job run failed",
					zap.String("job_type", j.Type),
					zap.String("workplace_id", j.WorkplaceID),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	if _, err := s.DB.Exec(ctx, `UPDATE job_runs SET status = $1 WHERE id = $2`, StatusRunning, j.RunID); err != nil {
		logger.FromContext(ctx).Warn("job run update failed", zap.Error(err))
	}
	details, err := j.Run(ctx)
	s.finish(ctx, j.RunID, details, err)
	return err
}

func (s *Service) finish(ctx context.Context, runID string, details any, runErr error) {
	status := StatusCompleted
	errText := ""
	if runErr != nil {
		status = StatusFailed
		errText = runErr.Error()
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		logger.FromContext(ctx).Warn("job details marshal failed", zap.Error(err))
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, error = $3, completed_at = now()
    WHERE id = $4
  `, status, detailsJSON, errText, runID); err != nil {
		logger.FromContext(ctx).Warn("job run update failed", zap.Error(err))
	}
}

func (s *Service) listWorkplaces(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text FROM workplaces`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
