package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"ets/internal/platform/querier"
)

const (
	JobNotify             = "notify"
	JobPublishEvent       = "publish_event"
	JobResetCleanup       = "password_reset_cleanup"
	JobTokenSweep         = "token_blacklist_sweep"
	defaultQueueSize      = 128
	defaultJobRunsTimeout = 5 * time.Second
)

type RunFunc func(context.Context) (any, error)

type job struct {
	Type string
	Run  RunFunc
}

type schedule struct {
	jobType  string
	interval time.Duration
	run      RunFunc
}

// Service runs side effects off the request path on a single worker and
// records each run in job_runs when a database is configured.
type Service struct {
	DB        querier.Querier
	queue     chan job
	schedules []schedule
}

func New(db querier.Querier) *Service {
	return &Service{DB: db, queue: make(chan job, defaultQueueSize)}
}

// Every registers a periodic job. Call before Start.
func (s *Service) Every(jobType string, interval time.Duration, run RunFunc) {
	if interval <= 0 {
		return
	}
	s.schedules = append(s.schedules, schedule{jobType: jobType, interval: interval, run: run})
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	for _, sch := range s.schedules {
		go s.tick(ctx, sch)
	}
}

// Enqueue never blocks; a full queue drops the job with a warning.
func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		log.Warn().Str("job_type", jobType).Msg("job queue full")
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				log.Warn().Err(err).Str("job_type", j.Type).Msg("job run failed")
			}
		}
	}
}

func (s *Service) tick(ctx context.Context, sch schedule) {
	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(sch.jobType, sch.run)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := s.startRun(ctx, j.Type)

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	s.finishRun(ctx, runID, status, details)
	return details, err
}

func (s *Service) startRun(ctx context.Context, jobType string) string {
	if s.DB == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, defaultJobRunsTimeout)
	defer cancel()

	var runID string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id::text
  `, jobType, "running").Scan(&runID); err != nil {
		log.Warn().Err(err).Str("job_type", jobType).Msg("job run insert failed")
	}
	return runID
}

func (s *Service) finishRun(ctx context.Context, runID, status string, details any) {
	if s.DB == nil || runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Warn().Err(err).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultJobRunsTimeout)
	defer cancel()
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); err != nil {
		log.Warn().Err(err).Msg("job run update failed")
	}
}
