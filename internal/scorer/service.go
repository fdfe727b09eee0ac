package scorer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
	"github.com/treeshoptech/treeshop-app-sub001/internal/resilience"
)

// JobStore is the slice of persistence the completion flow needs.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*model.Job, error)
	CompleteJob(ctx context.Context, id string, actual model.JobActual, record model.JobPerformanceRecord) error
}

// Service records job completions and their performance scores.
type Service struct {
	store JobStore
	retry resilience.RetryConfig
	now   func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store JobStore, retry resilience.RetryConfig) *Service {
	return &Service{store: store, retry: retry, now: time.Now}
}

// Complete scores actual against the job's persisted estimate and stores both
// in one write. A job can be completed once; a second call returns
// model.ErrAlreadyCompleted and leaves the first record in place.
func (s *Service) Complete(ctx context.Context, jobID string, actual model.JobActual) (*model.JobPerformanceRecord, error) {
	job, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*model.Job, error) {
		return s.store.GetJob(ctx, jobID)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load job %s", jobID)
	}
	if job.Status == model.JobStatusCompleted || job.Actual != nil {
		return nil, eris.Wrapf(model.ErrAlreadyCompleted, "scorer: job %s", jobID)
	}

	now := s.now().UTC()
	if actual.CompletedAt.IsZero() {
		actual.CompletedAt = now
	}

	rec := Score(job.Estimate, actual)
	rec.ScoredAt = now

	err = resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.store.CompleteJob(ctx, jobID, actual, rec)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: complete job %s", jobID)
	}

	zap.L().Info("scorer: job completed",
		zap.String("job_id", jobID),
		zap.String("service_type", string(job.ServiceType)),
		zap.Float64("production_variance_pct", rec.ProductionVariancePercent),
		zap.Float64("cost_variance_pct", rec.TotalCostVariancePercent),
		zap.Float64("overall_score", rec.OverallPerformanceScore),
	)
	return &rec, nil
}
