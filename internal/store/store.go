// Package store persists complexity factors, jobs and service templates.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// JobFilter narrows ListCompletedJobs. Zero values mean "no bound".
type JobFilter struct {
	ServiceType model.ServiceType `json:"service_type,omitempty"`
	Since       time.Time         `json:"since,omitempty"`
	Until       time.Time         `json:"until,omitempty"`
	Limit       int               `json:"limit,omitempty"`
}

// Store defines the persistence interface for pricing and calibration.
type Store interface {
	// Factors. Factors are never deleted, only deactivated.
	UpsertFactors(ctx context.Context, factors []model.ComplexityFactor) (int64, error)
	DeactivateFactor(ctx context.Context, id string) error
	ListFactors(ctx context.Context) ([]model.ComplexityFactor, error)

	// Jobs
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	CompleteJob(ctx context.Context, id string, actual model.JobActual, record model.JobPerformanceRecord) error
	ListCompletedJobs(ctx context.Context, filter JobFilter) ([]model.HistoricalJob, error)

	// Templates
	GetTemplate(ctx context.Context, serviceType model.ServiceType) (*model.ServiceTemplate, error)
	ListTemplates(ctx context.Context) ([]model.ServiceTemplate, error)
	UpsertTemplate(ctx context.Context, t model.ServiceTemplate) error
	ApplyCalibration(ctx context.Context, result model.RecalibrationResult, defaultTargetMargin float64) (model.ServiceTemplate, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// markCompleted moves job to completed with actual and record attached.
func markCompleted(job *model.Job, actual model.JobActual, record model.JobPerformanceRecord) error {
	if job.Status == model.JobStatusCompleted || job.Performance != nil {
		return eris.Wrapf(model.ErrAlreadyCompleted, "store: job %s", job.ID)
	}
	at := actual.CompletedAt.UTC()
	if actual.CompletedAt.IsZero() {
		at = time.Now().UTC()
		actual.CompletedAt = at
	}
	job.Status = model.JobStatusCompleted
	job.Actual = &actual
	job.Performance = &record
	job.CompletedAt = &at
	return nil
}

// calibrated returns the template after applying result. A missing template
// starts from defaultTargetMargin.
func calibrated(existing *model.ServiceTemplate, result model.RecalibrationResult, defaultTargetMargin float64) model.ServiceTemplate {
	base := model.ServiceTemplate{ServiceType: result.ServiceType, TargetMarginPercent: defaultTargetMargin}
	if existing != nil {
		base = *existing
	}
	return base.Apply(result)
}

func validateJob(job *model.Job) error {
	if job == nil {
		return eris.Wrap(model.ErrInvalidConfiguration, "store: nil job")
	}
	if !job.ServiceType.Valid() {
		return eris.Wrapf(model.ErrInvalidConfiguration, "store: unknown service type %q", job.ServiceType)
	}
	return nil
}

func notFound(entity, id string) error {
	return eris.Wrapf(model.ErrNotFound, "store: %s %s", entity, id)
}
