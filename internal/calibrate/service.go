package calibrate

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
	"github.com/treeshoptech/treeshop-app-sub001/internal/resilience"
	"github.com/treeshoptech/treeshop-app-sub001/internal/store"
)

// Store is the persistence the calibration service reads and writes.
type Store interface {
	ListCompletedJobs(ctx context.Context, filter store.JobFilter) ([]model.HistoricalJob, error)
	ApplyCalibration(ctx context.Context, result model.RecalibrationResult, defaultTargetMargin float64) (model.ServiceTemplate, error)
}

// Settings controls which jobs count and how results are written.
type Settings struct {
	MinJobsRequired     int
	Window              time.Duration // zero means all history
	ConfidenceScale     float64
	MaxConcurrent       int
	DefaultTargetMargin float64 // used when a template does not exist yet
}

// Outcome reports one service type's recalibration.
type Outcome struct {
	ServiceType model.ServiceType          `json:"service_type"`
	Result      *model.RecalibrationResult `json:"result,omitempty"`
	Template    *model.ServiceTemplate     `json:"template,omitempty"`
	Skipped     string                     `json:"skipped,omitempty"`
}

// Service loads completed jobs, runs Recalculate and writes the template
// atomically. Concurrent calls for one service type share a single run.
type Service struct {
	store    Store
	settings Settings
	retry    resilience.RetryConfig
	group    singleflight.Group
	now      func() time.Time
}

// NewService creates a Service.
func NewService(st Store, settings Settings, retry resilience.RetryConfig) *Service {
	if settings.MaxConcurrent < 1 {
		settings.MaxConcurrent = 1
	}
	return &Service{store: st, settings: settings, retry: retry, now: time.Now}
}

// Recalibrate recomputes the template for serviceType from completed jobs in
// the configured window. With too few jobs it returns an error matching
// model.ErrInsufficientData and the stored template is not touched.
func (s *Service) Recalibrate(ctx context.Context, serviceType model.ServiceType) (Outcome, error) {
	// The shared run outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := s.group.DoChan(string(serviceType), func() (any, error) {
		return s.recalibrate(context.WithoutCancel(ctx), serviceType)
	})
	select {
	case <-ctx.Done():
		return Outcome{ServiceType: serviceType}, eris.Wrapf(ctx.Err(), "calibrate: recalibrate %s", serviceType)
	case r := <-ch:
		if r.Shared {
			zap.L().Debug("calibrate: coalesced recalibration", zap.String("service_type", string(serviceType)))
		}
		if r.Err != nil {
			return Outcome{ServiceType: serviceType}, r.Err
		}
		return r.Val.(Outcome), nil
	}
}

func (s *Service) recalibrate(ctx context.Context, serviceType model.ServiceType) (Outcome, error) {
	out := Outcome{ServiceType: serviceType}
	now := s.now().UTC()

	in := Input{
		ServiceType:     serviceType,
		MinJobsRequired: s.settings.MinJobsRequired,
		Until:           now,
		ConfidenceScale: s.settings.ConfidenceScale,
		Now:             now,
	}
	if s.settings.Window > 0 {
		in.Since = now.Add(-s.settings.Window)
	}

	records, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) ([]model.HistoricalJob, error) {
		return s.store.ListCompletedJobs(ctx, store.JobFilter{
			ServiceType: serviceType,
			Since:       in.Since,
			Until:       in.Until,
		})
	})
	if err != nil {
		return out, eris.Wrapf(err, "calibrate: load jobs for %s", serviceType)
	}

	res, err := Recalculate(in, records)
	if err != nil {
		return out, eris.Wrapf(err, "calibrate: recalculate %s", serviceType)
	}

	tmpl, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (model.ServiceTemplate, error) {
		return s.store.ApplyCalibration(ctx, res, s.settings.DefaultTargetMargin)
	})
	if err != nil {
		return out, eris.Wrapf(err, "calibrate: write template %s", serviceType)
	}

	zap.L().Info("calibrate: template updated",
		zap.String("service_type", string(serviceType)),
		zap.Int("jobs", res.TotalJobsInAverage),
		zap.Float64("pph", res.StandardPPH),
		zap.Float64("cost_per_hour", res.StandardCostPerHour),
		zap.Float64("billing_rate", res.StandardBillingRate),
		zap.Float64("confidence", res.ConfidenceScore),
	)

	out.Result = &res
	out.Template = &tmpl
	return out, nil
}

// RecalibrateAll runs Recalibrate for each service type, at most
// MaxConcurrent at a time. Service types with too few jobs are reported as
// skipped; any other failure cancels the rest and is returned.
func (s *Service) RecalibrateAll(ctx context.Context, serviceTypes []model.ServiceType) ([]Outcome, error) {
	if len(serviceTypes) == 0 {
		serviceTypes = model.ServiceTypes
	}

	outcomes := make([]Outcome, len(serviceTypes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.MaxConcurrent)

	for i, st := range serviceTypes {
		g.Go(func() error {
			out, err := s.Recalibrate(gctx, st)
			if err != nil {
				var insufficient *model.InsufficientDataError
				if errors.As(err, &insufficient) {
					zap.L().Info("calibrate: skipped",
						zap.String("service_type", string(st)),
						zap.Int("jobs", insufficient.Count),
						zap.Int("required", insufficient.Required),
					)
					outcomes[i] = Outcome{ServiceType: st, Skipped: insufficient.Error()}
					return nil
				}
				return err
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
