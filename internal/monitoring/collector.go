// Package monitoring watches completed-job performance for drift and posts
// alerts to a webhook.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
	"github.com/treeshoptech/treeshop-app-sub001/internal/report"
	"github.com/treeshoptech/treeshop-app-sub001/internal/store"
)

// Snapshot is the performance of recently completed jobs per service type.
type Snapshot struct {
	Summaries    []report.ServiceSummary       `json:"summaries"`
	Targets      map[model.ServiceType]float64 `json:"targets"`
	LookbackDays int                           `json:"lookback_days"`
	Jobs         int                           `json:"jobs"`
	CollectedAt  time.Time                     `json:"collected_at"`
}

// JobSource is the slice of store.Store the collector reads.
type JobSource interface {
	ListCompletedJobs(ctx context.Context, filter store.JobFilter) ([]model.HistoricalJob, error)
	ListTemplates(ctx context.Context) ([]model.ServiceTemplate, error)
}

// Collector gathers a Snapshot from the store.
type Collector struct {
	src JobSource
	now func() time.Time
}

// NewCollector creates a Collector reading from src.
func NewCollector(src JobSource) *Collector {
	return &Collector{src: src, now: time.Now}
}

// Collect summarizes jobs completed in the last lookbackDays days and the
// target margin of every template.
func (c *Collector) Collect(ctx context.Context, lookbackDays int) (*Snapshot, error) {
	now := c.now().UTC()
	filter := store.JobFilter{Until: now}
	if lookbackDays > 0 {
		filter.Since = now.AddDate(0, 0, -lookbackDays)
	}

	jobs, err := c.src.ListCompletedJobs(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list completed jobs")
	}
	templates, err := c.src.ListTemplates(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list templates")
	}

	targets := make(map[model.ServiceType]float64, len(templates))
	for _, t := range templates {
		targets[t.ServiceType] = t.TargetMarginPercent
	}

	return &Snapshot{
		Summaries:    report.Summarize(jobs),
		Targets:      targets,
		LookbackDays: lookbackDays,
		Jobs:         len(jobs),
		CollectedAt:  now,
	}, nil
}
