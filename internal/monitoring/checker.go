package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/config"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

type alertKey struct {
	kind        AlertType
	serviceType model.ServiceType
}

// Checker re-evaluates recent job performance on an interval and raises
// drift alerts. An alert for a service type and kind stays quiet for
// RepeatAlertHours after it was delivered.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
	now       func() time.Time

	mu     sync.Mutex
	raised map[alertKey]time.Time
}

// NewChecker creates a Checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		now:       time.Now,
		raised:    make(map[alertKey]time.Time),
	}
}

// Run checks immediately and then once per interval (default one hour)
// until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	log := zap.L().With(zap.String("component", "monitoring.drift"))
	log.Info("watching job performance drift",
		zap.Duration("interval", interval),
		zap.Int("lookback_days", c.cfg.LookbackDays),
		zap.Int("min_jobs", c.cfg.MinJobs),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = c.Check(ctx)
		select {
		case <-ctx.Done():
			log.Info("drift watch stopped")
			return
		case <-ticker.C:
		}
	}
}

// Check evaluates the lookback window once and delivers the alerts that are
// not inside their quiet period. It returns those alerts.
func (c *Checker) Check(ctx context.Context) ([]Alert, error) {
	log := zap.L().With(zap.String("component", "monitoring.drift"))

	snap, err := c.collector.Collect(ctx, c.cfg.LookbackDays)
	if err != nil {
		log.Error("monitoring: load completed jobs", zap.Error(err))
		return nil, err
	}

	due := c.due(c.alerter.Evaluate(snap))
	if len(due) == 0 {
		log.Debug("monitoring: performance within bounds",
			zap.Int("jobs", snap.Jobs),
			zap.Int("service_types", len(snap.Summaries)),
		)
		return nil, nil
	}

	delivered := 0
	for _, a := range due {
		// Undelivered alerts are retried on the next check.
		if c.cfg.WebhookURL != "" && c.alerter.SendAlerts(ctx, []Alert{a}) == 0 {
			continue
		}
		c.markRaised(a)
		delivered++
	}

	log.Info("monitoring: drift alerts raised",
		zap.Int("jobs", snap.Jobs),
		zap.Int("alerts", len(due)),
		zap.Int("delivered", delivered),
	)
	return due, nil
}

// due drops alerts whose service type and kind were raised within the
// repeat window.
func (c *Checker) due(alerts []Alert) []Alert {
	quiet := time.Duration(c.cfg.RepeatAlertHours) * time.Hour
	if quiet <= 0 {
		return alerts
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Alert
	for _, a := range alerts {
		last, ok := c.raised[alertKey{a.Type, a.ServiceType}]
		if ok && now.Sub(last) < quiet {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (c *Checker) markRaised(a Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raised[alertKey{a.Type, a.ServiceType}] = c.now()
}
