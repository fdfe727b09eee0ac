package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/config"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
	"github.com/treeshoptech/treeshop-app-sub001/internal/report"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertLowPerformance  AlertType = "low_performance"
	AlertMarginShortfall AlertType = "margin_shortfall"
	AlertSafetyIncidents AlertType = "safety_incidents"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type        AlertType         `json:"type"`
	Severity    string            `json:"severity"`
	ServiceType model.ServiceType `json:"service_type"`
	Message     string            `json:"message"`
	Details     map[string]any    `json:"details,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks every service summary in snap and returns any alerts.
// Service types with fewer than MinJobs jobs are only checked for safety
// incidents.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	for _, s := range snap.Summaries {
		name := report.ServiceName(s.ServiceType)

		if s.SafetyIncidents > 0 {
			alerts = append(alerts, Alert{
				Type:        AlertSafetyIncidents,
				Severity:    "high",
				ServiceType: s.ServiceType,
				Message:     fmt.Sprintf("%s: %d safety incident(s) in last %dd", name, s.SafetyIncidents, snap.LookbackDays),
				Details:     map[string]any{"incidents": s.SafetyIncidents, "jobs": s.Jobs},
				Timestamp:   now,
			})
		}

		if s.Jobs < a.cfg.MinJobs {
			continue
		}

		if a.cfg.ScoreThreshold > 0 && s.AvgOverall < a.cfg.ScoreThreshold {
			alerts = append(alerts, Alert{
				Type:        AlertLowPerformance,
				Severity:    "medium",
				ServiceType: s.ServiceType,
				Message: fmt.Sprintf("%s: average performance score %.1f below threshold %.1f (%d jobs in last %dd)",
					name, s.AvgOverall, a.cfg.ScoreThreshold, s.Jobs, snap.LookbackDays),
				Details: map[string]any{
					"avg_overall":    s.AvgOverall,
					"avg_accuracy":   s.AvgAccuracy,
					"avg_efficiency": s.AvgEfficiency,
					"threshold":      a.cfg.ScoreThreshold,
					"jobs":           s.Jobs,
				},
				Timestamp: now,
			})
		}

		target, ok := snap.Targets[s.ServiceType]
		if ok && s.AvgActualMargin < target-a.cfg.MarginShortfallPoints {
			alerts = append(alerts, Alert{
				Type:        AlertMarginShortfall,
				Severity:    "high",
				ServiceType: s.ServiceType,
				Message: fmt.Sprintf("%s: average margin %.1f%% is %.1f points under target %.1f%%",
					name, s.AvgActualMargin, target-s.AvgActualMargin, target),
				Details: map[string]any{
					"avg_margin": s.AvgActualMargin,
					"target":     target,
					"jobs":       s.Jobs,
				},
				Timestamp: now,
			})
		}
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.String("service_type", string(alert.ServiceType)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("service_type", string(alert.ServiceType)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
