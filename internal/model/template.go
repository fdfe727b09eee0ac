package model

import "time"

// ServiceTemplate is the standing pricing standard for one service type.
// Only calibration mutates it; every new estimate reads it as a default.
type ServiceTemplate struct {
	ServiceType         ServiceType `json:"service_type"`
	StandardPPH         float64     `json:"standard_pph"`
	StandardCostPerHour float64     `json:"standard_cost_per_hour"`
	StandardBillingRate float64     `json:"standard_billing_rate"`
	TargetMarginPercent float64     `json:"target_margin_percent"`
	ConfidenceScore     float64     `json:"confidence_score"`
	TotalJobsInAverage  int         `json:"total_jobs_in_average"`
	LastRecalculated    *time.Time  `json:"last_recalculated,omitempty"`
}

// RecalibrationResult is the output of a successful template recalculation.
type RecalibrationResult struct {
	ServiceType           ServiceType `json:"service_type"`
	StandardPPH           float64     `json:"standard_pph"`
	StandardCostPerHour   float64     `json:"standard_cost_per_hour"`
	StandardBillingRate   float64     `json:"standard_billing_rate"`
	AchievedMarginPercent float64     `json:"achieved_margin_percent"`
	ConfidenceScore       float64     `json:"confidence_score"`
	TotalJobsInAverage    int         `json:"total_jobs_in_average"`
	CalculatedAt          time.Time   `json:"calculated_at"`
}

// Apply returns a copy of t with the five calibrated fields and the
// recalculation timestamp replaced by r. TargetMarginPercent is kept.
func (t ServiceTemplate) Apply(r RecalibrationResult) ServiceTemplate {
	at := r.CalculatedAt
	t.ServiceType = r.ServiceType
	t.StandardPPH = r.StandardPPH
	t.StandardCostPerHour = r.StandardCostPerHour
	t.StandardBillingRate = r.StandardBillingRate
	t.ConfidenceScore = r.ConfidenceScore
	t.TotalJobsInAverage = r.TotalJobsInAverage
	t.LastRecalculated = &at
	return t
}
