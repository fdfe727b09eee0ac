package model

import "time"

// JobStatus tracks a job through estimate, work order, and completion.
type JobStatus string

const (
	JobStatusEstimate  JobStatus = "estimate"
	JobStatusWorkOrder JobStatus = "work_order"
	JobStatusCompleted JobStatus = "completed"
)

// JobEstimate is the priced estimate persisted with a job.
type JobEstimate struct {
	ServiceType          ServiceType `json:"service_type"`
	FactorIDs            []string    `json:"factor_ids,omitempty"`
	BaselineScore        float64     `json:"baseline_score"`
	ComplexityMultiplier float64     `json:"complexity_multiplier"`
	AdjustedScore        float64     `json:"adjusted_score"`
	PPH                  float64     `json:"pph"`
	ProductionHours      float64     `json:"production_hours"`
	TransportHours       float64     `json:"transport_hours"`
	BufferPercent        float64     `json:"buffer_percent"`
	BufferHours          float64     `json:"buffer_hours"`
	CostPerHour          float64     `json:"cost_per_hour"`
	BillingRatePerHour   float64     `json:"billing_rate_per_hour"`
	TargetMarginPercent  float64     `json:"target_margin_percent"`
	TotalCost            float64     `json:"total_cost"`
	TotalPrice           float64     `json:"total_price"`
}

// TotalHours is production + transport + buffer.
func (e JobEstimate) TotalHours() float64 {
	return e.ProductionHours + e.TransportHours + e.BufferHours
}

// TargetProfit is the profit the estimate was priced for.
func (e JobEstimate) TargetProfit() float64 {
	return e.TotalPrice - e.TotalCost
}

// SiteConditions are observations recorded at completion. They are stored
// verbatim for correlation analysis and are never interpreted numerically.
type SiteConditions struct {
	Weather          string `json:"weather,omitempty"`
	AccessDifficulty string `json:"access_difficulty,omitempty"`
	GroundCondition  string `json:"ground_condition,omitempty"`
}

// QualityFlags capture rework, safety, and satisfaction outcomes.
type QualityFlags struct {
	ReworkRequired       bool `json:"rework_required"`
	SafetyIncidents      int  `json:"safety_incidents"`
	CustomerSatisfaction int  `json:"customer_satisfaction,omitempty"` // 1-5, 0 = not collected
}

// JobActual holds what really happened on a job. Created once, at completion.
type JobActual struct {
	UnitsCompleted  float64        `json:"units_completed"`
	ProductionHours float64        `json:"production_hours"`
	TransportHours  float64        `json:"transport_hours"`
	BufferHours     float64        `json:"buffer_hours"`
	LaborCost       float64        `json:"labor_cost"`
	EquipmentCost   float64        `json:"equipment_cost"`
	OverheadCost    float64        `json:"overhead_cost"`
	Revenue         float64        `json:"revenue"`
	Conditions      SiteConditions `json:"conditions"`
	Quality         QualityFlags   `json:"quality"`
	CompletedAt     time.Time      `json:"completed_at"`
}

// TotalHours is production + transport + buffer.
func (a JobActual) TotalHours() float64 {
	return a.ProductionHours + a.TransportHours + a.BufferHours
}

// TotalCost is labor + equipment + overhead.
func (a JobActual) TotalCost() float64 {
	return a.LaborCost + a.EquipmentCost + a.OverheadCost
}

// Profit is revenue minus total cost.
func (a JobActual) Profit() float64 {
	return a.Revenue - a.TotalCost()
}

// JobPerformanceRecord is derived from an (estimate, actual) pair and never mutated.
type JobPerformanceRecord struct {
	EstimatedTotalHours       float64 `json:"estimated_total_hours"`
	ActualTotalHours          float64 `json:"actual_total_hours"`
	ProductionVariancePercent float64 `json:"production_variance_percent"`
	ProductionHoursVariance   float64 `json:"production_hours_variance_percent"`
	TransportHoursVariance    float64 `json:"transport_hours_variance_percent"`
	BufferHoursVariance       float64 `json:"buffer_hours_variance_percent"`

	EstimatedTotalCost       float64 `json:"estimated_total_cost"`
	ActualTotalCost          float64 `json:"actual_total_cost"`
	TotalCostVariancePercent float64 `json:"total_cost_variance_percent"`
	RevenueVariancePercent   float64 `json:"revenue_variance_percent"`

	TargetProfit          float64 `json:"target_profit"`
	ActualProfit          float64 `json:"actual_profit"`
	ProfitVariancePercent float64 `json:"profit_variance_percent"`
	TargetMarginPercent   float64 `json:"target_margin_percent"`
	ActualMarginPercent   float64 `json:"actual_margin_percent"`

	AccuracyScore           float64 `json:"accuracy_score"`
	EfficiencyScore         float64 `json:"efficiency_score"`
	ProfitabilityScore      float64 `json:"profitability_score"`
	OverallPerformanceScore float64 `json:"overall_performance_score"`

	Conditions SiteConditions `json:"conditions"`
	Quality    QualityFlags   `json:"quality"`
	ScoredAt   time.Time      `json:"scored_at"`
}

// Job ties an estimate to its eventual actuals and performance record.
type Job struct {
	ID          string                `json:"id"`
	ServiceType ServiceType           `json:"service_type"`
	Status      JobStatus             `json:"status"`
	Estimate    JobEstimate           `json:"estimate"`
	Actual      *JobActual            `json:"actual,omitempty"`
	Performance *JobPerformanceRecord `json:"performance,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// HistoricalJob is the calibration view of a completed job.
type HistoricalJob struct {
	JobID       string               `json:"job_id"`
	ServiceType ServiceType          `json:"service_type"`
	Status      JobStatus            `json:"status"`
	Actual      JobActual            `json:"actual"`
	Performance JobPerformanceRecord `json:"performance"`
}

// Historical returns the job as calibration input. ok is false until the job
// has been completed and scored.
func (j Job) Historical() (h HistoricalJob, ok bool) {
	if j.Actual == nil || j.Performance == nil {
		return HistoricalJob{}, false
	}
	return HistoricalJob{
		JobID:       j.ID,
		ServiceType: j.ServiceType,
		Status:      j.Status,
		Actual:      *j.Actual,
		Performance: *j.Performance,
	}, true
}
