// Package report renders service templates and job performance as terminal
// tables and XLSX workbooks.
package report

import (
	"slices"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// ServiceSummary averages the performance of one service type's jobs.
type ServiceSummary struct {
	ServiceType           model.ServiceType `json:"service_type"`
	Jobs                  int               `json:"jobs"`
	AvgAccuracy           float64           `json:"avg_accuracy"`
	AvgEfficiency         float64           `json:"avg_efficiency"`
	AvgProfitability      float64           `json:"avg_profitability"`
	AvgOverall            float64           `json:"avg_overall"`
	AvgActualMargin       float64           `json:"avg_actual_margin_percent"`
	AvgProductionVariance float64           `json:"avg_production_variance_percent"`
	ReworkJobs            int               `json:"rework_jobs"`
	SafetyIncidents       int               `json:"safety_incidents"`
}

// Summarize groups jobs by service type. Output is ordered by service type.
func Summarize(jobs []model.HistoricalJob) []ServiceSummary {
	acc := make(map[model.ServiceType]*ServiceSummary)
	for _, j := range jobs {
		s, ok := acc[j.ServiceType]
		if !ok {
			s = &ServiceSummary{ServiceType: j.ServiceType}
			acc[j.ServiceType] = s
		}
		p := j.Performance
		s.Jobs++
		s.AvgAccuracy += p.AccuracyScore
		s.AvgEfficiency += p.EfficiencyScore
		s.AvgProfitability += p.ProfitabilityScore
		s.AvgOverall += p.OverallPerformanceScore
		s.AvgActualMargin += p.ActualMarginPercent
		s.AvgProductionVariance += p.ProductionVariancePercent
		if p.Quality.ReworkRequired {
			s.ReworkJobs++
		}
		s.SafetyIncidents += p.Quality.SafetyIncidents
	}

	out := make([]ServiceSummary, 0, len(acc))
	for _, s := range acc {
		n := float64(s.Jobs)
		s.AvgAccuracy /= n
		s.AvgEfficiency /= n
		s.AvgProfitability /= n
		s.AvgOverall /= n
		s.AvgActualMargin /= n
		s.AvgProductionVariance /= n
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b ServiceSummary) int {
		switch {
		case a.ServiceType < b.ServiceType:
			return -1
		case a.ServiceType > b.ServiceType:
			return 1
		}
		return 0
	})
	return out
}
