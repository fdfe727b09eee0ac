// Package calibrate turns completed, scored jobs into updated per-service
// pricing templates.
package calibrate

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Input selects which historical jobs feed a recalculation.
type Input struct {
	ServiceType     model.ServiceType
	MinJobsRequired int
	// Since and Until bound the completion time, inclusive. Zero means unbounded.
	Since time.Time
	Until time.Time
	// ConfidenceScale shapes ConfidenceScore; 0 uses DefaultConfidenceScale.
	ConfidenceScale float64
	// Now stamps the result.
	Now time.Time
}

// Recalculate aggregates the completed jobs in records that match in into a
// new standard production rate, cost/hour and billing rate.
//
// A job counts only if it is completed, matches the service type, falls in
// the window, and logged positive production hours. Fewer than
// MinJobsRequired such jobs returns *model.InsufficientDataError. The result
// depends only on the inputs; calling it twice yields the same output.
func Recalculate(in Input, records []model.HistoricalJob) (model.RecalibrationResult, error) {
	if !in.ServiceType.Valid() {
		return model.RecalibrationResult{}, eris.Wrapf(model.ErrInvalidConfiguration, "calibrate: unknown service type %q", in.ServiceType)
	}
	required := in.MinJobsRequired
	if required < 1 {
		required = 1
	}

	var sumPPH, sumCost, sumBilling float64
	n := 0
	for _, r := range records {
		if !eligible(in, r) {
			continue
		}
		a := r.Actual
		hours := a.TotalHours()
		sumPPH += a.UnitsCompleted / a.ProductionHours
		sumCost += a.TotalCost() / hours
		sumBilling += a.Revenue / hours
		n++
	}

	if n < required {
		return model.RecalibrationResult{}, &model.InsufficientDataError{
			ServiceType: in.ServiceType,
			Count:       n,
			Required:    required,
		}
	}

	count := float64(n)
	res := model.RecalibrationResult{
		ServiceType:         in.ServiceType,
		StandardPPH:         sumPPH / count,
		StandardCostPerHour: sumCost / count,
		StandardBillingRate: sumBilling / count,
		ConfidenceScore:     ConfidenceScore(n, in.ConfidenceScale),
		TotalJobsInAverage:  n,
		CalculatedAt:        in.Now.UTC(),
	}
	if res.StandardBillingRate > 0 {
		res.AchievedMarginPercent = (res.StandardBillingRate - res.StandardCostPerHour) / res.StandardBillingRate * 100
	}
	return res, nil
}

func eligible(in Input, r model.HistoricalJob) bool {
	if r.ServiceType != in.ServiceType || r.Status != model.JobStatusCompleted {
		return false
	}
	at := r.Actual.CompletedAt
	if !in.Since.IsZero() && at.Before(in.Since) {
		return false
	}
	if !in.Until.IsZero() && at.After(in.Until) {
		return false
	}
	// Rates per hour are undefined without logged hours.
	return r.Actual.ProductionHours > 0 && r.Actual.TotalHours() > 0
}
