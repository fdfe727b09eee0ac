// Package scorer measures how far a completed job drifted from its estimate
// and turns that drift into 0-100 accuracy, efficiency, and profitability scores.
package scorer

import (
	"math"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Score compares a job's estimate to its actuals. It is pure and
// deterministic; the caller supplies the scoring timestamp via ScoredAt
// on the returned record if it needs one.
func Score(est model.JobEstimate, act model.JobActual) model.JobPerformanceRecord {
	estHours := est.TotalHours()
	actHours := act.TotalHours()
	estCost := est.TotalCost
	actCost := act.TotalCost()

	targetProfit := est.TargetProfit()
	actualProfit := act.Profit()

	var actualMargin float64
	if act.Revenue > 0 {
		actualMargin = actualProfit / act.Revenue * 100
	}

	prodVar := variancePercent(actHours, estHours)
	costVar := variancePercent(actCost, estCost)

	var profitVar float64
	if targetProfit > 0 {
		profitVar = (actualProfit - targetProfit) / targetProfit * 100
	}

	accuracy := scoreFromVariance(prodVar)
	efficiency := scoreFromVariance(costVar)
	profitability := scoreProfitability(actualMargin, est.TargetMarginPercent)

	return model.JobPerformanceRecord{
		EstimatedTotalHours:       estHours,
		ActualTotalHours:          actHours,
		ProductionVariancePercent: prodVar,
		ProductionHoursVariance:   variancePercent(act.ProductionHours, est.ProductionHours),
		TransportHoursVariance:    variancePercent(act.TransportHours, est.TransportHours),
		BufferHoursVariance:       variancePercent(act.BufferHours, est.BufferHours),

		EstimatedTotalCost:       estCost,
		ActualTotalCost:          actCost,
		TotalCostVariancePercent: costVar,
		RevenueVariancePercent:   variancePercent(act.Revenue, est.TotalPrice),

		TargetProfit:          targetProfit,
		ActualProfit:          actualProfit,
		ProfitVariancePercent: profitVar,
		TargetMarginPercent:   est.TargetMarginPercent,
		ActualMarginPercent:   actualMargin,

		AccuracyScore:           accuracy,
		EfficiencyScore:         efficiency,
		ProfitabilityScore:      profitability,
		OverallPerformanceScore: (accuracy + efficiency + profitability) / 3,

		Conditions: act.Conditions,
		Quality:    act.Quality,
	}
}

// variancePercent is (actual - estimated) / estimated × 100, or 0 when
// nothing was estimated: a zero estimate cannot be missed.
func variancePercent(actual, estimated float64) float64 {
	if estimated == 0 {
		return 0
	}
	return (actual - estimated) / estimated * 100
}

// scoreFromVariance maps a variance to 100 - |variance|, clamped to [0,100].
// Overruns and underruns are penalized alike.
func scoreFromVariance(v float64) float64 {
	return clamp(100 - math.Abs(v))
}

// scoreProfitability is 100 when the target margin is met, otherwise the
// fraction of it achieved. A non-positive target cannot be scored against.
func scoreProfitability(actualMargin, targetMargin float64) float64 {
	if targetMargin <= 0 {
		return 0
	}
	if actualMargin >= targetMargin {
		return 100
	}
	return clamp(actualMargin / targetMargin * 100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
