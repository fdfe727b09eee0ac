package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

func baseEstimate() model.JobEstimate {
	return model.JobEstimate{
		ServiceType:         model.ServiceForestryMulching,
		ProductionHours:     8,
		TransportHours:      1,
		BufferHours:         1,
		TargetMarginPercent: 35,
		TotalCost:           1300,
		TotalPrice:          2000,
	}
}

func matchingActual() model.JobActual {
	return model.JobActual{
		ProductionHours: 8,
		TransportHours:  1,
		BufferHours:     1,
		LaborCost:       800,
		EquipmentCost:   400,
		OverheadCost:    100,
		Revenue:         2000,
		Conditions:      model.SiteConditions{Weather: "rain", AccessDifficulty: "moderate", GroundCondition: "wet"},
		Quality:         model.QualityFlags{CustomerSatisfaction: 5},
	}
}

func TestScore_ExactMatch(t *testing.T) {
	t.Parallel()

	rec := Score(baseEstimate(), matchingActual())

	assert.InDelta(t, 0.0, rec.ProductionVariancePercent, 1e-9)
	assert.InDelta(t, 0.0, rec.TotalCostVariancePercent, 1e-9)
	assert.InDelta(t, 100.0, rec.AccuracyScore, 1e-9)
	assert.InDelta(t, 100.0, rec.EfficiencyScore, 1e-9)
	assert.InDelta(t, 100.0, rec.ProfitabilityScore, 1e-9)
	assert.InDelta(t, 100.0, rec.OverallPerformanceScore, 1e-9)
	assert.InDelta(t, 35.0, rec.ActualMarginPercent, 1e-9)
	assert.InDelta(t, 700.0, rec.TargetProfit, 1e-9)
	assert.InDelta(t, 700.0, rec.ActualProfit, 1e-9)
}

func TestScore_HoursOverrun(t *testing.T) {
	t.Parallel()

	act := matchingActual()
	act.ProductionHours = 10 // 12 total vs 10 estimated

	rec := Score(baseEstimate(), act)
	assert.InDelta(t, 10.0, rec.EstimatedTotalHours, 1e-9)
	assert.InDelta(t, 12.0, rec.ActualTotalHours, 1e-9)
	assert.InDelta(t, 20.0, rec.ProductionVariancePercent, 1e-9)
	assert.InDelta(t, 80.0, rec.AccuracyScore, 1e-9)
	assert.InDelta(t, 25.0, rec.ProductionHoursVariance, 1e-9)
	assert.InDelta(t, 0.0, rec.TransportHoursVariance, 1e-9)
}

func TestScore_UnderrunPenalizedLikeOverrun(t *testing.T) {
	t.Parallel()

	act := matchingActual()
	act.ProductionHours = 6 // 8 total vs 10
	rec := Score(baseEstimate(), act)
	assert.InDelta(t, -20.0, rec.ProductionVariancePercent, 1e-9)
	assert.InDelta(t, 80.0, rec.AccuracyScore, 1e-9)
}

func TestScore_ZeroEstimateGuards(t *testing.T) {
	t.Parallel()

	rec := Score(model.JobEstimate{}, matchingActual())
	assert.Zero(t, rec.ProductionVariancePercent)
	assert.Zero(t, rec.TotalCostVariancePercent)
	assert.Zero(t, rec.ProfitVariancePercent)
	assert.Zero(t, rec.ProfitabilityScore, "no target margin to score against")
	assert.InDelta(t, 100.0, rec.AccuracyScore, 1e-9)
}

func TestScore_ProfitVariance(t *testing.T) {
	t.Parallel()

	act := matchingActual()
	act.Revenue = 1650 // profit 350 vs target 700

	rec := Score(baseEstimate(), act)
	assert.InDelta(t, -50.0, rec.ProfitVariancePercent, 1e-9)
	assert.InDelta(t, 350.0/1650*100, rec.ActualMarginPercent, 1e-9)
	assert.InDelta(t, (350.0/1650*100)/35*100, rec.ProfitabilityScore, 1e-9)
	assert.InDelta(t, -17.5, rec.RevenueVariancePercent, 1e-9)
}

func TestScore_ClampsScores(t *testing.T) {
	t.Parallel()

	act := matchingActual()
	act.ProductionHours = 100 // far past estimate
	act.LaborCost = 50000
	act.Revenue = 0

	rec := Score(baseEstimate(), act)
	assert.Zero(t, rec.AccuracyScore)
	assert.Zero(t, rec.EfficiencyScore)
	assert.Zero(t, rec.ActualMarginPercent, "no revenue, no margin")
	assert.Zero(t, rec.ProfitabilityScore)
	assert.Zero(t, rec.OverallPerformanceScore)
}

func TestScore_NegativeMarginClampsProfitability(t *testing.T) {
	t.Parallel()

	act := matchingActual()
	act.Revenue = 1000 // loss of 300
	rec := Score(baseEstimate(), act)
	assert.Less(t, rec.ActualMarginPercent, 0.0)
	assert.Zero(t, rec.ProfitabilityScore)
}

func TestScore_ExceedingTargetCapsAt100(t *testing.T) {
	t.Parallel()

	act := matchingActual()
	act.Revenue = 4000
	rec := Score(baseEstimate(), act)
	assert.InDelta(t, 100.0, rec.ProfitabilityScore, 1e-9)
}

func TestScore_CopiesContext(t *testing.T) {
	t.Parallel()

	act := matchingActual()
	act.Quality.ReworkRequired = true
	rec := Score(baseEstimate(), act)
	assert.Equal(t, act.Conditions, rec.Conditions)
	assert.Equal(t, act.Quality, rec.Quality)
}

func TestScore_AlwaysInRange(t *testing.T) {
	t.Parallel()

	for _, hours := range []float64{0, 0.5, 5, 8, 20, 500} {
		for _, revenue := range []float64{-100, 0, 500, 2000, 1e6} {
			act := matchingActual()
			act.ProductionHours = hours
			act.Revenue = revenue
			rec := Score(baseEstimate(), act)
			for _, s := range []float64{rec.AccuracyScore, rec.EfficiencyScore, rec.ProfitabilityScore, rec.OverallPerformanceScore} {
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 100.0)
			}
		}
	}
}
