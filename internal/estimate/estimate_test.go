package estimate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeshoptech/treeshop-app-sub001/internal/complexity"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

func testCatalog() complexity.Catalog {
	return complexity.NewCatalog([]model.ComplexityFactor{
		{ID: "gate", Category: model.CategoryAccess, ImpactPercentage: 0.12, Active: true},
		{ID: "lines", Category: model.CategoryFacilities, ImpactPercentage: 0.30, Active: true},
		{ID: "decayed", Category: model.CategoryIrregularities, ImpactPercentage: -0.15, Active: true},
	})
}

func TestBuild(t *testing.T) {
	t.Parallel()

	got, err := Build(Input{
		ServiceType:         model.ServiceForestryMulching,
		BaselineScore:       100,
		FactorIDs:           []string{"gate", "lines", "unknown"},
		PPH:                 20,
		TransportHours:      1,
		BufferPercent:       10,
		CostPerHour:         150,
		TargetMarginPercent: 40,
	}, testCatalog())
	require.NoError(t, err)

	assert.InDelta(t, 1.42, got.ComplexityMultiplier, 1e-12)
	assert.InDelta(t, 142, got.AdjustedScore, 1e-9)
	assert.InDelta(t, 7.1, got.ProductionHours, 1e-9)
	assert.InDelta(t, 0.81, got.BufferHours, 1e-9) // (7.1 + 1) * 10%
	assert.InDelta(t, 8.91, got.TotalHours(), 1e-9)
	assert.InDelta(t, 250, got.BillingRatePerHour, 1e-9)
	assert.InDelta(t, 1336.5, got.TotalCost, 1e-9)
	assert.InDelta(t, 2227.5, got.TotalPrice, 1e-9)
	assert.Equal(t, []string{"gate", "lines"}, got.FactorIDs)
	assert.Equal(t, model.ServiceForestryMulching, got.ServiceType)
}

func TestBuild_NoFactorsNoBuffer(t *testing.T) {
	t.Parallel()

	got, err := Build(Input{BaselineScore: 50, PPH: 10, CostPerHour: 100, BillingRate: 180}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.ComplexityMultiplier)
	assert.InDelta(t, 5, got.TotalHours(), 1e-9)
	assert.InDelta(t, 500, got.TotalCost, 1e-9)
	assert.InDelta(t, 900, got.TotalPrice, 1e-9)
	assert.Zero(t, got.BufferHours)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"zero pph", Input{BaselineScore: 10, PPH: 0, CostPerHour: 100}, model.ErrInvalidConfiguration},
		{"negative transport", Input{BaselineScore: 10, PPH: 5, TransportHours: -1}, model.ErrInvalidConfiguration},
		{"negative buffer", Input{BaselineScore: 10, PPH: 5, BufferPercent: -5}, model.ErrInvalidConfiguration},
		{"margin at 100", Input{BaselineScore: 10, PPH: 5, CostPerHour: 100, TargetMarginPercent: 100}, model.ErrInvalidMargin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Build(tt.in, testCatalog())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestFromTemplate(t *testing.T) {
	t.Parallel()

	tmpl := model.ServiceTemplate{
		ServiceType:         model.ServiceStumpGrinding,
		StandardPPH:         400,
		StandardCostPerHour: 120,
		StandardBillingRate: 200,
		TargetMarginPercent: 40,
	}
	in := FromTemplate(tmpl, 2000, []string{"decayed"}, 0.5)
	assert.Equal(t, DefaultBufferPercent, in.BufferPercent)

	got, err := Build(in, testCatalog())
	require.NoError(t, err)
	// 2000 * 0.85 / 400 = 4.25 h; buffer (4.25 + 0.5) * 10% = 0.475
	assert.InDelta(t, 4.25, got.ProductionHours, 1e-9)
	assert.InDelta(t, 5.225, got.TotalHours(), 1e-9)
	assert.InDelta(t, 627, got.TotalCost, 1e-9)
	assert.InDelta(t, 1045, got.TotalPrice, 1e-9)
}

func TestRoundCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01},
		{2.344, 2.34},
		{-1.005, -1.01},
		{0, 0},
		{1336.4999, 1336.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundCents(tt.in), 1e-12, "%v", tt.in)
	}
}
