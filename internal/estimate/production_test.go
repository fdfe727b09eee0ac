package estimate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

func TestMulchingScore(t *testing.T) {
	t.Parallel()
	got, err := MulchingScore(3.5, 6)
	require.NoError(t, err)
	assert.InDelta(t, 21, got, 1e-9)

	_, err = MulchingScore(-1, 6)
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}

func TestStumpScore(t *testing.T) {
	t.Parallel()
	got, err := StumpScore([]Stump{
		{DiameterInches: 24, HeightAboveInches: 6, DepthBelowInches: 12}, // 576 * 18 = 10368
		{DiameterInches: 10, HeightAboveInches: 2, DepthBelowInches: 8},  // 100 * 10 = 1000
	})
	require.NoError(t, err)
	assert.InDelta(t, 11368, got, 1e-9)

	empty, err := StumpScore(nil)
	require.NoError(t, err)
	assert.Zero(t, empty)

	_, err = StumpScore([]Stump{{DiameterInches: -3}})
	assert.Error(t, err)
}

func TestStumpScore_MinimumOnePerStump(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		stumps []Stump
		want   float64
	}{
		{"tiny stump", []Stump{{DiameterInches: 0.5, DepthBelowInches: 1}}, 1},
		{"flush stump", []Stump{{DiameterInches: 12}}, 1},
		{"zero sized", []Stump{{}}, 1},
		{"tiny plus normal", []Stump{{DiameterInches: 0.5, DepthBelowInches: 1}, {DiameterInches: 10, HeightAboveInches: 2, DepthBelowInches: 8}}, 1001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := StumpScore(tt.stumps)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestTreeRemovalAndTrimmingScore(t *testing.T) {
	t.Parallel()
	removal, err := TreeRemovalScore(60, 24, 15)
	require.NoError(t, err)
	assert.InDelta(t, 60*2*225, removal, 1e-9)

	trim, err := TrimmingScore(60, 24, 15, 0.3)
	require.NoError(t, err)
	assert.InDelta(t, removal*0.3, trim, 1e-9)

	_, err = TrimmingScore(60, 24, 15, 1.5)
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}

func TestClearingScore(t *testing.T) {
	t.Parallel()
	got, err := ClearingScore(4, 2)
	require.NoError(t, err)
	assert.InDelta(t, 8, got, 1e-9)
}

func TestBaselineScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		st   model.ServiceType
		m    Measurements
		want float64
	}{
		{"mulching", model.ServiceForestryMulching, Measurements{Acres: 2, DBHPackageInches: 8}, 16},
		{"stumps", model.ServiceStumpGrinding, Measurements{Stumps: []Stump{{DiameterInches: 10, HeightAboveInches: 2, DepthBelowInches: 8}}}, 1000},
		{"clearing", model.ServiceLandClearing, Measurements{Acres: 4, Density: 2}, 8},
		{"removal", model.ServiceTreeRemoval, Measurements{HeightFeet: 60, DBHInches: 24, CrownRadiusFeet: 10}, 12000},
		{"trimming", model.ServiceTreeTrimming, Measurements{HeightFeet: 60, DBHInches: 24, CrownRadiusFeet: 10, TrimFraction: 0.25}, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BaselineScore(tt.st, tt.m)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := BaselineScore("snow_removal", Measurements{})
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}
