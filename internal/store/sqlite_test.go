package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

// --- Factors ---

func TestSQLite_Factors_UpsertListDeactivate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	factors := []model.ComplexityFactor{
		{ID: "access_narrow_gate", Name: "Narrow gate", Category: model.CategoryAccess, ImpactPercentage: 0.12, Active: true},
		{ID: "irregular_decayed_stump", Name: "Decayed stump", Category: model.CategoryIrregularities, ImpactPercentage: -0.15,
			ApplicableServiceTypes: []model.ServiceType{model.ServiceStumpGrinding}, Active: true},
	}
	n, err := st.UpsertFactors(ctx, factors)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Re-upsert updates in place.
	factors[0].ImpactPercentage = 0.14
	_, err = st.UpsertFactors(ctx, factors[:1])
	require.NoError(t, err)

	got, err := st.ListFactors(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "access_narrow_gate", got[0].ID)
	assert.InDelta(t, 0.14, got[0].ImpactPercentage, 1e-9)
	assert.Nil(t, got[0].ApplicableServiceTypes)
	assert.Equal(t, []model.ServiceType{model.ServiceStumpGrinding}, got[1].ApplicableServiceTypes)
	assert.True(t, got[1].Active)

	require.NoError(t, st.DeactivateFactor(ctx, "irregular_decayed_stump"))
	got, err = st.ListFactors(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2, "deactivation keeps the row")
	assert.False(t, got[1].Active)

	err = st.DeactivateFactor(ctx, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSQLite_UpsertFactors_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	n, err := st.UpsertFactors(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// --- Jobs ---

func sampleJob(st model.ServiceType) *model.Job {
	return &model.Job{
		ServiceType: st,
		Estimate: model.JobEstimate{
			ServiceType:        st,
			ProductionHours:    10,
			TransportHours:     1,
			BufferHours:        1.1,
			CostPerHour:        200,
			BillingRatePerHour: 307.69,
			TotalCost:          2420,
			TotalPrice:         3723.05,
		},
	}
}

func TestSQLite_CreateAndGetJob(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	job := sampleJob(model.ServiceForestryMulching)
	require.NoError(t, st.CreateJob(ctx, job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusEstimate, job.Status)
	assert.False(t, job.CreatedAt.IsZero())

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.InDelta(t, 10.0, got.Estimate.ProductionHours, 1e-9)
	assert.Nil(t, got.Actual)

	_, err = st.GetJob(ctx, "nope")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSQLite_CreateJob_InvalidServiceType(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.CreateJob(context.Background(), &model.Job{ServiceType: "snow_removal"})
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}

func TestSQLite_CompleteJob_Once(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	job := sampleJob(model.ServiceStumpGrinding)
	require.NoError(t, st.CreateJob(ctx, job))

	completedAt := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	actual := model.JobActual{ProductionHours: 12, LaborCost: 1500, Revenue: 3700, CompletedAt: completedAt}
	record := model.JobPerformanceRecord{ProductionVariancePercent: 20, OverallPerformanceScore: 80}

	require.NoError(t, st.CompleteJob(ctx, job.ID, actual, record))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	require.NotNil(t, got.Actual)
	require.NotNil(t, got.Performance)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completedAt.Equal(*got.CompletedAt))
	assert.InDelta(t, 20.0, got.Performance.ProductionVariancePercent, 1e-9)

	err = st.CompleteJob(ctx, job.ID, model.JobActual{ProductionHours: 1}, model.JobPerformanceRecord{})
	assert.True(t, errors.Is(err, model.ErrAlreadyCompleted))

	got, err = st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, got.Actual.ProductionHours, 1e-9, "first completion is kept")

	err = st.CompleteJob(ctx, "missing", actual, record)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSQLite_ListCompletedJobs_Filter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	complete := func(stype model.ServiceType, at time.Time) string {
		job := sampleJob(stype)
		require.NoError(t, st.CreateJob(ctx, job))
		require.NoError(t, st.CompleteJob(ctx, job.ID, model.JobActual{ProductionHours: 5, CompletedAt: at}, model.JobPerformanceRecord{}))
		return job.ID
	}

	early := complete(model.ServiceForestryMulching, base)
	mid := complete(model.ServiceForestryMulching, base.Add(48*time.Hour))
	complete(model.ServiceStumpGrinding, base.Add(24*time.Hour))
	open := sampleJob(model.ServiceForestryMulching)
	require.NoError(t, st.CreateJob(ctx, open))

	all, err := st.ListCompletedJobs(ctx, JobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mulch, err := st.ListCompletedJobs(ctx, JobFilter{ServiceType: model.ServiceForestryMulching})
	require.NoError(t, err)
	require.Len(t, mulch, 2)
	assert.Equal(t, early, mulch[0].JobID)
	assert.Equal(t, mid, mulch[1].JobID)

	window, err := st.ListCompletedJobs(ctx, JobFilter{
		ServiceType: model.ServiceForestryMulching,
		Since:       base.Add(time.Hour),
		Until:       base.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, mid, window[0].JobID)

	limited, err := st.ListCompletedJobs(ctx, JobFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

// --- Templates ---

func TestSQLite_Templates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetTemplate(ctx, model.ServiceTreeRemoval)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	tmpl := model.ServiceTemplate{ServiceType: model.ServiceTreeRemoval, StandardPPH: 300, TargetMarginPercent: 40}
	require.NoError(t, st.UpsertTemplate(ctx, tmpl))

	got, err := st.GetTemplate(ctx, model.ServiceTreeRemoval)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, got.StandardPPH, 1e-9)

	require.NoError(t, st.UpsertTemplate(ctx, model.ServiceTemplate{ServiceType: model.ServiceForestryMulching}))
	list, err := st.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.ServiceForestryMulching, list[0].ServiceType)

	err = st.UpsertTemplate(ctx, model.ServiceTemplate{ServiceType: "bogus"})
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}

func TestSQLite_ApplyCalibration(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := model.RecalibrationResult{
		ServiceType:         model.ServiceForestryMulching,
		StandardPPH:         1.8,
		StandardCostPerHour: 210,
		StandardBillingRate: 330,
		ConfidenceScore:     63.2,
		TotalJobsInAverage:  10,
		CalculatedAt:        at,
	}

	// Missing template is created with the default margin.
	created, err := st.ApplyCalibration(ctx, res, 35)
	require.NoError(t, err)
	assert.InDelta(t, 35.0, created.TargetMarginPercent, 1e-9)
	assert.InDelta(t, 1.8, created.StandardPPH, 1e-9)

	// Existing target margin survives recalibration.
	created.TargetMarginPercent = 42
	require.NoError(t, st.UpsertTemplate(ctx, created))
	res.StandardPPH = 2.0
	updated, err := st.ApplyCalibration(ctx, res, 35)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, updated.TargetMarginPercent, 1e-9)
	assert.InDelta(t, 2.0, updated.StandardPPH, 1e-9)

	got, err := st.GetTemplate(ctx, model.ServiceForestryMulching)
	require.NoError(t, err)
	assert.Equal(t, updated.StandardPPH, got.StandardPPH)
	require.NotNil(t, got.LastRecalculated)
	assert.True(t, at.Equal(*got.LastRecalculated))
}

func TestSQLite_ApplyCalibration_Concurrent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, stype := range model.ServiceTypes {
		wg.Add(1)
		go func(stype model.ServiceType) {
			defer wg.Done()
			_, err := st.ApplyCalibration(ctx, model.RecalibrationResult{ServiceType: stype, StandardPPH: 1}, 35)
			assert.NoError(t, err)
		}(stype)
	}
	wg.Wait()

	list, err := st.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(model.ServiceTypes))
}
