package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

func historical(id string, st model.ServiceType, overall, margin float64, rework bool) model.HistoricalJob {
	return model.HistoricalJob{
		JobID:       id,
		ServiceType: st,
		Status:      model.JobStatusCompleted,
		Actual: model.JobActual{
			Revenue:     1000,
			CompletedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		Performance: model.JobPerformanceRecord{
			AccuracyScore:           overall,
			EfficiencyScore:         overall,
			ProfitabilityScore:      overall,
			OverallPerformanceScore: overall,
			ActualMarginPercent:     margin,
			Quality:                 model.QualityFlags{ReworkRequired: rework, SafetyIncidents: 1},
		},
	}
}

func TestSummarize(t *testing.T) {
	sums := Summarize([]model.HistoricalJob{
		historical("a", model.ServiceTreeRemoval, 80, 30, false),
		historical("b", model.ServiceStumpGrinding, 90, 40, true),
		historical("c", model.ServiceTreeRemoval, 60, 20, true),
	})

	require.Len(t, sums, 2)
	assert.Equal(t, model.ServiceStumpGrinding, sums[0].ServiceType)
	assert.Equal(t, model.ServiceTreeRemoval, sums[1].ServiceType)

	tr := sums[1]
	assert.Equal(t, 2, tr.Jobs)
	assert.InDelta(t, 70.0, tr.AvgOverall, 1e-9)
	assert.InDelta(t, 25.0, tr.AvgActualMargin, 1e-9)
	assert.Equal(t, 1, tr.ReworkJobs)
	assert.Equal(t, 2, tr.SafetyIncidents)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12.5, "$12.50"},
		{1234567.891, "$1,234,567.89"},
		{-40, "-$40.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Money(tt.in))
	}
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "Stump Grinding", ServiceName(model.ServiceStumpGrinding))
	assert.Equal(t, "Forestry Mulching", ServiceName(model.ServiceForestryMulching))
}

func TestWriteTemplates(t *testing.T) {
	at := time.Date(2026, 4, 30, 8, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := WriteTemplates(&buf, []model.ServiceTemplate{
		{ServiceType: model.ServiceTreeTrimming, StandardPPH: 3.5, StandardCostPerHour: 180, StandardBillingRate: 1276.5, TargetMarginPercent: 35, TotalJobsInAverage: 12, LastRecalculated: &at},
		{ServiceType: model.ServiceLandClearing},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SERVICE")
	assert.Contains(t, out, "Tree Trimming")
	assert.Contains(t, out, "$1,276.50")
	assert.Contains(t, out, "2026-04-30")
	assert.Contains(t, out, "never")
}

func TestWriteSummaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, Summarize([]model.HistoricalJob{
		historical("a", model.ServiceTreeRemoval, 80, 30, false),
	})))
	assert.Contains(t, buf.String(), "Tree Removal")
	assert.Contains(t, buf.String(), "80.0")
}

func TestWriteWorkbook(t *testing.T) {
	at := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	err := WriteWorkbook(path,
		[]model.ServiceTemplate{{ServiceType: model.ServiceTreeRemoval, StandardPPH: 2, LastRecalculated: &at}},
		[]model.HistoricalJob{
			historical("a", model.ServiceTreeRemoval, 80, 30, false),
			historical("b", model.ServiceTreeRemoval, 60, 20, false),
		},
	)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)
	assert.Equal(t, "Templates", f.Sheets[0].Name)
	assert.Equal(t, "Summary", f.Sheets[1].Name)
	assert.Equal(t, "Jobs", f.Sheets[2].Name)

	assert.Len(t, f.Sheet["Templates"].Rows, 2)
	assert.Len(t, f.Sheet["Summary"].Rows, 2)
	jobs := f.Sheet["Jobs"].Rows
	require.Len(t, jobs, 3)
	assert.Equal(t, "Job ID", jobs[0].Cells[0].String())
	assert.Equal(t, "a", jobs[1].Cells[0].String())
}
