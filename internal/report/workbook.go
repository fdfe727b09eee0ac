package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

const (
	moneyFormat   = "$#,##0.00"
	decimalFormat = "0.00"
	dateFormat    = "yyyy-mm-dd"
)

// Workbook builds an XLSX file with Templates, Summary and Jobs sheets.
func Workbook(templates []model.ServiceTemplate, jobs []model.HistoricalJob) (*xlsx.File, error) {
	f := xlsx.NewFile()

	if err := templateSheet(f, templates); err != nil {
		return nil, err
	}
	if err := summarySheet(f, Summarize(jobs)); err != nil {
		return nil, err
	}
	if err := jobSheet(f, jobs); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteWorkbook saves Workbook(templates, jobs) to path.
func WriteWorkbook(path string, templates []model.ServiceTemplate, jobs []model.HistoricalJob) error {
	f, err := Workbook(templates, jobs)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func header(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	for _, n := range names {
		c := row.AddCell()
		c.SetString(n)
		c.SetStyle(style)
	}
}

func addFloat(row *xlsx.Row, v float64, format string) {
	row.AddCell().SetFloatWithFormat(v, format)
}

func templateSheet(f *xlsx.File, templates []model.ServiceTemplate) error {
	sheet, err := f.AddSheet("Templates")
	if err != nil {
		return eris.Wrap(err, "report: add templates sheet")
	}
	header(sheet, "Service", "PPH", "Cost/Hr", "Billing/Hr", "Target Margin %", "Confidence", "Jobs", "Last Recalculated")
	for _, t := range templates {
		row := sheet.AddRow()
		row.AddCell().SetString(ServiceName(t.ServiceType))
		addFloat(row, t.StandardPPH, decimalFormat)
		addFloat(row, t.StandardCostPerHour, moneyFormat)
		addFloat(row, t.StandardBillingRate, moneyFormat)
		addFloat(row, t.TargetMarginPercent, decimalFormat)
		addFloat(row, t.ConfidenceScore, decimalFormat)
		row.AddCell().SetInt(t.TotalJobsInAverage)
		c := row.AddCell()
		if t.LastRecalculated != nil {
			c.SetDateWithOptions(*t.LastRecalculated, xlsx.DateTimeOptions{
				Location:        t.LastRecalculated.Location(),
				ExcelTimeFormat: dateFormat,
			})
		}
	}
	return nil
}

func summarySheet(f *xlsx.File, sums []ServiceSummary) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	header(sheet, "Service", "Jobs", "Accuracy", "Efficiency", "Profitability", "Overall", "Actual Margin %", "Production Variance %", "Rework Jobs", "Safety Incidents")
	for _, s := range sums {
		row := sheet.AddRow()
		row.AddCell().SetString(ServiceName(s.ServiceType))
		row.AddCell().SetInt(s.Jobs)
		addFloat(row, s.AvgAccuracy, decimalFormat)
		addFloat(row, s.AvgEfficiency, decimalFormat)
		addFloat(row, s.AvgProfitability, decimalFormat)
		addFloat(row, s.AvgOverall, decimalFormat)
		addFloat(row, s.AvgActualMargin, decimalFormat)
		addFloat(row, s.AvgProductionVariance, decimalFormat)
		row.AddCell().SetInt(s.ReworkJobs)
		row.AddCell().SetInt(s.SafetyIncidents)
	}
	return nil
}

func jobSheet(f *xlsx.File, jobs []model.HistoricalJob) error {
	sheet, err := f.AddSheet("Jobs")
	if err != nil {
		return eris.Wrap(err, "report: add jobs sheet")
	}
	header(sheet, "Job ID", "Service", "Completed", "Est Hours", "Actual Hours", "Production Var %",
		"Est Cost", "Actual Cost", "Cost Var %", "Revenue", "Actual Margin %",
		"Accuracy", "Efficiency", "Profitability", "Overall")
	for _, j := range jobs {
		p := j.Performance
		row := sheet.AddRow()
		row.AddCell().SetString(j.JobID)
		row.AddCell().SetString(ServiceName(j.ServiceType))
		row.AddCell().SetDateWithOptions(j.Actual.CompletedAt, xlsx.DateTimeOptions{
			Location:        j.Actual.CompletedAt.Location(),
			ExcelTimeFormat: dateFormat,
		})
		addFloat(row, p.EstimatedTotalHours, decimalFormat)
		addFloat(row, p.ActualTotalHours, decimalFormat)
		addFloat(row, p.ProductionVariancePercent, decimalFormat)
		addFloat(row, p.EstimatedTotalCost, moneyFormat)
		addFloat(row, p.ActualTotalCost, moneyFormat)
		addFloat(row, p.TotalCostVariancePercent, decimalFormat)
		addFloat(row, j.Actual.Revenue, moneyFormat)
		addFloat(row, p.ActualMarginPercent, decimalFormat)
		addFloat(row, p.AccuracyScore, decimalFormat)
		addFloat(row, p.EfficiencyScore, decimalFormat)
		addFloat(row, p.ProfitabilityScore, decimalFormat)
		addFloat(row, p.OverallPerformanceScore, decimalFormat)
	}
	return nil
}
