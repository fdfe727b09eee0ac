package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

var (
	printer = message.NewPrinter(language.AmericanEnglish)
	titler  = cases.Title(language.English)
)

// Money formats v as US dollars with thousands separators.
func Money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// ServiceName renders a service type for people: "stump_grinding" becomes
// "Stump Grinding".
func ServiceName(st model.ServiceType) string {
	return titler.String(strings.ReplaceAll(string(st), "_", " "))
}

// WriteTemplates prints one row per template.
func WriteTemplates(out io.Writer, templates []model.ServiceTemplate) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tPPH\tCOST/HR\tBILLING/HR\tTARGET\tCONFIDENCE\tJOBS\tRECALCULATED")
	for _, t := range templates {
		recalculated := "never"
		if t.LastRecalculated != nil {
			recalculated = t.LastRecalculated.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%.1f%%\t%.1f\t%d\t%s\n",
			ServiceName(t.ServiceType),
			t.StandardPPH,
			Money(t.StandardCostPerHour),
			Money(t.StandardBillingRate),
			t.TargetMarginPercent,
			t.ConfidenceScore,
			t.TotalJobsInAverage,
			recalculated,
		)
	}
	return w.Flush()
}

// WriteSummaries prints per-service performance averages.
func WriteSummaries(out io.Writer, sums []ServiceSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tJOBS\tACCURACY\tEFFICIENCY\tPROFITABILITY\tOVERALL\tMARGIN\tREWORK")
	for _, s := range sums {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f%%\t%d\n",
			ServiceName(s.ServiceType),
			s.Jobs,
			s.AvgAccuracy,
			s.AvgEfficiency,
			s.AvgProfitability,
			s.AvgOverall,
			s.AvgActualMargin,
			s.ReworkJobs,
		)
	}
	return w.Flush()
}
