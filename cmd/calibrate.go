package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/treeshoptech/treeshop-app-sub001/internal/calibrate"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
	"github.com/treeshoptech/treeshop-app-sub001/internal/report"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Recalculate service templates from completed jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		names, _ := cmd.Flags().GetStringSlice("service-type")
		types := make([]model.ServiceType, 0, len(names))
		for _, n := range names {
			svc := model.ServiceType(n)
			if !svc.Valid() {
				return eris.Errorf("unknown service type %q", n)
			}
			types = append(types, svc)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		outcomes, err := newCalibrator(st).RecalibrateAll(ctx, types)
		if err != nil {
			return eris.Wrap(err, "calibrate")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, outcomes)
		}
		formatOutcomes(os.Stdout, outcomes)
		return nil
	},
}

func formatOutcomes(out io.Writer, outcomes []calibrate.Outcome) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tJOBS\tPPH\tCOST/HR\tBILLING/HR\tMARGIN\tCONFIDENCE\tSTATUS")
	for _, o := range outcomes {
		if o.Result == nil {
			_, _ = fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\tskipped: %s\n", report.ServiceName(o.ServiceType), o.Skipped)
			continue
		}
		r := o.Result
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%s\t%.1f%%\t%.1f\tupdated\n",
			report.ServiceName(o.ServiceType),
			r.TotalJobsInAverage,
			r.StandardPPH,
			report.Money(r.StandardCostPerHour),
			report.Money(r.StandardBillingRate),
			r.AchievedMarginPercent,
			r.ConfidenceScore,
		)
	}
	_ = w.Flush()
}

func init() {
	calibrateCmd.Flags().StringSlice("service-type", nil, "service types to recalibrate (default all)")
	calibrateCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(calibrateCmd)
}
