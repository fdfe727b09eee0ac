package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/estimate"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
	"github.com/treeshoptech/treeshop-app-sub001/internal/report"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price a job and save it as an estimate",
	Long:  "Prices a job from its baseline score, complexity factors and the service template. Rate flags override the template.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		req, err := estimateRequest(cmd)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tmpl, err := st.GetTemplate(ctx, req.ServiceType)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		in, err := req.Resolve(tmpl, estimateDefaults())
		if err != nil {
			return err
		}
		cat, err := loadCatalog(ctx, st)
		if err != nil {
			return err
		}
		if missing := cat.Missing(req.FactorIDs); len(missing) > 0 {
			zap.L().Warn("ignoring unknown factors", zap.Strings("ids", missing))
		}

		est, err := estimate.Build(in, cat)
		if err != nil {
			return err
		}

		job := &model.Job{ServiceType: req.ServiceType, Status: model.JobStatusEstimate, Estimate: est}
		if dry, _ := cmd.Flags().GetBool("dry-run"); !dry {
			if err := st.CreateJob(ctx, job); err != nil {
				return eris.Wrap(err, "save estimate")
			}
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, job)
		}
		formatEstimate(os.Stdout, job)
		return nil
	},
}

func estimateRequest(cmd *cobra.Command) (estimate.Request, error) {
	f := cmd.Flags()
	var req estimate.Request

	serviceType, _ := f.GetString("service-type")
	req.ServiceType = model.ServiceType(serviceType)
	if !req.ServiceType.Valid() {
		return req, eris.Errorf("unknown service type %q", serviceType)
	}
	req.BaselineScore, _ = f.GetFloat64("baseline")
	req.FactorIDs, _ = f.GetStringSlice("factor")
	req.TransportHours, _ = f.GetFloat64("transport-hours")
	if path, _ := f.GetString("measurements"); path != "" {
		var m estimate.Measurements
		if err := readYAML(path, &m); err != nil {
			return req, err
		}
		req.Measurements = &m
	}

	optional := map[string]**float64{
		"pph":           &req.PPH,
		"cost-per-hour": &req.CostPerHour,
		"billing-rate":  &req.BillingRate,
		"margin":        &req.TargetMarginPercent,
		"buffer":        &req.BufferPercent,
	}
	for name, dst := range optional {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetFloat64(name)
		if err != nil {
			return req, err
		}
		*dst = &v
	}
	return req, nil
}

func formatEstimate(out io.Writer, job *model.Job) {
	e := job.Estimate
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if job.ID != "" {
		_, _ = fmt.Fprintf(w, "Job:\t%s\n", job.ID)
	}
	_, _ = fmt.Fprintf(w, "Service:\t%s\n", report.ServiceName(e.ServiceType))
	_, _ = fmt.Fprintf(w, "Score:\t%.1f x %.2f = %.1f\n", e.BaselineScore, e.ComplexityMultiplier, e.AdjustedScore)
	_, _ = fmt.Fprintf(w, "Hours:\t%.2f production + %.2f transport + %.2f buffer\n", e.ProductionHours, e.TransportHours, e.BufferHours)
	_, _ = fmt.Fprintf(w, "Rates:\t%s cost / %s billing per hour\n", report.Money(e.CostPerHour), report.Money(e.BillingRatePerHour))
	_, _ = fmt.Fprintf(w, "Total cost:\t%s\n", report.Money(e.TotalCost))
	_, _ = fmt.Fprintf(w, "Total price:\t%s\n", report.Money(e.TotalPrice))
	_ = w.Flush()
}

func addEstimateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("service-type", "", "service type (required)")
	f.Float64("baseline", 0, "baseline production score (inches, acres x DBH, ...)")
	f.String("measurements", "", "YAML or JSON field measurements; replaces --baseline")
	f.StringSlice("factor", nil, "complexity factor IDs")
	f.Float64("transport-hours", 0, "round-trip drive time")
	f.Float64("pph", 0, "production units per hour")
	f.Float64("cost-per-hour", 0, "loadout cost per hour")
	f.Float64("billing-rate", 0, "billing rate per hour")
	f.Float64("margin", 0, "target margin percent")
	f.Float64("buffer", 0, "buffer percent")
	f.Bool("dry-run", false, "price without saving")
	f.Bool("json", false, "print JSON")
	_ = cmd.MarkFlagRequired("service-type")
}

func init() {
	addEstimateFlags(estimateCmd)
	rootCmd.AddCommand(estimateCmd)
}
