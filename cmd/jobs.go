package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and complete jobs",
}

// -- jobs show --

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show a job with its estimate, actuals and scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, job)
	},
}

// -- jobs complete --

var jobsCompleteCmd = &cobra.Command{
	Use:   "complete <job-id>",
	Short: "Record a job's actuals and score it against the estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		actual, err := actualFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := newScorer(st).Complete(ctx, args[0], actual)
		if err != nil {
			return eris.Wrap(err, "jobs complete")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, rec)
		}
		formatPerformance(os.Stdout, rec)
		return nil
	},
}

func actualFromFlags(cmd *cobra.Command) (model.JobActual, error) {
	f := cmd.Flags()
	var a model.JobActual
	nums := map[string]*float64{
		"units":            &a.UnitsCompleted,
		"production-hours": &a.ProductionHours,
		"transport-hours":  &a.TransportHours,
		"buffer-hours":     &a.BufferHours,
		"labor-cost":       &a.LaborCost,
		"equipment-cost":   &a.EquipmentCost,
		"overhead-cost":    &a.OverheadCost,
		"revenue":          &a.Revenue,
	}
	for name, dst := range nums {
		v, err := f.GetFloat64(name)
		if err != nil {
			return a, err
		}
		if v < 0 {
			return a, eris.Wrapf(model.ErrInvalidConfiguration, "--%s must not be negative", name)
		}
		*dst = v
	}
	a.Quality.ReworkRequired, _ = f.GetBool("rework")
	a.Quality.SafetyIncidents, _ = f.GetInt("safety-incidents")
	a.Quality.CustomerSatisfaction, _ = f.GetInt("satisfaction")
	a.Conditions.Weather, _ = f.GetString("weather")
	a.Conditions.AccessDifficulty, _ = f.GetString("access")
	a.Conditions.GroundCondition, _ = f.GetString("ground")

	if completed, _ := f.GetString("completed-at"); completed != "" {
		t, err := time.Parse("2006-01-02", completed)
		if err != nil {
			return a, eris.Wrap(err, "--completed-at")
		}
		a.CompletedAt = t.UTC()
	}
	return a, nil
}

func formatPerformance(out io.Writer, p *model.JobPerformanceRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Hours:\t%.2f estimated, %.2f actual (%+.1f%%)\n", p.EstimatedTotalHours, p.ActualTotalHours, p.ProductionVariancePercent)
	_, _ = fmt.Fprintf(w, "Cost:\t%.2f estimated, %.2f actual (%+.1f%%)\n", p.EstimatedTotalCost, p.ActualTotalCost, p.TotalCostVariancePercent)
	_, _ = fmt.Fprintf(w, "Margin:\t%.1f%% actual, %.1f%% target\n", p.ActualMarginPercent, p.TargetMarginPercent)
	_, _ = fmt.Fprintf(w, "Accuracy:\t%.1f\n", p.AccuracyScore)
	_, _ = fmt.Fprintf(w, "Efficiency:\t%.1f\n", p.EfficiencyScore)
	_, _ = fmt.Fprintf(w, "Profitability:\t%.1f\n", p.ProfitabilityScore)
	_, _ = fmt.Fprintf(w, "Overall:\t%.1f\n", p.OverallPerformanceScore)
	_ = w.Flush()
}

func addActualFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("units", 0, "production units completed")
	f.Float64("production-hours", 0, "on-site production hours")
	f.Float64("transport-hours", 0, "drive hours")
	f.Float64("buffer-hours", 0, "setup and cleanup hours")
	f.Float64("labor-cost", 0, "actual labor cost")
	f.Float64("equipment-cost", 0, "actual equipment cost")
	f.Float64("overhead-cost", 0, "actual overhead cost")
	f.Float64("revenue", 0, "invoiced revenue")
	f.Bool("rework", false, "rework was required")
	f.Int("safety-incidents", 0, "safety incidents on the job")
	f.Int("satisfaction", 0, "customer satisfaction 1-5")
	f.String("weather", "", "weather conditions")
	f.String("access", "", "access difficulty")
	f.String("ground", "", "ground condition")
	f.String("completed-at", "", "completion date YYYY-MM-DD (default now)")
	f.Bool("json", false, "print JSON")
	_ = cmd.MarkFlagRequired("production-hours")
}

func init() {
	addActualFlags(jobsCompleteCmd)
	jobsCmd.AddCommand(jobsShowCmd, jobsCompleteCmd)
	rootCmd.AddCommand(jobsCmd)
}
