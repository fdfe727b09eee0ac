package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
	"github.com/treeshoptech/treeshop-app-sub001/internal/report"
	"github.com/treeshoptech/treeshop-app-sub001/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write templates and job performance to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")
		serviceType, _ := cmd.Flags().GetString("service-type")
		days, _ := cmd.Flags().GetInt("days")

		filter := store.JobFilter{ServiceType: model.ServiceType(serviceType)}
		if serviceType != "" && !filter.ServiceType.Valid() {
			return eris.Errorf("unknown service type %q", serviceType)
		}
		if days > 0 {
			filter.Since = time.Now().UTC().AddDate(0, 0, -days)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		templates, err := st.ListTemplates(ctx)
		if err != nil {
			return err
		}
		jobs, err := st.ListCompletedJobs(ctx, filter)
		if err != nil {
			return err
		}

		if summary, _ := cmd.Flags().GetBool("summary"); summary {
			if err := report.WriteSummaries(os.Stdout, report.Summarize(jobs)); err != nil {
				return err
			}
		}
		if out == "" {
			return nil
		}
		if err := report.WriteWorkbook(out, templates, jobs); err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.String("file", out),
			zap.Int("templates", len(templates)),
			zap.Int("jobs", len(jobs)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "treeshop-report.xlsx", "workbook path (empty to skip)")
	exportCmd.Flags().String("service-type", "", "only this service type's jobs")
	exportCmd.Flags().Int("days", 0, "only jobs completed in the last N days (0 = all)")
	exportCmd.Flags().Bool("summary", false, "also print per-service averages")
	rootCmd.AddCommand(exportCmd)
}
