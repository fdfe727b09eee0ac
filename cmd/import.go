package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Complete jobs from a CSV or XLSX file of actuals",
	Long:  "Reads one row per job (job_id, production_hours and optional cost, revenue and quality columns), records the actuals, and scores each job.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		charset, _ := cmd.Flags().GetString("charset")
		sheet, _ := cmd.Flags().GetString("sheet")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		res, err := ingest.ReadFile(ctx, path, ingest.Options{
			CSV:  ingest.CSVOptions{Charset: charset},
			XLSX: ingest.XLSXOptions{SheetName: sheet},
			Now:  time.Now().UTC(),
		})
		if err != nil {
			return eris.Wrap(err, "import")
		}
		for _, re := range res.Errors {
			zap.L().Warn("skipping row", zap.Int("line", re.Line), zap.Error(re.Err))
		}

		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			zap.L().Info("dry run", zap.Int("valid", len(res.Rows)), zap.Int("rejected", len(res.Errors)))
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := ingest.Import(ctx, newScorer(st), res.Rows, concurrency)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("file", path),
			zap.Int("completed", sum.Completed),
			zap.Int("already_completed", sum.AlreadyCompleted),
			zap.Int("failed", len(sum.Failed)),
			zap.Int("rejected", len(res.Errors)),
		)
		if len(sum.Failed) > 0 {
			return eris.Errorf("import: %d jobs failed", len(sum.Failed))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("file", "", "path to .csv, .tsv or .xlsx file (required)")
	importCmd.Flags().String("charset", "", "CSV encoding, e.g. windows-1252 (default UTF-8)")
	importCmd.Flags().String("sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().Int("concurrency", 4, "jobs completed in parallel")
	importCmd.Flags().Bool("dry-run", false, "parse and validate only")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
