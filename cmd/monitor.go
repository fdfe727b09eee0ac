package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/monitoring"
	"github.com/treeshoptech/treeshop-app-sub001/internal/store"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Check recent job performance once and send drift alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		alerts, err := newChecker(st).Check(ctx)
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			zap.L().Info("no alerts")
			return nil
		}
		return printJSON(os.Stdout, alerts)
	},
}

func newChecker(st store.Store) *monitoring.Checker {
	return monitoring.NewChecker(
		monitoring.NewCollector(st),
		monitoring.NewAlerter(cfg.Monitoring),
		cfg.Monitoring,
	)
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
