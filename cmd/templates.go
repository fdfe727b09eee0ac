package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/treeshoptech/treeshop-app-sub001/internal/report"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List service pricing templates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		list, err := st.ListTemplates(ctx)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No templates yet. Run calibrate after completing jobs.")
			return nil
		}
		return report.WriteTemplates(os.Stdout, list)
	},
}

func init() {
	templatesCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(templatesCmd)
}
