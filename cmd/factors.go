package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/complexity"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Manage the complexity factor catalog",
}

// -- factors list --

var factorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List complexity factors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cat, err := loadCatalog(ctx, st)
		if err != nil {
			return err
		}

		serviceType, _ := cmd.Flags().GetString("service-type")
		asJSON, _ := cmd.Flags().GetBool("json")

		factors := cat.Factors()
		if serviceType != "" {
			svc := model.ServiceType(serviceType)
			if !svc.Valid() {
				return eris.Errorf("unknown service type %q", serviceType)
			}
			factors = cat.ForServiceType(svc)
		}

		if asJSON {
			return printJSON(os.Stdout, factors)
		}
		if len(factors) == 0 {
			fmt.Fprintln(os.Stderr, "No factors found.")
			return nil
		}
		formatFactors(os.Stdout, factors)
		return nil
	},
}

// -- factors seed --

var factorsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the base catalog, merged with --file, to the database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cat, err := baseCatalog()
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			extra, err := complexity.LoadFile(path)
			if err != nil {
				return err
			}
			cat = cat.Merge(extra)
		}
		if err := cat.Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertFactors(ctx, cat.Factors())
		if err != nil {
			return eris.Wrap(err, "factors seed")
		}
		zap.L().Info("factors seeded", zap.Int64("rows", n))
		return nil
	},
}

// -- factors deactivate --

var factorsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <factor-id>",
	Short: "Retire a factor so it no longer affects estimates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeactivateFactor(ctx, args[0]); err != nil {
			return eris.Wrap(err, "factors deactivate")
		}
		zap.L().Info("factor deactivated", zap.String("id", args[0]))
		return nil
	},
}

func formatFactors(out io.Writer, factors []model.ComplexityFactor) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tIMPACT\tACTIVE\tSERVICES")
	for _, f := range factors {
		services := "all"
		if len(f.ApplicableServiceTypes) > 0 {
			services = fmt.Sprint(f.ApplicableServiceTypes)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t+%.0f%%\t%t\t%s\n",
			f.ID, f.Name, f.Category, f.ImpactPercentage*100, f.Active, services)
	}
	_ = w.Flush()
}

func init() {
	factorsListCmd.Flags().String("service-type", "", "only factors applicable to this service type")
	factorsListCmd.Flags().Bool("json", false, "print JSON")
	factorsSeedCmd.Flags().String("file", "", "YAML catalog merged over the stock factors")

	factorsCmd.AddCommand(factorsListCmd, factorsSeedCmd, factorsDeactivateCmd)
	rootCmd.AddCommand(factorsCmd)
}
