package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/treeshoptech/treeshop-app-sub001/internal/cost"
	"github.com/treeshoptech/treeshop-app-sub001/internal/loadout"
	"github.com/treeshoptech/treeshop-app-sub001/internal/report"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Compute labor, equipment and loadout hourly economics",
}

// -- price labor --

var priceLaborCmd = &cobra.Command{
	Use:   "labor",
	Short: "True hourly cost of one employee",
	RunE: func(cmd *cobra.Command, _ []string) error {
		calc, err := newCalculator()
		if err != nil {
			return err
		}

		var p cost.EmployeeProfile
		p.BaseRate, _ = cmd.Flags().GetFloat64("base-rate")
		p.Tier, _ = cmd.Flags().GetString("tier")
		p.Leadership, _ = cmd.Flags().GetString("leadership")
		p.EquipmentCerts, _ = cmd.Flags().GetStringSlice("equipment-cert")
		p.DriverLicenses, _ = cmd.Flags().GetStringSlice("license")
		p.ProfessionalCerts, _ = cmd.Flags().GetStringSlice("cert")

		lc, err := calc.Employee(p)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, lc)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Tiered base:\t%s\n", report.Money(lc.TieredBase))
		_, _ = fmt.Fprintf(w, "Premiums:\t%s\n", report.Money(lc.Premiums))
		_, _ = fmt.Fprintf(w, "Total hourly:\t%s\n", report.Money(lc.TotalHourly))
		_, _ = fmt.Fprintf(w, "Burden:\t%.2fx\n", lc.Burden)
		_, _ = fmt.Fprintf(w, "True cost:\t%s/hr\n", report.Money(lc.TrueCost))
		return w.Flush()
	},
}

// -- price equipment --

var priceEquipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Hourly ownership and operating cost of each machine in --file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		var items []cost.EquipmentInputs
		if err := readYAML(path, &items); err != nil {
			return err
		}

		type priced struct {
			Name string             `json:"name"`
			Cost cost.EquipmentCost `json:"cost"`
		}
		out := make([]priced, 0, len(items))
		for _, in := range items {
			ec, err := cost.EquipmentHourlyCost(in)
			if err != nil {
				return err
			}
			out = append(out, priced{Name: in.Name, Cost: ec})
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, out)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "EQUIPMENT\tOWNERSHIP/HR\tOPERATING/HR\tTOTAL/HR")
		for _, p := range out {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name,
				report.Money(p.Cost.OwnershipPerHour), report.Money(p.Cost.OperatingPerHour), report.Money(p.Cost.TotalPerHour))
		}
		return w.Flush()
	},
}

// -- price loadout --

var priceLoadoutCmd = &cobra.Command{
	Use:   "loadout",
	Short: "Cost, billing rate and margin of the crew and equipment in --file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		calc, err := newCalculator()
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("file")
		var l loadout.Loadout
		if err := readYAML(path, &l); err != nil {
			return err
		}
		if cmd.Flags().Changed("margin") {
			l.TargetMarginPercent, _ = cmd.Flags().GetFloat64("margin")
		} else if l.TargetMarginPercent == 0 {
			l.TargetMarginPercent = cfg.Pricing.DefaultMarginPercent
		}

		p, err := loadout.Price(calc, l)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, p)
		}
		formatEconomics(os.Stdout, p)
		return nil
	},
}

func formatEconomics(out io.Writer, p loadout.Priced) {
	e := p.Economics
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Loadout:\t%s\n", p.Name)
	_, _ = fmt.Fprintf(w, "Crew cost/hr:\t%s\n", report.Money(e.EmployeeCostPerHour))
	_, _ = fmt.Fprintf(w, "Equipment cost/hr:\t%s\n", report.Money(e.EquipmentCostPerHour))
	_, _ = fmt.Fprintf(w, "Total cost/hr:\t%s\n", report.Money(e.CostPerHour))
	_, _ = fmt.Fprintf(w, "Billing rate/hr:\t%s\n", report.Money(e.BillingRate))
	_, _ = fmt.Fprintf(w, "Profit/hr:\t%s\n", report.Money(e.ProfitPerHour))
	_, _ = fmt.Fprintf(w, "Margin:\t%.1f%% (target %.1f%%)\n", e.ActualMarginPercent, e.TargetMarginPercent)
	_ = w.Flush()
}

// readYAML decodes path into v, rejecting unknown keys. JSON files work too.
func readYAML(path string, v any) error {
	if path == "" {
		return eris.New("--file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return eris.Wrapf(err, "parse %s", path)
	}
	return nil
}

func init() {
	priceLaborCmd.Flags().Float64("base-rate", 0, "base hourly wage")
	priceLaborCmd.Flags().String("tier", "tier1", "skill tier")
	priceLaborCmd.Flags().String("leadership", "", "leadership role")
	priceLaborCmd.Flags().StringSlice("equipment-cert", nil, "equipment certifications")
	priceLaborCmd.Flags().StringSlice("license", nil, "driver licenses")
	priceLaborCmd.Flags().StringSlice("cert", nil, "professional certifications")
	_ = priceLaborCmd.MarkFlagRequired("base-rate")

	priceEquipmentCmd.Flags().String("file", "", "YAML or JSON list of equipment (required)")
	priceLoadoutCmd.Flags().String("file", "", "YAML or JSON loadout (required)")
	priceLoadoutCmd.Flags().Float64("margin", 0, "target margin percent (default from file or config)")

	for _, c := range []*cobra.Command{priceLaborCmd, priceEquipmentCmd, priceLoadoutCmd} {
		c.Flags().Bool("json", false, "print JSON")
	}
	priceCmd.AddCommand(priceLaborCmd, priceEquipmentCmd, priceLoadoutCmd)
	rootCmd.AddCommand(priceCmd)
}
