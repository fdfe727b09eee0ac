// Package cost computes fully burdened hourly costs for labor and equipment.
package cost

import (
	"maps"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultBurdenMultiplier loads payroll tax, insurance, and benefits onto wages.
const DefaultBurdenMultiplier = 1.7

// Rates holds the lookup tables used to price an employee.
// Premiums are flat $/hr add-ons keyed by code.
type Rates struct {
	BurdenMultiplier  float64            `yaml:"burden_multiplier" mapstructure:"burden_multiplier"`
	Tiers             map[string]float64 `yaml:"tiers" mapstructure:"tiers"`
	Leadership        map[string]float64 `yaml:"leadership" mapstructure:"leadership"`
	EquipmentCerts    map[string]float64 `yaml:"equipment_certs" mapstructure:"equipment_certs"`
	DriverLicenses    map[string]float64 `yaml:"driver_licenses" mapstructure:"driver_licenses"`
	ProfessionalCerts map[string]float64 `yaml:"professional_certs" mapstructure:"professional_certs"`
}

// DefaultRates returns the stock tier and premium tables.
func DefaultRates() Rates {
	return Rates{
		BurdenMultiplier: DefaultBurdenMultiplier,
		Tiers: map[string]float64{
			"trainee":    0.85,
			"tier1":      1.0,
			"tier2":      1.15,
			"tier3":      1.30,
			"tier4":      1.50,
			"specialist": 1.75,
		},
		Leadership: map[string]float64{
			"crew_lead":  3.00,
			"foreman":    5.00,
			"supervisor": 7.50,
			"manager":    10.00,
		},
		EquipmentCerts: map[string]float64{
			"chipper":          1.00,
			"skid_steer":       1.50,
			"stump_grinder":    1.50,
			"forestry_mulcher": 2.00,
			"bucket_truck":     2.50,
			"crane":            4.00,
		},
		DriverLicenses: map[string]float64{
			"class_e": 0,
			"cdl_b":   2.00,
			"cdl_a":   3.00,
		},
		ProfessionalCerts: map[string]float64{
			"first_aid":      0.50,
			"tcia_ctsp":      2.00,
			"isa_arborist":   3.00,
			"isa_board_cert": 5.00,
			"line_clearance": 3.50,
			"pesticide_appl": 1.50,
		},
	}
}

// premium sums the table values for codes; unknown codes contribute 0.
func premium(table map[string]float64, codes ...string) float64 {
	var sum float64
	for _, c := range codes {
		sum += table[c]
	}
	return sum
}

// LoadRatesFile reads organization rate tables from a YAML file and overlays
// them on DefaultRates. Codes present in the file replace the stock value;
// codes absent keep it.
func LoadRatesFile(path string) (Rates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rates{}, eris.Wrapf(err, "cost: read rates %s", path)
	}
	var file Rates
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rates{}, eris.Wrapf(err, "cost: parse rates %s", path)
	}
	return DefaultRates().Overlay(file), nil
}

// Overlay returns r with every non-empty value of o applied on top.
func (r Rates) Overlay(o Rates) Rates {
	out := Rates{
		BurdenMultiplier:  r.BurdenMultiplier,
		Tiers:             maps.Clone(r.Tiers),
		Leadership:        maps.Clone(r.Leadership),
		EquipmentCerts:    maps.Clone(r.EquipmentCerts),
		DriverLicenses:    maps.Clone(r.DriverLicenses),
		ProfessionalCerts: maps.Clone(r.ProfessionalCerts),
	}
	if o.BurdenMultiplier > 0 {
		out.BurdenMultiplier = o.BurdenMultiplier
	}
	out.Tiers = overlayTable(out.Tiers, o.Tiers)
	out.Leadership = overlayTable(out.Leadership, o.Leadership)
	out.EquipmentCerts = overlayTable(out.EquipmentCerts, o.EquipmentCerts)
	out.DriverLicenses = overlayTable(out.DriverLicenses, o.DriverLicenses)
	out.ProfessionalCerts = overlayTable(out.ProfessionalCerts, o.ProfessionalCerts)
	return out
}

func overlayTable(dst, src map[string]float64) map[string]float64 {
	if dst == nil {
		dst = make(map[string]float64, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
