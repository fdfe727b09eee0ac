package cost

import (
	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// LaborCost is the hourly cost breakdown for one employee.
type LaborCost struct {
	TieredBase  float64 `json:"tiered_base"`
	Premiums    float64 `json:"premiums"`
	TotalHourly float64 `json:"total_hourly"`
	Burden      float64 `json:"burden_multiplier"`
	TrueCost    float64 `json:"true_cost"`
}

// LaborHourlyCost computes an employee's fully burdened hourly cost:
// (baseRate × tierMultiplier + Σ premiums) × burden. TrueCost, not
// TotalHourly, is what crew economics consume.
func LaborHourlyCost(baseRate, tierMultiplier float64, premiums []float64, burden float64) (LaborCost, error) {
	if baseRate < 0 {
		return LaborCost{}, eris.Wrapf(model.ErrInvalidConfiguration, "cost: base rate %.2f is negative", baseRate)
	}
	if tierMultiplier < 0 {
		return LaborCost{}, eris.Wrapf(model.ErrInvalidConfiguration, "cost: tier multiplier %.2f is negative", tierMultiplier)
	}
	if burden <= 0 {
		return LaborCost{}, eris.Wrapf(model.ErrInvalidConfiguration, "cost: burden multiplier %.2f must be positive", burden)
	}

	var prem float64
	for _, p := range premiums {
		if p < 0 {
			return LaborCost{}, eris.Wrapf(model.ErrInvalidConfiguration, "cost: premium %.2f is negative", p)
		}
		prem += p
	}

	tiered := baseRate * tierMultiplier
	total := tiered + prem
	return LaborCost{
		TieredBase:  tiered,
		Premiums:    prem,
		TotalHourly: total,
		Burden:      burden,
		TrueCost:    total * burden,
	}, nil
}

// EmployeeProfile names an employee's pay inputs by table code.
type EmployeeProfile struct {
	Name              string   `json:"name,omitempty" yaml:"name,omitempty"`
	BaseRate          float64  `json:"base_rate" yaml:"base_rate"`
	Tier              string   `json:"tier" yaml:"tier"`
	Leadership        string   `json:"leadership,omitempty" yaml:"leadership,omitempty"`
	EquipmentCerts    []string `json:"equipment_certs,omitempty" yaml:"equipment_certs,omitempty"`
	DriverLicenses    []string `json:"driver_licenses,omitempty" yaml:"driver_licenses,omitempty"`
	ProfessionalCerts []string `json:"professional_certs,omitempty" yaml:"professional_certs,omitempty"`
}

// Calculator resolves employee profiles against a set of rate tables.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. A zero burden
// multiplier falls back to DefaultBurdenMultiplier.
func NewCalculator(rates Rates) *Calculator {
	if rates.BurdenMultiplier == 0 {
		rates.BurdenMultiplier = DefaultBurdenMultiplier
	}
	return &Calculator{rates: rates}
}

// Rates returns the tables in use.
func (c *Calculator) Rates() Rates {
	return c.rates
}

// TierMultiplier returns the multiplier for tier. Unknown or empty tiers price at 1.0.
func (c *Calculator) TierMultiplier(tier string) float64 {
	if m, ok := c.rates.Tiers[tier]; ok {
		return m
	}
	return 1.0
}

// Premiums returns the flat add-ons for p, one entry per table.
func (c *Calculator) Premiums(p EmployeeProfile) []float64 {
	return []float64{
		premium(c.rates.Leadership, p.Leadership),
		premium(c.rates.EquipmentCerts, p.EquipmentCerts...),
		premium(c.rates.DriverLicenses, p.DriverLicenses...),
		premium(c.rates.ProfessionalCerts, p.ProfessionalCerts...),
	}
}

// Employee computes the burdened hourly cost for p.
func (c *Calculator) Employee(p EmployeeProfile) (LaborCost, error) {
	lc, err := LaborHourlyCost(p.BaseRate, c.TierMultiplier(p.Tier), c.Premiums(p), c.rates.BurdenMultiplier)
	if err != nil {
		return LaborCost{}, eris.Wrapf(err, "cost: employee %q", p.Name)
	}
	return lc, nil
}
