// Package loadout prices a crew configuration from its members' and
// machines' hourly costs.
package loadout

import (
	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/cost"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Economics is the hourly cost, rate, and profit of a loadout.
type Economics struct {
	EmployeeCostPerHour  float64 `json:"employee_cost_per_hour"`
	EquipmentCostPerHour float64 `json:"equipment_cost_per_hour"`
	CostPerHour          float64 `json:"cost_per_hour"`
	BillingRate          float64 `json:"billing_rate"`
	ProfitPerHour        float64 `json:"profit_per_hour"`
	TargetMarginPercent  float64 `json:"target_margin_percent"`
	ActualMarginPercent  float64 `json:"actual_margin_percent"`
}

// PriceLoadout sums burdened employee and equipment hourly costs and marks
// the total up to hit targetMarginPercent on price (not on cost):
// billing = cost / (1 - margin/100). A target of 100% or more has no
// finite price and fails with model.ErrInvalidMargin.
func PriceLoadout(employeeCosts, equipmentCosts []float64, targetMarginPercent float64) (Economics, error) {
	if targetMarginPercent >= 100 {
		return Economics{}, eris.Wrapf(model.ErrInvalidMargin, "loadout: target margin %.2f%% must be below 100%%", targetMarginPercent)
	}

	emp, err := sum("employee", employeeCosts)
	if err != nil {
		return Economics{}, err
	}
	equip, err := sum("equipment", equipmentCosts)
	if err != nil {
		return Economics{}, err
	}

	costPerHour := emp + equip
	billing := costPerHour / (1 - targetMarginPercent/100)
	profit := billing - costPerHour

	// An empty loadout bills nothing; report 0 instead of NaN.
	var actual float64
	if billing != 0 {
		actual = profit / billing * 100
	}

	return Economics{
		EmployeeCostPerHour:  emp,
		EquipmentCostPerHour: equip,
		CostPerHour:          costPerHour,
		BillingRate:          billing,
		ProfitPerHour:        profit,
		TargetMarginPercent:  targetMarginPercent,
		ActualMarginPercent:  actual,
	}, nil
}

func sum(kind string, costs []float64) (float64, error) {
	var total float64
	for i, c := range costs {
		if c < 0 {
			return 0, eris.Wrapf(model.ErrInvalidConfiguration, "loadout: %s cost #%d is negative (%.2f)", kind, i+1, c)
		}
		total += c
	}
	return total, nil
}

// Loadout is a named crew configuration to be priced from raw inputs.
type Loadout struct {
	Name                string                 `json:"name" yaml:"name"`
	ServiceType         model.ServiceType      `json:"service_type,omitempty" yaml:"service_type,omitempty"`
	Employees           []cost.EmployeeProfile `json:"employees" yaml:"employees"`
	Equipment           []cost.EquipmentInputs `json:"equipment" yaml:"equipment"`
	TargetMarginPercent float64                `json:"target_margin_percent" yaml:"target_margin_percent"`
}

// Priced is a loadout with its per-member breakdown and crew economics.
type Priced struct {
	Name      string               `json:"name"`
	Employees []cost.LaborCost     `json:"employees"`
	Equipment []cost.EquipmentCost `json:"equipment"`
	Economics Economics            `json:"economics"`
}

// Price resolves every employee and machine through calc and prices the crew.
// Employee true cost (burdened) feeds the crew total.
func Price(calc *cost.Calculator, l Loadout) (Priced, error) {
	out := Priced{Name: l.Name}

	empCosts := make([]float64, 0, len(l.Employees))
	for _, p := range l.Employees {
		lc, err := calc.Employee(p)
		if err != nil {
			return Priced{}, eris.Wrapf(err, "loadout: %s", l.Name)
		}
		out.Employees = append(out.Employees, lc)
		empCosts = append(empCosts, lc.TrueCost)
	}

	equipCosts := make([]float64, 0, len(l.Equipment))
	for _, in := range l.Equipment {
		ec, err := cost.EquipmentHourlyCost(in)
		if err != nil {
			return Priced{}, eris.Wrapf(err, "loadout: %s", l.Name)
		}
		out.Equipment = append(out.Equipment, ec)
		equipCosts = append(equipCosts, ec.TotalPerHour)
	}

	econ, err := PriceLoadout(empCosts, equipCosts, l.TargetMarginPercent)
	if err != nil {
		return Priced{}, eris.Wrapf(err, "loadout: %s", l.Name)
	}
	out.Economics = econ
	return out, nil
}
