package cost

import (
	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// EquipmentInputs are the annual ownership and operating figures for one machine.
type EquipmentInputs struct {
	Name                  string  `json:"name,omitempty" yaml:"name,omitempty"`
	PurchasePrice         float64 `json:"purchase_price" yaml:"purchase_price"`
	UsefulLifeYears       float64 `json:"useful_life_years" yaml:"useful_life_years"`
	FinanceRate           float64 `json:"finance_rate" yaml:"finance_rate"`
	InsuranceCost         float64 `json:"insurance_cost" yaml:"insurance_cost"`
	RegistrationCost      float64 `json:"registration_cost" yaml:"registration_cost"`
	AnnualHours           float64 `json:"annual_hours" yaml:"annual_hours"`
	FuelConsumptionGPH    float64 `json:"fuel_consumption_gph" yaml:"fuel_consumption_gph"`
	FuelPricePerGallon    float64 `json:"fuel_price_per_gallon" yaml:"fuel_price_per_gallon"`
	MaintenanceCostAnnual float64 `json:"maintenance_cost_annual" yaml:"maintenance_cost_annual"`
	RepairCostAnnual      float64 `json:"repair_cost_annual" yaml:"repair_cost_annual"`
}

// EquipmentCost is the hourly cost breakdown for one machine.
type EquipmentCost struct {
	OwnershipPerYear float64 `json:"ownership_per_year"`
	OwnershipPerHour float64 `json:"ownership_per_hour"`
	OperatingPerYear float64 `json:"operating_per_year"`
	OperatingPerHour float64 `json:"operating_per_hour"`
	TotalPerHour     float64 `json:"total_per_hour"`
}

// EquipmentHourlyCost splits a machine's annual cost into ownership
// (depreciation, finance, insurance, registration) and operating (fuel,
// maintenance, repair) components per operating hour.
func EquipmentHourlyCost(in EquipmentInputs) (EquipmentCost, error) {
	if in.AnnualHours <= 0 {
		return EquipmentCost{}, eris.Wrapf(model.ErrInvalidConfiguration, "cost: %s annual hours %.0f must be positive", label(in.Name), in.AnnualHours)
	}
	if in.UsefulLifeYears <= 0 {
		return EquipmentCost{}, eris.Wrapf(model.ErrInvalidConfiguration, "cost: %s useful life %.1f years must be positive", label(in.Name), in.UsefulLifeYears)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"purchase price", in.PurchasePrice},
		{"finance rate", in.FinanceRate},
		{"insurance", in.InsuranceCost},
		{"registration", in.RegistrationCost},
		{"fuel consumption", in.FuelConsumptionGPH},
		{"fuel price", in.FuelPricePerGallon},
		{"maintenance", in.MaintenanceCostAnnual},
		{"repair", in.RepairCostAnnual},
	} {
		if f.value < 0 {
			return EquipmentCost{}, eris.Wrapf(model.ErrInvalidConfiguration, "cost: %s %s %.2f is negative", label(in.Name), f.name, f.value)
		}
	}

	ownYear := in.PurchasePrice/in.UsefulLifeYears + in.PurchasePrice*in.FinanceRate + in.InsuranceCost + in.RegistrationCost
	opYear := in.FuelConsumptionGPH*in.FuelPricePerGallon*in.AnnualHours + in.MaintenanceCostAnnual + in.RepairCostAnnual

	own := ownYear / in.AnnualHours
	op := opYear / in.AnnualHours
	return EquipmentCost{
		OwnershipPerYear: ownYear,
		OwnershipPerHour: own,
		OperatingPerYear: opYear,
		OperatingPerHour: op,
		TotalPerHour:     own + op,
	}, nil
}

func label(name string) string {
	if name == "" {
		return "equipment"
	}
	return name
}
