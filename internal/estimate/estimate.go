// Package estimate builds a priced job estimate from a baseline production
// score, complexity factors, and crew economics.
package estimate

import (
	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/complexity"
	"github.com/treeshoptech/treeshop-app-sub001/internal/loadout"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// DefaultBufferPercent pads production and transport time for setup and cleanup.
const DefaultBufferPercent = 10.0

// Input holds everything needed to price one proposal line item.
type Input struct {
	ServiceType         model.ServiceType `json:"service_type"`
	BaselineScore       float64           `json:"baseline_score"`
	FactorIDs           []string          `json:"factor_ids,omitempty"`
	PPH                 float64           `json:"pph"`
	TransportHours      float64           `json:"transport_hours"`
	BufferPercent       float64           `json:"buffer_percent"`
	CostPerHour         float64           `json:"cost_per_hour"`
	BillingRate         float64           `json:"billing_rate,omitempty"` // 0 derives the rate from TargetMarginPercent
	TargetMarginPercent float64           `json:"target_margin_percent"`
}

// FromTemplate seeds an Input with a service template's standing values.
func FromTemplate(t model.ServiceTemplate, baseline float64, factorIDs []string, transportHours float64) Input {
	return Input{
		ServiceType:         t.ServiceType,
		BaselineScore:       baseline,
		FactorIDs:           factorIDs,
		PPH:                 t.StandardPPH,
		TransportHours:      transportHours,
		BufferPercent:       DefaultBufferPercent,
		CostPerHour:         t.StandardCostPerHour,
		BillingRate:         t.StandardBillingRate,
		TargetMarginPercent: t.TargetMarginPercent,
	}
}

// Build prices in against catalog. Production hours are the complexity
// adjusted score divided by PPH; buffer hours are a percentage of production
// plus transport. Money totals are rounded to cents.
func Build(in Input, catalog complexity.Catalog) (model.JobEstimate, error) {
	if in.PPH <= 0 {
		return model.JobEstimate{}, eris.Wrapf(model.ErrInvalidConfiguration, "estimate: PPH %.2f must be positive", in.PPH)
	}
	if err := nonNegative(
		field{"baseline score", in.BaselineScore},
		field{"transport hours", in.TransportHours},
		field{"buffer percent", in.BufferPercent},
		field{"cost per hour", in.CostPerHour},
		field{"billing rate", in.BillingRate},
	); err != nil {
		return model.JobEstimate{}, err
	}

	billing := in.BillingRate
	if billing == 0 {
		econ, err := loadout.PriceLoadout([]float64{in.CostPerHour}, nil, in.TargetMarginPercent)
		if err != nil {
			return model.JobEstimate{}, eris.Wrap(err, "estimate: derive billing rate")
		}
		billing = econ.BillingRate
	}

	adj := complexity.Apply(in.BaselineScore, in.FactorIDs, catalog)
	production := adj.AdjustedScore / in.PPH
	buffer := (production + in.TransportHours) * in.BufferPercent / 100
	hours := production + in.TransportHours + buffer

	return model.JobEstimate{
		ServiceType:          in.ServiceType,
		FactorIDs:            adj.Applied,
		BaselineScore:        in.BaselineScore,
		ComplexityMultiplier: adj.Multiplier,
		AdjustedScore:        adj.AdjustedScore,
		PPH:                  in.PPH,
		ProductionHours:      production,
		TransportHours:       in.TransportHours,
		BufferPercent:        in.BufferPercent,
		BufferHours:          buffer,
		CostPerHour:          RoundCents(in.CostPerHour),
		BillingRatePerHour:   RoundCents(billing),
		TargetMarginPercent:  in.TargetMarginPercent,
		TotalCost:            RoundCents(hours * in.CostPerHour),
		TotalPrice:           RoundCents(hours * billing),
	}, nil
}
