package estimate

import (
	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Defaults fill rate fields that neither a request nor a template supplies.
type Defaults struct {
	TargetMarginPercent float64
	BufferPercent       float64
}

// Request describes a job to price. Nil rate fields come from the service
// template; a service without a template must supply PPH and CostPerHour.
type Request struct {
	ServiceType         model.ServiceType `json:"service_type"`
	BaselineScore       float64           `json:"baseline_score"`
	Measurements        *Measurements     `json:"measurements,omitempty"`
	FactorIDs           []string          `json:"factor_ids"`
	TransportHours      float64           `json:"transport_hours"`
	PPH                 *float64          `json:"pph"`
	CostPerHour         *float64          `json:"cost_per_hour"`
	BillingRate         *float64          `json:"billing_rate"`
	TargetMarginPercent *float64          `json:"target_margin_percent"`
	BufferPercent       *float64          `json:"buffer_percent"`
}

// Resolve turns r into an Input. tmpl may be nil. Measurements, when set,
// replace BaselineScore. Overriding cost or margin drops the template's
// billing rate so it is derived again.
func (r Request) Resolve(tmpl *model.ServiceTemplate, d Defaults) (Input, error) {
	if r.Measurements != nil {
		score, err := BaselineScore(r.ServiceType, *r.Measurements)
		if err != nil {
			return Input{}, err
		}
		r.BaselineScore = score
	}

	in := Input{
		ServiceType:         r.ServiceType,
		BaselineScore:       r.BaselineScore,
		FactorIDs:           r.FactorIDs,
		TransportHours:      r.TransportHours,
		BufferPercent:       d.BufferPercent,
		TargetMarginPercent: d.TargetMarginPercent,
	}
	switch {
	case tmpl != nil:
		in = FromTemplate(*tmpl, r.BaselineScore, r.FactorIDs, r.TransportHours)
		in.BufferPercent = d.BufferPercent
	case r.PPH == nil || r.CostPerHour == nil:
		return Input{}, eris.Wrapf(model.ErrInvalidConfiguration,
			"estimate: no template for %s; pph and cost_per_hour are required", r.ServiceType)
	}

	if r.PPH != nil {
		in.PPH = *r.PPH
	}
	if r.CostPerHour != nil {
		in.CostPerHour = *r.CostPerHour
		in.BillingRate = 0
	}
	if r.TargetMarginPercent != nil {
		in.TargetMarginPercent = *r.TargetMarginPercent
		in.BillingRate = 0
	}
	if r.BillingRate != nil {
		in.BillingRate = *r.BillingRate
	}
	if r.BufferPercent != nil {
		in.BufferPercent = *r.BufferPercent
	}
	return in, nil
}
