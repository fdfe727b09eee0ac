package estimate

import (
	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Baseline production scores in points. PPH (points per hour) converts a
// score into hours.

// MulchingScore is acres × the DBH package (largest stem diameter, inches, to be mulched).
func MulchingScore(acres, dbhPackageInches float64) (float64, error) {
	if err := nonNegative(field{"acres", acres}, field{"dbh package", dbhPackageInches}); err != nil {
		return 0, err
	}
	return acres * dbhPackageInches, nil
}

// Stump describes one stump in inches.
type Stump struct {
	DiameterInches    float64 `json:"diameter_inches"`
	HeightAboveInches float64 `json:"height_above_inches"`
	DepthBelowInches  float64 `json:"depth_below_inches"`
}

// StumpScore sums diameter² × (height above grade + grind depth) over stumps.
// Each stump counts for at least one point.
func StumpScore(stumps []Stump) (float64, error) {
	var total float64
	for _, s := range stumps {
		if err := nonNegative(field{"diameter", s.DiameterInches}, field{"height", s.HeightAboveInches}, field{"depth", s.DepthBelowInches}); err != nil {
			return 0, err
		}
		total += max(1, s.DiameterInches*s.DiameterInches*(s.HeightAboveInches+s.DepthBelowInches))
	}
	return total, nil
}

// TreeRemovalScore is height (ft) × DBH (ft) × crown radius (ft)².
func TreeRemovalScore(heightFeet, dbhInches, crownRadiusFeet float64) (float64, error) {
	if err := nonNegative(field{"height", heightFeet}, field{"dbh", dbhInches}, field{"crown radius", crownRadiusFeet}); err != nil {
		return 0, err
	}
	return heightFeet * (dbhInches / 12) * crownRadiusFeet * crownRadiusFeet, nil
}

// TrimmingScore is the removal score of the tree scaled by the fraction of canopy trimmed.
func TrimmingScore(heightFeet, dbhInches, crownRadiusFeet, trimFraction float64) (float64, error) {
	if trimFraction < 0 || trimFraction > 1 {
		return 0, eris.Wrapf(model.ErrInvalidConfiguration, "estimate: trim fraction %.2f outside [0,1]", trimFraction)
	}
	s, err := TreeRemovalScore(heightFeet, dbhInches, crownRadiusFeet)
	if err != nil {
		return 0, err
	}
	return s * trimFraction, nil
}

// ClearingScore is acres × a vegetation density factor (1 light, 2 moderate, 3 heavy).
func ClearingScore(acres, density float64) (float64, error) {
	if err := nonNegative(field{"acres", acres}, field{"density", density}); err != nil {
		return 0, err
	}
	return acres * density, nil
}

// Measurements are the field measurements behind a baseline score. Only the
// fields of the job's service type are read.
type Measurements struct {
	Acres            float64 `json:"acres,omitempty" yaml:"acres,omitempty"`
	DBHPackageInches float64 `json:"dbh_package_inches,omitempty" yaml:"dbh_package_inches,omitempty"`
	Density          float64 `json:"density,omitempty" yaml:"density,omitempty"`
	Stumps           []Stump `json:"stumps,omitempty" yaml:"stumps,omitempty"`
	HeightFeet       float64 `json:"height_feet,omitempty" yaml:"height_feet,omitempty"`
	DBHInches        float64 `json:"dbh_inches,omitempty" yaml:"dbh_inches,omitempty"`
	CrownRadiusFeet  float64 `json:"crown_radius_feet,omitempty" yaml:"crown_radius_feet,omitempty"`
	TrimFraction     float64 `json:"trim_fraction,omitempty" yaml:"trim_fraction,omitempty"`
}

// BaselineScore computes the baseline production score of st from m.
func BaselineScore(st model.ServiceType, m Measurements) (float64, error) {
	switch st {
	case model.ServiceForestryMulching:
		return MulchingScore(m.Acres, m.DBHPackageInches)
	case model.ServiceStumpGrinding:
		return StumpScore(m.Stumps)
	case model.ServiceLandClearing:
		return ClearingScore(m.Acres, m.Density)
	case model.ServiceTreeRemoval:
		return TreeRemovalScore(m.HeightFeet, m.DBHInches, m.CrownRadiusFeet)
	case model.ServiceTreeTrimming:
		return TrimmingScore(m.HeightFeet, m.DBHInches, m.CrownRadiusFeet, m.TrimFraction)
	default:
		return 0, eris.Wrapf(model.ErrInvalidConfiguration, "estimate: unknown service type %q", st)
	}
}

type field struct {
	name  string
	value float64
}

func nonNegative(fields ...field) error {
	for _, f := range fields {
		if f.value < 0 {
			return eris.Wrapf(model.ErrInvalidConfiguration, "estimate: %s %.2f is negative", f.name, f.value)
		}
	}
	return nil
}
