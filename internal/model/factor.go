package model

// ServiceType labels a line of business that has its own pricing template.
type ServiceType string

const (
	ServiceForestryMulching ServiceType = "forestry_mulching"
	ServiceStumpGrinding    ServiceType = "stump_grinding"
	ServiceLandClearing     ServiceType = "land_clearing"
	ServiceTreeRemoval      ServiceType = "tree_removal"
	ServiceTreeTrimming     ServiceType = "tree_trimming"
)

// ServiceTypes lists every built-in service type in display order.
var ServiceTypes = []ServiceType{
	ServiceForestryMulching,
	ServiceStumpGrinding,
	ServiceLandClearing,
	ServiceTreeRemoval,
	ServiceTreeTrimming,
}

// Valid reports whether s is one of the built-in service types.
func (s ServiceType) Valid() bool {
	for _, st := range ServiceTypes {
		if st == s {
			return true
		}
	}
	return false
}

// Category groups complexity factors (Access, Facilities, Irregularities, Site, Safety).
type Category string

const (
	CategoryAccess         Category = "access"
	CategoryFacilities     Category = "facilities"
	CategoryIrregularities Category = "irregularities"
	CategorySite           Category = "site"
	CategorySafety         Category = "safety"
)

// Valid reports whether c is a known AFISS category.
func (c Category) Valid() bool {
	switch c {
	case CategoryAccess, CategoryFacilities, CategoryIrregularities, CategorySite, CategorySafety:
		return true
	}
	return false
}

// ComplexityFactor is a named, signed adjustment to a baseline production score.
// ImpactPercentage is a fraction (0.15 means +15%); negative values reduce time.
// Factors are never deleted, only deactivated, because jobs reference them by ID.
type ComplexityFactor struct {
	ID                     string        `json:"id" yaml:"id"`
	Name                   string        `json:"name" yaml:"name"`
	Category               Category      `json:"category" yaml:"category"`
	ImpactPercentage       float64       `json:"impact_percentage" yaml:"impact_percentage"`
	ApplicableServiceTypes []ServiceType `json:"applicable_service_types" yaml:"applicable_service_types"`
	Active                 bool          `json:"active" yaml:"active"`
}

// AppliesTo reports whether the factor is offered for the given service type.
// A factor with no applicable service types applies to all of them.
func (f ComplexityFactor) AppliesTo(st ServiceType) bool {
	if len(f.ApplicableServiceTypes) == 0 {
		return true
	}
	for _, s := range f.ApplicableServiceTypes {
		if s == st {
			return true
		}
	}
	return false
}
