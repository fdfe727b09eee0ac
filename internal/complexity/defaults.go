package complexity

import "github.com/treeshoptech/treeshop-app-sub001/internal/model"

var (
	allServices  = []model.ServiceType{}
	groundWork   = []model.ServiceType{model.ServiceForestryMulching, model.ServiceLandClearing, model.ServiceStumpGrinding}
	treeWork     = []model.ServiceType{model.ServiceTreeRemoval, model.ServiceTreeTrimming}
	stumpOnly    = []model.ServiceType{model.ServiceStumpGrinding}
	clearingWork = []model.ServiceType{model.ServiceForestryMulching, model.ServiceLandClearing}
)

func factor(id, name string, cat model.Category, impact float64, services []model.ServiceType) model.ComplexityFactor {
	return model.ComplexityFactor{
		ID:                     id,
		Name:                   name,
		Category:               cat,
		ImpactPercentage:       impact,
		ApplicableServiceTypes: services,
		Active:                 true,
	}
}

// DefaultFactors returns the system-seeded AFISS factors.
func DefaultFactors() []model.ComplexityFactor {
	return []model.ComplexityFactor{
		// Access
		factor("access_narrow_gate", "Narrow gate (under 6 ft)", model.CategoryAccess, 0.12, allServices),
		factor("access_no_equipment", "No equipment access, hand carry", model.CategoryAccess, 0.25, allServices),
		factor("access_steep_slope", "Steep slope", model.CategoryAccess, 0.15, allServices),
		factor("access_long_drag", "Long drag to chipper or truck", model.CategoryAccess, 0.10, treeWork),
		factor("access_soft_lawn", "Soft lawn requiring mats", model.CategoryAccess, 0.08, allServices),

		// Facilities
		factor("facilities_power_lines", "Power lines in work zone", model.CategoryFacilities, 0.30, allServices),
		factor("facilities_structure_near", "Structure within fall zone", model.CategoryFacilities, 0.20, treeWork),
		factor("facilities_pool", "Pool or hardscape nearby", model.CategoryFacilities, 0.10, allServices),
		factor("facilities_septic", "Septic system or drain field", model.CategoryFacilities, 0.08, groundWork),
		factor("facilities_buried_utilities", "Buried utilities marked", model.CategoryFacilities, 0.10, groundWork),

		// Irregularities
		factor("irregular_decayed_stump", "Stump already decayed", model.CategoryIrregularities, -0.15, stumpOnly),
		factor("irregular_rocks", "Rocky ground", model.CategoryIrregularities, 0.20, groundWork),
		factor("irregular_large_roots", "Large surface roots", model.CategoryIrregularities, 0.10, stumpOnly),
		factor("irregular_embedded_metal", "Embedded metal or debris", model.CategoryIrregularities, 0.25, allServices),
		factor("irregular_dead_wood", "Dead or brittle wood", model.CategoryIrregularities, 0.15, treeWork),
		factor("irregular_multi_stem", "Multi-stem or codominant leaders", model.CategoryIrregularities, 0.10, treeWork),

		// Site
		factor("site_wet_ground", "Wet or saturated ground", model.CategorySite, 0.15, groundWork),
		factor("site_dense_understory", "Dense understory", model.CategorySite, 0.10, clearingWork),
		factor("site_open_cleared", "Open, previously cleared ground", model.CategorySite, -0.10, clearingWork),
		factor("site_hoa_restrictions", "HOA or noise restrictions", model.CategorySite, 0.05, allServices),
		factor("site_debris_haul", "Debris haul-off required", model.CategorySite, 0.15, treeWork),

		// Safety
		factor("safety_traffic_control", "Traffic control required", model.CategorySafety, 0.20, allServices),
		factor("safety_hazard_tree", "Hazard tree", model.CategorySafety, 0.25, treeWork),
		factor("safety_stinging_insects", "Stinging insects", model.CategorySafety, 0.05, allServices),
		factor("safety_public_area", "Public area with foot traffic", model.CategorySafety, 0.10, allServices),
	}
}

// DefaultCatalog returns the system-seeded catalog.
func DefaultCatalog() Catalog {
	return NewCatalog(DefaultFactors())
}
