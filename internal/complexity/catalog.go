// Package complexity holds the AFISS complexity-factor catalog and the
// multiplier that adjusts a baseline production score for site conditions.
package complexity

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Catalog maps stable factor IDs to factors. It is passed explicitly into
// every calculation; there is no package-level catalog.
type Catalog map[string]model.ComplexityFactor

// NewCatalog builds a catalog from a list of factors. Later duplicates win.
func NewCatalog(factors []model.ComplexityFactor) Catalog {
	c := make(Catalog, len(factors))
	for _, f := range factors {
		c[f.ID] = f
	}
	return c
}

// Lookup returns the factor for id if it exists and is active.
func (c Catalog) Lookup(id string) (model.ComplexityFactor, bool) {
	f, ok := c[id]
	if !ok || !f.Active {
		return model.ComplexityFactor{}, false
	}
	return f, true
}

// Factors returns every factor sorted by category, then ID.
func (c Catalog) Factors() []model.ComplexityFactor {
	out := make([]model.ComplexityFactor, 0, len(c))
	for _, f := range c {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ForServiceType returns the active factors offered for st.
func (c Catalog) ForServiceType(st model.ServiceType) []model.ComplexityFactor {
	var out []model.ComplexityFactor
	for _, f := range c.Factors() {
		if f.Active && f.AppliesTo(st) {
			out = append(out, f)
		}
	}
	return out
}

// Deactivate returns a copy of c with id marked inactive. The factor stays in
// the catalog so historical jobs that reference it can still be read.
func (c Catalog) Deactivate(id string) (Catalog, error) {
	f, ok := c[id]
	if !ok {
		return nil, eris.Wrapf(model.ErrUnknownFactor, "complexity: deactivate %q", id)
	}
	out := c.clone()
	f.Active = false
	out[id] = f
	return out, nil
}

// Merge returns a copy of c overlaid with extra. Organization-specific
// factors override system defaults with the same ID.
func (c Catalog) Merge(extra Catalog) Catalog {
	out := c.clone()
	for id, f := range extra {
		out[id] = f
	}
	return out
}

// Missing returns the IDs in ids that do not resolve to an active factor.
func (c Catalog) Missing(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := c.Lookup(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

// Validate checks every factor for a known category, an ID, and a fractional impact.
func (c Catalog) Validate() error {
	for id, f := range c {
		if id == "" || f.ID != id {
			return eris.Errorf("complexity: factor key %q does not match id %q", id, f.ID)
		}
		if !f.Category.Valid() {
			return eris.Errorf("complexity: factor %q has unknown category %q", id, f.Category)
		}
		// Impacts are fractions; 15 instead of 0.15 is a data-entry mistake.
		if f.ImpactPercentage <= -1 || f.ImpactPercentage >= 1 {
			return eris.Errorf("complexity: factor %q impact %.2f is not a fraction", id, f.ImpactPercentage)
		}
	}
	return nil
}

func (c Catalog) clone() Catalog {
	out := make(Catalog, len(c))
	for id, f := range c {
		out[id] = f
	}
	return out
}

type catalogFile struct {
	Factors []model.ComplexityFactor `yaml:"factors"`
}

// LoadFile reads organization-specific factors from a YAML file of the form
// below. Unknown keys are rejected.
//
//	factors:
//	  - id: access_crane_required
//	    name: Crane required
//	    category: access
//	    impact_percentage: 0.35
//	    applicable_service_types: [tree_removal]
//	    active: true
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "complexity: read %s", path)
	}
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, eris.Wrapf(err, "complexity: parse %s", path)
	}
	c := NewCatalog(f.Factors)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
