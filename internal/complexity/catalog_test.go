package complexity

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

func TestDefaultCatalogValid(t *testing.T) {
	t.Parallel()
	cat := DefaultCatalog()
	require.NoError(t, cat.Validate())
	assert.Len(t, cat, len(DefaultFactors()))

	decayed, ok := cat.Lookup("irregular_decayed_stump")
	require.True(t, ok)
	assert.Less(t, decayed.ImpactPercentage, 0.0)
}

func TestCatalogForServiceType(t *testing.T) {
	t.Parallel()
	cat := DefaultCatalog()

	stump := cat.ForServiceType(model.ServiceStumpGrinding)
	ids := map[string]bool{}
	for _, f := range stump {
		ids[f.ID] = true
		assert.True(t, f.Active)
	}
	assert.True(t, ids["irregular_decayed_stump"])
	assert.True(t, ids["facilities_power_lines"])
	assert.False(t, ids["safety_hazard_tree"])
}

func TestCatalogDeactivate(t *testing.T) {
	t.Parallel()
	cat := DefaultCatalog()

	out, err := cat.Deactivate("access_narrow_gate")
	require.NoError(t, err)

	_, ok := out.Lookup("access_narrow_gate")
	assert.False(t, ok)
	assert.Contains(t, out, "access_narrow_gate")

	// Original untouched.
	_, ok = cat.Lookup("access_narrow_gate")
	assert.True(t, ok)

	_, err = cat.Deactivate("missing")
	assert.True(t, errors.Is(err, model.ErrUnknownFactor))
}

func TestCatalogMergeAndMissing(t *testing.T) {
	t.Parallel()
	base := DefaultCatalog()
	extra := NewCatalog([]model.ComplexityFactor{
		{ID: "access_crane", Category: model.CategoryAccess, ImpactPercentage: 0.35, Active: true},
		{ID: "access_narrow_gate", Category: model.CategoryAccess, ImpactPercentage: 0.2, Active: true},
	})

	merged := base.Merge(extra)
	f, ok := merged.Lookup("access_narrow_gate")
	require.True(t, ok)
	assert.InDelta(t, 0.2, f.ImpactPercentage, 1e-12)
	assert.Equal(t, []string{"nope"}, merged.Missing([]string{"access_crane", "nope"}))
	assert.NotContains(t, base, "access_crane")
}

func TestCatalogValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		factor model.ComplexityFactor
	}{
		{"percent integer", model.ComplexityFactor{ID: "x", Category: model.CategorySite, ImpactPercentage: 15}},
		{"bad category", model.ComplexityFactor{ID: "x", Category: "weather", ImpactPercentage: 0.1}},
		{"empty id", model.ComplexityFactor{Category: model.CategorySite, ImpactPercentage: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, NewCatalog([]model.ComplexityFactor{tt.factor}).Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "factors.yaml")
	content := `
factors:
  - id: access_crane_required
    name: Crane required
    category: access
    impact_percentage: 0.35
    applicable_service_types: [tree_removal]
    active: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	f, ok := cat.Lookup("access_crane_required")
	require.True(t, ok)
	assert.InDelta(t, 0.35, f.ImpactPercentage, 1e-12)
	assert.True(t, f.AppliesTo(model.ServiceTreeRemoval))
	assert.False(t, f.AppliesTo(model.ServiceStumpGrinding))
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("factors:\n  - id: x\n    category: access\n    impact_percentage: 20\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "factors.yaml")
	content := `
factors:
  - id: access_crane_required
    name: Crane required
    category: access
    impact_pct: 0.35
    active: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "impact_pct")
}

func TestLoadFile_EmptyFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, cat)
}
