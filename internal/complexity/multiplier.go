package complexity

// ComputeMultiplier combines the selected factors into one multiplier:
// 1.0 plus the sum of each factor's impact. Unknown or inactive IDs are
// ignored and duplicates count once. The result is not clamped. An empty
// selection yields 1.0.
func ComputeMultiplier(selected []string, catalog Catalog) float64 {
	seen := make(map[string]struct{}, len(selected))
	m := 1.0
	for _, id := range selected {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if f, ok := catalog.Lookup(id); ok {
			m += f.ImpactPercentage
		}
	}
	return m
}

// Adjustment is a baseline score after complexity adjustment.
type Adjustment struct {
	BaselineScore float64  `json:"baseline_score"`
	Multiplier    float64  `json:"multiplier"`
	AdjustedScore float64  `json:"adjusted_score"`
	Applied       []string `json:"applied,omitempty"`
	Ignored       []string `json:"ignored,omitempty"`
}

// Apply multiplies baseline by the multiplier for selected and reports
// which IDs contributed.
func Apply(baseline float64, selected []string, catalog Catalog) Adjustment {
	m := ComputeMultiplier(selected, catalog)
	adj := Adjustment{
		BaselineScore: baseline,
		Multiplier:    m,
		AdjustedScore: baseline * m,
		Ignored:       catalog.Missing(selected),
	}
	seen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := catalog.Lookup(id); ok {
			adj.Applied = append(adj.Applied, id)
		}
	}
	return adj
}
