package calibrate

import "math"

// DefaultConfidenceScale is the sample count at which confidence reaches
// about 63%.
const DefaultConfidenceScale = 10.0

// ConfidenceScore maps a sample count to [0, 100) along the saturating curve
// 100 × (1 − e^(−n/scale)). It is non-decreasing in n, 0 for n <= 0, and
// approaches 100 as n grows. A non-positive scale uses DefaultConfidenceScale.
func ConfidenceScore(n int, scale float64) float64 {
	if n <= 0 {
		return 0
	}
	if scale <= 0 {
		scale = DefaultConfidenceScale
	}
	return 100 * (1 - math.Exp(-float64(n)/scale))
}
