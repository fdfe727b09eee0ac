package calibrate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceScore_Bounds(t *testing.T) {
	t.Parallel()

	assert.Zero(t, ConfidenceScore(0, 10))
	assert.Zero(t, ConfidenceScore(-3, 10))
	assert.InDelta(t, 100*(1-math.Exp(-1)), ConfidenceScore(10, 10), 1e-9)
	assert.InDelta(t, ConfidenceScore(10, DefaultConfidenceScale), ConfidenceScore(10, 0), 1e-12)

	for n := 0; n <= 1000; n += 50 {
		c := ConfidenceScore(n, 10)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 100.0)
	}
}

func TestConfidenceScore_Monotonic(t *testing.T) {
	t.Parallel()

	for _, scale := range []float64{1, 5, 10, 40} {
		prev := ConfidenceScore(0, scale)
		for n := 1; n <= 200; n++ {
			c := ConfidenceScore(n, scale)
			assert.GreaterOrEqual(t, c, prev, "scale %v n %d", scale, n)
			prev = c
		}
	}
}

func TestConfidenceScore_SmallSamplesScoreLow(t *testing.T) {
	t.Parallel()
	assert.Less(t, ConfidenceScore(1, 10), 10.0)
	assert.Greater(t, ConfidenceScore(50, 10), 99.0)
}
