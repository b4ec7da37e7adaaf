package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestStdDev_IsSampleStdDev(t *testing.T) {
	// Sample variance of {2,4,4,4,5,5,7,9} is 32/7
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev(data), 1e-12)
}

func TestStdDev_TooFewValues(t *testing.T) {
	assert.True(t, math.IsNaN(StdDev(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{0.01})))
}

func TestAnnualizedVolatility(t *testing.T) {
	tests := []struct {
		name      string
		returns   []float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "alternating returns",
			returns:   []float64{0.01, -0.01, 0.01, -0.01},
			expected:  math.Sqrt(0.0004/3.0) * math.Sqrt(252),
			tolerance: 1e-12,
		},
		{
			name:      "constant returns have zero volatility",
			returns:   []float64{0.001, 0.001, 0.001},
			expected:  0,
			tolerance: 1e-15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AnnualizedVolatility(tt.returns), tt.tolerance)
		})
	}
}

func TestAnnualizedVolatility_Undefined(t *testing.T) {
	assert.True(t, math.IsNaN(AnnualizedVolatility([]float64{})))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}
