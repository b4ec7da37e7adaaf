package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}

	sma := CalculateSMA(closes, 3)
	require.NotNil(t, sma)
	assert.InDelta(t, 5.0, *sma, 1e-12)

	sma = CalculateSMA(closes, 6)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.5, *sma, 1e-12)
}

func TestCalculateSMA_InsufficientData(t *testing.T) {
	assert.Nil(t, CalculateSMA([]float64{1, 2}, 3))
	assert.Nil(t, CalculateSMA([]float64{1, 2}, 0))
}

func TestIsAboveSMA(t *testing.T) {
	assert.True(t, IsAboveSMA([]float64{1, 2, 3, 4}, 4))
	assert.False(t, IsAboveSMA([]float64{4, 3, 2, 1}, 4))
	// Flat series: last close equals its average, which is not strictly above
	assert.False(t, IsAboveSMA([]float64{100, 100, 100, 100}, 4))
	assert.False(t, IsAboveSMA([]float64{1, 2}, 4))
}
