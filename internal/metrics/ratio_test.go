package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRatio(t *testing.T) {
	r := NewRatio(105, 100, 100)
	assert.Equal(t, RatioDefined, r.State)
	assert.True(t, r.Defined())
	assert.InDelta(t, 105.0, r.Value, 1e-9)
	assert.Equal(t, "105.00", r.String())
}

func TestNewRatioZeroPopulation(t *testing.T) {
	r := NewRatio(0, 0, 100)
	assert.Equal(t, RatioZeroPopulation, r.State)
	assert.False(t, r.Defined())
	assert.Equal(t, "n/a", r.String())
}

func TestNewRatioInfinite(t *testing.T) {
	r := NewRatio(50, 0, 100)
	assert.Equal(t, RatioInfinite, r.State)
	assert.False(t, r.Defined())
	assert.Equal(t, "inf", r.String())
}

func TestRatioStateNames(t *testing.T) {
	assert.Equal(t, "defined", RatioDefined.String())
	assert.Equal(t, "zero-population", RatioZeroPopulation.String())
	assert.Equal(t, "infinite", RatioInfinite.String())
}
