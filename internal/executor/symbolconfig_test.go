package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLotForIntensityLooksUpMapping(t *testing.T) {
	c := SymbolConfig{LotMapping: map[int]float64{1: 0.1, 2: 0.25, 3: 0.5}}
	assert.Equal(t, 0.1, c.LotForIntensity(1))
	assert.Equal(t, 0.25, c.LotForIntensity(2))
	assert.Equal(t, 0.5, c.LotForIntensity(3))
}

func TestLotForIntensityZeroIsAlwaysFlat(t *testing.T) {
	c := SymbolConfig{LotMapping: map[int]float64{0: 99}}
	assert.Zero(t, c.LotForIntensity(0))
}

func TestLotForIntensityUnmappedReturnsZero(t *testing.T) {
	c := SymbolConfig{LotMapping: map[int]float64{1: 0.1}}
	assert.Zero(t, c.LotForIntensity(7))
}
