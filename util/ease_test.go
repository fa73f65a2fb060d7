package util

import (
	"testing"

	"github.com/fogleman/ease"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubicBezierEndpoints(t *testing.T) {
	fn := CubicBezier(0.42, 0, 0.58, 1)
	assert.InDelta(t, 0.0, fn(0), 1e-9)
	assert.InDelta(t, 1.0, fn(1), 1e-9)
	assert.InDelta(t, 0.5, fn(0.5), 1e-3)
}

func TestCubicBezierMonotonic(t *testing.T) {
	fn := CubicBezier(0.33, 0, 0.67, 1)
	prev := fn(0)
	for i := 1; i <= 100; i++ {
		v := fn(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev-1e-9)
		prev = v
	}
}

func TestDiagonalHandlesAreLinear(t *testing.T) {
	fn := CubicBezier(0.25, 0.25, 0.75, 0.75)
	for _, v := range []float64{0, 0.1, 0.5, 0.9, 1} {
		assert.Equal(t, v, fn(v))
	}
}

func TestLutEasingBlends(t *testing.T) {
	fn := LutEasing([]float64{0, 1})
	assert.InDelta(t, 0.25, fn(0.25), 1e-9)
	assert.Equal(t, 0.0, fn(-1))
	assert.Equal(t, 1.0, fn(2))
}

func TestHold(t *testing.T) {
	assert.Equal(t, 0.0, Hold(0.9))
}

func TestCurveLookup(t *testing.T) {
	fn, err := Curve("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, fn(0.5))

	fn, err = Curve("Cubic")
	require.NoError(t, err)
	assert.InDelta(t, 0.125, fn(0.5), 1e-9)

	_, err = Curve("gamma")
	assert.Error(t, err)
}

func TestLevelsKeepsEndpoints(t *testing.T) {
	lut := Levels(ease.InQuad)
	assert.Equal(t, byte(0), lut[0])
	assert.Equal(t, byte(255), lut[255])
	assert.Equal(t, byte(64), lut[128])

	linear := Levels(Linear)
	for i := range linear {
		assert.Equal(t, byte(i), linear[i])
	}
}
