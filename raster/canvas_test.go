package raster

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/matt-g-everett/lottietx/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `{
  "fr": 30, "ip": 0, "op": 10, "w": 10, "h": 10,
  "layers": [{
    "ty": 4, "nm": "box", "ind": 1, "ip": 0, "op": 10,
    "ks": {"o": {"a": 0, "k": %s}},
    "shapes": [
      {"ty": "rc", "nm": "r", "p": {"a": 0, "k": [5, 5]}, "s": {"a": 0, "k": [4, 4]}},
      {"ty": "fl", "nm": "f", "c": {"a": 0, "k": [1, 0, 0, 1]}, "o": {"a": 0, "k": 100}}
    ]
  }]
}`

func renderSquare(t *testing.T, opacity string) *Canvas {
	t.Helper()
	tree, err := scene.Decode([]byte(fmt.Sprintf(square, opacity)))
	require.NoError(t, err)
	doc, err := scene.Load(tree)
	require.NoError(t, err)
	require.NoError(t, doc.Update(0))

	c := New(10, 10, Fit(doc.Width(), doc.Height(), 10, 10), QualityMedium)
	require.NoError(t, doc.Render(c))
	return c
}

func TestFillsRectangle(t *testing.T) {
	c := renderSquare(t, "100")
	img := c.Image()

	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(9, 9))
}

func TestLayerOpacityScalesCoverage(t *testing.T) {
	c := renderSquare(t, "50")
	px := c.Image().RGBAAt(5, 5)

	assert.InDelta(t, 128, int(px.A), 2)
	assert.InDelta(t, 128, int(px.R), 2)
	assert.Zero(t, px.G)
}

func TestClearDropsPixelsAndState(t *testing.T) {
	c := renderSquare(t, "100")
	c.SaveState()
	c.Clear()

	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(5, 5))
	assert.Empty(t, c.stack)
}

func TestRestoreStateIsolatesScopes(t *testing.T) {
	c := New(4, 4, Identity, QualityMedium)
	c.SaveState()
	c.cur.alpha = 0.25
	c.cur.m = Fit(2, 2, 4, 4)
	c.RestoreState()

	assert.Equal(t, 1.0, c.cur.alpha)
	assert.Equal(t, Identity, c.cur.m)

	// Unbalanced restores are ignored.
	c.RestoreState()
	assert.Equal(t, 1.0, c.cur.alpha)
}

func TestFitCentresDocument(t *testing.T) {
	m := Fit(100, 50, 200, 200)
	assert.Equal(t, 2.0, m[0])
	assert.Equal(t, 2.0, m[4])
	assert.Equal(t, 0.0, m[2])
	assert.Equal(t, 50.0, m[5])

	assert.Equal(t, Identity, Fit(0, 0, 10, 10))
}

func TestMulAppliesRightOperandFirst(t *testing.T) {
	translate := [6]float64{1, 0, 3, 0, 1, 4}
	scale := [6]float64{2, 0, 0, 0, 2, 0}

	m := mul(scale, translate)
	assert.Equal(t, [6]float64{2, 0, 6, 0, 2, 8}, [6]float64(m))
}

func renderSquareAt(t *testing.T, q Quality) *Canvas {
	t.Helper()
	tree, err := scene.Decode([]byte(fmt.Sprintf(square, "100")))
	require.NoError(t, err)
	doc, err := scene.Load(tree)
	require.NoError(t, err)
	require.NoError(t, doc.Update(0))

	c := New(10, 10, Fit(doc.Width(), doc.Height(), 10, 10), q)
	require.NoError(t, doc.Render(c))
	return c
}

func TestQualitySetsWorkingResolution(t *testing.T) {
	tests := []struct {
		quality Quality
		work    int
	}{
		{QualityLow, 5},
		{QualityMedium, 10},
		{QualityHigh, 20},
	}
	for _, tt := range tests {
		c := renderSquareAt(t, tt.quality)
		assert.Equal(t, tt.quality, c.Quality())
		assert.Equal(t, tt.work, c.WorkBounds().Dx(), tt.quality.String())

		img := c.Image()
		assert.Equal(t, 10, img.Bounds().Dx(), tt.quality.String())
		assert.InDelta(t, 255, int(img.RGBAAt(5, 5).R), 1, tt.quality.String())
		assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0), tt.quality.String())
	}
}

func TestParseQuality(t *testing.T) {
	for s, want := range map[string]Quality{"low": QualityLow, "": QualityMedium, "Medium": QualityMedium, "high": QualityHigh} {
		q, err := ParseQuality(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, q, s)
	}
	_, err := ParseQuality("ultra")
	assert.Error(t, err)

	text, err := QualityHigh.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "high", string(text))
}
