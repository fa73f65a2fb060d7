package util

import (
	"math"
	"strings"

	"github.com/fogleman/ease"
	"github.com/pkg/errors"
)

var curves = map[string]Easing{
	"linear": ease.Linear,
	"quad":   ease.InQuad,
	"cubic":  ease.InCubic,
	"quart":  ease.InQuart,
	"sine":   ease.InSine,
}

// Curve returns the brightness response named by name. An empty name is
// linear.
func Curve(name string) (Easing, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "linear"
	}
	fn, ok := curves[name]
	if !ok {
		return nil, errors.Errorf("unknown curve %q", name)
	}
	return fn, nil
}

// Levels maps every 8-bit channel value through fn.
func Levels(fn Easing) *[256]byte {
	lut := new([256]byte)
	for i := range lut {
		v := clamp01(fn(float64(i) / 255))
		lut[i] = byte(math.Round(v * 255))
	}
	return lut
}
