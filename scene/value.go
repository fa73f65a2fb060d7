package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/math/f64"
)

// Value holds up to four components of an animated property.
type Value [4]float64

// Vec2 returns the first two components as a point.
func (v Value) Vec2() f64.Vec2 {
	return f64.Vec2{v[0], v[1]}
}

// Color interprets the value as RGBA. Components above 1 are taken to be
// on a 0-255 scale.
func (v Value) Color() (colorful.Color, float64) {
	scale := 1.0
	if v[0] > 1 || v[1] > 1 || v[2] > 1 {
		scale = 255
	}
	return colorful.Color{R: v[0] / scale, G: v[1] / scale, B: v[2] / scale}, v[3] / scale
}

func lerpValue(a, b Value, t float64) Value {
	var out Value
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toInt(v interface{}) (int, bool) {
	f, ok := toFloat(v)
	return int(f), ok
}

func toBool(v interface{}) bool {
	f, ok := toFloat(v)
	return ok && f != 0
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toObject(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func toArray(v interface{}) ([]interface{}, bool) {
	a, ok := v.([]interface{})
	return a, ok
}

// toValue reads a number or an array of numbers. Missing trailing
// components keep the values from def.
func toValue(v interface{}, def Value) (Value, bool) {
	if f, ok := toFloat(v); ok {
		def[0] = f
		return def, true
	}

	arr, ok := toArray(v)
	if !ok {
		return def, false
	}
	for i := 0; i < len(arr) && i < len(def); i++ {
		f, ok := toFloat(arr[i])
		if !ok {
			return def, false
		}
		def[i] = f
	}
	return def, true
}

func firstFloat(v interface{}) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if arr, ok := toArray(v); ok && len(arr) > 0 {
		return toFloat(arr[0])
	}
	return 0, false
}
