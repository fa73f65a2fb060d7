package util

import "math"

// lutSize is the number of samples taken along an easing curve.
const lutSize = 64

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 {
	return t
}

// Hold never leaves the starting value of a segment.
func Hold(t float64) float64 {
	return 0
}

// GenerateLut samples fn at length evenly spaced points over [0, 1].
func GenerateLut(fn Easing, length int) []float64 {
	lut := make([]float64, length)
	for i := 0; i < length; i++ {
		lut[i] = fn(float64(i) / float64(length-1))
	}
	return lut
}

// LutEasing looks up eased values in a table produced by GenerateLut,
// blending linearly between neighbouring samples.
func LutEasing(lut []float64) Easing {
	last := len(lut) - 1
	return func(t float64) float64 {
		if t <= 0 {
			return lut[0]
		} else if t >= 1 {
			return lut[last]
		}

		pos := t * float64(last)
		i := int(pos)
		frac := pos - float64(i)
		return lut[i] + (lut[i+1]-lut[i])*frac
	}
}

// CubicBezier returns the easing for the curve through (0,0), (x1,y1),
// (x2,y2) and (1,1). Handles lying on the diagonal collapse to Linear.
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	if x1 == y1 && x2 == y2 {
		return Linear
	}

	x1 = clamp01(x1)
	x2 = clamp01(x2)
	curve := func(t float64) float64 {
		s := solveX(t, x1, x2)
		return bezier(s, y1, y2)
	}
	return LutEasing(GenerateLut(curve, lutSize))
}

func bezier(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierSlope(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

// solveX finds the curve parameter whose x coordinate is x.
func solveX(x, x1, x2 float64) float64 {
	t := x
	for i := 0; i < 8; i++ {
		d := bezier(t, x1, x2) - x
		if math.Abs(d) < 1e-7 {
			return t
		}
		slope := bezierSlope(t, x1, x2)
		if math.Abs(slope) < 1e-6 {
			break
		}
		t -= d / slope
	}

	// Newton did not converge, fall back to bisection.
	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 32; i++ {
		v := bezier(t, x1, x2)
		if math.Abs(v-x) < 1e-7 {
			break
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
