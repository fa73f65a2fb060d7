package raster

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Quality trades render cost against edge smoothness. The zero value is
// QualityMedium.
type Quality int

const (
	// QualityLow rasterises at half resolution and scales up.
	QualityLow Quality = -1
	// QualityMedium rasterises at the output resolution.
	QualityMedium Quality = 0
	// QualityHigh rasterises at twice the output resolution and filters down.
	QualityHigh Quality = 1
)

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityHigh:
		return "high"
	default:
		return "medium"
	}
}

// MarshalText encodes the quality by name.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// ParseQuality accepts low, medium or high. An empty string is medium.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow, nil
	case "", "medium":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	}
	return QualityMedium, errors.Errorf("unknown quality %q", s)
}

// factor is the ratio of working resolution to output resolution.
func (q Quality) factor() float64 {
	switch q {
	case QualityLow:
		return 0.5
	case QualityHigh:
		return 2
	default:
		return 1
	}
}

func (q Quality) resampler() draw.Scaler {
	if q == QualityLow {
		return draw.NearestNeighbor
	}
	return draw.BiLinear
}

// workSize is the internal surface size used for an output of width by
// height at quality q.
func workSize(width, height int, q Quality) (int, int) {
	f := q.factor()
	w, h := int(float64(width)*f+0.5), int(float64(height)*f+0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
