package stream

import (
	"github.com/matt-g-everett/lottietx/raster"
	"github.com/matt-g-everett/lottietx/scene"
)

// EventType identifies a controller notification.
type EventType int

const (
	EventStatusChanged EventType = iota
	EventFrameRateChanged
	EventStartFrameChanged
	EventEndFrameChanged
	EventFinished
	EventFrameReady
	EventDirectionChanged
	EventLoopsChanged
	EventDiagnostic
	EventEvaluationFailed
	EventQualityChanged
)

var eventNames = [...]string{
	EventStatusChanged:     "statusChanged",
	EventFrameRateChanged:  "frameRateChanged",
	EventStartFrameChanged: "startFrameChanged",
	EventEndFrameChanged:   "endFrameChanged",
	EventFinished:          "finished",
	EventFrameReady:        "frameReady",
	EventDirectionChanged:  "directionChanged",
	EventLoopsChanged:      "loopsChanged",
	EventDiagnostic:        "diagnostic",
	EventEvaluationFailed:  "evaluationFailed",
	EventQualityChanged:    "qualityChanged",
}

func (t EventType) String() string {
	if t >= 0 && int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event is a notification delivered to listeners registered with
// Controller.OnEvent. Only the fields relevant to Type are set.
type Event struct {
	Type       EventType
	Status     Status
	Frame      int
	FrameRate  float64
	Direction  Direction
	Loops      int
	Quality    raster.Quality
	Surface    *Frame
	Diagnostic scene.Diagnostic
	Err        error
}
