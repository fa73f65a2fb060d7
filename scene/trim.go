package scene

import "math"

// Trim selects the visible fraction of a stroke. Start and End are
// fractions of the path length, Offset a fraction of a full turn.
type Trim struct {
	Start  float64
	End    float64
	Offset float64
}

// FullTrim keeps the whole path.
var FullTrim = Trim{Start: 0, End: 1}

// Full reports whether t keeps the whole path.
func (t Trim) Full() bool {
	s, e := t.ordered()
	return e-s >= 1
}

// Merge composes a later trim into t. The later trim selects a sub-range
// of the range t already keeps, and the offsets add.
func (t Trim) Merge(o Trim) Trim {
	s, e := t.ordered()
	os, oe := o.ordered()
	span := e - s
	return Trim{
		Start:  s + span*os,
		End:    s + span*oe,
		Offset: t.Offset + o.Offset,
	}
}

// Bounds returns the selected range shifted by the offset, with the start
// wrapped into [0, 1). The end may exceed 1 on closed paths.
func (t Trim) Bounds() (float64, float64) {
	s, e := t.ordered()
	s = math.Max(0, math.Min(1, s))
	e = math.Max(0, math.Min(1, e))
	span := e - s
	start := s + t.Offset
	start -= math.Floor(start)
	return start, start + span
}

func (t Trim) ordered() (float64, float64) {
	if t.End < t.Start {
		return t.End, t.Start
	}
	return t.Start, t.End
}

type trimData struct {
	start, end, offset Property

	own    Trim
	active Trim
}

func (td *trimData) update(frame float64) {
	td.own = Trim{
		Start:  td.start.At(frame)[0] / 100,
		End:    td.end.At(frame)[0] / 100,
		Offset: td.offset.At(frame)[0] / 360,
	}
	td.active = td.own
}
