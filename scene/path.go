package scene

import (
	"math"

	"golang.org/x/image/math/f64"
)

const (
	ellipseSegments = 32
	curveSteps      = 12
)

// Path is a flattened polyline in the local space of its shape.
type Path struct {
	Points []f64.Vec2
	Closed bool
}

// Length returns the arc length, including the closing segment of a
// closed path.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.Points); i++ {
		total += dist(p.Points[i-1], p.Points[i])
	}
	if p.Closed && len(p.Points) > 1 {
		total += dist(p.Points[len(p.Points)-1], p.Points[0])
	}
	return total
}

// Trim keeps the part of the path selected by t, writing the points into
// buf. buf must not share storage with p. The result is open unless t
// keeps the whole path.
func (p Path) Trim(t Trim, buf []f64.Vec2) Path {
	if t.Full() || len(p.Points) < 2 {
		return Path{Points: append(buf[:0], p.Points...), Closed: p.Closed}
	}

	out := buf[:0]
	start, end := t.Bounds()
	length := p.Length()
	if end-start <= 0 || length == 0 {
		return Path{Points: out}
	}

	if end <= 1 {
		out = p.extract(start*length, end*length, out)
	} else {
		out = p.extract(start*length, length, out)
		if p.Closed {
			out = p.extract(0, (end-1)*length, out)
		}
	}
	return Path{Points: out}
}

func (p Path) segments() int {
	if p.Closed {
		return len(p.Points)
	}
	return len(p.Points) - 1
}

// extract appends the points between arc lengths from and to.
func (p Path) extract(from, to float64, out []f64.Vec2) []f64.Vec2 {
	walked := 0.0
	n := len(p.Points)
	for i := 0; i < p.segments(); i++ {
		a, b := p.Points[i], p.Points[(i+1)%n]
		seg := dist(a, b)
		segStart, segEnd := walked, walked+seg
		walked = segEnd
		if seg == 0 || segEnd < from || segStart >= to {
			continue
		}

		if len(out) == 0 || segStart < from {
			out = append(out, lerpPoint(a, b, math.Max(0, (from-segStart)/seg)))
		}
		out = append(out, lerpPoint(a, b, math.Min(1, (to-segStart)/seg)))
	}
	return out
}

func dist(a, b f64.Vec2) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

func lerpPoint(a, b f64.Vec2, t float64) f64.Vec2 {
	return f64.Vec2{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// rectPath builds the outline of a rectangle centred on c, starting at the
// top-right corner and running clockwise.
func rectPath(c, size f64.Vec2, buf []f64.Vec2) Path {
	hw, hh := size[0]/2, size[1]/2
	pts := append(buf[:0],
		f64.Vec2{c[0] + hw, c[1] - hh},
		f64.Vec2{c[0] + hw, c[1] + hh},
		f64.Vec2{c[0] - hw, c[1] + hh},
		f64.Vec2{c[0] - hw, c[1] - hh},
	)
	return Path{Points: pts, Closed: true}
}

// ellipsePath approximates an ellipse centred on c, starting at the top.
func ellipsePath(c, size f64.Vec2, buf []f64.Vec2) Path {
	rx, ry := size[0]/2, size[1]/2
	pts := buf[:0]
	for i := 0; i < ellipseSegments; i++ {
		a := 2*math.Pi*float64(i)/ellipseSegments - math.Pi/2
		pts = append(pts, f64.Vec2{c[0] + rx*math.Cos(a), c[1] + ry*math.Sin(a)})
	}
	return Path{Points: pts, Closed: true}
}

// bezierShape is one key of an "sh" path. Tangents are relative to their
// vertex.
type bezierShape struct {
	vertices []f64.Vec2
	in       []f64.Vec2
	out      []f64.Vec2
	closed   bool
}

func (b *bezierShape) flatten(buf []f64.Vec2) Path {
	pts := buf[:0]
	n := len(b.vertices)
	if n == 0 {
		return Path{Points: pts}
	}

	pts = append(pts, b.vertices[0])
	segments := n - 1
	if b.closed {
		segments = n
	}
	for i := 0; i < segments; i++ {
		j := (i + 1) % n
		p0 := b.vertices[i]
		p1 := f64.Vec2{p0[0] + b.out[i][0], p0[1] + b.out[i][1]}
		p3 := b.vertices[j]
		p2 := f64.Vec2{p3[0] + b.in[j][0], p3[1] + b.in[j][1]}
		for s := 1; s <= curveSteps; s++ {
			if b.closed && j == 0 && s == curveSteps {
				break
			}
			pts = append(pts, cubicPoint(p0, p1, p2, p3, float64(s)/curveSteps))
		}
	}
	return Path{Points: pts, Closed: b.closed}
}

func cubicPoint(p0, p1, p2, p3 f64.Vec2, t float64) f64.Vec2 {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return f64.Vec2{
		a*p0[0] + b*p1[0] + c*p2[0] + d*p3[0],
		a*p0[1] + b*p1[1] + c*p2[1] + d*p3[1],
	}
}

type shapeKey struct {
	time  float64
	shape bezierShape
	ease  func(float64) float64
}

// shapeProperty is the keyframed variant of Property for bezier paths.
type shapeProperty struct {
	static bezierShape
	keys   []shapeKey
	work   bezierShape
}

func (p *shapeProperty) at(frame float64, buf []f64.Vec2) Path {
	if len(p.keys) == 0 {
		return p.static.flatten(buf)
	}
	if frame <= p.keys[0].time {
		return p.keys[0].shape.flatten(buf)
	}

	last := len(p.keys) - 1
	i := segmentIndex(len(p.keys), frame, func(i int) float64 { return p.keys[i].time })
	if i == last {
		return p.keys[last].shape.flatten(buf)
	}

	a, b := &p.keys[i].shape, &p.keys[i+1].shape
	if len(a.vertices) != len(b.vertices) {
		return a.flatten(buf)
	}
	span := p.keys[i+1].time - p.keys[i].time
	t := p.keys[i].ease((frame - p.keys[i].time) / span)
	p.work.vertices = lerpPoints(p.work.vertices[:0], a.vertices, b.vertices, t)
	p.work.in = lerpPoints(p.work.in[:0], a.in, b.in, t)
	p.work.out = lerpPoints(p.work.out[:0], a.out, b.out, t)
	p.work.closed = a.closed
	return p.work.flatten(buf)
}

func lerpPoints(dst, a, b []f64.Vec2, t float64) []f64.Vec2 {
	for i := range a {
		dst = append(dst, lerpPoint(a[i], b[i], t))
	}
	return dst
}

// clone gives the copy its own interpolation scratch space.
func (p shapeProperty) clone() shapeProperty {
	p.work = bezierShape{}
	return p
}

func parseBezierShape(v interface{}) (bezierShape, bool) {
	if arr, ok := toArray(v); ok && len(arr) > 0 {
		// Keyframe starts wrap the shape in a one element array.
		v = arr[0]
	}
	obj, ok := toObject(v)
	if !ok {
		return bezierShape{}, false
	}

	vs, ok := toPoints(obj["v"])
	if !ok {
		return bezierShape{}, false
	}
	in, okIn := toPoints(obj["i"])
	out, okOut := toPoints(obj["o"])
	if !okIn || len(in) != len(vs) {
		in = make([]f64.Vec2, len(vs))
	}
	if !okOut || len(out) != len(vs) {
		out = make([]f64.Vec2, len(vs))
	}
	return bezierShape{vertices: vs, in: in, out: out, closed: toBool(obj["c"])}, true
}

func toPoints(v interface{}) ([]f64.Vec2, bool) {
	arr, ok := toArray(v)
	if !ok {
		return nil, false
	}
	pts := make([]f64.Vec2, 0, len(arr))
	for _, p := range arr {
		val, ok := toValue(p, Value{})
		if !ok {
			return nil, false
		}
		pts = append(pts, val.Vec2())
	}
	return pts, true
}
