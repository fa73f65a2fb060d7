package scene

import "math"

var updaters [numKinds]func(d *Document, id NodeID, frame float64)

func init() {
	updaters = [numKinds]func(*Document, NodeID, float64){
		KindTransform:  updateTransform,
		KindTrimPath:   updateTrim,
		KindShape:      updateShape,
		KindEffect:     updateEffect,
		KindLayer:      updateLayer,
		KindShapeLayer: updateLayer,
	}
}

// Update evaluates every visible node for frame, in place.
func (d *Document) Update(frame int) error {
	if d.nodes == nil {
		return ErrReleased
	}

	f := float64(frame)
	for _, id := range d.roots {
		d.update(id, f)
	}
	d.finishTrims()
	d.frame = frame
	return nil
}

func (d *Document) update(id NodeID, frame float64) {
	n := &d.nodes[id]
	if n.hidden {
		return
	}
	updaters[n.kind](d, id, frame)
}

func updateLayer(d *Document, id NodeID, frame float64) {
	n := &d.nodes[id]
	ld := n.layer
	local := frame - ld.startTime

	// A linked layer may borrow this transform even when the layer itself
	// is outside its window.
	if n.transform != NoNode {
		d.update(n.transform, local)
	}

	ld.active = frame >= ld.inPoint && frame <= ld.outPoint
	ld.host = NoNode
	if !ld.active {
		return
	}

	for _, e := range ld.effects {
		d.update(e, local)
	}
	if n.kind == KindShapeLayer {
		for _, c := range n.children {
			d.update(c, local)
		}
		ld.host = d.propagateTrim(n.children)
	}
}

// propagateTrim scans children once in stored order. The first trim
// becomes the host, later trims merge into it, and trim-accepting shapes
// after the host receive its parameters as they stand at that point.
func (d *Document) propagateTrim(children []NodeID) NodeID {
	host := NoNode
	for _, c := range children {
		cn := &d.nodes[c]
		if cn.hidden {
			continue
		}

		switch {
		case cn.kind == KindTrimPath:
			if host == NoNode {
				host = c
			} else {
				ht := d.nodes[host].trim
				ht.active = ht.active.Merge(cn.trim.own)
			}
		case host != NoNode && cn.acceptsTrim():
			d.applyTrim(c, d.nodes[host].trim.active)
		}
	}
	return host
}

// applyTrim hands t to a shape. Groups forward it to their trim-accepting
// descendants, composing it with any trim they already carry.
func (d *Document) applyTrim(id NodeID, t Trim) {
	n := &d.nodes[id]
	sd := n.shape
	if sd.kind == ShapeGroup {
		for _, c := range n.children {
			if cn := &d.nodes[c]; !cn.hidden && cn.acceptsTrim() {
				d.applyTrim(c, t)
			}
		}
	}
	if sd.hasTrim {
		sd.trim = t.Merge(sd.trim)
	} else {
		sd.trim = t
		sd.hasTrim = true
	}
}

// finishTrims cuts the applied trims out of the evaluated geometry.
func (d *Document) finishTrims() {
	for i := range d.nodes {
		sd := d.nodes[i].shape
		if sd == nil || !sd.hasTrim || !sd.hasGeometry() {
			continue
		}
		sd.trimmed = sd.path.Trim(sd.trim, sd.trimmed.Points)
	}
}

func updateTransform(d *Document, id NodeID, frame float64) {
	xf := d.nodes[id].xf
	a := xf.anchor.At(frame)
	p := xf.position.At(frame)
	s := xf.scale.At(frame)
	r := xf.rotation.At(frame)[0] * math.Pi / 180

	// translate(p) * rotate(r) * scale(s) * translate(-a)
	sin, cos := math.Sincos(r)
	sx, sy := s[0]/100, s[1]/100
	m := &xf.matrix
	m[0], m[1] = cos*sx, -sin*sy
	m[3], m[4] = sin*sx, cos*sy
	m[2] = p[0] - (m[0]*a[0] + m[1]*a[1])
	m[5] = p[1] - (m[3]*a[0] + m[4]*a[1])
	xf.alpha = xf.opacity.At(frame)[0] / 100
}

func updateTrim(d *Document, id NodeID, frame float64) {
	d.nodes[id].trim.update(frame)
}

func updateShape(d *Document, id NodeID, frame float64) {
	n := &d.nodes[id]
	sd := n.shape
	sd.hasTrim = false

	switch sd.kind {
	case ShapeRect:
		sd.path = rectPath(sd.position.At(frame).Vec2(), sd.size.At(frame).Vec2(), sd.path.Points)
	case ShapeEllipse:
		sd.path = ellipsePath(sd.position.At(frame).Vec2(), sd.size.At(frame).Vec2(), sd.path.Points)
	case ShapePath:
		sd.path = sd.curve.at(frame, sd.path.Points)
	case ShapeFill, ShapeStroke:
		sd.col, _ = sd.color.At(frame).Color()
		sd.alpha = sd.opacity.At(frame)[0] / 100
		if sd.kind == ShapeStroke {
			sd.stroke = sd.width.At(frame)[0]
		}
	case ShapeGroup:
		for _, c := range n.children {
			d.update(c, frame)
		}
		sd.host = d.propagateTrim(n.children)
	}
}

func updateEffect(d *Document, id NodeID, frame float64) {
	ed := d.nodes[id].effect
	ed.col, _ = ed.color.At(frame).Color()
	ed.alpha = ed.opacity.At(frame)[0]
}
