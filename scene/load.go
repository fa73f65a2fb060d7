package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultFrameRate = 30

// Layer type codes.
const (
	layerNull  = 3
	layerShape = 4
)

// LoadOption configures Load.
type LoadOption func(*loader)

// WithLogger routes load diagnostics to log.
func WithLogger(log *zap.Logger) LoadOption {
	return func(l *loader) {
		if log != nil {
			l.log = log
		}
	}
}

type loader struct {
	doc    *Document
	log    *zap.Logger
	byInd  map[int]NodeID
	layers []NodeID
}

// Load builds a Document from a parsed animation object tree. Only a
// missing or malformed layer list fails the load; problems inside a layer
// drop the offending subtree and are reported as Diagnostics.
func Load(tree map[string]interface{}, opts ...LoadOption) (*Document, error) {
	l := &loader{
		doc:   &Document{meta: &meta{markers: map[string]int{}}},
		log:   zap.NewNop(),
		byInd: map[int]NodeID{},
	}
	for _, opt := range opts {
		opt(l)
	}

	if tree == nil {
		return nil, errors.Wrap(ErrParseStructure, "empty document")
	}
	layers, ok := toArray(tree["layers"])
	if !ok {
		return nil, errors.Wrap(ErrParseStructure, "missing top-level layer list")
	}
	if err := l.readMeta(tree); err != nil {
		return nil, err
	}

	// Declared order is top-most first; build from the end so the stored
	// order is paint order.
	for i := len(layers) - 1; i >= 0; i-- {
		obj, ok := toObject(layers[i])
		if !ok {
			l.diagnose("layers", "layer", errors.Wrapf(ErrMalformed, "layer %d is not an object", i))
			continue
		}
		id, err := l.layer(obj)
		if err != nil {
			l.diagnose(toString(obj["nm"]), "layer", err)
			continue
		}
		l.doc.roots = append(l.doc.roots, id)
	}
	l.resolveLinks()
	return l.doc, nil
}

func (l *loader) readMeta(tree map[string]interface{}) error {
	m := l.doc.meta
	m.frameRate = defaultFrameRate
	if fr, ok := toFloat(tree["fr"]); ok && fr > 0 {
		m.frameRate = fr
	}
	m.startFrame, _ = toInt(tree["ip"])
	m.endFrame, _ = toInt(tree["op"])
	if m.endFrame < m.startFrame {
		return errors.Wrapf(ErrParseStructure, "out point %d before in point %d", m.endFrame, m.startFrame)
	}
	m.width, _ = toFloat(tree["w"])
	m.height, _ = toFloat(tree["h"])

	markers, _ := toArray(tree["markers"])
	for _, mv := range markers {
		mo, ok := toObject(mv)
		if !ok {
			continue
		}
		name := toString(mo["cm"])
		frame, ok := toInt(mo["tm"])
		if name == "" || !ok {
			l.diagnose("markers", "marker", errors.Wrap(ErrMalformed, "marker without name or frame"))
			continue
		}
		m.markers[name] = frame
	}
	return nil
}

func (l *loader) diagnose(name, feature string, err error) {
	l.doc.meta.diagnostics = append(l.doc.meta.diagnostics, Diagnostic{Node: name, Feature: feature, Err: err})
	l.log.Warn("lottie node dropped or degraded",
		zap.String("node", name),
		zap.String("feature", feature),
		zap.Error(err))
}

// add appends n to the arena under parent. Linking it into the parent's
// children is left to the caller.
func (l *loader) add(parent NodeID, n node) NodeID {
	id := NodeID(len(l.doc.nodes))
	n.parent = parent
	n.transform = NoNode
	l.doc.nodes = append(l.doc.nodes, n)
	return id
}

func (l *loader) appendChild(parent, child NodeID) {
	l.doc.nodes[parent].children = append(l.doc.nodes[parent].children, child)
}

func (l *loader) layer(obj map[string]interface{}) (NodeID, error) {
	ty, ok := toInt(obj["ty"])
	if !ok {
		return NoNode, errors.Wrap(ErrMalformed, "layer without type")
	}

	var kind Kind
	switch ty {
	case layerShape:
		kind = KindShapeLayer
	case layerNull:
		kind = KindLayer
	default:
		return NoNode, errors.Wrapf(ErrUnsupported, "layer type %d", ty)
	}

	name := toString(obj["nm"])
	ld := &layerData{linked: NoNode, host: NoNode}
	ld.index, _ = toInt(obj["ind"])
	ld.link, ld.hasLink = toInt(obj["parent"])
	ld.inPoint, _ = toFloat(obj["ip"])
	ld.outPoint, ok = toFloat(obj["op"])
	if !ok {
		ld.outPoint = float64(l.doc.meta.endFrame)
	}
	ld.startTime, _ = toFloat(obj["st"])

	hidden := toBool(obj["hd"])
	var xf *transformData
	if !hidden {
		ks, _ := toObject(obj["ks"])
		var err error
		if xf, err = parseTransform(name, ks); err != nil {
			return NoNode, err
		}
	}

	id := l.add(NoNode, node{kind: kind, name: name, hidden: hidden, layer: ld})
	if _, ok := obj["ind"]; ok {
		l.byInd[ld.index] = id
	}
	l.layers = append(l.layers, id)
	if hidden {
		return id, nil
	}
	l.doc.nodes[id].transform = l.add(id, node{kind: KindTransform, name: name, xf: xf})

	effects, _ := toArray(obj["ef"])
	for _, ev := range effects {
		eo, ok := toObject(ev)
		if !ok {
			continue
		}
		eid, err := l.effect(id, eo)
		if err != nil {
			l.diagnose(name, "effect", err)
			continue
		}
		ld.effects = append(ld.effects, eid)
	}

	masks, ok := toArray(obj["maskProperties"])
	if !ok {
		masks, _ = toArray(obj["masksProperties"])
	}
	if len(masks) > 0 {
		l.diagnose(name, "mask properties", errors.Wrapf(ErrUnsupported, "%d mask properties found, but not supported", len(masks)))
	}

	if kind == KindShapeLayer {
		items, _ := toArray(obj["shapes"])
		l.shapes(id, items)
	}
	return id, nil
}

// resolveLinks turns declared parent indices into non-owning handles. A
// missing index leaves the layer unlinked.
func (l *loader) resolveLinks() {
	for _, id := range l.layers {
		ld := l.doc.nodes[id].layer
		if !ld.hasLink {
			continue
		}
		if target, ok := l.byInd[ld.link]; ok && target != id {
			ld.linked = target
			continue
		}
		l.log.Debug("linked layer not found",
			zap.String("layer", l.doc.nodes[id].name),
			zap.Int("parent", ld.link))
	}
}

// shapes builds items from the end of the list, so the stored order is the
// reverse of the declared order.
func (l *loader) shapes(parent NodeID, items []interface{}) {
	for i := len(items) - 1; i >= 0; i-- {
		obj, ok := toObject(items[i])
		if !ok {
			continue
		}
		id, err := l.shape(parent, obj)
		if err != nil {
			l.diagnose(toString(obj["nm"]), "shape", err)
			continue
		}
		l.appendChild(parent, id)
	}
}

func (l *loader) shape(parent NodeID, obj map[string]interface{}) (NodeID, error) {
	ty := toString(obj["ty"])
	name := toString(obj["nm"])
	hidden := toBool(obj["hd"])

	switch ty {
	case "tr":
		return l.transform(parent, name, hidden, obj)
	case "tm":
		return l.trimPath(parent, name, hidden, obj)
	}

	sd := &shapeData{host: NoNode, alpha: 1}
	switch ty {
	case "gr":
		sd.kind = ShapeGroup
	case "rc":
		sd.kind = ShapeRect
	case "el":
		sd.kind = ShapeEllipse
	case "sh":
		sd.kind = ShapePath
	case "fl":
		sd.kind = ShapeFill
	case "st":
		sd.kind = ShapeStroke
	default:
		return NoNode, errors.Wrapf(ErrUnsupported, "shape type %q", ty)
	}

	if !hidden {
		if err := readShape(sd, obj); err != nil {
			return NoNode, errors.Wrapf(err, "shape %q", name)
		}
	}
	id := l.add(parent, node{kind: KindShape, name: name, hidden: hidden, shape: sd})
	if sd.kind == ShapeGroup && !hidden {
		items, _ := toArray(obj["it"])
		l.shapes(id, items)
	}
	return id, nil
}

func readShape(sd *shapeData, obj map[string]interface{}) error {
	var err error
	switch sd.kind {
	case ShapeRect, ShapeEllipse:
		if sd.position, err = parseProperty(obj["p"], Value{}); err != nil {
			return err
		}
		if sd.size, err = parseProperty(obj["s"], Value{}); err != nil {
			return err
		}
	case ShapePath:
		sd.curve, err = parseShapeProperty(obj["ks"])
		if err != nil {
			return err
		}
	case ShapeFill, ShapeStroke:
		if sd.color, err = parseProperty(obj["c"], Value{0, 0, 0, 1}); err != nil {
			return err
		}
		if sd.opacity, err = parseProperty(obj["o"], Value{100}); err != nil {
			return err
		}
		if sd.kind == ShapeStroke {
			if sd.width, err = parseProperty(obj["w"], Value{1}); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseShapeProperty(v interface{}) (shapeProperty, error) {
	obj, ok := toObject(v)
	if !ok {
		return shapeProperty{}, errors.Wrap(ErrMalformed, "path without geometry")
	}

	k := obj["k"]
	if !isKeyframeList(k) {
		shape, ok := parseBezierShape(k)
		if !ok {
			return shapeProperty{}, errors.Wrap(ErrMalformed, "unreadable path geometry")
		}
		return shapeProperty{static: shape}, nil
	}

	raw, _ := toArray(k)
	var sp shapeProperty
	for _, r := range raw {
		ko, _ := toObject(r)
		t, ok := toFloat(ko["t"])
		if !ok {
			return shapeProperty{}, errors.Wrap(ErrMalformed, "path keyframe without time")
		}
		shape, ok := parseBezierShape(ko["s"])
		if !ok {
			if len(sp.keys) == 0 {
				return shapeProperty{}, errors.Wrap(ErrMalformed, "first path keyframe without geometry")
			}
			shape = sp.keys[len(sp.keys)-1].shape
		}
		sp.keys = append(sp.keys, shapeKey{time: t, shape: shape, ease: keyEasing(ko)})
	}
	return sp, nil
}

// transform adds a group transform item. A hidden one keeps its node so
// the stored order is unchanged, but is never evaluated or rendered.
func (l *loader) transform(parent NodeID, name string, hidden bool, obj map[string]interface{}) (NodeID, error) {
	xf, err := parseTransform(name, obj)
	if err != nil {
		return NoNode, err
	}
	return l.add(parent, node{kind: KindTransform, name: name, hidden: hidden, xf: xf}), nil
}

func parseTransform(name string, obj map[string]interface{}) (*transformData, error) {
	xf := &transformData{matrix: identity, alpha: 1}
	props := []struct {
		dst *Property
		key string
		def Value
	}{
		{&xf.anchor, "a", Value{}},
		{&xf.position, "p", Value{}},
		{&xf.scale, "s", Value{100, 100, 100}},
		{&xf.rotation, "r", Value{}},
		{&xf.opacity, "o", Value{100}},
	}
	for _, p := range props {
		prop, err := parseProperty(obj[p.key], p.def)
		if err != nil {
			return nil, errors.Wrapf(err, "transform %q field %q", name, p.key)
		}
		*p.dst = prop
	}
	return xf, nil
}

func (l *loader) trimPath(parent NodeID, name string, hidden bool, obj map[string]interface{}) (NodeID, error) {
	td := &trimData{}
	var err error
	if td.start, err = parseProperty(obj["s"], Value{0}); err != nil {
		return NoNode, errors.Wrapf(err, "trim %q start", name)
	}
	if td.end, err = parseProperty(obj["e"], Value{100}); err != nil {
		return NoNode, errors.Wrapf(err, "trim %q end", name)
	}
	if td.offset, err = parseProperty(obj["o"], Value{0}); err != nil {
		return NoNode, errors.Wrapf(err, "trim %q offset", name)
	}
	td.own, td.active = FullTrim, FullTrim
	return l.add(parent, node{kind: KindTrimPath, name: name, hidden: hidden, trim: td}), nil
}

func (l *loader) effect(parent NodeID, obj map[string]interface{}) (NodeID, error) {
	ty, _ := toInt(obj["ty"])
	name := toString(obj["nm"])
	if ty != EffectFill {
		return NoNode, errors.Wrapf(ErrUnsupported, "effect type %d", ty)
	}

	ed := &effectData{typ: ty, color: staticProperty(Value{0, 0, 0, 1}), opacity: staticProperty(Value{1})}
	params, _ := toArray(obj["ef"])
	for _, pv := range params {
		po, ok := toObject(pv)
		if !ok {
			continue
		}
		var err error
		switch toString(po["nm"]) {
		case "Color":
			ed.color, err = parseProperty(po["v"], Value{0, 0, 0, 1})
		case "Opacity":
			ed.opacity, err = parseProperty(po["v"], Value{1})
		}
		if err != nil {
			return NoNode, errors.Wrapf(err, "effect %q", name)
		}
	}

	hidden := false
	if en, ok := toFloat(obj["en"]); ok && en == 0 {
		hidden = true
	}
	return l.add(parent, node{kind: KindEffect, name: name, hidden: hidden, effect: ed}), nil
}
