package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/math/f64"
)

// Kind tags every node of the tree.
type Kind uint8

const (
	KindTransform Kind = iota
	KindTrimPath
	KindShape
	KindEffect
	KindLayer
	KindShapeLayer
	numKinds
)

var kindNames = [numKinds]string{"transform", "trim", "shape", "effect", "layer", "shapeLayer"}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "unknown"
}

// ShapeKind refines KindShape nodes.
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeGroup
	ShapeRect
	ShapeEllipse
	ShapePath
	ShapeFill
	ShapeStroke
)

var shapeNames = [...]string{"none", "group", "rect", "ellipse", "path", "fill", "stroke"}

func (k ShapeKind) String() string {
	if int(k) < len(shapeNames) {
		return shapeNames[k]
	}
	return "unknown"
}

// NodeID indexes a node in its Document's arena.
type NodeID int32

// NoNode is the absent node.
const NoNode NodeID = -1

// node is one arena slot. Exactly one payload pointer is set, matching
// kind; layers carry both layer and, through transform, a transform node.
type node struct {
	kind     Kind
	name     string
	hidden   bool
	parent   NodeID
	children []NodeID

	// transform is the owned layer transform. Group transforms are
	// ordinary children.
	transform NodeID

	layer  *layerData
	xf     *transformData
	trim   *trimData
	shape  *shapeData
	effect *effectData
}

func (n *node) acceptsTrim() bool {
	if n.kind != KindShape {
		return false
	}
	switch n.shape.kind {
	case ShapeGroup, ShapeRect, ShapeEllipse, ShapePath:
		return true
	}
	return false
}

func (n *node) clone() node {
	c := *n
	c.children = append([]NodeID(nil), n.children...)
	if n.layer != nil {
		l := *n.layer
		l.effects = append([]NodeID(nil), n.layer.effects...)
		c.layer = &l
	}
	if n.xf != nil {
		x := *n.xf
		c.xf = &x
	}
	if n.trim != nil {
		t := *n.trim
		c.trim = &t
	}
	if n.shape != nil {
		s := *n.shape
		s.curve = n.shape.curve.clone()
		s.path = Path{}
		s.trimmed = Path{}
		c.shape = &s
	}
	if n.effect != nil {
		e := *n.effect
		c.effect = &e
	}
	return c
}

type layerData struct {
	index     int
	link      int
	hasLink   bool
	linked    NodeID
	inPoint   float64
	outPoint  float64
	startTime float64
	effects   []NodeID

	active bool
	host   NodeID
}

type transformData struct {
	anchor, position, scale, rotation, opacity Property

	matrix f64.Aff3
	alpha  float64
}

type shapeData struct {
	kind ShapeKind

	position, size Property
	curve          shapeProperty
	color, opacity Property
	width          Property

	path    Path
	trimmed Path
	trim    Trim
	hasTrim bool
	col     colorful.Color
	alpha   float64
	stroke  float64
	host    NodeID
}

func (sd *shapeData) hasGeometry() bool {
	switch sd.kind {
	case ShapeRect, ShapeEllipse, ShapePath:
		return true
	}
	return false
}

// EffectFill is the only effect type with a renderer contract.
const EffectFill = 21

type effectData struct {
	typ            int
	color, opacity Property

	col   colorful.Color
	alpha float64
}
