package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/math/f64"
)

// Ref is a read-only handle to a node and its last evaluated state. It is
// only valid until the next Update of its Document.
type Ref struct {
	doc *Document
	id  NodeID
}

func (r Ref) node() *node {
	return &r.doc.nodes[r.id]
}

// Valid reports whether r refers to a node.
func (r Ref) Valid() bool {
	return r.doc != nil && r.id >= 0 && int(r.id) < len(r.doc.nodes)
}

func (r Ref) ID() NodeID        { return r.id }
func (r Ref) Kind() Kind        { return r.node().kind }
func (r Ref) Name() string      { return r.node().name }
func (r Ref) Hidden() bool      { return r.node().hidden }
func (r Ref) AcceptsTrim() bool { return r.node().acceptsTrim() }

// ShapeKind returns ShapeNone for nodes that are not shapes.
func (r Ref) ShapeKind() ShapeKind {
	if n := r.node(); n.shape != nil {
		return n.shape.kind
	}
	return ShapeNone
}

// Children returns the owned children in stored (paint) order.
func (r Ref) Children() []Ref {
	return r.doc.refs(r.node().children)
}

// Parent returns the owning node, if any.
func (r Ref) Parent() (Ref, bool) {
	p := r.node().parent
	if p == NoNode {
		return Ref{}, false
	}
	return r.doc.Ref(p), true
}

// Transform returns the owned transform of a layer.
func (r Ref) Transform() (Ref, bool) {
	t := r.node().transform
	if t == NoNode {
		return Ref{}, false
	}
	return r.doc.Ref(t), true
}

// LinkedLayer returns the layer whose transform this layer inherits.
func (r Ref) LinkedLayer() (Ref, bool) {
	n := r.node()
	if n.layer == nil || n.layer.linked == NoNode {
		return Ref{}, false
	}
	return r.doc.Ref(n.layer.linked), true
}

// Effects returns the effects of a layer in declaration order.
func (r Ref) Effects() []Ref {
	if n := r.node(); n.layer != nil {
		return r.doc.refs(n.layer.effects)
	}
	return nil
}

// Active reports whether a layer's time window covers the evaluated frame.
// Nodes other than layers are always active.
func (r Ref) Active() bool {
	if n := r.node(); n.layer != nil {
		return n.layer.active
	}
	return true
}

// Matrix returns the resolved affine matrix of a transform node.
func (r Ref) Matrix() f64.Aff3 {
	if n := r.node(); n.xf != nil {
		return n.xf.matrix
	}
	return identity
}

// Opacity returns the evaluated opacity in [0, 1] of a transform, fill,
// stroke or effect.
func (r Ref) Opacity() float64 {
	n := r.node()
	switch {
	case n.xf != nil:
		return n.xf.alpha
	case n.shape != nil:
		return n.shape.alpha
	case n.effect != nil:
		return n.effect.alpha
	}
	return 1
}

// Color returns the evaluated colour of a fill, stroke or effect.
func (r Ref) Color() colorful.Color {
	n := r.node()
	switch {
	case n.shape != nil:
		return n.shape.col
	case n.effect != nil:
		return n.effect.col
	}
	return colorful.Color{}
}

// StrokeWidth returns the evaluated width of a stroke.
func (r Ref) StrokeWidth() float64 {
	if n := r.node(); n.shape != nil {
		return n.shape.stroke
	}
	return 0
}

// EffectType returns the effect type code.
func (r Ref) EffectType() int {
	if n := r.node(); n.effect != nil {
		return n.effect.typ
	}
	return 0
}

// Path returns the evaluated geometry of a shape with the applied trim
// already cut out.
func (r Ref) Path() Path {
	n := r.node()
	if n.shape == nil {
		return Path{}
	}
	if n.shape.hasTrim {
		return n.shape.trimmed
	}
	return n.shape.path
}

// AppliedTrim returns the trim a shape received from its trim host.
func (r Ref) AppliedTrim() (Trim, bool) {
	if n := r.node(); n.shape != nil && n.shape.hasTrim {
		return n.shape.trim, true
	}
	return Trim{}, false
}

// Trim returns the evaluated parameters of a trim path. For the active
// trim host this includes every trim merged into it.
func (r Ref) Trim() (Trim, bool) {
	if n := r.node(); n.trim != nil {
		return n.trim.active, true
	}
	return Trim{}, false
}

// TrimHost returns the active trim host of a shape layer or group.
func (r Ref) TrimHost() (Ref, bool) {
	n := r.node()
	host := NoNode
	switch {
	case n.layer != nil:
		host = n.layer.host
	case n.shape != nil && n.shape.kind == ShapeGroup:
		host = n.shape.host
	}
	if host == NoNode {
		return Ref{}, false
	}
	return r.doc.Ref(host), true
}
