package scene

import "golang.org/x/image/math/f64"

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// meta holds the load-time constants shared by a Document and its clones.
type meta struct {
	frameRate   float64
	startFrame  int
	endFrame    int
	width       float64
	height      float64
	markers     map[string]int
	diagnostics []Diagnostic
}

// Document is a loaded animation: an arena of nodes, the root layers in
// paint order, and the read-only metadata.
//
// A Document is not safe for concurrent use. During playback it belongs to
// a single evaluator goroutine.
type Document struct {
	nodes []node
	roots []NodeID
	meta  *meta
	frame int
}

func (d *Document) FrameRate() float64 { return d.meta.frameRate }
func (d *Document) StartFrame() int    { return d.meta.startFrame }
func (d *Document) EndFrame() int      { return d.meta.endFrame }
func (d *Document) Width() float64     { return d.meta.width }
func (d *Document) Height() float64    { return d.meta.height }

// Len returns the number of nodes in the arena.
func (d *Document) Len() int { return len(d.nodes) }

// Frame returns the frame of the last Update.
func (d *Document) Frame() int { return d.frame }

// Marker resolves a marker name to its frame.
func (d *Document) Marker(name string) (int, bool) {
	f, ok := d.meta.markers[name]
	return f, ok
}

// Markers returns a copy of the marker table.
func (d *Document) Markers() map[string]int {
	out := make(map[string]int, len(d.meta.markers))
	for k, v := range d.meta.markers {
		out[k] = v
	}
	return out
}

// Diagnostics returns the non-fatal problems found while loading.
func (d *Document) Diagnostics() []Diagnostic {
	return d.meta.diagnostics
}

// Ref returns a handle to the node id.
func (d *Document) Ref(id NodeID) Ref {
	return Ref{doc: d, id: id}
}

// Roots returns the root layers in paint order.
func (d *Document) Roots() []Ref {
	return d.refs(d.roots)
}

func (d *Document) refs(ids []NodeID) []Ref {
	out := make([]Ref, len(ids))
	for i, id := range ids {
		out[i] = d.Ref(id)
	}
	return out
}

// Walk visits every node reachable from the roots in pre-order: a layer,
// then its transform, its effects and its children.
func (d *Document) Walk(fn func(r Ref, depth int)) {
	for _, id := range d.roots {
		d.walk(id, 0, fn)
	}
}

func (d *Document) walk(id NodeID, depth int, fn func(Ref, int)) {
	n := &d.nodes[id]
	fn(d.Ref(id), depth)
	if n.transform != NoNode {
		d.walk(n.transform, depth+1, fn)
	}
	if n.layer != nil {
		for _, e := range n.layer.effects {
			d.walk(e, depth+1, fn)
		}
	}
	for _, c := range n.children {
		d.walk(c, depth+1, fn)
	}
}

// Clone deep-copies the tree without re-parsing. Every node, transform
// and trim is owned by the copy; keyframe data and metadata are shared.
func (d *Document) Clone() *Document {
	c := &Document{
		nodes: make([]node, len(d.nodes)),
		roots: append([]NodeID(nil), d.roots...),
		meta:  d.meta,
		frame: d.frame,
	}
	for i := range d.nodes {
		c.nodes[i] = d.nodes[i].clone()
	}
	return c
}

// Release tears the tree down, children before parents. The Document
// cannot be evaluated afterwards.
func (d *Document) Release() {
	d.release(nil)
}

func (d *Document) release(visit func(NodeID)) {
	for _, id := range d.roots {
		d.releaseNode(id, visit)
	}
	d.nodes = nil
	d.roots = nil
}

func (d *Document) releaseNode(id NodeID, visit func(NodeID)) {
	n := &d.nodes[id]
	for _, c := range n.children {
		d.releaseNode(c, visit)
	}
	if n.layer != nil {
		for _, e := range n.layer.effects {
			d.releaseNode(e, visit)
		}
	}
	if n.transform != NoNode {
		d.releaseNode(n.transform, visit)
	}
	if visit != nil {
		visit(id)
	}
	*n = node{parent: NoNode, transform: NoNode}
}
