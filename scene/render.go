package scene

var renderers [numKinds]func(d *Document, id NodeID, r Renderer) error

func init() {
	renderers = [numKinds]func(*Document, NodeID, Renderer) error{
		KindTransform:  renderLeaf,
		KindTrimPath:   renderLeaf,
		KindShape:      renderShape,
		KindEffect:     renderLeaf,
		KindLayer:      renderLayer,
		KindShapeLayer: renderLayer,
	}
}

// Render drives r over the tree as evaluated by the last Update.
func (d *Document) Render(r Renderer) error {
	if d.nodes == nil {
		return ErrReleased
	}
	for _, id := range d.roots {
		if err := d.render(id, r); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) render(id NodeID, r Renderer) error {
	if d.nodes[id].hidden {
		return nil
	}
	return renderers[d.nodes[id].kind](d, id, r)
}

func renderLeaf(d *Document, id NodeID, r Renderer) error {
	return r.Render(d.Ref(id))
}

func renderLayer(d *Document, id NodeID, r Renderer) error {
	n := &d.nodes[id]
	ld := n.layer
	if !ld.active {
		return nil
	}

	r.SaveState()
	defer r.RestoreState()

	for _, e := range ld.effects {
		if err := d.render(e, r); err != nil {
			return err
		}
	}

	// The linked layer contributes its transform only, never its content.
	if ld.linked != NoNode {
		if t := d.nodes[ld.linked].transform; t != NoNode {
			if err := r.Render(d.Ref(t)); err != nil {
				return err
			}
		}
	}

	if err := r.Render(d.Ref(id)); err != nil {
		return err
	}
	if n.transform != NoNode {
		if err := d.render(n.transform, r); err != nil {
			return err
		}
	}
	return d.renderChildren(n.children, ld.host, r)
}

func renderShape(d *Document, id NodeID, r Renderer) error {
	n := &d.nodes[id]
	if n.shape.kind != ShapeGroup {
		return r.Render(d.Ref(id))
	}

	r.SaveState()
	defer r.RestoreState()
	if err := r.Render(d.Ref(id)); err != nil {
		return err
	}
	return d.renderChildren(n.children, n.shape.host, r)
}

// renderChildren paints visible children in stored order. Trims never
// paint in place; the active host paints once, after its siblings.
func (d *Document) renderChildren(children []NodeID, host NodeID, r Renderer) error {
	for _, c := range children {
		if d.nodes[c].kind == KindTrimPath {
			continue
		}
		if err := d.render(c, r); err != nil {
			return err
		}
	}
	if host != NoNode {
		return d.render(host, r)
	}
	return nil
}
