package scene

// Renderer is the capability the tree drives during a render pass.
//
// SaveState and RestoreState bracket every layer and group visit and nest
// to tree depth; an implementation must not leak state from an inner scope
// to its siblings or its parent. Render is the single entry point for
// every node; implementations switch on Ref.Kind and Ref.ShapeKind.
type Renderer interface {
	SaveState()
	RestoreState()
	Render(n Ref) error
}
