package scene

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrParseStructure marks a document whose top-level layer list is
	// missing or malformed. It is fatal to the whole load.
	ErrParseStructure = errors.New("malformed document structure")

	// ErrUnsupported marks a declared feature the engine does not handle.
	// The feature is dropped and loading continues.
	ErrUnsupported = errors.New("unsupported feature")

	// ErrMalformed marks a node that could not be built. The node is
	// omitted so its siblings still render.
	ErrMalformed = errors.New("malformed node")

	// ErrReleased is returned when a released Document is evaluated.
	ErrReleased = errors.New("document released")
)

// Diagnostic records a non-fatal problem found while loading.
type Diagnostic struct {
	Node    string
	Feature string
	Err     error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %v", d.Node, d.Feature, d.Err)
}
