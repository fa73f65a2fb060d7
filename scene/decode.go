package scene

import (
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

// Decode parses raw document bytes into the generic object tree consumed
// by Load.
func Decode(data []byte) (map[string]interface{}, error) {
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, errors.Wrap(ErrParseStructure, err.Error())
	}
	return tree, nil
}

// Parse decodes and loads a document in one step.
func Parse(data []byte, log *zap.Logger) (*Document, error) {
	tree, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Load(tree, WithLogger(log))
}
