package document

import (
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

// Position is a 1-based location in the source text.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// PositionForPath finds where the key path starts in text. An empty path
// resolves to the document root. Sequence items are addressed by index.
func PositionForPath(text string, path []string) (Position, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return Position{}, ferrors.WrapError(err, ferrors.CategoryDocument, "document does not parse").Build()
	}
	node := Root(&doc)
	if node == nil {
		return Position{}, ferrors.NotFoundError("document is empty").Build()
	}
	if len(path) == 0 {
		return Position{Line: node.Line, Column: node.Column}, nil
	}

	var key *yaml.Node
	for i, segment := range path {
		key, node = child(node, segment)
		if key == nil {
			return Position{}, ferrors.NotFoundError("path not found in document").
				WithContext("path", strings.Join(path[:i+1], ".")).
				Build()
		}
	}
	return Position{Line: key.Line, Column: key.Column}, nil
}
