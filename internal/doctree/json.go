package doctree

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Kind Kind `json:"kind"`
	Node Node `json:"node,omitempty"`
}

// MarshalNodes encodes nodes as a JSON array of {"kind", "node"} objects.
// Encoding is deterministic for equal inputs.
func MarshalNodes(nodes []Node) ([]byte, error) {
	out := make([]envelope, 0, len(nodes))
	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("node %d is nil", i)
		}
		e := envelope{Kind: n.Kind()}
		switch n.(type) {
		case PageBreak, TOCPlaceholder:
		default:
			e.Node = n
		}
		out = append(out, e)
	}
	return json.Marshal(out)
}
