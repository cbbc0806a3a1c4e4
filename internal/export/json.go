package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/docbind/internal/doctree"
)

// JSONExporter writes the node list as tagged JSON.
type JSONExporter struct{}

func (e *JSONExporter) ContentType() string { return "application/json" }
func (e *JSONExporter) Extension() string   { return ".json" }

func (e *JSONExporter) Export(w io.Writer, title string, nodes []doctree.Node) error {
	data, err := doctree.MarshalNodes(nodes)
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Title string          `json:"title"`
		Nodes json.RawMessage `json:"nodes"`
	}{Title: title, Nodes: data})
}
