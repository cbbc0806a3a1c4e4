// Package export renders an assembled node list into an output format.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
)

// Exporter writes a finished document.
type Exporter interface {
	Export(w io.Writer, title string, nodes []doctree.Node) error
	ContentType() string
	Extension() string
}

// Formats lists the supported format names.
var Formats = []string{"docx", "html", "md", "json"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "docx":
		return &DOCXExporter{}, nil
	case "html", "htm":
		return &HTMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// FormatForPath infers a format from an output file extension.
func FormatForPath(path string) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "docx", "html", "md", "json":
		return ext, true
	case "htm":
		return "html", true
	case "markdown":
		return "md", true
	}
	return "", false
}

// pageRefLabel is the visible placeholder for a page reference in formats
// without field or link support.
func pageRefLabel(anchorID string) string {
	return "#" + anchorID
}
