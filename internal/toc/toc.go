// Package toc synthesizes a static table of contents from the heading
// registry. Page numbers are left to the exporter: each line carries a page
// reference bound to its heading's anchor.
package toc

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/dgallion1/docbind/internal/registry"
)

// Style controls the visual shape of TOC lines.
type Style struct {
	// IndentStep is the indent added per heading level below 1.
	IndentStep int
	// Leader is the fill between entry text and the page column.
	Leader string
}

// DefaultStyle indents 360 units per level with a dot leader.
func DefaultStyle() Style {
	return Style{IndentStep: 360, Leader: "."}
}

// Synthesize returns one TOCLine per entry, in entry order.
func Synthesize(entries []registry.Entry, style Style) []doctree.Node {
	if style.IndentStep < 0 {
		style.IndentStep = 0
	}
	if style.Leader == "" {
		style.Leader = "."
	}
	nodes := make([]doctree.Node, 0, len(entries))
	for _, e := range entries {
		level := max(e.Level, doctree.MinHeadingLevel)
		nodes = append(nodes, doctree.TOCLine{
			Text:    e.Text,
			Level:   e.Level,
			Indent:  (level - 1) * style.IndentStep,
			Leader:  style.Leader,
			PageRef: doctree.PageRef{AnchorID: e.AnchorID},
		})
	}
	return nodes
}

// Lines extracts the TOC lines from a node list.
func Lines(nodes []doctree.Node) []doctree.TOCLine {
	var out []doctree.TOCLine
	for _, n := range nodes {
		if l, ok := n.(doctree.TOCLine); ok {
			out = append(out, l)
		}
	}
	return out
}

// FormatText renders lines as fixed-width text. Each level indents two
// spaces; the leader fills up to width and the page column shows the anchor
// in braces.
func FormatText(lines []doctree.TOCLine, width int) string {
	var sb strings.Builder
	for _, l := range lines {
		indent := strings.Repeat("  ", max(l.Level-1, 0))
		left := indent + l.Text + " "
		right := " {" + l.PageRef.AnchorID + "}"
		fill := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
		leader := l.Leader
		if leader == "" {
			leader = "."
		}
		sb.WriteString(left)
		if n := utf8.RuneCountInString(leader); fill > 0 && n > 0 {
			sb.WriteString(strings.Repeat(leader, fill/n))
		}
		sb.WriteString(right)
		sb.WriteString("\n")
	}
	return sb.String()
}
