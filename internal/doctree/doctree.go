// Package doctree defines the closed set of node variants that make up an
// assembled document. Chapter units emit these, the build pipeline threads
// them through unchanged (apart from heading anchors), and exporters consume
// the final list.
package doctree

import "strings"

// Kind names a node variant.
type Kind string

const (
	KindHeading         Kind = "heading"
	KindParagraph       Kind = "paragraph"
	KindTable           Kind = "table"
	KindCodeBlock       Kind = "code_block"
	KindDefinitionBlock Kind = "definition_block"
	KindPageBreak       Kind = "page_break"
	KindSpacer          Kind = "spacer"
	KindTOCPlaceholder  Kind = "toc_placeholder"
	KindTOCLine         Kind = "toc_line"
)

// MinHeadingLevel and MaxHeadingLevel bound Heading.Level.
const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 3
)

// Node is one element of a document. The interface is sealed: only the
// variants declared in this package implement it.
type Node interface {
	Kind() Kind
	sealed()
}

// Heading is a section title. AnchorID is empty in chapter output and is
// filled in by the heading registry during assembly.
type Heading struct {
	Level    int    `json:"level"`
	Text     string `json:"text"`
	AnchorID string `json:"anchor_id,omitempty"`
}

// Run is a styled span of paragraph text.
type Run struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Code   bool   `json:"code,omitempty"`
}

// Paragraph is a block of runs.
type Paragraph struct {
	Runs []Run `json:"runs"`
}

// Table is a header row plus body rows. ColumnWidths is optional; when set
// it has one entry per header cell.
type Table struct {
	Header       []string   `json:"header"`
	Rows         [][]string `json:"rows"`
	ColumnWidths []int      `json:"column_widths,omitempty"`
}

// CodeBlock is preformatted text.
type CodeBlock struct {
	Language string   `json:"language,omitempty"`
	Lines    []string `json:"lines"`
}

// DefinitionBlock is a labelled term definition.
type DefinitionBlock struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// PageBreak forces the following content onto a new page.
type PageBreak struct{}

// Spacer is vertical whitespace of Size points.
type Spacer struct {
	Size int `json:"size"`
}

// TOCPlaceholder marks where the synthesized table of contents is spliced
// in. Only the front-matter unit may emit it, at most once per build.
type TOCPlaceholder struct{}

// PageRef binds a page number to a heading anchor. The number itself is
// resolved by the exporter or the viewer, never by the pipeline.
type PageRef struct {
	AnchorID string `json:"anchor_id"`
}

// TOCLine is one rendered table-of-contents entry: indented text, a leader
// fill, and a page reference.
type TOCLine struct {
	Text    string  `json:"text"`
	Level   int     `json:"level"`
	Indent  int     `json:"indent"`
	Leader  string  `json:"leader"`
	PageRef PageRef `json:"page_ref"`
}

func (Heading) Kind() Kind         { return KindHeading }
func (Paragraph) Kind() Kind       { return KindParagraph }
func (Table) Kind() Kind           { return KindTable }
func (CodeBlock) Kind() Kind       { return KindCodeBlock }
func (DefinitionBlock) Kind() Kind { return KindDefinitionBlock }
func (PageBreak) Kind() Kind       { return KindPageBreak }
func (Spacer) Kind() Kind          { return KindSpacer }
func (TOCPlaceholder) Kind() Kind  { return KindTOCPlaceholder }
func (TOCLine) Kind() Kind         { return KindTOCLine }

func (Heading) sealed()         {}
func (Paragraph) sealed()       {}
func (Table) sealed()           {}
func (CodeBlock) sealed()       {}
func (DefinitionBlock) sealed() {}
func (PageBreak) sealed()       {}
func (Spacer) sealed()          {}
func (TOCPlaceholder) sealed()  {}
func (TOCLine) sealed()         {}

// Text returns a paragraph with a single unstyled run.
func Text(s string) Paragraph {
	return Paragraph{Runs: []Run{{Text: s}}}
}

// String concatenates the run texts.
func (p Paragraph) String() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Headings returns the heading nodes of nodes in order.
func Headings(nodes []Node) []Heading {
	var out []Heading
	for _, n := range nodes {
		if h, ok := n.(Heading); ok {
			out = append(out, h)
		}
	}
	return out
}
