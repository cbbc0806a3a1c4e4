package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/fumiama/go-docx"
)

// tocTabStop is the right-aligned tab position of the page column, in twips.
const tocTabStop = 9000

// DOCXExporter writes Word documents with go-docx. Headings use the built-in
// HeadingN styles and carry a bookmark per anchor; TOC lines are indented
// paragraphs with a leader run, a right tab and a PAGEREF field bound to the
// heading's bookmark.
type DOCXExporter struct{}

// Elements go-docx has no type for. Paragraph and run children are
// marshaled as-is, so these serialize next to the library's own nodes.
type bookmarkStart struct {
	XMLName xml.Name `xml:"w:bookmarkStart"`
	ID      int      `xml:"w:id,attr"`
	Name    string   `xml:"w:name,attr"`
}

type bookmarkEnd struct {
	XMLName xml.Name `xml:"w:bookmarkEnd"`
	ID      int      `xml:"w:id,attr"`
}

type fldChar struct {
	XMLName xml.Name `xml:"w:fldChar"`
	Type    string   `xml:"w:fldCharType,attr"`
	// Dirty asks Word to recompute the field when the document opens.
	Dirty bool `xml:"w:dirty,attr,omitempty"`
}

func (e *DOCXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (e *DOCXExporter) Extension() string { return ".docx" }

func (e *DOCXExporter) Export(w io.Writer, title string, nodes []doctree.Node) error {
	f := docx.New().WithDefaultTheme().WithA4Page()

	// TOC lines precede their headings, so bookmark ids are assigned up front.
	bookmarks := make(map[string]int)
	for _, h := range doctree.Headings(nodes) {
		if h.AnchorID != "" {
			if _, ok := bookmarks[h.AnchorID]; !ok {
				bookmarks[h.AnchorID] = len(bookmarks) + 1
			}
		}
	}

	for i, n := range nodes {
		switch v := n.(type) {
		case doctree.Heading:
			p := f.AddParagraph().Style(fmt.Sprintf("Heading%d", v.Level))
			p.AddText(v.Text)
			if id, ok := bookmarks[v.AnchorID]; ok {
				p.Children = append([]interface{}{&bookmarkStart{ID: id, Name: bookmarkName(id)}}, p.Children...)
				p.Children = append(p.Children, &bookmarkEnd{ID: id})
			}
		case doctree.Paragraph:
			addRuns(f.AddParagraph(), v.Runs)
		case doctree.Table:
			addTable(f, v)
		case doctree.CodeBlock:
			p := f.AddParagraph()
			p.AddText(strings.Join(v.Lines, "\n")).Font("Consolas", "Consolas", "Consolas", "default").Size("18")
		case doctree.DefinitionBlock:
			p := f.AddParagraph()
			p.AddText(v.Label + ": ").Bold()
			p.AddText(v.Text)
		case doctree.PageBreak:
			f.AddParagraph().AddPageBreaks()
		case doctree.Spacer:
			f.AddParagraph()
		case doctree.TOCLine:
			addTOCLine(f, v, bookmarks)
		case doctree.TOCPlaceholder:
		default:
			return fmt.Errorf("node %d: unsupported kind %T", i, n)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func addRuns(p *docx.Paragraph, runs []doctree.Run) {
	for _, r := range runs {
		run := p.AddText(r.Text)
		if r.Bold {
			run.Bold()
		}
		if r.Italic {
			run.Italic()
		}
		if r.Code {
			run.Font("Consolas", "Consolas", "Consolas", "default")
		}
	}
}

func addTable(f *docx.Docx, t doctree.Table) {
	rows := len(t.Rows) + 1
	var tbl *docx.Table
	if len(t.ColumnWidths) == len(t.Header) && len(t.ColumnWidths) > 0 {
		widths := make([]int64, len(t.ColumnWidths))
		for i, w := range t.ColumnWidths {
			widths[i] = int64(w)
		}
		tbl = f.AddTableTwips(make([]int64, rows), widths, 0, nil)
	} else {
		tbl = f.AddTable(rows, len(t.Header), 0, nil)
	}

	for c, cell := range t.Header {
		tbl.TableRows[0].TableCells[c].AddParagraph().AddText(cell).Bold()
	}
	for r, row := range t.Rows {
		for c, cell := range row {
			if c >= len(t.Header) {
				break
			}
			tbl.TableRows[r+1].TableCells[c].AddParagraph().AddText(cell)
		}
	}
}

func addTOCLine(f *docx.Docx, l doctree.TOCLine, bookmarks map[string]int) {
	p := f.AddParagraph()
	p.Properties = &docx.ParagraphProperties{
		Ind:  &docx.Ind{Left: l.Indent},
		Tabs: &docx.Tabs{Tabs: []*docx.Tab{{Val: "right", Position: tocTabStop}}},
	}
	p.AddText(l.Text + " ")
	p.AddText(leaderFill(l, 60))
	p.AddTab()

	label := pageRefLabel(l.PageRef.AnchorID)
	id, ok := bookmarks[l.PageRef.AnchorID]
	if !ok {
		p.AddText(label)
		return
	}
	// Complex field: begin, instruction, separate, cached result, end. The
	// cached result shows the anchor until Word updates the field.
	p.Children = append(p.Children,
		&docx.Run{Children: []interface{}{&fldChar{Type: "begin", Dirty: true}}},
		&docx.Run{InstrText: fmt.Sprintf(" PAGEREF %s \\h ", bookmarkName(id))},
		&docx.Run{Children: []interface{}{&fldChar{Type: "separate"}}},
		&docx.Run{Children: []interface{}{&docx.Text{Text: label}}},
		&docx.Run{Children: []interface{}{&fldChar{Type: "end"}}},
	)
}

// bookmarkName follows Word's hidden "_Toc" convention. Anchors are not used
// directly because bookmark names may not contain hyphens or exceed 40 chars.
func bookmarkName(id int) string {
	return fmt.Sprintf("_Toc%08d", id)
}

// leaderFill repeats the leader so text plus leader spans roughly width
// characters.
func leaderFill(l doctree.TOCLine, width int) string {
	leader := l.Leader
	if leader == "" {
		leader = "."
	}
	n := width - len([]rune(l.Text)) - l.Indent/180
	if n < 3 {
		n = 3
	}
	return strings.Repeat(leader, n)
}
