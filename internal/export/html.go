package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlStyle resolves TOC page references at print time via target-counter.
const htmlStyle = `body{font-family:Georgia,serif;max-width:48em;margin:2em auto;line-height:1.45}
.toc-line{display:flex;margin:0.15em 0}
.toc-line .leader{flex:1;overflow:hidden;white-space:nowrap;margin:0 0.3em}
.toc-line .leader::before{content:attr(data-fill)}
a.page-ref::after{content:target-counter(attr(href url),page)}
.page-break{break-after:page}
table{border-collapse:collapse}td,th{border:1px solid #999;padding:0.2em 0.5em}
dl.definition dt{font-weight:bold}`

// HTMLExporter renders a standalone HTML page. Headings carry their anchor
// as id; TOC lines link to it.
type HTMLExporter struct{}

func (e *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }
func (e *HTMLExporter) Extension() string   { return ".html" }

func (e *HTMLExporter) Export(w io.Writer, title string, nodes []doctree.Node) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	root.AppendChild(head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(withText(element(atom.Title), title))
	head.AppendChild(withText(element(atom.Style), htmlStyle))

	body := element(atom.Body)
	root.AppendChild(body)

	var toc *html.Node
	for i, n := range nodes {
		if _, ok := n.(doctree.TOCLine); ok {
			if toc == nil {
				toc = element(atom.Nav, attr("class", "toc"))
				body.AppendChild(toc)
			}
		} else {
			toc = nil
		}

		switch v := n.(type) {
		case doctree.Heading:
			h := element(headingAtom(v.Level))
			if v.AnchorID != "" {
				h.Attr = append(h.Attr, attr("id", v.AnchorID))
			}
			body.AppendChild(withText(h, v.Text))
		case doctree.Paragraph:
			p := element(atom.P)
			appendRuns(p, v.Runs)
			body.AppendChild(p)
		case doctree.Table:
			body.AppendChild(htmlTable(v))
		case doctree.CodeBlock:
			pre := element(atom.Pre)
			code := element(atom.Code)
			if v.Language != "" {
				code.Attr = append(code.Attr, attr("class", "language-"+v.Language))
			}
			pre.AppendChild(withText(code, strings.Join(v.Lines, "\n")))
			body.AppendChild(pre)
		case doctree.DefinitionBlock:
			dl := element(atom.Dl, attr("class", "definition"))
			dl.AppendChild(withText(element(atom.Dt), v.Label))
			dl.AppendChild(withText(element(atom.Dd), v.Text))
			body.AppendChild(dl)
		case doctree.PageBreak:
			body.AppendChild(element(atom.Div, attr("class", "page-break")))
		case doctree.Spacer:
			body.AppendChild(element(atom.Div, attr("class", "spacer"), attr("style", fmt.Sprintf("height:%dpt", v.Size))))
		case doctree.TOCLine:
			toc.AppendChild(htmlTOCLine(v))
		case doctree.TOCPlaceholder:
		default:
			return fmt.Errorf("node %d: unsupported kind %T", i, n)
		}
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func htmlTOCLine(l doctree.TOCLine) *html.Node {
	href := "#" + l.PageRef.AnchorID
	line := element(atom.P,
		attr("class", "toc-line toc-level-"+strconv.Itoa(l.Level)),
		attr("style", fmt.Sprintf("padding-left:%.2fem", float64(l.Indent)/240)),
	)
	line.AppendChild(withText(element(atom.A, attr("href", href)), l.Text))
	line.AppendChild(element(atom.Span, attr("class", "leader"), attr("data-fill", strings.Repeat(l.Leader, 200))))
	line.AppendChild(element(atom.A, attr("class", "page-ref"), attr("href", href)))
	return line
}

func htmlTable(t doctree.Table) *html.Node {
	table := element(atom.Table)
	if len(t.ColumnWidths) == len(t.Header) && len(t.ColumnWidths) > 0 {
		cg := element(atom.Colgroup)
		for _, w := range t.ColumnWidths {
			cg.AppendChild(element(atom.Col, attr("style", fmt.Sprintf("width:%dpt", w/20))))
		}
		table.AppendChild(cg)
	}
	thead := element(atom.Thead)
	tr := element(atom.Tr)
	for _, h := range t.Header {
		tr.AppendChild(withText(element(atom.Th), h))
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for _, row := range t.Rows {
		tr := element(atom.Tr)
		for _, cell := range row {
			tr.AppendChild(withText(element(atom.Td), cell))
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	return table
}

func appendRuns(p *html.Node, runs []doctree.Run) {
	for _, r := range runs {
		n := &html.Node{Type: html.TextNode, Data: r.Text}
		if r.Code {
			n = wrap(atom.Code, n)
		}
		if r.Italic {
			n = wrap(atom.Em, n)
		}
		if r.Bold {
			n = wrap(atom.Strong, n)
		}
		p.AppendChild(n)
	}
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	default:
		return atom.H3
	}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	return n
}

func wrap(a atom.Atom, child *html.Node) *html.Node {
	n := element(a)
	n.AppendChild(child)
	return n
}
