package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]doctree.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	nodes := []doctree.Node{}
	label := ""

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.DataAtom); level > 0 {
				nodes = append(nodes, doctree.Heading{Level: clampLevel(level), Text: textContent(n)})
				return
			}

			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Head:
				return
			case atom.P, atom.Li:
				if runs := htmlRuns(n); len(runs) > 0 {
					if n.DataAtom == atom.Li {
						runs = append([]doctree.Run{{Text: "• "}}, runs...)
					}
					nodes = append(nodes, doctree.Paragraph{Runs: runs})
				}
				return
			case atom.Blockquote:
				if t := textContent(n); t != "" {
					nodes = append(nodes, doctree.Paragraph{Runs: []doctree.Run{{Text: t, Italic: true}}})
				}
				return
			case atom.Pre:
				nodes = append(nodes, doctree.CodeBlock{
					Language: codeLanguage(n),
					Lines:    strings.Split(strings.TrimRight(rawText(n), "\n"), "\n"),
				})
				return
			case atom.Table:
				nodes = append(nodes, htmlTable(n))
				return
			case atom.Dt:
				label = textContent(n)
				return
			case atom.Dd:
				nodes = append(nodes, doctree.DefinitionBlock{Label: label, Text: textContent(n)})
				return
			case atom.Hr:
				nodes = append(nodes, doctree.Spacer{Size: 12})
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return nodes, nil
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// htmlRuns flattens inline markup into styled runs.
func htmlRuns(n *html.Node) []doctree.Run {
	var runs []doctree.Run
	var walk func(*html.Node, doctree.Run)
	walk = func(n *html.Node, style doctree.Run) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				t := collapseSpace(c.Data)
				if len(runs) == 0 || strings.HasSuffix(runs[len(runs)-1].Text, " ") {
					t = strings.TrimLeft(t, " ")
				}
				runs = appendRun(runs, style, t)
			case html.ElementNode:
				s := style
				switch c.DataAtom {
				case atom.B, atom.Strong:
					s.Bold = true
				case atom.I, atom.Em:
					s.Italic = true
				case atom.Code, atom.Kbd, atom.Samp:
					s.Code = true
				case atom.Br:
					runs = appendRun(runs, style, "\n")
					continue
				case atom.Script, atom.Style:
					continue
				}
				walk(c, s)
			}
		}
	}
	walk(n, doctree.Run{})

	if last := len(runs) - 1; last >= 0 {
		runs[last].Text = strings.TrimRight(runs[last].Text, " ")
		if runs[last].Text == "" {
			runs = runs[:last]
		}
	}
	return runs
}

func htmlTable(n *html.Node) doctree.Table {
	table := doctree.Table{Rows: [][]string{}}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom != atom.Tr {
				walk(c)
				continue
			}
			var cells []string
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type != html.ElementNode {
					continue
				}
				if cell.DataAtom == atom.Td || cell.DataAtom == atom.Th {
					cells = append(cells, textContent(cell))
				}
			}
			if table.Header == nil {
				table.Header = cells
				continue
			}
			for len(cells) < len(table.Header) {
				cells = append(cells, "")
			}
			table.Rows = append(table.Rows, cells[:len(table.Header)])
		}
	}
	walk(n)
	return table
}

func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Code {
			continue
		}
		for _, a := range c.Attr {
			if a.Key != "class" {
				continue
			}
			for _, cls := range strings.Fields(a.Val) {
				if lang, ok := strings.CutPrefix(cls, "language-"); ok {
					return lang
				}
			}
		}
	}
	return ""
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	return strings.TrimSpace(collapseSpace(rawText(n)))
}

func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	lead := s[0] == ' ' || s[0] == '\n' || s[0] == '\t'
	trail := strings.ContainsAny(s[len(s)-1:], " \n\t")
	out := strings.Join(strings.Fields(s), " ")
	if out == "" {
		return " "
	}
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
