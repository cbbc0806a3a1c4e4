package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark with the GFM table
// and definition list extensions.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.DefinitionList))
	doc := md.Parser().Parse(text.NewReader(src))

	nodes := []doctree.Node{}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		nodes = append(nodes, blockNodes(n, src)...)
	}
	return nodes, nil
}

// blockNodes converts one top-level goldmark block.
func blockNodes(n ast.Node, src []byte) []doctree.Node {
	switch node := n.(type) {
	case *ast.Heading:
		return []doctree.Node{doctree.Heading{
			Level: clampLevel(node.Level),
			Text:  strings.TrimSpace(runsText(inlineRuns(node, src))),
		}}
	case *ast.Paragraph, *ast.TextBlock:
		if runs := inlineRuns(node, src); len(runs) > 0 {
			return []doctree.Node{doctree.Paragraph{Runs: runs}}
		}
	case *ast.FencedCodeBlock:
		return []doctree.Node{doctree.CodeBlock{Language: string(node.Language(src)), Lines: blockLines(node, src)}}
	case *ast.CodeBlock:
		return []doctree.Node{doctree.CodeBlock{Lines: blockLines(node, src)}}
	case *ast.List:
		return listNodes(node, src, 0)
	case *ast.Blockquote:
		var out []doctree.Node
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			runs := inlineRuns(c, src)
			for i := range runs {
				runs[i].Italic = true
			}
			if len(runs) > 0 {
				out = append(out, doctree.Paragraph{Runs: runs})
			}
		}
		return out
	case *ast.ThematicBreak:
		return []doctree.Node{doctree.Spacer{Size: 12}}
	case *east.Table:
		return []doctree.Node{markdownTable(node, src)}
	case *east.DefinitionList:
		return definitionNodes(node, src)
	}
	return nil
}

func listNodes(list *ast.List, src []byte, depth int) []doctree.Node {
	var out []doctree.Node
	num := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		prefix := doctree.Run{Text: strings.Repeat("  ", depth) + marker}
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				out = append(out, listNodes(sub, src, depth+1)...)
				continue
			}
			runs := inlineRuns(c, src)
			if first {
				runs = append([]doctree.Run{prefix}, runs...)
				first = false
			}
			out = append(out, doctree.Paragraph{Runs: runs})
		}
	}
	return out
}

func markdownTable(t *east.Table, src []byte) doctree.Table {
	table := doctree.Table{Rows: [][]string{}}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(runsText(inlineRuns(cell, src))))
		}
		if _, ok := row.(*east.TableHeader); ok {
			table.Header = cells
			continue
		}
		for len(cells) < len(table.Header) {
			cells = append(cells, "")
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func definitionNodes(list *east.DefinitionList, src []byte) []doctree.Node {
	var out []doctree.Node
	label := ""
	for c := list.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *east.DefinitionTerm:
			label = strings.TrimSpace(runsText(inlineRuns(c, src)))
		case *east.DefinitionDescription:
			out = append(out, doctree.DefinitionBlock{Label: label, Text: extractText(c, src)})
		}
	}
	return out
}

// inlineRuns flattens the inline children of n into styled runs. Adjacent
// runs with identical style are merged.
func inlineRuns(n ast.Node, src []byte) []doctree.Run {
	var runs []doctree.Run
	var walk func(n ast.Node, style doctree.Run)
	walk = func(n ast.Node, style doctree.Run) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				runs = appendRun(runs, style, string(v.Segment.Value(src)))
				if v.HardLineBreak() {
					runs = appendRun(runs, style, "\n")
				} else if v.SoftLineBreak() {
					runs = appendRun(runs, style, " ")
				}
			case *ast.String:
				runs = appendRun(runs, style, string(v.Value))
			case *ast.CodeSpan:
				s := style
				s.Code = true
				walk(v, s)
			case *ast.Emphasis:
				s := style
				if v.Level >= 2 {
					s.Bold = true
				} else {
					s.Italic = true
				}
				walk(v, s)
			case *ast.AutoLink:
				runs = appendRun(runs, style, string(v.Label(src)))
			case *ast.RawHTML:
			default:
				walk(c, style)
			}
		}
	}
	walk(n, doctree.Run{})
	return runs
}

func appendRun(runs []doctree.Run, style doctree.Run, s string) []doctree.Run {
	if s == "" {
		return runs
	}
	if last := len(runs) - 1; last >= 0 {
		prev := runs[last]
		if prev.Bold == style.Bold && prev.Italic == style.Italic && prev.Code == style.Code {
			runs[last].Text += s
			return runs
		}
	}
	style.Text = s
	return append(runs, style)
}

func runsText(runs []doctree.Run) string {
	return doctree.Paragraph{Runs: runs}.String()
}

func blockLines(n ast.Node, src []byte) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	return out
}

// extractText gets the plain text content of a goldmark block.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		if c.Type() == ast.TypeBlock && c.FirstChild() == nil {
			lines := c.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			continue
		}
		buf.WriteString(runsText(inlineRuns(c, src)))
	}
	return strings.TrimSpace(buf.String())
}
