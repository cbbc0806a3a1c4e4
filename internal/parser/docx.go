package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]doctree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	nodes := []doctree.Node{}
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			runs := docxRuns(v)
			text := strings.TrimSpace(runsText(runs))
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(v); level > 0 {
				nodes = append(nodes, doctree.Heading{Level: clampLevel(level), Text: text})
				continue
			}
			nodes = append(nodes, doctree.Paragraph{Runs: runs})
		case *docx.Table:
			if t, ok := docxTable(v); ok {
				nodes = append(nodes, t)
			}
		}
	}
	return nodes, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '9' {
		return int(rest[0] - '0')
	}
	if style == "title" {
		return 1
	}
	return 0
}

func docxRuns(para *docx.Paragraph) []doctree.Run {
	var runs []doctree.Run
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		style := doctree.Run{}
		if rp := run.RunProperties; rp != nil {
			style.Bold = rp.Bold != nil
			style.Italic = rp.Italic != nil
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				runs = appendRun(runs, style, t.Text)
			}
		}
	}
	return runs
}

func docxTable(t *docx.Table) (doctree.Table, bool) {
	if len(t.TableRows) == 0 {
		return doctree.Table{}, false
	}
	table := doctree.Table{Rows: [][]string{}}
	for i, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if s := strings.TrimSpace(runsText(docxRuns(para))); s != "" {
					parts = append(parts, s)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		if i == 0 {
			table.Header = cells
			continue
		}
		for len(cells) < len(table.Header) {
			cells = append(cells, "")
		}
		table.Rows = append(table.Rows, cells[:len(table.Header)])
	}
	return table, len(table.Header) > 0
}
