package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
)

// MarkdownExporter writes CommonMark with GFM tables. Anchors are emitted
// as empty <a id> tags ahead of each heading; TOC lines become a nested
// list of links.
type MarkdownExporter struct{}

func (e *MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }
func (e *MarkdownExporter) Extension() string   { return ".md" }

func (e *MarkdownExporter) Export(w io.Writer, title string, nodes []doctree.Node) error {
	bw := bufio.NewWriter(w)
	prevTOC := false
	for i, n := range nodes {
		_, isTOC := n.(doctree.TOCLine)
		if prevTOC && !isTOC {
			bw.WriteString("\n")
		}
		prevTOC = isTOC

		switch v := n.(type) {
		case doctree.Heading:
			if v.AnchorID != "" {
				fmt.Fprintf(bw, "<a id=\"%s\"></a>\n\n", v.AnchorID)
			}
			fmt.Fprintf(bw, "%s %s\n\n", strings.Repeat("#", v.Level), v.Text)
		case doctree.Paragraph:
			bw.WriteString(markdownRuns(v.Runs))
			bw.WriteString("\n\n")
		case doctree.Table:
			writeMarkdownTable(bw, v)
		case doctree.CodeBlock:
			fmt.Fprintf(bw, "```%s\n%s\n```\n\n", v.Language, strings.Join(v.Lines, "\n"))
		case doctree.DefinitionBlock:
			fmt.Fprintf(bw, "**%s**: %s\n\n", escapeMarkdown(v.Label), escapeMarkdown(v.Text))
		case doctree.PageBreak:
			bw.WriteString("<div style=\"page-break-after: always\"></div>\n\n")
		case doctree.Spacer:
			bw.WriteString("&nbsp;\n\n")
		case doctree.TOCLine:
			indent := strings.Repeat("  ", max(v.Level-1, 0))
			fmt.Fprintf(bw, "%s- [%s](#%s)\n", indent, escapeMarkdown(v.Text), v.PageRef.AnchorID)
		case doctree.TOCPlaceholder:
		default:
			return fmt.Errorf("node %d: unsupported kind %T", i, n)
		}
	}
	if prevTOC {
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func markdownRuns(runs []doctree.Run) string {
	var sb strings.Builder
	for _, r := range runs {
		text := r.Text
		switch {
		case r.Code:
			text = "`" + text + "`"
		default:
			text = escapeMarkdown(text)
		}
		if r.Italic && text != "" {
			text = "*" + text + "*"
		}
		if r.Bold && text != "" {
			text = "**" + text + "**"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func writeMarkdownTable(w *bufio.Writer, t doctree.Table) {
	row := func(cells []string) {
		escaped := make([]string, len(cells))
		for i, c := range cells {
			escaped[i] = strings.ReplaceAll(escapeMarkdown(c), "|", `\|`)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
	}
	row(t.Header)
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(sep, " | "))
	for _, r := range t.Rows {
		row(r)
	}
	w.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
