package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/google/go-cmp/cmp"
)

func parseMarkdown(t *testing.T, input string) []doctree.Node {
	t.Helper()
	nodes, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return nodes
}

func TestMarkdownParser_Headings(t *testing.T) {
	input := `# Title

Intro text.

## Section A

### Subsection A1

##### Deep heading
`
	nodes := parseMarkdown(t, input)
	want := []doctree.Node{
		doctree.Heading{Level: 1, Text: "Title"},
		doctree.Text("Intro text."),
		doctree.Heading{Level: 2, Text: "Section A"},
		doctree.Heading{Level: 3, Text: "Subsection A1"},
		doctree.Heading{Level: 3, Text: "Deep heading"},
	}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_InlineStyles(t *testing.T) {
	nodes := parseMarkdown(t, "This is *it* and **bold** with `code`.\nNext line.")
	want := []doctree.Node{doctree.Paragraph{Runs: []doctree.Run{
		{Text: "This is "},
		{Text: "it", Italic: true},
		{Text: " and "},
		{Text: "bold", Bold: true},
		{Text: " with "},
		{Text: "code", Code: true},
		{Text: ". Next line."},
	}}}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_HeadingDropsEmphasis(t *testing.T) {
	nodes := parseMarkdown(t, "## The *quick* fox")
	h, ok := nodes[0].(doctree.Heading)
	if !ok {
		t.Fatalf("expected Heading, got %T", nodes[0])
	}
	if h.Text != "The quick fox" {
		t.Errorf("heading text = %q", h.Text)
	}
}

func TestMarkdownParser_CodeBlock(t *testing.T) {
	input := "```go\nfmt.Println(\"hi\")\nreturn\n```\n"
	nodes := parseMarkdown(t, input)
	want := []doctree.Node{doctree.CodeBlock{Language: "go", Lines: []string{`fmt.Println("hi")`, "return"}}}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_Lists(t *testing.T) {
	nodes := parseMarkdown(t, "- alpha\n- beta\n\n3. gamma\n4. delta\n")
	got := paragraphTexts(t, nodes)
	want := []string{"• alpha", "• beta", "3. gamma", "4. delta"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("list paragraphs mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_Table(t *testing.T) {
	input := `| Name | Role |
| ---- | ---- |
| Ada  | eng  |
| Grace | navy |
`
	nodes := parseMarkdown(t, input)
	want := []doctree.Node{doctree.Table{
		Header: []string{"Name", "Role"},
		Rows:   [][]string{{"Ada", "eng"}, {"Grace", "navy"}},
	}}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_DefinitionList(t *testing.T) {
	nodes := parseMarkdown(t, "Anchor\n: A unique heading identifier.\n")
	want := []doctree.Node{doctree.DefinitionBlock{Label: "Anchor", Text: "A unique heading identifier."}}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_ThematicBreak(t *testing.T) {
	nodes := parseMarkdown(t, "before\n\n---\n\nafter\n")
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if _, ok := nodes[1].(doctree.Spacer); !ok {
		t.Errorf("expected Spacer, got %T", nodes[1])
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	nodes := parseMarkdown(t, "")
	if nodes == nil || len(nodes) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", nodes)
	}
}
