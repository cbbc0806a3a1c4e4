package doctree

import (
	"strings"
	"testing"
)

func TestHeadings_FiltersInOrder(t *testing.T) {
	nodes := []Node{
		Heading{Level: 1, Text: "One"},
		Text("body"),
		Spacer{Size: 6},
		Heading{Level: 2, Text: "Two"},
	}
	hs := Headings(nodes)
	if len(hs) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(hs))
	}
	if hs[0].Text != "One" || hs[1].Text != "Two" {
		t.Errorf("unexpected heading order: %+v", hs)
	}
}

func TestParagraph_String(t *testing.T) {
	p := Paragraph{Runs: []Run{{Text: "Hello, "}, {Text: "world", Bold: true}}}
	if got := p.String(); got != "Hello, world" {
		t.Errorf("expected %q, got %q", "Hello, world", got)
	}
}

func TestMarshalNodes_KindTags(t *testing.T) {
	data, err := MarshalNodes([]Node{
		Heading{Level: 2, Text: "Intro", AnchorID: "intro"},
		PageBreak{},
		TOCPlaceholder{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"kind":"heading"`, `"anchor_id":"intro"`, `"kind":"page_break"`, `"kind":"toc_placeholder"`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestMarshalNodes_Deterministic(t *testing.T) {
	nodes := []Node{
		Table{Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}},
		CodeBlock{Lines: []string{"x := 1"}},
		DefinitionBlock{Label: "Anchor", Text: "A unique id."},
	}
	a, err := MarshalNodes(nodes)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalNodes(nodes)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("expected identical encodings, got %s and %s", a, b)
	}
}

func TestMarshalNodes_NilNode(t *testing.T) {
	if _, err := MarshalNodes([]Node{Text("ok"), nil}); err == nil {
		t.Error("expected error for nil node")
	}
}
