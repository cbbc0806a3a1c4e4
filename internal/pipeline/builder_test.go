package pipeline

import (
	"errors"
	"testing"

	"github.com/dgallion1/docbind/internal/chapter"
	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/dgallion1/docbind/internal/registry"
	"github.com/dgallion1/docbind/internal/toc"
	"github.com/dgallion1/docbind/internal/validate"
	"github.com/google/go-cmp/cmp"
)

func unit(id string, order int, nodes ...doctree.Node) chapter.Unit {
	return chapter.Unit{
		ID:    id,
		Order: order,
		Build: func() []doctree.Node { return append([]doctree.Node{}, nodes...) },
	}
}

func book(units ...chapter.Unit) Book {
	return Book{Title: "Test", Catalog: chapter.NewCatalog(units...), TOCStyle: toc.DefaultStyle()}
}

func scenarioAB() Book {
	return book(
		unit("a", 1, doctree.Heading{Level: 2, Text: "Intro"}, doctree.Text("hi")),
		unit("b", 2,
			doctree.Heading{Level: 2, Text: "Methods"},
			doctree.Heading{Level: 3, Text: "Sub"},
			doctree.Table{Header: []string{"k", "v"}, Rows: [][]string{{"1", "2"}}},
		),
	)
}

func TestBuild_ScenarioTwoChapters(t *testing.T) {
	doc, err := NewBuilder(nil).Build(scenarioAB())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantEntries := []registry.Entry{
		{AnchorID: "intro", Level: 2, Text: "Intro", SequenceIndex: 0, SourceChapterID: "a"},
		{AnchorID: "methods", Level: 2, Text: "Methods", SequenceIndex: 1, SourceChapterID: "b"},
		{AnchorID: "sub", Level: 3, Text: "Sub", SequenceIndex: 2, SourceChapterID: "b"},
	}
	if diff := cmp.Diff(wantEntries, doc.Headings); diff != "" {
		t.Errorf("registry mismatch (-want +got):\n%s", diff)
	}

	if len(doc.TOC) != 3 {
		t.Fatalf("expected 3 toc lines, got %d", len(doc.TOC))
	}
	for i, want := range []int{360, 360, 720} {
		if doc.TOC[i].Indent != want {
			t.Errorf("toc[%d] indent = %d, want %d", i, doc.TOC[i].Indent, want)
		}
	}

	// No placeholder: the TOC leads the document.
	if len(doc.Nodes) != 8 {
		t.Fatalf("expected 8 nodes, got %d", len(doc.Nodes))
	}
	for i := range 3 {
		if doc.Nodes[i].Kind() != doctree.KindTOCLine {
			t.Errorf("node[%d] kind = %s, want toc_line", i, doc.Nodes[i].Kind())
		}
	}
	if h, ok := doc.Nodes[3].(doctree.Heading); !ok || h.AnchorID != "intro" {
		t.Errorf("node[3] = %#v, want intro heading", doc.Nodes[3])
	}
	if doc.Title != "Test" || doc.Digest == "" {
		t.Errorf("title=%q digest=%q", doc.Title, doc.Digest)
	}
}

func TestBuild_OrphanAborts(t *testing.T) {
	doc, err := NewBuilder(nil).Build(book(unit("c", 1, doctree.Heading{Level: 3, Text: "Orphan"})))
	if doc != nil {
		t.Fatal("expected no document")
	}
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %T", err)
	}
	if len(verr.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(verr.Violations))
	}
	v := verr.Violations[0]
	if v.ChapterID != "c" || v.Index != 0 || v.Code != validate.CodeOrphanSubsection {
		t.Errorf("violation = %+v", v)
	}
}

func TestBuild_BatchesViolations(t *testing.T) {
	b := book(
		unit("one", 1, doctree.Heading{Level: 3, Text: "x"}),
		chapter.Unit{ID: "two", Order: 2, Build: func() []doctree.Node { return nil }},
		unit("three", 3, doctree.Text("ok"), doctree.Spacer{Size: -1}),
	)
	_, err := NewBuilder(nil).Build(b)
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %v", err)
	}
	var got []string
	for _, v := range verr.Violations {
		got = append(got, v.ChapterID+":"+v.Code)
	}
	want := []string{
		"one:" + validate.CodeOrphanSubsection,
		"two:" + validate.CodeNilOutput,
		"three:" + validate.CodeInvalidNode,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("violations (-want +got):\n%s", diff)
	}
}

func TestBuild_PanicIsFatal(t *testing.T) {
	later := 0
	b := book(
		chapter.Unit{ID: "boom", Order: 1, Build: func() []doctree.Node { panic("bad table") }},
		chapter.Unit{ID: "after", Order: 2, Build: func() []doctree.Node { later++; return []doctree.Node{} }},
	)
	doc, err := NewBuilder(nil).Build(b)
	if doc != nil {
		t.Fatal("expected no document")
	}
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	var perr *chapter.PanicError
	if !errors.As(err, &perr) || perr.ChapterID != "boom" {
		t.Fatalf("expected panic error for boom, got %v", err)
	}
	if later != 0 {
		t.Errorf("units after a panic should not run, ran %d times", later)
	}
}

func TestBuild_NilCatalog(t *testing.T) {
	if _, err := NewBuilder(nil).Build(Book{}); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestBuild_InvokesEachUnitOnce(t *testing.T) {
	calls := 0
	b := book(chapter.Unit{ID: "a", Order: 1, Build: func() []doctree.Node {
		calls++
		return []doctree.Node{doctree.Heading{Level: 1, Text: "A"}}
	}})
	if _, err := NewBuilder(nil).Build(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("build invoked %d times, want 1", calls)
	}
}

func TestBuild_AnchorUniqueness(t *testing.T) {
	b := book(
		unit("a", 1, doctree.Heading{Level: 1, Text: "Overview"}, doctree.Heading{Level: 2, Text: "Overview"}),
		unit("b", 2, doctree.Heading{Level: 1, Text: "Overview"}, doctree.Heading{Level: 1, Text: "Overview 2"}),
	)
	doc, err := NewBuilder(nil).Build(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	var anchors []string
	for _, e := range doc.Headings {
		if seen[e.AnchorID] {
			t.Errorf("duplicate anchor %q", e.AnchorID)
		}
		seen[e.AnchorID] = true
		anchors = append(anchors, e.AnchorID)
	}
	want := []string{"overview", "overview-2", "overview-3", "overview-2-2"}
	if diff := cmp.Diff(want, anchors); diff != "" {
		t.Errorf("anchors (-want +got):\n%s", diff)
	}
	if len(doc.TOC) != len(doc.Headings) {
		t.Errorf("toc lines %d != headings %d", len(doc.TOC), len(doc.Headings))
	}
}

func TestBuild_OrderPreservation(t *testing.T) {
	// Declared out of order; Order decides document order.
	b := book(
		unit("late", 3, doctree.Heading{Level: 1, Text: "Third"}),
		unit("early", 1, doctree.Heading{Level: 1, Text: "First"}, doctree.Heading{Level: 2, Text: "First Sub"}),
		unit("mid", 2, doctree.Heading{Level: 1, Text: "Second"}),
	)
	doc, err := NewBuilder(nil).Build(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var scanned []string
	for _, n := range doc.Nodes {
		if h, ok := n.(doctree.Heading); ok {
			scanned = append(scanned, h.AnchorID)
		}
	}
	var fromTOC []string
	for _, l := range doc.TOC {
		fromTOC = append(fromTOC, l.PageRef.AnchorID)
	}
	if diff := cmp.Diff(scanned, fromTOC); diff != "" {
		t.Errorf("toc order differs from document order (-doc +toc):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first", "first-sub", "second", "third"}, scanned); diff != "" {
		t.Errorf("heading order (-want +got):\n%s", diff)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	b := scenarioAB()
	builder := NewBuilder(nil)

	first, err := builder.Build(b)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := builder.Build(b)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if diff := cmp.Diff(first.Nodes, second.Nodes); diff != "" {
		t.Errorf("builds differ (-first +second):\n%s", diff)
	}
	if first.Digest != second.Digest {
		t.Errorf("digest changed: %s vs %s", first.Digest, second.Digest)
	}
}

func TestBuild_SplicesAtPlaceholder(t *testing.T) {
	b := book(
		chapter.FrontMatter("Manual", ""),
		unit("a", 1, doctree.Heading{Level: 1, Text: "Start"}, doctree.Heading{Level: 2, Text: "Detail"}),
	)
	doc, err := NewBuilder(nil).Build(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var kinds []doctree.Kind
	for _, n := range doc.Nodes {
		kinds = append(kinds, n.Kind())
	}
	want := []doctree.Kind{
		doctree.KindParagraph, // title
		doctree.KindSpacer,
		doctree.KindParagraph, // "Contents"
		doctree.KindTOCLine,
		doctree.KindTOCLine,
		doctree.KindPageBreak,
		doctree.KindHeading,
		doctree.KindHeading,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("node kinds (-want +got):\n%s", diff)
	}
}

func TestCheck(t *testing.T) {
	builder := NewBuilder(nil)

	res, err := builder.Check(scenarioAB())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK() || res.Chapters != 2 || res.Violations == nil {
		t.Errorf("result = %+v", res)
	}

	res, err = builder.Check(book(unit("c", 1, doctree.Heading{Level: 3, Text: "Orphan"})))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK() || len(res.Violations) != 1 {
		t.Errorf("result = %+v", res)
	}

	_, err = builder.Check(book(chapter.Unit{ID: "p", Order: 1, Build: func() []doctree.Node { panic("x") }}))
	var perr *chapter.PanicError
	if !errors.As(err, &perr) {
		t.Errorf("expected panic error, got %v", err)
	}
}

func TestDigest_ChangesWithContent(t *testing.T) {
	a, err := Digest([]doctree.Node{doctree.Text("a")})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Digest([]doctree.Node{doctree.Text("b")})
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("expected different digests")
	}
}

func TestVerifyRefs(t *testing.T) {
	reg := registry.New()
	intro := reg.Register("a", doctree.Heading{Level: 1, Text: "Intro"})
	usage := reg.Register("a", doctree.Heading{Level: 2, Text: "Usage"})
	lines := toc.Synthesize(reg.Entries(), toc.DefaultStyle())

	good := splice([]doctree.Node{intro, usage}, 0, lines)
	if err := verifyRefs(good, reg); err != nil {
		t.Fatalf("verifyRefs: %v", err)
	}

	dangling := lines[1].(doctree.TOCLine)
	dangling.PageRef.AnchorID = "missing"
	swapped := splice([]doctree.Node{usage, intro}, 0, lines)

	tests := []struct {
		name  string
		nodes []doctree.Node
	}{
		{"dangling page ref", splice([]doctree.Node{intro, usage}, 0, []doctree.Node{lines[0], dangling})},
		{"missing toc line", splice([]doctree.Node{intro, usage}, 0, lines[:1])},
		{"headings out of order", swapped},
		{"unregistered heading", splice([]doctree.Node{intro, usage, doctree.Heading{Level: 2, Text: "Extra", AnchorID: "extra"}}, 0, lines)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyRefs(tt.nodes, reg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCheck_ChapterCountFromCatalog(t *testing.T) {
	c := chapter.NewCatalog()
	c.Add(unit("a", 1, doctree.Heading{Level: 1, Text: "A"}))
	c.Add(unit("b", 2, doctree.Heading{Level: 3, Text: "orphan"}))

	res, err := NewBuilder(nil).Check(Book{Title: "T", Catalog: c})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Chapters != 2 {
		t.Errorf("Chapters = %d, want 2", res.Chapters)
	}
	if res.OK() || len(res.Violations) != 1 {
		t.Errorf("violations = %v, want one", res.Violations)
	}
}
