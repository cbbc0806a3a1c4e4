package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docbind/internal/chapter"
	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/dgallion1/docbind/internal/pipeline"
	"github.com/dgallion1/docbind/internal/toc"
	"github.com/dgallion1/docbind/internal/validate"
	"github.com/google/go-cmp/cmp"
)

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("title: X\nchapterz: []\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParse_RequiresTitle(t *testing.T) {
	_, err := Parse([]byte("chapters:\n  - id: a\n"))
	if err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestStyle(t *testing.T) {
	indent := 0
	m := &Manifest{TOC: TOCSpec{Indent: &indent}}
	got := m.Style(toc.DefaultStyle())
	if got.IndentStep != 0 || got.Leader != "." {
		t.Errorf("style = %+v", got)
	}

	m = &Manifest{}
	if got := m.Style(toc.Style{IndentStep: 100, Leader: "_"}); got.IndentStep != 100 || got.Leader != "_" {
		t.Errorf("defaults not kept: %+v", got)
	}
}

func TestBook_Catalog(t *testing.T) {
	m, err := Load("testdata/book/book.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	book, err := m.Book(toc.DefaultStyle())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if book.Title != "Operator Guide" {
		t.Errorf("title = %q", book.Title)
	}
	if book.TOCStyle != (toc.Style{IndentStep: 240, Leader: "-"}) {
		t.Errorf("style = %+v", book.TOCStyle)
	}

	var ids []string
	var orders []int
	for _, u := range book.Catalog.Units() {
		ids = append(ids, u.ID)
		orders = append(orders, u.Order)
	}
	if diff := cmp.Diff([]string{chapter.FrontMatterID, "install", "reference", "flags", "notes"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 10}, orders); diff != "" {
		t.Errorf("orders (-want +got):\n%s", diff)
	}
}

func TestBook_BuildIsPure(t *testing.T) {
	m, err := Load("testdata/book/book.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	book, err := m.Book(toc.DefaultStyle())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	for _, u := range book.Catalog.Units() {
		first := u.Build()
		if len(first) > 0 {
			first[0] = doctree.Spacer{Size: 99}
		}
		if diff := cmp.Diff(u.Build(), u.Build()); diff != "" {
			t.Errorf("%s: build not repeatable:\n%s", u.ID, diff)
		}
		if second := u.Build(); len(second) > 0 {
			if s, ok := second[0].(doctree.Spacer); ok && s.Size == 99 {
				t.Errorf("%s: caller mutation leaked into later builds", u.ID)
			}
		}
	}
}

func TestBook_BuildsDocument(t *testing.T) {
	book, err := Loader("testdata/book/book.yaml", toc.DefaultStyle(), "")()
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	doc, err := pipeline.NewBuilder(nil).Build(*book)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var anchors []string
	for _, h := range doc.Headings {
		anchors = append(anchors, h.AnchorID)
	}
	want := []string{"installation", "requirements", "verify", "reference", "exit-codes", "flags", "release-notes"}
	if diff := cmp.Diff(want, anchors); diff != "" {
		t.Errorf("anchors (-want +got):\n%s", diff)
	}
	if len(doc.TOC) != len(want) {
		t.Errorf("toc lines = %d, want %d", len(doc.TOC), len(want))
	}
	if doc.TOC[1].Indent != 240 || doc.TOC[1].Leader != "-" {
		t.Errorf("toc style not applied: %+v", doc.TOC[1])
	}

	var table *doctree.Table
	for _, n := range doc.Nodes {
		if tb, ok := n.(doctree.Table); ok {
			table = &tb
		}
	}
	if table == nil || len(table.Rows) != 2 {
		t.Errorf("expected the csv table with 2 rows, got %+v", table)
	}
}

func TestBook_Violations(t *testing.T) {
	book, err := Loader("testdata/orphan.yaml", toc.DefaultStyle(), "")()
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	if book.Catalog.Len() != 2 {
		t.Fatalf("expected front matter disabled, got %d units", book.Catalog.Len())
	}

	_, err = pipeline.NewBuilder(nil).Build(*book)
	if !errors.Is(err, pipeline.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %T", err)
	}

	var codes []string
	for _, v := range verr.Violations {
		codes = append(codes, v.ChapterID+":"+v.Code)
	}
	want := []string{"bad:" + validate.CodeOrphanSubsection, "empty:" + validate.CodeNotCallable}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Errorf("violations (-want +got):\n%s", diff)
	}
}

func TestBook_MissingSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.yaml")
	if err := os.WriteFile(path, []byte("title: T\nchapters:\n  - id: a\n    source: missing.md\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.Book(toc.DefaultStyle()); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestLoader_TitleOverride(t *testing.T) {
	book, err := Loader("testdata/book/book.yaml", toc.DefaultStyle(), "Field Manual")()
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	if book.Title != "Field Manual" {
		t.Errorf("title = %q", book.Title)
	}
	front := book.Catalog.Units()[0].Build()
	if p, ok := front[0].(doctree.Paragraph); !ok || p.String() != "Field Manual" {
		t.Errorf("front matter title = %#v", front[0])
	}
}
