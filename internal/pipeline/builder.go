package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docbind/internal/chapter"
	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/dgallion1/docbind/internal/registry"
	"github.com/dgallion1/docbind/internal/toc"
	"github.com/dgallion1/docbind/internal/validate"
)

// ErrAborted is wrapped by every build that produced no document.
var ErrAborted = errors.New("build aborted")

// Document is the assembled output of one build.
type Document struct {
	Title    string            `json:"title"`
	Nodes    []doctree.Node    `json:"-"`
	Headings []registry.Entry  `json:"headings"`
	TOC      []doctree.TOCLine `json:"toc"`
	// Digest is the SHA-256 of the canonical JSON encoding of Nodes.
	Digest string `json:"digest"`
}

// Book is a titled chapter catalog ready to build.
type Book struct {
	Title    string
	Catalog  *chapter.Catalog
	TOCStyle toc.Style
}

// Loader produces the book for one build.
type Loader func() (*Book, error)

// Builder runs the two-phase assembly: content and heading registration
// first, TOC synthesis once every heading is known. A Builder holds no
// per-build state and may be reused.
type Builder struct {
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{log: log}
}

// Build validates and assembles the book. Either a complete document is
// returned or an error wrapping ErrAborted together with the cause
// (*validate.Error or *chapter.PanicError).
func (b *Builder) Build(book Book) (*Document, error) {
	start := time.Now()
	if book.Catalog == nil {
		return nil, fmt.Errorf("%w: no chapter catalog", ErrAborted)
	}

	outputs, err := validate.Validate(book.Catalog)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			b.log.Warn("validation failed", "violations", len(verr.Violations))
		} else {
			b.log.Error("chapter build failed", "error", err)
		}
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	// Phase 1: content and heading registration.
	reg := registry.New()
	nodes, tocAt := assemble(outputs, reg)
	b.log.Info("content assembled", "chapters", len(outputs), "nodes", len(nodes), "headings", reg.Len())

	// Phase 2: synthesize from the complete registry and splice.
	entries := reg.Entries()
	lines := toc.Synthesize(entries, book.TOCStyle)
	nodes = splice(nodes, tocAt, lines)
	if err := verifyRefs(nodes, reg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	digest, err := Digest(nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: digest: %w", ErrAborted, err)
	}

	b.log.Info("build complete",
		"toc_lines", len(lines),
		"digest", digest[:12],
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Document{
		Title:    book.Title,
		Nodes:    nodes,
		Headings: entries,
		TOC:      toc.Lines(lines),
		Digest:   digest,
	}, nil
}

// CheckResult is the outcome of validating a book without assembling it.
type CheckResult struct {
	Title      string               `json:"title"`
	Chapters   int                  `json:"chapters"`
	Violations []validate.Violation `json:"violations"`
}

// OK reports whether the book may be assembled.
func (r *CheckResult) OK() bool { return len(r.Violations) == 0 }

// Check runs the chapter builds and the validator only. A panicking chapter
// is returned as an error, not as a violation.
func (b *Builder) Check(book Book) (*CheckResult, error) {
	if book.Catalog == nil {
		return nil, fmt.Errorf("%w: no chapter catalog", ErrAborted)
	}
	vs := []validate.Violation{}
	_, err := validate.Validate(book.Catalog)
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		vs = verr.Violations
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}
	chapters := book.Catalog.Len()
	b.log.Info("validation complete", "chapters", chapters, "violations", len(vs))
	return &CheckResult{Title: book.Title, Chapters: chapters, Violations: vs}, nil
}

// assemble walks outputs in order, registering every heading. It returns
// the content nodes and the position of the TOC placeholder, or -1.
func assemble(outputs []chapter.Output, reg *registry.Registry) ([]doctree.Node, int) {
	var nodes []doctree.Node
	tocAt := -1
	for _, out := range outputs {
		for _, n := range out.Nodes {
			switch v := n.(type) {
			case doctree.Heading:
				nodes = append(nodes, reg.Register(out.Unit.ID, v))
			case doctree.TOCPlaceholder:
				tocAt = len(nodes)
			default:
				nodes = append(nodes, n)
			}
		}
	}
	return nodes, tocAt
}

// splice inserts lines at position at. Without a placeholder the TOC leads
// the document.
func splice(nodes []doctree.Node, at int, lines []doctree.Node) []doctree.Node {
	if at < 0 {
		at = 0
	}
	out := make([]doctree.Node, 0, len(nodes)+len(lines))
	out = append(out, nodes[:at]...)
	out = append(out, lines...)
	return append(out, nodes[at:]...)
}

// verifyRefs checks that the headings of nodes appear in registration order
// and that every TOC line's page reference resolves to its heading.
func verifyRefs(nodes []doctree.Node, reg *registry.Registry) error {
	headings := doctree.Headings(nodes)
	if len(headings) != reg.Len() {
		return fmt.Errorf("document has %d headings, registry has %d", len(headings), reg.Len())
	}
	for i, h := range headings {
		if e, ok := reg.Lookup(h.AnchorID); !ok || e.SequenceIndex != i {
			return fmt.Errorf("heading %d %q is out of registration order", i, h.Text)
		}
	}
	lines := toc.Lines(nodes)
	if len(lines) != reg.Len() {
		return fmt.Errorf("toc has %d lines for %d headings", len(lines), reg.Len())
	}
	for i, l := range lines {
		e, ok := reg.Lookup(l.PageRef.AnchorID)
		if !ok || e.SequenceIndex != i || e.Text != l.Text {
			return fmt.Errorf("toc line %d: page reference %q does not resolve", i, l.PageRef.AnchorID)
		}
	}
	return nil
}

// Digest hashes the canonical encoding of nodes.
func Digest(nodes []doctree.Node) (string, error) {
	data, err := doctree.MarshalNodes(nodes)
	if err != nil {
		return "", err
	}
	return ContentHashHex(data), nil
}
