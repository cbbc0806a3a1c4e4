// Package validate checks chapter output for structural problems before any
// assembly happens. Every violation across every chapter is collected so one
// run reports everything that needs fixing.
package validate

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docbind/internal/chapter"
	"github.com/dgallion1/docbind/internal/doctree"
)

// Violation codes.
const (
	CodeNotCallable       = "not_callable"
	CodeNilOutput         = "nil_output"
	CodeInvalidNode       = "invalid_node"
	CodeOrphanSubsection  = "orphan_subsection"
	CodeDuplicateID       = "duplicate_id"
	CodeDuplicateOrder    = "duplicate_order"
	CodeMissingID         = "missing_id"
	CodeMisplacedTOC      = "misplaced_toc"
	CodeDuplicateTOCPoint = "duplicate_toc_placeholder"
)

// UnitIndex is the Index of violations that concern a unit as a whole
// rather than one of its nodes.
const UnitIndex = -1

// Violation is a single structural problem.
type Violation struct {
	ChapterID string `json:"chapter_id"`
	Index     int    `json:"index"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

func (v Violation) String() string {
	if v.Index == UnitIndex {
		return fmt.Sprintf("%s: %s", v.ChapterID, v.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", v.ChapterID, v.Index, v.Reason)
}

// Error carries the full violation list of a failed validation.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, v.String())
	}
	return fmt.Sprintf("%d structural violation(s):\n  %s", len(e.Violations), strings.Join(lines, "\n  "))
}

// Check validates collected chapter outputs and returns every violation in
// chapter order. An empty result means the outputs may be assembled.
func Check(outputs []chapter.Output) []Violation {
	var vs []Violation
	vs = append(vs, checkCatalog(outputs)...)

	placeholders := 0
	for _, out := range outputs {
		id := out.Unit.ID

		if !out.Callable {
			vs = append(vs, Violation{ChapterID: id, Index: UnitIndex, Code: CodeNotCallable, Reason: "build function is not callable"})
			continue
		}
		if out.Nodes == nil {
			vs = append(vs, Violation{ChapterID: id, Index: UnitIndex, Code: CodeNilOutput, Reason: "build returned nil instead of a node list"})
			continue
		}

		for i, n := range out.Nodes {
			if _, ok := n.(doctree.TOCPlaceholder); ok {
				placeholders++
				if !out.Unit.FrontMatter {
					vs = append(vs, Violation{ChapterID: id, Index: i, Code: CodeMisplacedTOC, Reason: "toc placeholder outside the front-matter unit"})
				} else if placeholders > 1 {
					vs = append(vs, Violation{ChapterID: id, Index: i, Code: CodeDuplicateTOCPoint, Reason: "more than one toc placeholder in the document"})
				}
				continue
			}
			if reason := checkNode(n); reason != "" {
				vs = append(vs, Violation{ChapterID: id, Index: i, Code: CodeInvalidNode, Reason: reason})
			}
		}

		vs = append(vs, checkSequencing(id, out.Nodes)...)
	}
	return vs
}

// Validate collects the catalog's output and checks it. On violations it
// returns an *Error; a panicking unit yields its *chapter.PanicError.
func Validate(c *chapter.Catalog) ([]chapter.Output, error) {
	outputs, err := chapter.Collect(c)
	if err != nil {
		return nil, err
	}
	if vs := Check(outputs); len(vs) > 0 {
		return nil, &Error{Violations: vs}
	}
	return outputs, nil
}

func checkCatalog(outputs []chapter.Output) []Violation {
	var vs []Violation
	ids := make(map[string]bool, len(outputs))
	orders := make(map[int]string, len(outputs))
	for _, out := range outputs {
		u := out.Unit
		if u.ID == "" {
			vs = append(vs, Violation{Index: UnitIndex, Code: CodeMissingID, Reason: fmt.Sprintf("unit with order %d has no id", u.Order)})
		} else if ids[u.ID] {
			vs = append(vs, Violation{ChapterID: u.ID, Index: UnitIndex, Code: CodeDuplicateID, Reason: "chapter id declared more than once"})
		}
		ids[u.ID] = true
		if prev, ok := orders[u.Order]; ok {
			vs = append(vs, Violation{ChapterID: u.ID, Index: UnitIndex, Code: CodeDuplicateOrder, Reason: fmt.Sprintf("order %d already used by %q", u.Order, prev)})
		} else {
			orders[u.Order] = u.ID
		}
	}
	return vs
}

// checkNode returns a reason when n is not a well-formed chapter node.
func checkNode(n doctree.Node) string {
	switch v := n.(type) {
	case nil:
		return "nil node"
	case doctree.Heading:
		if v.Level < doctree.MinHeadingLevel || v.Level > doctree.MaxHeadingLevel {
			return fmt.Sprintf("heading level %d outside %d..%d", v.Level, doctree.MinHeadingLevel, doctree.MaxHeadingLevel)
		}
		if strings.TrimSpace(v.Text) == "" {
			return "heading has no text"
		}
	case doctree.Paragraph, doctree.CodeBlock, doctree.DefinitionBlock, doctree.PageBreak:
	case doctree.Table:
		if len(v.Header) == 0 {
			return "table has no header row"
		}
		for r, row := range v.Rows {
			if len(row) != len(v.Header) {
				return fmt.Sprintf("table row %d has %d cells, header has %d", r, len(row), len(v.Header))
			}
		}
		if len(v.ColumnWidths) > 0 && len(v.ColumnWidths) != len(v.Header) {
			return fmt.Sprintf("table declares %d column widths for %d columns", len(v.ColumnWidths), len(v.Header))
		}
	case doctree.Spacer:
		if v.Size < 0 {
			return fmt.Sprintf("spacer size %d is negative", v.Size)
		}
	case doctree.TOCLine:
		return "toc lines are synthesized, chapters may not emit them"
	default:
		// Pointer variants satisfy Node through value methods; calling Kind
		// on a nil one would panic.
		return fmt.Sprintf("unrecognized node type %T", n)
	}
	return ""
}

// checkSequencing rejects level-3 headings that appear before any level-2
// heading in the same chapter.
func checkSequencing(chapterID string, nodes []doctree.Node) []Violation {
	var vs []Violation
	seenSection := false
	for i, n := range nodes {
		h, ok := n.(doctree.Heading)
		if !ok {
			continue
		}
		switch h.Level {
		case 2:
			seenSection = true
		case 3:
			if !seenSection {
				vs = append(vs, Violation{
					ChapterID: chapterID,
					Index:     i,
					Code:      CodeOrphanSubsection,
					Reason:    fmt.Sprintf("level-3 heading %q has no preceding level-2 heading", h.Text),
				})
			}
		}
	}
	return vs
}
