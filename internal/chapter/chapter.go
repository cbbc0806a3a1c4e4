// Package chapter defines the chapter unit contract: a named, ordered,
// side-effect free producer of a flat node list.
package chapter

import (
	"cmp"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/dgallion1/docbind/internal/doctree"
)

// BuildFunc produces a chapter's nodes. It must be pure: calling it twice
// yields structurally identical output.
type BuildFunc func() []doctree.Node

// Unit is one chapter of the document.
type Unit struct {
	ID    string
	Order int
	Build BuildFunc

	// FrontMatter marks the unit allowed to emit the TOC placeholder.
	FrontMatter bool
}

// Catalog is the statically declared set of units for a document.
type Catalog struct {
	units []Unit
}

// NewCatalog records units in declaration order.
func NewCatalog(units ...Unit) *Catalog {
	return &Catalog{units: slices.Clone(units)}
}

// Add appends a unit to the catalog.
func (c *Catalog) Add(u Unit) {
	c.units = append(c.units, u)
}

// Len returns the number of declared units.
func (c *Catalog) Len() int {
	return len(c.units)
}

// Units returns the units sorted by ascending Order. Units with equal Order
// keep their declaration order.
func (c *Catalog) Units() []Unit {
	out := slices.Clone(c.units)
	slices.SortStableFunc(out, func(a, b Unit) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// Output is what one unit produced during collection.
type Output struct {
	Unit Unit
	// Callable is false when the unit has no Build function; Nodes is then nil.
	Callable bool
	Nodes    []doctree.Node
}

// PanicError reports a unit whose Build panicked. It is fatal for the build.
type PanicError struct {
	ChapterID string
	Value     any
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("chapter %q panicked: %v", e.ChapterID, e.Value)
}

// Collect invokes every unit's Build exactly once, in ascending order. A
// panicking unit stops collection and is reported as a *PanicError.
func Collect(c *Catalog) ([]Output, error) {
	units := c.Units()
	outputs := make([]Output, 0, len(units))
	for _, u := range units {
		if u.Build == nil {
			outputs = append(outputs, Output{Unit: u})
			continue
		}
		nodes, err := invoke(u)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Unit: u, Callable: true, Nodes: nodes})
	}
	return outputs, nil
}

func invoke(u Unit) (nodes []doctree.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{ChapterID: u.ID, Value: r, Stack: debug.Stack()}
		}
	}()
	return u.Build(), nil
}
