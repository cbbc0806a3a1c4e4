// Package registry assigns document-unique anchors to headings and records
// them in traversal order.
package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
)

// Entry records one registered heading.
type Entry struct {
	AnchorID        string `json:"anchor_id"`
	Level           int    `json:"level"`
	Text            string `json:"text"`
	SequenceIndex   int    `json:"sequence_index"`
	SourceChapterID string `json:"source_chapter_id"`
}

// Registry is the heading registry for a single build. It is append-only:
// entries are never changed or removed once registered.
type Registry struct {
	entries []Entry
	issued  map[string]int // anchor -> index into entries
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{issued: make(map[string]int)}
}

// Register issues an anchor for h, records it, and returns h with AnchorID
// set. Any AnchorID already present on h is ignored.
func (r *Registry) Register(chapterID string, h doctree.Heading) doctree.Heading {
	anchor := r.issue(Slugify(h.Text))
	h.AnchorID = anchor
	r.entries = append(r.entries, Entry{
		AnchorID:        anchor,
		Level:           h.Level,
		Text:            h.Text,
		SequenceIndex:   len(r.entries),
		SourceChapterID: chapterID,
	})
	return h
}

func (r *Registry) issue(base string) string {
	if base == "" {
		base = "section"
	}
	candidate := base
	for n := 2; ; n++ {
		if _, taken := r.issued[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	r.issued[candidate] = len(r.entries)
	return candidate
}

// Len returns the number of registered headings.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup returns the entry for an anchor.
func (r *Registry) Lookup(anchorID string) (Entry, bool) {
	i, ok := r.issued[anchorID]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

var (
	nonSlugRe  = regexp.MustCompile(`[^a-z0-9-]`)
	dashRunsRe = regexp.MustCompile(`-+`)
)

const maxSlugLen = 50

// Slugify converts heading text into an anchor-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = dashRunsRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}
