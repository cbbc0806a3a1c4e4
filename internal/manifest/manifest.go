// Package manifest loads the YAML file that statically declares a book:
// its title, TOC style, and ordered chapter list. Chapter sources are
// imported once at load time so every Build call returns the same nodes.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/docbind/internal/chapter"
	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/dgallion1/docbind/internal/parser"
	"github.com/dgallion1/docbind/internal/pipeline"
	"github.com/dgallion1/docbind/internal/toc"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML structure of a book file.
type Manifest struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle,omitempty"`

	// FrontMatter adds the title block and TOC placeholder unit. Defaults to true.
	FrontMatter *bool `yaml:"front_matter,omitempty"`

	TOC      TOCSpec   `yaml:"toc,omitempty"`
	Chapters []Chapter `yaml:"chapters"`

	// dir resolves relative chapter sources.
	dir string
}

// TOCSpec overrides the configured TOC style.
type TOCSpec struct {
	Indent *int   `yaml:"indent,omitempty"`
	Leader string `yaml:"leader,omitempty"`
}

// Chapter declares one chapter unit.
type Chapter struct {
	ID string `yaml:"id"`

	// Order defaults to the chapter's 1-based position in the list.
	Order *int `yaml:"order,omitempty"`

	// Source is a file path relative to the manifest. Content is inline
	// Markdown used when Source is empty.
	Source  string `yaml:"source,omitempty"`
	Content string `yaml:"content,omitempty"`

	// Heading, when set, is emitted as a level-1 heading before the source.
	Heading string `yaml:"heading,omitempty"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes manifest YAML. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if strings.TrimSpace(m.Title) == "" {
		return nil, errors.New("manifest: title is required")
	}
	return &m, nil
}

// Style merges the manifest TOC overrides onto defaults.
func (m *Manifest) Style(defaults toc.Style) toc.Style {
	s := defaults
	if m.TOC.Indent != nil {
		s.IndentStep = *m.TOC.Indent
	}
	if m.TOC.Leader != "" {
		s.Leader = m.TOC.Leader
	}
	return s
}

// Book imports every chapter source and returns the catalog. A chapter
// with neither source nor content is declared without a Build function and
// is reported by the validator.
func (m *Manifest) Book(defaults toc.Style) (*pipeline.Book, error) {
	catalog := chapter.NewCatalog()
	if m.FrontMatter == nil || *m.FrontMatter {
		catalog.Add(chapter.FrontMatter(m.Title, m.Subtitle))
	}

	for i, ch := range m.Chapters {
		unit := chapter.Unit{ID: ch.ID, Order: i + 1}
		if ch.Order != nil {
			unit.Order = *ch.Order
		}

		nodes, err := m.importChapter(ch)
		if err != nil {
			return nil, fmt.Errorf("chapter %q: %w", ch.ID, err)
		}
		if nodes != nil {
			unit.Build = func() []doctree.Node {
				return slices.Clone(nodes)
			}
		}
		catalog.Add(unit)
	}

	return &pipeline.Book{
		Title:    m.Title,
		Catalog:  catalog,
		TOCStyle: m.Style(defaults),
	}, nil
}

// importChapter returns nil when the chapter declares no content at all.
func (m *Manifest) importChapter(ch Chapter) ([]doctree.Node, error) {
	var body []doctree.Node
	switch {
	case ch.Source != "":
		path := ch.Source
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.dir, path)
		}
		p, err := parser.ForFile(path)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open source: %w", err)
		}
		defer f.Close()
		if body, err = p.Parse(f, filepath.Base(path)); err != nil {
			return nil, fmt.Errorf("import %s: %w", ch.Source, err)
		}
	case ch.Content != "":
		var err error
		if body, err = (&parser.MarkdownParser{}).Parse(strings.NewReader(ch.Content), ch.ID+".md"); err != nil {
			return nil, fmt.Errorf("import content: %w", err)
		}
	case ch.Heading == "":
		return nil, nil
	}

	nodes := []doctree.Node{}
	if ch.Heading != "" {
		nodes = append(nodes, doctree.Heading{Level: 1, Text: ch.Heading})
	}
	return append(nodes, body...), nil
}

// Loader returns a pipeline.Loader that re-reads the manifest on every
// call, so a long-running server picks up edits. A non-empty title replaces
// the manifest's.
func Loader(path string, defaults toc.Style, title string) pipeline.Loader {
	return func() (*pipeline.Book, error) {
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		if title != "" {
			m.Title = title
		}
		return m.Book(defaults)
	}
}
