package chapter

import "github.com/dgallion1/docbind/internal/doctree"

// FrontMatterID is the id of the unit built by FrontMatter.
const FrontMatterID = "front-matter"

// FrontMatter returns the unit that opens the document: title block, the
// contents label, the TOC placeholder, and a page break. It sorts first.
func FrontMatter(title, subtitle string) Unit {
	return Unit{
		ID:          FrontMatterID,
		Order:       0,
		FrontMatter: true,
		Build: func() []doctree.Node {
			nodes := []doctree.Node{
				doctree.Paragraph{Runs: []doctree.Run{{Text: title, Bold: true}}},
			}
			if subtitle != "" {
				nodes = append(nodes, doctree.Paragraph{Runs: []doctree.Run{{Text: subtitle, Italic: true}}})
			}
			return append(nodes,
				doctree.Spacer{Size: 24},
				doctree.Paragraph{Runs: []doctree.Run{{Text: "Contents", Bold: true}}},
				doctree.TOCPlaceholder{},
				doctree.PageBreak{},
			)
		},
	}
}
