package cli

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docbind/internal/doctree"
	"github.com/dgallion1/docbind/internal/pipeline"
	"github.com/dgallion1/docbind/internal/toc"
)

// TOCResult is the JSON form of the toc command.
type TOCResult struct {
	Title  string            `json:"title"`
	Digest string            `json:"digest"`
	TOC    []doctree.TOCLine `json:"toc"`
}

// NewTOCCommand creates the toc command.
func NewTOCCommand(rootOpts *RootOptions) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Print the table of contents the build would produce",
		Long: `Build the book in memory and print its table of contents. Each line shows
the heading, the leader, and the anchor its page reference resolves to.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTOC(rootOpts, width, cmd)
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 72, "line width for text output")

	return cmd
}

func runTOC(opts *RootOptions, width int, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	book, err := opts.loadBook(f)
	if err != nil {
		return err
	}

	doc, err := pipeline.NewBuilder(opts.logger(cmd.ErrOrStderr())).Build(*book)
	if err != nil {
		return reportAbort(f, err)
	}

	if f.JSON() {
		lines := doc.TOC
		if lines == nil {
			lines = []doctree.TOCLine{}
		}
		return f.Success(TOCResult{Title: doc.Title, Digest: doc.Digest, TOC: lines})
	}
	f.Printf("%s", toc.FormatText(doc.TOC, width))
	return nil
}
