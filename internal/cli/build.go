package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docbind/internal/export"
	"github.com/dgallion1/docbind/internal/pipeline"
	"github.com/dgallion1/docbind/internal/registry"
)

// BuildResult summarizes a written document.
type BuildResult struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Title    string `json:"title"`
	Headings int    `json:"headings"`
	TOCLines int    `json:"toc_lines"`
	Digest   string `json:"digest"`
}

type buildOptions struct {
	out    string
	format string
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble the book and write the document",
		Long: `Validate every chapter, assemble the content, synthesize the table of
contents, and export the result. The format is taken from --type, then the
--out extension, then DOCBIND_FORMAT. No file is written when the build
aborts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", rootOpts.Config.Output, "output file (default derived from the title)")
	cmd.Flags().StringVarP(&opts.format, "type", "t", "", "document format ("+strings.Join(export.Formats, "|")+")")

	return cmd
}

func runBuild(rootOpts *RootOptions, opts *buildOptions, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	format := resolveFormat(opts.format, opts.out, rootOpts.Config.Format)
	exp, err := export.ForFormat(format)
	if err != nil {
		_ = f.Error(ErrCodeExport, err.Error(), nil)
		return WrapExitError(ExitCommandError, "choose format", err)
	}

	book, err := rootOpts.loadBook(f)
	if err != nil {
		return err
	}

	doc, err := pipeline.NewBuilder(rootOpts.logger(cmd.ErrOrStderr())).Build(*book)
	if err != nil {
		return reportAbort(f, err)
	}

	out := opts.out
	if out == "" {
		name := registry.Slugify(doc.Title)
		if name == "" {
			name = "book"
		}
		out = name + exp.Extension()
	}

	if err := writeDocument(out, exp, doc); err != nil {
		_ = f.Error(ErrCodeExport, err.Error(), nil)
		return WrapExitError(ExitCommandError, "write document", err)
	}

	res := BuildResult{
		Path:     out,
		Format:   format,
		Title:    doc.Title,
		Headings: len(doc.Headings),
		TOCLines: len(doc.TOC),
		Digest:   doc.Digest,
	}
	if f.JSON() {
		return f.Success(res)
	}
	f.Printf("✓ wrote %s (%d headings, %d toc lines, digest %s)\n", res.Path, res.Headings, res.TOCLines, shortDigest(res.Digest))
	return nil
}

// resolveFormat picks the explicit format, else one inferred from the
// output path, else the fallback.
func resolveFormat(explicit, out, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if format, ok := export.FormatForPath(out); ok {
		return format
	}
	return fallback
}

// writeDocument exports to a temporary file beside path and renames it into
// place, so an export error never leaves a partial document behind.
func writeDocument(path string, exp export.Exporter, doc *pipeline.Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docbind-*"+exp.Extension())
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := exp.Export(tmp, doc.Title, doc.Nodes); err != nil {
		tmp.Close()
		return fmt.Errorf("export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
