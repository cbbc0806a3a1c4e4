// Package cli is the docbind command line: validate, build, and print the
// table of contents of a manifest-declared book, or serve the build API.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docbind/internal/chapter"
	"github.com/dgallion1/docbind/internal/config"
	"github.com/dgallion1/docbind/internal/manifest"
	"github.com/dgallion1/docbind/internal/pipeline"
	"github.com/dgallion1/docbind/internal/toc"
	"github.com/dgallion1/docbind/internal/validate"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Manifest string
	Title    string

	// Config supplies defaults for flags and the server settings.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Flag defaults come from the
// environment via config.Load.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.Load()}

	cmd := &cobra.Command{
		Use:   "docbind",
		Short: "docbind - assemble chapters into one document",
		Long: `Assemble ordered chapters into a single document with a generated table
of contents. Headings receive unique anchors and every structural problem is
reported before anything is written.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Manifest, "manifest", "m", opts.Config.Manifest, "book manifest (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Title, "title", opts.Config.Title, "override the document title")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewTOCCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger writes build progress to w. Only warnings surface unless verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) style() toc.Style {
	s := toc.DefaultStyle()
	if o.Config.TOCIndent > 0 {
		s.IndentStep = o.Config.TOCIndent
	}
	if o.Config.TOCLeader != "" {
		s.Leader = o.Config.TOCLeader
	}
	return s
}

func (o *RootOptions) loader() pipeline.Loader {
	return manifest.Loader(o.Manifest, o.style(), o.Title)
}

// loadBook reads the manifest, reporting failures as command errors.
func (o *RootOptions) loadBook(f *OutputFormatter) (*pipeline.Book, error) {
	if o.Manifest == "" {
		_ = f.Error(ErrCodeLoad, "no manifest given", nil)
		return nil, NewExitError(ExitCommandError, "no manifest given (use --manifest or DOCBIND_MANIFEST)")
	}
	book, err := o.loader()()
	if err != nil {
		_ = f.Error(ErrCodeLoad, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "load manifest", err)
	}
	return book, nil
}

// reportAbort prints why a build produced no document and returns the
// matching exit error.
func reportAbort(f *OutputFormatter, err error) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		reportViolations(f, verr.Violations)
		return WrapExitError(ExitFailure, "build aborted", verr)
	}
	var perr *chapter.PanicError
	if errors.As(err, &perr) {
		_ = f.Error(ErrCodeAborted, perr.Error(), map[string]string{"chapter_id": perr.ChapterID})
		return WrapExitError(ExitFailure, "build aborted", perr)
	}
	_ = f.Error(ErrCodeAborted, err.Error(), nil)
	return WrapExitError(ExitFailure, "build aborted", err)
}

func reportViolations(f *OutputFormatter, vs []validate.Violation) {
	msg := fmt.Sprintf("%d structural violation(s)", len(vs))
	if f.JSON() {
		_ = f.Error(ErrCodeViolations, msg, vs)
		return
	}
	fmt.Fprintf(f.Writer, "✗ %s\n", msg)
	for _, v := range vs {
		fmt.Fprintf(f.Writer, "  %s (%s)\n", v, v.Code)
	}
}
