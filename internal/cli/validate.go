package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docbind/internal/pipeline"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check chapters for structural violations without assembling",
		Long: `Run every chapter once and report all structural violations: orphan
level-3 headings, malformed nodes, nil output, duplicate ids or orders, and
misplaced TOC placeholders. Nothing is written.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	book, err := opts.loadBook(f)
	if err != nil {
		return err
	}

	res, err := pipeline.NewBuilder(opts.logger(cmd.ErrOrStderr())).Check(*book)
	if err != nil {
		return reportAbort(f, err)
	}
	if !res.OK() {
		reportViolations(f, res.Violations)
		return NewExitError(ExitFailure, fmt.Sprintf("%d structural violation(s)", len(res.Violations)))
	}

	if f.JSON() {
		return f.Success(res)
	}
	f.Printf("✓ %s: %d chapter(s) valid\n", res.Title, res.Chapters)
	return nil
}
