package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formwell/formwell/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	StorePath string
	BlockType string
	Limit     int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded compilations from the ledger",
		Long: `List compilation records from the ledger, newest first.

Each record shows its content id, outcome, selected action and timestamp.
Filter by block type with --block.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.StorePath, "store", "", "compilation ledger path (required)")
	cmd.Flags().StringVar(&opts.BlockType, "block", "", "filter by block type")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum records to list")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.Open(opts.StorePath)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer s.Close()

	records, err := s.ListCompilations(cmd.Context(), opts.BlockType, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing compilations", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "no compilations recorded")
		return nil
	}

	for _, rec := range records {
		action := rec.ActionID
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(formatter.Writer, "%s  %-8s  %-20s  %-24s  %s\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.Outcome,
			rec.BlockType,
			action,
			rec.ID[:16],
		)
		if opts.Verbose && rec.ErrorText != "" {
			fmt.Fprintf(formatter.Writer, "    %s\n", rec.ErrorText)
		}
	}
	return nil
}
