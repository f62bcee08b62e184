package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formwell/formwell/internal/engine"
)

// FieldsOptions holds flags for the fields command.
type FieldsOptions struct {
	*RootOptions
	ValuesFile string
}

// FieldState is the resolved state of one field for a given value set.
type FieldState struct {
	ID             string   `json:"id"`
	CanonicalParam string   `json:"canonicalParam"`
	Mode           string   `json:"mode"`
	Visible        bool     `json:"visible"`
	Ready          bool     `json:"ready"`
	WaitingOn      []string `json:"waitingOn,omitempty"`
}

// FieldsOutput is the success payload for the fields command.
type FieldsOutput struct {
	BlockType string            `json:"blockType"`
	Fields    []FieldState      `json:"fields"`
	Effective map[string]string `json:"effective"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FieldsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fields <schema-dir> <block-type>",
		Short: "Show field visibility, readiness and effective values",
		Long: `Resolve field state for a set of raw values without compiling a payload.

For each field in schema order, reports whether its visibility condition
holds, whether its dependencies are ready, and which dependency it is
waiting on. Also prints the effective canonical values after precedence
resolution.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ValuesFile, "values", "", "path to JSON or YAML file of field values (required)")
	_ = cmd.MarkFlagRequired("values")

	return cmd
}

func runFields(opts *FieldsOptions, schemaDir, blockType string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := loadOneSchema(formatter, schemaDir, blockType)
	if err != nil {
		return err
	}

	values, err := ReadValuesFile(opts.ValuesFile)
	if err != nil {
		_ = formatter.Error(ErrCodeParseFailed, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	s := loaded.Schema
	visible := engine.VisibleFields(s, values)

	output := FieldsOutput{
		BlockType: blockType,
		Effective: engine.EffectiveValues(s, values),
	}
	for _, id := range s.FieldOrder {
		field := s.Field(id)
		_, isVisible := visible[id]

		state := FieldState{
			ID:             id,
			CanonicalParam: field.Canonical(),
			Mode:           string(field.Mode),
			Visible:        isVisible,
			Ready:          true,
		}
		if readyErr := engine.CheckReady(s, id, values); readyErr != nil {
			state.Ready = false
			var notReady *engine.DependencyNotReadyError
			if errors.As(readyErr, &notReady) {
				state.WaitingOn = notReady.Missing
			}
		}
		output.Fields = append(output.Fields, state)
	}

	if formatter.Format == "json" {
		return formatter.Success(output)
	}

	fmt.Fprintf(formatter.Writer, "schema: %s\n", blockType)
	for _, f := range output.Fields {
		status := "hidden"
		if f.Visible && f.Ready {
			status = "active"
		} else if f.Visible {
			status = fmt.Sprintf("waiting on %v", f.WaitingOn)
		}
		fmt.Fprintf(formatter.Writer, "  %-20s -> %-20s [%s]\n", f.ID, f.CanonicalParam, status)
	}
	fmt.Fprintln(formatter.Writer, "effective:")
	for _, id := range s.FieldOrder {
		canonical := s.Field(id).Canonical()
		if v, ok := output.Effective[canonical]; ok {
			fmt.Fprintf(formatter.Writer, "  %s = %q\n", canonical, v)
			delete(output.Effective, canonical)
		}
	}
	return nil
}
