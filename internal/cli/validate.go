package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formwell/formwell/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Schemas []string                   `json:"schemas,omitempty"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate schema documents without compiling values",
		Long: `Validate form schema documents in a directory.

Loads every CUE and YAML schema document, runs structural validation
(field references, canonical groups, operation rules, dependency cycles)
and reports every defect found. Nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadSchemas(schemaDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, loadErrors[0].Error(), nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d schema file(s) in %s", loadResult.FileCount, schemaDir)
	for _, ls := range loadResult.Schemas {
		formatter.VerboseLog("Validated schema: %s (%s)", ls.BlockType, ls.Hash[:12])
	}

	validationErrors := collectValidationErrors(loadErrors)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, loadResult)
}

// collectValidationErrors flattens load errors into a uniform error list.
// SchemaError aggregates are unpacked so each defect reports its own code.
func collectValidationErrors(loadErrors []error) []compiler.ValidationError {
	var all []compiler.ValidationError
	for _, err := range loadErrors {
		var schemaErr *compiler.SchemaError
		if errors.As(err, &schemaErr) {
			for _, ve := range schemaErr.Errors {
				ve.Field = schemaErr.BlockType + "." + ve.Field
				all = append(all, ve)
			}
			continue
		}

		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			all = append(all, compiler.ValidationError{
				Field:   compileErr.Field,
				Message: compileErr.Message,
				Code:    ErrCodeBuildFailed,
			})
			continue
		}

		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			all = append(all, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			})
			continue
		}

		all = append(all, compiler.ValidationError{
			Field:   "load",
			Message: err.Error(),
			Code:    ErrCodeGeneric,
		})
	}
	return all
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, loadResult *LoadResult) error {
	blocks := make([]string, 0, len(loadResult.Schemas))
	for _, ls := range loadResult.Schemas {
		blocks = append(blocks, ls.BlockType)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Schemas: blocks})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d schema(s) valid\n", len(blocks))
	for _, b := range blocks {
		fmt.Fprintf(formatter.Writer, "  %s\n", b)
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
