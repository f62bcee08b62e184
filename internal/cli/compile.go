package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/formwell/formwell/internal/engine"
	"github.com/formwell/formwell/internal/schema"
	"github.com/formwell/formwell/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	ValuesFile string // path to a JSON or YAML file of raw values
	StorePath  string // optional ledger path; compilations are recorded when set
}

// CompileOutput is the success payload for the compile command.
type CompileOutput struct {
	BlockType string         `json:"blockType"`
	ActionID  string         `json:"actionId"`
	Payload   map[string]any `json:"payload"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-dir> <block-type>",
		Short: "Compile raw values into a validated action payload",
		Long: `Compile a set of raw field values against a form schema.

Resolves visibility and canonical precedence, selects the action via the
operation rule, validates requirements, and emits the coerced payload as
canonical JSON. With --store, the outcome is recorded in the compilation
ledger either way.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileValues(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ValuesFile, "values", "", "path to JSON or YAML file of field values (required)")
	cmd.Flags().StringVar(&opts.StorePath, "store", "", "compilation ledger path (optional)")
	_ = cmd.MarkFlagRequired("values")

	return cmd
}

func runCompileValues(opts *CompileOptions, schemaDir, blockType string, cmd *cobra.Command) error {
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

	formatter.VerboseLog("Compiling %d value(s) against %s", len(values), blockType)

	result, compileErr := engine.Compile(loaded.Schema, values)

	if opts.StorePath != "" {
		if recordErr := recordCompilation(cmd.Context(), opts.StorePath, loaded, values, result, compileErr); recordErr != nil {
			_ = formatter.Error(ErrCodeGeneric, recordErr.Error(), nil)
			return NewExitError(ExitCommandError, recordErr.Error())
		}
	}

	if compileErr != nil {
		return outputCompileFailure(formatter, compileErr)
	}

	return outputCompileSuccess(formatter, blockType, result)
}

// loadOneSchema loads a directory and selects a single block type.
func loadOneSchema(formatter *OutputFormatter, schemaDir, blockType string) (*LoadedSchema, error) {
	loadResult, loadErrors := LoadSchemas(schemaDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		first := loadErrors[0]
		var loadErr *LoadError
		if errors.As(first, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		} else {
			_ = formatter.Error(ErrCodeGeneric, first.Error(), nil)
		}
		return nil, NewExitError(ExitCommandError, first.Error())
	}

	loaded := loadResult.ByBlockType(blockType)
	if loaded == nil {
		msg := fmt.Sprintf("block type %q not found in %s", blockType, schemaDir)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return nil, NewExitError(ExitCommandError, msg)
	}
	return loaded, nil
}

// ReadValuesFile parses a JSON or YAML file into a raw values map.
// All values arrive as strings per the wire contract.
func ReadValuesFile(path string) (engine.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading values file: %w", err)
	}

	values := engine.Values{}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parsing values file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parsing values file %s: %w", path, err)
		}
	}
	return values, nil
}

// recordCompilation writes the outcome to the compilation ledger.
func recordCompilation(ctx context.Context, storePath string, loaded *LoadedSchema, values engine.Values, result *engine.Result, compileErr error) error {
	s, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	rec, err := store.RecordResult(loaded.BlockType, loaded.Hash, values, result, compileErr)
	if err != nil {
		return fmt.Errorf("building record: %w", err)
	}
	if err := s.WriteCompilation(ctx, rec); err != nil {
		return err
	}
	return nil
}

func outputCompileSuccess(formatter *OutputFormatter, blockType string, result *engine.Result) error {
	if formatter.Format == "json" {
		return formatter.Success(CompileOutput{
			BlockType: blockType,
			ActionID:  result.ActionID,
			Payload:   result.Payload,
		})
	}

	payloadJSON, err := schema.MarshalCanonical(result.Payload)
	if err != nil {
		return WrapExitError(ExitCommandError, "marshaling payload", err)
	}
	fmt.Fprintf(formatter.Writer, "action: %s\n", result.ActionID)
	fmt.Fprintf(formatter.Writer, "payload: %s\n", payloadJSON)
	return nil
}

func outputCompileFailure(formatter *OutputFormatter, compileErr error) error {
	var ve *engine.ValidationError
	if errors.As(compileErr, &ve) {
		if formatter.Format == "json" {
			_ = formatter.Error(ve.Violations[0].Code, ve.Error(), ve.Violations)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ Compilation failed for action %q\n\n", ve.ActionID)
			for _, v := range ve.Violations {
				fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", v.Code, v.Param, v.Message)
			}
		}
		return NewExitError(ExitFailure, ve.Error())
	}

	var uo *engine.UnknownOperationError
	if errors.As(compileErr, &uo) {
		_ = formatter.Error(engine.CodeUnknownOperation, uo.Error(), nil)
		return NewExitError(ExitFailure, uo.Error())
	}

	_ = formatter.Error(ErrCodeGeneric, compileErr.Error(), nil)
	return NewExitError(ExitFailure, compileErr.Error())
}
