package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/formwell/formwell/internal/server"
	"github.com/formwell/formwell/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigFile string
	Host       string
	Port       int
	SchemaDir  string
	StorePath  string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schemas and compilation over HTTP",
		Long: `Start the HTTP API.

Schemas are compiled once at startup; a schema that fails validation
prevents the server from starting. Compilations are recorded in the
ledger when a store path is configured.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "config file path (optional)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "listen port (overrides config)")
	cmd.Flags().StringVar(&opts.SchemaDir, "schemas", "", "schema directory (overrides config)")
	cmd.Flags().StringVar(&opts.StorePath, "store", "", "compilation ledger path (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := server.LoadConfig(opts.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if opts.SchemaDir != "" {
		cfg.SchemaDir = opts.SchemaDir
	}
	if opts.StorePath != "" {
		cfg.StorePath = opts.StorePath
	}

	logger, err := buildLogger(opts.Verbose || cfg.Debug)
	if err != nil {
		return WrapExitError(ExitCommandError, "initializing logger", err)
	}
	defer logger.Sync()

	// Load-time failures are fatal: never serve a schema set that did not
	// fully validate.
	loadResult, loadErrors := LoadSchemas(cfg.SchemaDir, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		for _, loadErr := range loadErrors {
			logger.Error("schema load failed", zap.Error(loadErr))
		}
		return NewExitError(ExitFailure, "schema validation failed")
	}

	entries := make([]server.Entry, 0, len(loadResult.Schemas))
	for _, ls := range loadResult.Schemas {
		logger.Info("schema loaded",
			zap.String("blockType", ls.BlockType),
			zap.String("hash", ls.Hash[:12]),
		)
		entries = append(entries, server.Entry{
			BlockType: ls.BlockType,
			Hash:      ls.Hash,
			Schema:    ls.Schema,
		})
	}

	var st *store.Store
	if cfg.StorePath != "" {
		st, err = store.Open(cfg.StorePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening store", err)
		}
		defer st.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, server.NewRegistry(entries), st, logger)
	if err := srv.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "server error", err)
	}
	return nil
}

// buildLogger creates the production zap logger, with debug level when
// verbose is set.
func buildLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}
