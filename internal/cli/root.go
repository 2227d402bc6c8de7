package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/ensemble/internal/config"
	"github.com/roach88/ensemble/internal/logging"
	"github.com/roach88/ensemble/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Database   string

	// Config and Logger are filled in by the root command before any
	// subcommand runs. Subcommands built directly (as in tests) fall back
	// to defaults.
	Config *config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ensemble CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "ensemble - contact reconciliation engine",
		Long: `Normalize, diff, merge and patch contact records.

Records are read from JSON or YAML files and may be stored in a local
SQLite database, where diffs can be queued and applied later.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default $HOME/.ensemble.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides db_path)")

	// Record commands
	cmd.AddCommand(NewNormalizeCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewPatchCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	// Store commands
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewQueueDiffCommand(opts))
	cmd.AddCommand(NewApplyPendingCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger.
func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg

	level := cfg.LogLevel
	if o.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	o.Logger = logger.Named("ensemble")
	return nil
}

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return logging.Nop()
	}
	return o.Logger
}

func (o *RootOptions) importWorkers() int {
	if o.Config == nil {
		return config.DefaultImportWorkers
	}
	return o.Config.ImportWorkers
}

// dbPath resolves the database path: --db, then config, then the default.
func (o *RootOptions) dbPath() string {
	switch {
	case o.Database != "":
		return o.Database
	case o.Config != nil:
		return o.Config.DBPath
	default:
		return config.DefaultDBPath
	}
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	path := o.dbPath()
	o.logger().Debug("opening database", zap.String("path", path))
	st, err := store.Open(path, store.WithLogger(o.logger()))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.logger().Error("error closing database", zap.Error(err))
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
