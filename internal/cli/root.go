package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// Logger is built in PersistentPreRunE from Verbose.
	Logger *slog.Logger
}

// logger returns the root logger, or the process default when the
// command runs without the root's PersistentPreRunE (as in tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// envPrefix prefixes environment variables that stand in for flags:
// DSIMP_DB, DSIMP_FORMAT, DSIMP_MAX_STEPS and so on.
const envPrefix = "dsimp"

// NewRootCommand creates the root command for the dsimp CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dsimp",
		Short: "dsimp - definitional simplifier",
		Long: `Rewrite expressions to a fixed point under a rule set.

Programs are CUE files declaring constants and rewrite rules. Runs can be
recorded in a SQLite run log and inspected later.

Flags can also be set through DSIMP_<FLAG> environment variables, e.g.
DSIMP_DB=./runs.db or DSIMP_MAX_STEPS=500.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnvironment(cmd); err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite run log")

	cmd.AddCommand(NewSimplifyCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// applyEnvironment fills every flag the user did not set from its
// DSIMP_<FLAG> environment variable, if present.
func applyEnvironment(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var errs []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if f.Changed || !v.IsSet(key) {
			return
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(key))); err != nil {
			errs = append(errs, err.Error())
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("mapping environment variables to flags: %s", strings.Join(errs, "; "))
	}
	return nil
}

// newLogger installs a text handler on w; verbose switches to Debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
