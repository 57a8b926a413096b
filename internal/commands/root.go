package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtfilter/internal/buildinfo"
	"github.com/cleared-dev/stmtfilter/internal/config"
	"github.com/cleared-dev/stmtfilter/internal/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "stmtfilter",
		Short:   "Filter bank statements down to a recent period",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "path to "+config.FileName+" (defaults built in)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&g.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newFilterCommand(&g))
	rootCmd.AddCommand(newPeriodCommand())
	rootCmd.AddCommand(newServeCommand(&g))

	return rootCmd
}

// setup loads the configuration and builds the logger. Log flags win over the file.
func (g *globalFlags) setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}

	log, err := logger.NewWithOptions(cmd.ErrOrStderr(), logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
