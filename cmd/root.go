package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pitchscore/internal/config"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfg *config.Config

	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:               "pitchscore",
	Short:             "Business-pitch intake and scoring service",
	Long:              "Scores founder business plans with a deterministic rule engine, stores the resulting records, and serves them to investors.",
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// setup loads configuration, applies flag overrides, and installs the
// global logger before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.LoadFile(configFile)
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	applyLogFlags(cmd, &c.Log)
	cfg = c

	if err := config.InitLogger(cfg.Log); err != nil {
		return eris.Wrap(err, "init logger")
	}
	zap.L().Debug("config loaded",
		zap.String("command", cmd.Name()),
		zap.String("store", cfg.Store.Driver),
		zap.String("version", version),
	)
	return nil
}

// applyLogFlags overrides the configured log settings with flags the user
// actually set.
func applyLogFlags(cmd *cobra.Command, lc *config.LogConfig) {
	if cmd.Flags().Changed("log-level") {
		lc.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		lc.Format = logFormat
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./config.yaml when present)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "json", "log format (json, console)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
