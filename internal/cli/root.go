// Package cli implements the hivesnap command-line interface.
//
// This package uses global variables to manage CLI state, which is the
// standard pattern for Cobra-based CLI applications. The globals are
// initialized in PersistentPreRunE.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/gadrian78/he-tokens-snapshot/internal/config"
	"github.com/gadrian78/he-tokens-snapshot/internal/metrics"
	"github.com/gadrian78/he-tokens-snapshot/internal/output"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

var (
	// Global flags
	configPath   string
	envFile      string
	outputFormat string
	quiet        bool
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *zap.Logger
	formatter *output.Formatter
	counters  *metrics.Metrics
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hivesnap",
	Short: "Periodic portfolio snapshots for Hive accounts",
	Long: `hivesnap captures a Hive account's sidechain token balances, diesel
pool positions and layer-1 holdings, values them in USD, HIVE and BTC,
and records dated snapshots into daily, weekly, monthly, quarterly and
yearly buckets.

Example:
  hivesnap snapshot alice --tokens LEO,SPS
  hivesnap batch --config config.yaml
  hivesnap version`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return snaperr.ExitCode(err)
}

// initGlobals initializes configuration, logger, formatter and metrics.
func initGlobals() error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Defaults()
	}

	config.ApplyEnvironment(cfg)

	if quiet {
		cfg.Output.Quiet = true
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return snaperr.WithDetails(snaperr.ErrConfigInvalid, map[string]string{
			"reason": err.Error(),
		})
	}

	logger = newLogger(cfg.Logging.Level, cfg.Output.Quiet)

	formatter = output.NewFormatter(outputFormat, os.Stdout)

	counters = metrics.New()
	return nil
}

// newLogger builds the CLI logger: console output on stderr, colored
// when stderr is a terminal, silent in quiet mode.
func newLogger(level string, quiet bool) *zap.Logger {
	if quiet {
		return zap.NewNop()
	}

	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	if term.IsTerminal(int(os.Stderr.Fd())) { //nolint:gosec // G115: Fd() returns uintptr, safe conversion
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	return zap.New(core)
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Sync()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "environment file (default: .env)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
