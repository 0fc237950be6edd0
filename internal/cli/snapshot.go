package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/output"
	"github.com/gadrian78/he-tokens-snapshot/internal/runner"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	snapshotTokens       string
	snapshotSkipValidate bool
	snapshotDir          string
	snapshotCacheDir     string
	snapshotCacheTTL     time.Duration
	snapshotNoLayer1     bool
)

// snapshotCmd captures one account's portfolio.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot <account>",
	Short: "Capture and record one account's portfolio snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := hive.NewAccount(args[0])
		if err != nil {
			return err
		}

		symbols := parseSymbols(snapshotTokens)
		r := buildRunner(runOverrides{
			snapshotsDir: snapshotDir,
			cacheDir:     snapshotCacheDir,
			cacheTTL:     snapshotCacheTTL,
			skipLayer1:   snapshotNoLayer1,
		})

		if len(symbols) > 0 && !snapshotSkipValidate {
			if err := r.ValidateSymbols(cmd.Context(), symbols); err != nil {
				return err
			}
		}

		status := r.Run(cmd.Context(), account, symbols)
		return reportStatus(status)
	},
}

// parseSymbols splits a comma-separated token list into normalized
// symbols.
func parseSymbols(list string) []hive.Symbol {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	parts := strings.Split(list, ",")
	symbols := make([]hive.Symbol, 0, len(parts))
	for _, p := range parts {
		if s := hive.NormalizeSymbol(p); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// reportStatus prints a run's result; a failed run surfaces its error
// so the process exits nonzero.
func reportStatus(status *runner.RunStatus) error {
	if status.Outcome == runner.OutcomeFailed {
		if status.Err != nil {
			return status.Err
		}
		return snaperr.WithDetails(snaperr.ErrGeneral, map[string]string{
			"account": status.Account.String(),
		})
	}

	if !cfg.Output.Quiet && status.Document != nil {
		if formatter.IsJSON() {
			_ = formatter.Print(status.Document)
		} else {
			_ = output.RenderPortfolio(os.Stdout, status.Document)
			printSnapshotOutcomes(status)
		}
	}

	if status.Outcome == runner.OutcomePartial {
		logger.Warn("run completed with degraded data",
			zap.Strings("unpriced", status.Unpriced),
			zap.Strings("failedPools", status.FailedPools))
	}
	return nil
}

// printSnapshotOutcomes summarizes where the run's snapshot landed per
// granularity.
func printSnapshotOutcomes(status *runner.RunStatus) {
	for _, o := range status.Snapshots {
		switch {
		case o.Err != nil:
			logger.Warn("snapshot bucket failed",
				zap.String("granularity", string(o.Granularity)),
				zap.Error(o.Err))
		case o.Written:
			formatter.Infof("%s snapshot written: %s", o.Granularity, o.Path)
		case o.Overwritten:
			formatter.Infof("%s snapshot updated: %s", o.Granularity, o.Path)
		case o.Skipped:
			formatter.Infof("%s snapshot kept for %s", o.Granularity, o.PeriodKey)
		}
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	snapshotCmd.Flags().StringVar(&snapshotTokens, "tokens", "", "comma-separated token symbols to track (default: all held)")
	snapshotCmd.Flags().BoolVar(&snapshotSkipValidate, "no-validate", false, "skip token symbol validation")
	snapshotCmd.Flags().StringVar(&snapshotDir, "snapshots-dir", "", "snapshot directory (overrides config)")
	snapshotCmd.Flags().StringVar(&snapshotCacheDir, "cache-dir", "", "cache directory (overrides config)")
	snapshotCmd.Flags().DurationVar(&snapshotCacheTTL, "cache-ttl", 0, "cache entry lifetime, e.g. 15m (overrides config)")
	snapshotCmd.Flags().BoolVar(&snapshotNoLayer1, "no-layer1", false, "leave layer-1 holdings out of the snapshot")
	rootCmd.AddCommand(snapshotCmd)
}
