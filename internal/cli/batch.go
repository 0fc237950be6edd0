package cli

import (
	"sort"
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
var batchDelayFlag time.Duration

// batchCmd snapshots every configured account in sequence.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Snapshot all configured accounts sequentially",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := batchEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return snaperr.WithSuggestion(
				snaperr.WithDetails(snaperr.ErrConfigInvalid, map[string]string{
					"reason": "no accounts configured",
				}),
				"add accounts to the config file, e.g.\n  accounts:\n    alice: [LEO, SPS]")
		}

		delay := cfg.BatchDelay()
		if cmd.Flags().Changed("delay") {
			delay = batchDelayFlag
		}

		r := buildRunner(runOverrides{})
		summary := r.RunBatch(cmd.Context(), entries, delay)

		for _, status := range summary.Statuses {
			logger.Info("account processed",
				zap.String("account", status.Account.String()),
				zap.String("outcome", string(status.Outcome)))
		}

		if !cfg.Output.Quiet {
			printBatchSummary(summary)
		}

		if summary.Failed == len(summary.Statuses) && summary.Failed > 0 {
			return snaperr.WithDetails(snaperr.ErrGeneral, map[string]string{
				"reason": "every account in the batch failed",
			})
		}
		return nil
	},
}

// batchEntries builds the ordered account list from the configuration.
// Map order is not stable, so accounts run alphabetically.
func batchEntries() ([]runner.BatchEntry, error) {
	names := make([]string, 0, len(cfg.Accounts))
	for name := range cfg.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]runner.BatchEntry, 0, len(names))
	for _, name := range names {
		account, err := hive.NewAccount(name)
		if err != nil {
			return nil, err
		}
		symbols := make([]hive.Symbol, 0, len(cfg.Accounts[name]))
		for _, s := range cfg.Accounts[name] {
			if normalized := hive.NormalizeSymbol(s); normalized != "" {
				symbols = append(symbols, normalized)
			}
		}
		entries = append(entries, runner.BatchEntry{Account: account, Symbols: symbols})
	}
	return entries, nil
}

// printBatchSummary renders the aggregate batch result.
func printBatchSummary(summary *runner.BatchSummary) {
	table := output.NewTable("ACCOUNT", "OUTCOME", "UNPRICED")
	for _, status := range summary.Statuses {
		unpriced := "-"
		if len(status.Unpriced) > 0 {
			unpriced = strings.Join(status.Unpriced, ",")
		}
		table.AddRow(status.Account.String(), string(status.Outcome), unpriced)
	}
	formatter.Infof("batch complete: %d succeeded, %d partial, %d failed",
		summary.Succeeded, summary.Partial, summary.Failed)
	if !formatter.IsJSON() {
		_ = table.Render(formatter.Writer())
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	batchCmd.Flags().DurationVar(&batchDelayFlag, "delay", 0, "pause between accounts, e.g. 5s (overrides config)")
	rootCmd.AddCommand(batchCmd)
}
