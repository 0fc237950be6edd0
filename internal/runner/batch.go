package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
)

// BatchEntry is one account with its tracked symbols.
type BatchEntry struct {
	Account hive.Account
	Symbols []hive.Symbol
}

// BatchSummary aggregates the per-account statuses of a batch.
type BatchSummary struct {
	Statuses  []*RunStatus
	Succeeded int
	Partial   int
	Failed    int
}

// RunBatch processes entries strictly in order with delay between
// accounts. One account's failure never stops the rest; cancellation
// of ctx does.
func (r *Runner) RunBatch(ctx context.Context, entries []BatchEntry, delay time.Duration) *BatchSummary {
	summary := &BatchSummary{}

	for i, entry := range entries {
		if i > 0 && delay > 0 {
			if err := r.sleep(ctx, delay); err != nil {
				r.logger.Warn("batch canceled", zap.Error(err))
				break
			}
		}
		if ctx.Err() != nil {
			r.logger.Warn("batch canceled", zap.Error(ctx.Err()))
			break
		}

		status := r.Run(ctx, entry.Account, entry.Symbols)
		summary.Statuses = append(summary.Statuses, status)

		switch status.Outcome {
		case OutcomeSuccess:
			summary.Succeeded++
		case OutcomePartial:
			summary.Partial++
		case OutcomeFailed:
			summary.Failed++
		}
	}

	return summary
}
