// Package snapshot persists dated portfolio snapshots into
// period-bucketed files: daily snapshots are rewritten within the day,
// coarser buckets keep the first snapshot of their period.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/fileutil"
	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/metrics"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// Outcome is the per-granularity result of a Record call.
type Outcome struct {
	Granularity Granularity
	PeriodKey   string
	Path        string
	Written     bool
	Overwritten bool
	Skipped     bool
	Err         error
}

// Store writes snapshot documents under
// <base>/<account>/<granularity>/<periodKey>.json.
type Store struct {
	baseDir string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string, opts ...Option) *Store {
	s := &Store{
		baseDir: baseDir,
		logger:  zap.NewNop(),
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the snapshot file path for one account, granularity and
// instant.
func (s *Store) Path(account hive.Account, g Granularity, t time.Time) string {
	return filepath.Join(s.baseDir, account.String(), string(g), g.PeriodKey(t)+".json")
}

// Record writes doc into every granularity bucket. Buckets are
// independent: a daily file for the current day is rewritten, a coarser
// file already present for its period is left untouched, and an I/O
// failure in one bucket does not stop the others.
func (s *Store) Record(account hive.Account, doc *Document, now time.Time) []Outcome {
	outcomes := make([]Outcome, 0, len(Granularities()))

	for _, g := range Granularities() {
		outcome := Outcome{
			Granularity: g,
			PeriodKey:   g.PeriodKey(now),
			Path:        s.Path(account, g, now),
		}

		_, statErr := os.Stat(outcome.Path)
		exists := statErr == nil

		if exists && g != Daily {
			outcome.Skipped = true
			s.logger.Debug("snapshot already recorded for period",
				zap.String("granularity", string(g)),
				zap.String("period", outcome.PeriodKey))
			s.metrics.RecordSnapshot(false, false)
			outcomes = append(outcomes, outcome)
			continue
		}

		if err := fileutil.WriteJSONAtomic(outcome.Path, doc); err != nil {
			outcome.Err = fmt.Errorf("writing snapshot %s: %w: %w",
				outcome.Path, snaperr.ErrSnapshotWrite, err)
			s.logger.Error("snapshot write failed",
				zap.String("granularity", string(g)),
				zap.String("path", outcome.Path),
				zap.Error(err))
			s.metrics.RecordSnapshot(false, true)
			outcomes = append(outcomes, outcome)
			continue
		}

		if exists {
			outcome.Overwritten = true
		} else {
			outcome.Written = true
		}
		s.metrics.RecordSnapshot(true, false)
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// Load reads one snapshot back.
func (s *Store) Load(account hive.Account, g Granularity, t time.Time) (*Document, error) {
	path := s.Path(account, g, t)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &doc, nil
}
