package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/metrics"
	"github.com/gadrian78/he-tokens-snapshot/internal/source"
	"github.com/gadrian78/he-tokens-snapshot/internal/valuation"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// TestPeriodKey verifies every granularity's filename stem.
func TestPeriodKey(t *testing.T) {
	// A Thursday in Q3.
	at := time.Date(2026, time.July, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		granularity Granularity
		want        string
	}{
		{Daily, "2026-07-02"},
		{Weekly, "2026-W27"},
		{Monthly, "2026-07"},
		{Quarterly, "2026-Q3"},
		{Yearly, "2026"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.granularity.PeriodKey(at), string(tt.granularity))
	}
}

// TestPeriodKeyISOWeekYear verifies the ISO week year is used, not the
// calendar year. 2027-01-01 falls in ISO week 2026-W53.
func TestPeriodKeyISOWeekYear(t *testing.T) {
	at := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-W53", Weekly.PeriodKey(at))
}

func testDocument(t *testing.T, at time.Time) *Document {
	t.Helper()

	engine := valuation.NewEngine(nil)
	portfolio := engine.Value(
		map[hive.Symbol]source.TokenBalance{
			"LEO": {Symbol: "LEO", Liquid: dec("100"), Total: dec("100")},
		},
		nil, nil,
		map[hive.Symbol]source.PriceQuote{
			"LEO": {Symbol: "LEO", PriceHive: dec("0.5")},
		},
		source.ReferenceRates{HiveUSD: dec("0.25"), HbdUSD: dec("1"), BTCUSD: dec("50000")},
	)
	return BuildDocument(hive.Account("alice"), portfolio, source.ReferenceRates{
		HiveUSD: dec("0.25"), HbdUSD: dec("1"), BTCUSD: dec("50000"),
	}, at)
}

// TestRecordFirstRun verifies a fresh store writes every granularity.
func TestRecordFirstRun(t *testing.T) {
	store := NewStore(t.TempDir())
	at := time.Date(2026, time.July, 2, 12, 0, 0, 0, time.UTC)

	outcomes := store.Record(hive.Account("alice"), testDocument(t, at), at)
	require.Len(t, outcomes, 5)
	for _, o := range outcomes {
		assert.True(t, o.Written, string(o.Granularity))
		assert.NoError(t, o.Err)
		assert.FileExists(t, o.Path)
	}
}

// TestRecordSameDay verifies the daily file is rewritten while coarser
// buckets keep their first snapshot of the period.
func TestRecordSameDay(t *testing.T) {
	store := NewStore(t.TempDir())
	morning := time.Date(2026, time.July, 2, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, time.July, 2, 20, 0, 0, 0, time.UTC)

	store.Record(hive.Account("alice"), testDocument(t, morning), morning)
	outcomes := store.Record(hive.Account("alice"), testDocument(t, evening), evening)

	for _, o := range outcomes {
		if o.Granularity == Daily {
			assert.True(t, o.Overwritten)
		} else {
			assert.True(t, o.Skipped, string(o.Granularity))
		}
	}

	// The coarser file still holds the morning snapshot.
	doc, err := store.Load(hive.Account("alice"), Weekly, evening)
	require.NoError(t, err)
	assert.Equal(t, morning.Format(time.RFC3339), doc.Metadata.Timestamp)

	daily, err := store.Load(hive.Account("alice"), Daily, evening)
	require.NoError(t, err)
	assert.Equal(t, evening.Format(time.RFC3339), daily.Metadata.Timestamp)
}

// TestRecordNextDay verifies a new day writes a fresh daily file and
// still skips the unchanged coarser periods.
func TestRecordNextDay(t *testing.T) {
	store := NewStore(t.TempDir())
	day1 := time.Date(2026, time.July, 2, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.July, 3, 12, 0, 0, 0, time.UTC)

	store.Record(hive.Account("alice"), testDocument(t, day1), day1)
	outcomes := store.Record(hive.Account("alice"), testDocument(t, day2), day2)

	for _, o := range outcomes {
		if o.Granularity == Daily {
			assert.True(t, o.Written, "new period, new file")
		} else {
			assert.True(t, o.Skipped, string(o.Granularity))
		}
	}
}

// TestRecordIdempotent verifies an identical rewrite produces a
// byte-identical daily file.
func TestRecordIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())
	at := time.Date(2026, time.July, 2, 12, 0, 0, 0, time.UTC)
	account := hive.Account("alice")

	store.Record(account, testDocument(t, at), at)
	first, err := os.ReadFile(store.Path(account, Daily, at))
	require.NoError(t, err)

	store.Record(account, testDocument(t, at), at)
	second, err := os.ReadFile(store.Path(account, Daily, at))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestRecordFailureIsolation verifies one bucket's write failure does
// not block the others.
func TestRecordFailureIsolation(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)
	at := time.Date(2026, time.July, 2, 12, 0, 0, 0, time.UTC)

	// A regular file where the weekly directory should be makes that
	// bucket's MkdirAll fail.
	require.NoError(t, os.MkdirAll(filepath.Join(base, "alice"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(base, "alice", "weekly"), []byte("x"), 0o640))

	outcomes := store.Record(hive.Account("alice"), testDocument(t, at), at)
	require.Len(t, outcomes, 5)

	var failed, written int
	for _, o := range outcomes {
		if o.Granularity == Weekly {
			require.Error(t, o.Err)
			assert.ErrorIs(t, o.Err, snaperr.ErrSnapshotWrite)
			failed++
			continue
		}
		assert.True(t, o.Written, string(o.Granularity))
		written++
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, written)
}

// TestLoadRoundTrip verifies a recorded document reads back intact.
func TestLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	at := time.Date(2026, time.July, 2, 12, 0, 0, 0, time.UTC)
	account := hive.Account("alice")

	store.Record(account, testDocument(t, at), at)

	doc, err := store.Load(account, Daily, at)
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.Metadata.Account)
	require.Len(t, doc.Tokens, 1)
	assert.Equal(t, "LEO", doc.Tokens[0].Symbol)
	assert.True(t, doc.Tokens[0].Values[valuation.HIVE].Equal(dec("50")))
	assert.True(t, doc.Summary.Total[valuation.USD].Equal(dec("12.5")))
}

// TestLoadMissing verifies a missing snapshot is an error.
func TestLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load(hive.Account("alice"), Daily, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestRecordCountsSkips verifies skipped buckets are counted, not
// silently dropped from the run counters.
func TestRecordCountsSkips(t *testing.T) {
	counters := metrics.New()
	store := NewStore(t.TempDir(), WithMetrics(counters))
	morning := time.Date(2026, time.July, 2, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, time.July, 2, 20, 0, 0, 0, time.UTC)

	store.Record(hive.Account("alice"), testDocument(t, morning), morning)
	store.Record(hive.Account("alice"), testDocument(t, evening), evening)

	snap := counters.Snapshot()
	assert.Equal(t, int64(6), snap.SnapshotsWritten, "5 first-run buckets plus the daily rewrite")
	assert.Equal(t, int64(4), snap.SnapshotsSkipped)
	assert.Equal(t, int64(0), snap.SnapshotsFailed)
}
