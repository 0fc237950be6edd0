package snapshot

import (
	"fmt"
	"time"
)

// Granularity is a snapshot period bucket.
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// Granularities lists every bucket in coarsening order.
func Granularities() []Granularity {
	return []Granularity{Daily, Weekly, Monthly, Quarterly, Yearly}
}

// PeriodKey returns the filename stem identifying the period that
// contains t: 2006-01-02, ISO 2006-W27, 2006-01, 2006-Q3, 2006.
func (g Granularity) PeriodKey(t time.Time) string {
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return t.Format("2006-01")
	case Quarterly:
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", t.Year(), quarter)
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}
