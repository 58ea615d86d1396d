package engine

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day at UTC midnight
// =============================================================================
// All date semantics in the engine are whole-day: transaction dates,
// scheme effective ranges, hierarchy validity windows, and the run's
// as-of cutoff. Time-of-day in the input is parsed and then discarded.

type Date struct {
	Time time.Time
}

// dateLayouts are tried in order when parsing date strings.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a raw field value and returns its calendar day.
// Strings are tried against the supported layouts; time.Time values are
// truncated. Anything else fails.
func ParseDate(v any) (Date, bool) {
	switch d := v.(type) {
	case time.Time:
		return NewDate(d.Year(), d.Month(), d.Day()), true
	case Date:
		return d.truncate(), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return Date{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return NewDate(t.Year(), t.Month(), t.Day()), true
			}
		}
	}
	return Date{}, false
}

func (d Date) truncate() Date {
	return NewDate(d.Time.Year(), d.Time.Month(), d.Time.Day())
}

// Comparison is by whole-day ordering.
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date {
	t := d.Time.AddDate(0, 0, n)
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// InWindow reports whether d lies in [from, to] inclusive.
func (d Date) InWindow(from, to Date) bool {
	return d.AfterOrEqual(from) && d.BeforeOrEqual(to)
}
