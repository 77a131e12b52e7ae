package alerts

import (
	"time"
)

// =============================================================================
// DAY - Calendar day, the unit of alert deduplication
// =============================================================================

// Day is a calendar date stored as UTC midnight.
type Day struct {
	t time.Time
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool { return d.t.Before(other.t) }
func (d Day) After(other Day) bool { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool { return d.t.Equal(other.t) }

// Arithmetic. Month overflow rolls forward: Jan 31 + 1 month is Mar 3 (or 2).
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }

// DaysUntil is the signed number of calendar days from d to other.
func (d Day) DaysUntil(other Day) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

func (d Day) IsZero() bool { return d.t.IsZero() }
func (d Day) Time() time.Time { return d.t }
func (d Day) String() string { return d.t.Format(time.DateOnly) }
