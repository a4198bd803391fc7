// Package date provides a calendar-day type for financial records.
//
// Bank feeds, CSV exports and balance snapshots are day-granular: a
// transaction happens on a date, not at an instant. Carrying time.Time
// around invites time zone drift, so the core types use Date instead and
// only convert to time.Time at the edges (HTTP parameters, snapshot
// timestamps).
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// readFormat is permissive so "2025-7-1" parses as well as "2025-07-01".
const readFormat = "2006-1-2"

// Format is the canonical ISO-8601 day format used when writing dates.
const Format = "2006-01-02"

// Date is a calendar day, stored as a count of days since the Unix epoch.
// The zero value is the epoch itself and IsZero reports it; comparisons
// with == are valid.
type Date struct {
	days int64
}

// New returns the Date for the given civil year, month and day.
// Out-of-range values are normalized the way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime truncates t to its calendar day in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date{days: u.Unix() / (24 * 60 * 60)}
}

// FromUnix truncates a unix-seconds timestamp (UTC) to its calendar day.
func FromUnix(sec int64) Date {
	return FromTime(time.Unix(sec, 0).UTC())
}

// Today returns the current day in local time.
func Today() Date { return FromTime(time.Now()) }

// Parse reads a Date from a string. It accepts single-digit month and day.
func Parse(s string) (Date, error) {
	t, err := time.Parse(readFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, Format, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseLayout reads a Date using an explicit time layout, for sources
// (CSV exports) whose date style varies per file.
func ParseLayout(layout, s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, err
	}
	return FromTime(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Unix(d.days*24*60*60, 0).UTC()
}

// EndOfDay returns the last second of the day in UTC. Estimated balance
// snapshots are stamped here so they sort after any intraday activity.
func (d Date) EndOfDay() time.Time {
	return d.Time().Add(24*time.Hour - time.Second)
}

// Unix returns the unix-seconds timestamp of midnight UTC.
func (d Date) Unix() int64 { return d.days * 24 * 60 * 60 }

// Add returns the day n days later (or earlier when n is negative).
func (d Date) Add(n int) Date { return Date{days: d.days + int64(n)} }

// Sub returns the number of days from x to d.
func (d Date) Sub(x Date) int { return int(d.days - x.days) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.days < x.days }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.days > x.days }

// Compare returns -1, 0 or +1 ordering d against x.
func (d Date) Compare(x Date) int {
	switch {
	case d.days < x.days:
		return -1
	case d.days > x.days:
		return 1
	}
	return 0
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.days == 0 }

// Year returns the civil year.
func (d Date) Year() int { return d.Time().Year() }

// Month returns the civil month.
func (d Date) Month() time.Month { return d.Time().Month() }

// Day returns the day of the month.
func (d Date) Day() int { return d.Time().Day() }

// String formats the day as ISO-8601.
func (d Date) String() string { return d.Time().Format(Format) }

// MarshalJSON writes the day as an ISO-8601 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads a day from an ISO-8601 string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := Parse(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = (*Date)(nil)

// Min returns the earlier of a and b.
func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// Max returns the later of a and b.
func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}
