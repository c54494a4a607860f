package tap

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without time zone.
type Date struct {
	t time.Time
}

var (
	MinDate = NewDate(1, time.January, 1)
	MaxDate = NewDate(9999, time.December, 31)
)

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as written in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts an ISO-8601 date or date-time and keeps the date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOf(t), nil
	}
	if t, err := ParseTimestamp(s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date '%s'", s)
}

func (d Date) Year() int { return d.t.Year() }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

// AddDays returns d shifted by n days, clamped to [MinDate, MaxDate].
func (d Date) AddDays(n int) Date {
	v := Date{t: d.t.AddDate(0, 0, n)}
	if v.After(MaxDate) {
		return MaxDate
	} else if v.Before(MinDate) {
		return MinDate
	}
	return v
}

// Format renders the date as eight zero-padded digits, YYYYMMDD.
func (d Date) Format() string {
	y, m, day := d.t.Date()
	return fmt.Sprintf("%04d%02d%02d", y, int(m), day)
}

func (d Date) String() string {
	y, m, day := d.t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), day)
}

func MaxOf(a, b Date) Date {
	if a.Before(b) {
		return b
	}
	return a
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// read as UTC, see HasOffset.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp '%s'", s)
}

// HasOffset reports whether an ISO-8601 timestamp carries a zone designator.
func HasOffset(s string) bool {
	i := strings.IndexByte(s, 'T')
	if i < 0 {
		return false
	}
	clock := s[i+1:]
	return strings.HasSuffix(clock, "Z") || strings.ContainsAny(clock, "+-")
}
