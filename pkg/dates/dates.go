// Package dates validates, formats and normalizes calendar dates in the
// fixed YYYY-MM-DD form used inside metadata regions.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout is the normalized textual date form.
const Layout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a calendar date already normalized to Layout.
type Date string

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == "" }

// String implements fmt.Stringer.
func (d Date) String() string { return string(d) }

// Time parses the date at midnight UTC.
func (d Date) Time() (time.Time, error) {
	return Parse(string(d))
}

// IsValid reports whether s is a real calendar date in Layout form.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse parses s in Layout form. Shapes like 2024-02-30 are rejected.
func Parse(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("date %q is not in YYYY-MM-DD form", s)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t, nil
}

// Format renders t in Layout form, in t's own location.
func Format(t time.Time) Date {
	return Date(t.Format(Layout))
}

// Today returns the current date according to now.
func Today(now func() time.Time) Date {
	if now == nil {
		now = time.Now
	}
	return Format(now())
}

// Normalize converts the date representations a parser may produce into a Date.
// Accepted: Date, time.Time, a Layout string, or an RFC 3339 timestamp string.
func Normalize(v any) (Date, bool) {
	switch t := v.(type) {
	case Date:
		if IsValid(string(t)) {
			return t, true
		}
	case time.Time:
		if !t.IsZero() {
			return Format(t), true
		}
	case *time.Time:
		if t != nil && !t.IsZero() {
			return Format(*t), true
		}
	case string:
		s := strings.TrimSpace(t)
		if IsValid(s) {
			return Date(s), true
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return Format(ts), true
		}
	}
	return "", false
}

// Before reports whether a is strictly earlier than b. Invalid dates are never before.
func Before(a, b Date) bool {
	ta, err := a.Time()
	if err != nil {
		return false
	}
	tb, err := b.Time()
	if err != nil {
		return false
	}
	return ta.Before(tb)
}
