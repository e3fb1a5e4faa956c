// Package period implements calendar-aware rollup period arithmetic:
// alignment checking, range enumeration, and the floor/add operations that
// the reader and writer need to compute and invalidate rollup buckets.
//
// The enum and its method set (String, Duration-like helpers, Parse) follow
// the same shape as a conventional tiered-retention enum: a handful of
// named granularities with calendar-aware truncation, just generalized to
// carry a caller-supplied multiplier instead of one fixed duration per
// tier.
package period

import (
	"fmt"
	"time"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
)

// Type identifies a rollup granularity's calendar unit.
type Type int

const (
	Seconds Type = iota
	Minutes
	Hours
	Days
	Months
	Years
)

// String returns the canonical name used in rollup tree suffixes.
func (t Type) String() string {
	switch t {
	case Seconds:
		return "Seconds"
	case Minutes:
		return "Minutes"
	case Hours:
		return "Hours"
	case Days:
		return "Days"
	case Months:
		return "Months"
	case Years:
		return "Years"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType parses a Type's canonical name.
func ParseType(s string) (Type, error) {
	switch s {
	case "Seconds":
		return Seconds, nil
	case "Minutes":
		return Minutes, nil
	case "Hours":
		return Hours, nil
	case "Days":
		return Days, nil
	case "Months":
		return Months, nil
	case "Years":
		return Years, nil
	default:
		return 0, fmt.Errorf("unknown period type: %q", s)
	}
}

// Duration is the pair (type, duration) describing a rollup granularity.
// It is value-typed and carries no state of its own.
type Duration struct {
	Type     Type
	Duration int
}

// String renders the "<Type>-<duration>" suffix used to name rollup fixed
// trees.
func (d Duration) String() string {
	return fmt.Sprintf("%s-%d", d.Type, d.Duration)
}

// Parse reverses String.
func Parse(s string) (Duration, error) {
	i := len(s) - 1
	for i >= 0 && s[i] != '-' {
		i--
	}
	if i <= 0 {
		return Duration{}, fmt.Errorf("malformed period duration suffix: %q", s)
	}
	typ, err := ParseType(s[:i])
	if err != nil {
		return Duration{}, err
	}
	var n int
	if _, err := fmt.Sscanf(s[i+1:], "%d", &n); err != nil {
		return Duration{}, fmt.Errorf("malformed period duration suffix: %q: %w", s, err)
	}
	return Duration{Type: typ, Duration: n}, nil
}

// Add advances t by one unit-multiple of d: Seconds/Minutes/Hours/Days use
// calendar-free arithmetic (direct addition of the unit's fixed duration);
// Months/Years use calendar arithmetic (AddDate), which normalizes a day
// past the end of the target month, so e.g. adding one Month to January 31
// lands on March 3 (March 2 in a leap year).
func Add(t time.Time, d Duration) time.Time {
	switch d.Type {
	case Seconds:
		return t.Add(time.Duration(d.Duration) * time.Second)
	case Minutes:
		return t.Add(time.Duration(d.Duration) * time.Minute)
	case Hours:
		return t.Add(time.Duration(d.Duration) * time.Hour)
	case Days:
		return t.Add(time.Duration(d.Duration) * 24 * time.Hour)
	case Months:
		return t.AddDate(0, d.Duration, 0)
	case Years:
		return t.AddDate(d.Duration, 0, 0)
	default:
		return t
	}
}

// StartOfRange floors t to the nearest multiple of d.Duration in units of
// d.Type, truncated within the next larger calendar field: seconds within
// the minute, minutes within the hour, hours within the day, days within
// the month, months within the year, years from the year-1 epoch.
func StartOfRange(t time.Time, d Duration) time.Time {
	t = t.UTC()
	switch d.Type {
	case Seconds:
		s := floor(t.Second(), d.Duration)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), s, 0, time.UTC)
	case Minutes:
		m := floor(t.Minute(), d.Duration)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, 0, 0, time.UTC)
	case Hours:
		h := floor(t.Hour(), d.Duration)
		return time.Date(t.Year(), t.Month(), t.Day(), h, 0, 0, 0, time.UTC)
	case Days:
		day := floor(t.Day()-1, d.Duration) + 1
		return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC)
	case Months:
		month := floor(int(t.Month())-1, d.Duration) + 1
		return time.Date(t.Year(), time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	case Years:
		year := floor(t.Year(), d.Duration)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

func floor(v, duration int) int {
	if duration <= 0 {
		return v
	}
	q := v / duration
	if v%duration != 0 && v < 0 {
		q--
	}
	return q * duration
}

// ValidateAligned checks that start and end both fall on period boundaries
// for d, per the required-zero-fields/divisibility table. end relaxes the
// day==1 requirement for Months; this mirrors an asymmetry observed in
// the system this engine's rollup semantics are modeled on, see DESIGN.md.
func ValidateAligned(start, end time.Time, d Duration) error {
	if err := checkBoundary(start, d, true); err != nil {
		return err
	}
	if err := checkBoundary(end, d, false); err != nil {
		return err
	}
	return nil
}

func checkBoundary(b time.Time, d Duration, isStart bool) error {
	b = b.UTC()
	if b.Nanosecond() != 0 {
		return fmt.Errorf("%w: cannot specify milliseconds", domainerrors.ErrInvalidQuery)
	}
	switch d.Type {
	case Seconds:
		if d.Duration > 0 && b.Second()%d.Duration != 0 {
			return fmt.Errorf("%w: second must be a multiple of %d", domainerrors.ErrInvalidQuery, d.Duration)
		}
	case Minutes:
		if b.Second() != 0 {
			return fmt.Errorf("%w: second must be zero", domainerrors.ErrInvalidQuery)
		}
		if d.Duration > 0 && b.Minute()%d.Duration != 0 {
			return fmt.Errorf("%w: minute must be a multiple of %d", domainerrors.ErrInvalidQuery, d.Duration)
		}
	case Hours:
		if b.Minute() != 0 || b.Second() != 0 {
			return fmt.Errorf("%w: minute and second must be zero", domainerrors.ErrInvalidQuery)
		}
		if d.Duration > 0 && b.Hour()%d.Duration != 0 {
			return fmt.Errorf("%w: hour must be a multiple of %d", domainerrors.ErrInvalidQuery, d.Duration)
		}
	case Days:
		if b.Hour() != 0 || b.Minute() != 0 || b.Second() != 0 {
			return fmt.Errorf("%w: hour, minute and second must be zero", domainerrors.ErrInvalidQuery)
		}
		if d.Duration > 0 && b.Day()%d.Duration != 0 {
			return fmt.Errorf("%w: day must be a multiple of %d", domainerrors.ErrInvalidQuery, d.Duration)
		}
	case Months:
		if isStart && b.Day() != 1 {
			return fmt.Errorf("%w: day must be 1", domainerrors.ErrInvalidQuery)
		}
		if b.Hour() != 0 || b.Minute() != 0 || b.Second() != 0 {
			return fmt.Errorf("%w: hour, minute and second must be zero", domainerrors.ErrInvalidQuery)
		}
		if d.Duration > 0 && int(b.Month())%d.Duration != 0 {
			return fmt.Errorf("%w: month must be a multiple of %d", domainerrors.ErrInvalidQuery, d.Duration)
		}
	case Years:
		if b.Month() != time.January || b.Day() != 1 {
			return fmt.Errorf("%w: month and day must be 1", domainerrors.ErrInvalidQuery)
		}
		if b.Hour() != 0 || b.Minute() != 0 || b.Second() != 0 {
			return fmt.Errorf("%w: hour, minute and second must be zero", domainerrors.ErrInvalidQuery)
		}
		if d.Duration > 0 && b.Year()%d.Duration != 0 {
			return fmt.Errorf("%w: year must be a multiple of %d", domainerrors.ErrInvalidQuery, d.Duration)
		}
	}
	return nil
}

// Window is a half-open [Start, End) rollup interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// EnumerateRanges produces the sequence of half-open windows of length d
// covering [start, end), in order. It fails with ErrMisalignedRange if a
// computed window start ever overshoots end without landing exactly on it.
func EnumerateRanges(start, end time.Time, d Duration) ([]Window, error) {
	var windows []Window
	cur := start
	for cur.Before(end) {
		next := Add(cur, d)
		if next.After(end) {
			return nil, fmt.Errorf("%w: window starting at %s overshoots end %s", domainerrors.ErrMisalignedRange, cur, end)
		}
		windows = append(windows, Window{Start: cur, End: next})
		cur = next
	}
	return windows, nil
}

// ticksPerSecond is the number of 100-nanosecond ticks in one second.
const ticksPerSecond = int64(time.Second / 100)

// epochUnix is the epoch's (Go's time.Time zero value, proleptic-Gregorian
// year 1) distance from the Unix epoch, in seconds. time.Time.Sub saturates
// a time.Duration (max ~292 years) long before reaching a modern date from
// year 1, so ticks are computed from Unix seconds instead, which do not
// overflow an int64 for any representable time.Time.
var epochUnix = time.Time{}.Unix()

// ToTicks converts t to the engine's 100-nanosecond tick count since the
// proleptic-Gregorian year-1 epoch (Go's time.Time zero value), matching
// the GLOSSARY's tick definition.
func ToTicks(t time.Time) int64 {
	u := t.UTC()
	secs := u.Unix() - epochUnix
	return secs*ticksPerSecond + int64(u.Nanosecond())/100
}

// FromTicks reverses ToTicks.
func FromTicks(ticks int64) time.Time {
	secs := ticks / ticksPerSecond
	nanos := (ticks % ticksPerSecond) * 100
	return time.Unix(epochUnix+secs, nanos).UTC()
}
