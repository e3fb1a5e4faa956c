// Package series implements the engine's series layout: how points and
// rollup buckets are partitioned across named trees, how payload widths
// are derived from series arity, and the entity types shared by the
// reader and writer (component 2 in the functional spec).
package series

import (
	"fmt"
	"strings"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
	"github.com/rollupdb/rollupdb/internal/period"
)

// Sep is the private-use-area code point separating a raw key from its
// rollup period suffix in periods-w fixed tree names. It is chosen to
// never appear in caller-supplied keys.
const Sep = ''

// MaxArity is the largest series arity the engine accepts.
const MaxArity = 255

// MinArity is the smallest series arity the engine accepts.
const MinArity = 1

// ValidateArity checks that w is in [MinArity, MaxArity].
func ValidateArity(w int) error {
	if w < MinArity || w > MaxArity {
		return fmt.Errorf("%w: arity %d out of range [%d,%d]", domainerrors.ErrInvalidArgument, w, MinArity, MaxArity)
	}
	return nil
}

// SeriesTreeName returns the named tree holding raw points for arity w.
func SeriesTreeName(w byte) string {
	return fmt.Sprintf("series-%d", w)
}

// PeriodsTreeName returns the named tree holding rollup buckets for
// arity w.
func PeriodsTreeName(w byte) string {
	return fmt.Sprintf("periods-%d", w)
}

// PointWidth returns the raw point payload width, in bytes, for arity w.
func PointWidth(w byte) int { return int(w) * 8 }

// BucketWidth returns the rollup bucket payload width, in bytes, for
// arity w.
func BucketWidth(w byte) int { return int(w) * 48 }

// RollupFixedTreeKey returns the periods-w fixed tree name for key and
// duration: key || Sep || duration.String().
func RollupFixedTreeKey(key string, d period.Duration) string {
	return key + string(Sep) + d.String()
}

// RequiredPrefix returns the byte prefix identifying every rollup fixed
// tree belonging to key, across all periods, for use with prefix-bounded
// parent-tree traversal during invalidation.
func RequiredPrefix(key string) []byte {
	return []byte(key + string(Sep))
}

// ParseRollupFixedTreeKey splits a periods-w fixed tree name back into
// its raw key and PeriodDuration.
func ParseRollupFixedTreeKey(name string) (string, period.Duration, error) {
	idx := strings.LastIndex(name, string(Sep))
	if idx < 0 {
		return "", period.Duration{}, fmt.Errorf("%w: malformed rollup tree name %q", domainerrors.ErrStorage, name)
	}
	d, err := period.Parse(name[idx+len(string(Sep)):])
	if err != nil {
		return "", period.Duration{}, fmt.Errorf("%w: %v", domainerrors.ErrStorage, err)
	}
	return name[:idx], d, nil
}

// Point is one raw sample: an instant and w axis values.
type Point struct {
	At     int64 // tick
	Values []float64
}

// Value returns the first axis, the conventional scalar value for
// single-arity series.
func (p Point) Value() float64 {
	if len(p.Values) == 0 {
		return 0
	}
	return p.Values[0]
}

// RangeValue is one axis's OHLC + Volume + Sum rollup fields.
type RangeValue struct {
	Volume float64
	High   float64
	Low    float64
	Open   float64
	Close  float64
	Sum    float64
}

// Range is a cached or computed rollup bucket over [StartAt, StartAt+Duration).
type Range struct {
	StartAt  int64
	Duration period.Duration
	Values   []RangeValue
}

// RollupSpan is the transient [start, end] of ticks touched for one key
// within an open writer, used to bound rollup invalidation on commit.
type RollupSpan struct {
	Start   int64
	End     int64
	touched bool
}

// Extend grows s to include tick, matching the "expand to contain"
// semantic: the first point sets both bounds, later points push
// whichever bound it falls outside of.
func (s *RollupSpan) Extend(tick int64) {
	if !s.touched {
		s.Start, s.End, s.touched = tick, tick, true
		return
	}
	if tick < s.Start {
		s.Start = tick
	}
	if tick > s.End {
		s.End = tick
	}
}
