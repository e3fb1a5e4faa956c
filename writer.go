package rollupdb

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rollupdb/rollupdb/internal/codec"
	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
	"github.com/rollupdb/rollupdb/internal/period"
	"github.com/rollupdb/rollupdb/internal/series"
	"github.com/rollupdb/rollupdb/internal/storage"
)

// Writer appends raw points for a fixed series arity and invalidates
// affected rollup buckets on commit. It holds a write transaction for
// its lifetime and is not safe to share across goroutines.
type Writer struct {
	store *Store
	w     byte
	tx    *storage.WriteTx

	buf     []byte
	touched map[string]*series.RollupSpan

	done bool
	log  *slog.Logger
}

// Append adds one point for key at instant at. values must have length
// equal to the writer's arity.
func (w *Writer) Append(key string, at time.Time, values []float64) error {
	if len(values) != int(w.w) {
		return fmt.Errorf("%w: expected %d values, got %d", domainerrors.ErrInvalidArgument, w.w, len(values))
	}

	series.EncodePoint(w.buf, values)

	tree := w.tx.Tree(series.SeriesTreeName(w.w))
	ft := tree.FixedTreeFor(key, series.PointWidth(w.w))
	tick := period.ToTicks(at)
	// Add copies buf into the tree via Tree.Put, so the reusable buffer
	// above is safe to overwrite on the next Append call.
	if err := ft.Add(tick, w.buf); err != nil {
		return err
	}

	span, ok := w.touched[key]
	if !ok {
		span = &series.RollupSpan{}
		w.touched[key] = span
	}
	span.Extend(tick)
	return nil
}

// Delete is reserved; raw point deletion is not implemented.
func (w *Writer) Delete(key string, at time.Time) error {
	return domainerrors.ErrNotImplemented
}

// DeleteRange is reserved; ranged deletion is not implemented.
func (w *Writer) DeleteRange(key string, start, end time.Time) error {
	return domainerrors.ErrNotImplemented
}

// Commit invalidates every rollup bucket overlapping this writer's
// touched spans, then commits the underlying write transaction.
func (w *Writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.invalidateRollups(); err != nil {
		w.tx.Rollback()
		return err
	}
	return w.tx.Commit()
}

// Dispose releases the writer's transaction without committing, if
// Commit was not already called.
func (w *Writer) Dispose() {
	if w.done {
		return
	}
	w.done = true
	w.tx.Rollback()
}

// invalidateRollups implements §4.F's rollup invalidation: for each
// touched key, every rollup fixed tree sharing that key's prefix is
// walked, and every cached tick in the touched span's covering window,
// per period duration, is deleted.
func (w *Writer) invalidateRollups() error {
	if len(w.touched) == 0 {
		return nil
	}
	periodsTree := w.tx.Tree(series.PeriodsTreeName(w.w))

	for key, span := range w.touched {
		childNames := distinctRollupChildren(periodsTree, series.RequiredPrefix(key))
		for _, name := range childNames {
			_, d, err := series.ParseRollupFixedTreeKey(name)
			if err != nil {
				return err
			}

			lo := period.ToTicks(period.StartOfRange(period.FromTicks(span.Start), d))
			hi := period.ToTicks(period.StartOfRange(period.FromTicks(span.End), d))

			ft := periodsTree.FixedTreeFor(name, series.BucketWidth(w.w))
			var stale []int64
			it, has := ft.Seek(lo)
			for has {
				tick := it.CurrentKey()
				if tick > hi {
					break
				}
				stale = append(stale, tick)
				has = it.MoveNext()
			}
			for _, tick := range stale {
				if err := ft.Delete(tick); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// distinctRollupChildren enumerates the distinct rollup fixed tree names
// sharing prefix within tree, by stripping each composite entry key's
// trailing tick.
func distinctRollupChildren(tree *storage.Tree, prefix []byte) []string {
	seen := make(map[string]bool)
	var names []string
	it := tree.IteratePrefix(prefix)
	for it.MoveNext() {
		full := it.Key()
		if len(full) < codec.TickWidth {
			continue
		}
		name := string(full[:len(full)-codec.TickWidth])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
