package rollupdb

import (
	"context"
	"log/slog"
	"time"

	"github.com/rollupdb/rollupdb/internal/period"
	"github.com/rollupdb/rollupdb/internal/series"
	"github.com/rollupdb/rollupdb/internal/storage"
)

// Reader answers raw point and rollup range queries against a fixed
// series arity. It holds a read transaction for its lifetime; Close
// disposes that transaction.
type Reader struct {
	store *Store
	w     byte
	tx    *storage.ReadTx
	log   *slog.Logger
}

// Close releases the reader's read transaction.
func (r *Reader) Close() {
	r.tx.Done()
}

// QueryRaw returns a lazy, finite, single-pass sequence of Points for
// key in [start, end], ordered by ascending timestamp. If the series-w
// tree does not exist, the sequence is empty.
func (r *Reader) QueryRaw(key string, start, end time.Time) *PointIterator {
	tree, ok := r.tx.Tree(series.SeriesTreeName(r.w))
	if !ok {
		return &PointIterator{}
	}
	ft := tree.FixedTreeFor(key, series.PointWidth(r.w))
	endTick := period.ToTicks(end)
	it, has := ft.Seek(period.ToTicks(start))
	return &PointIterator{w: int(r.w), it: it, has: has, endTick: endTick}
}

// QueryRollup returns a lazy, finite, single-pass sequence of rollup
// Ranges covering [start, end) in windows of length d. start and end
// must fall on period boundaries for d (see internal/period); failing
// that returns ErrInvalidQuery. If the series-w tree does not exist, the
// sequence is empty. Missing buckets are computed from raw points and
// cached as they are produced.
func (r *Reader) QueryRollup(key string, start, end time.Time, d period.Duration) (*RangeIterator, error) {
	if err := period.ValidateAligned(start, end, d); err != nil {
		return nil, err
	}

	if _, ok := r.tx.Tree(series.SeriesTreeName(r.w)); !ok {
		return &RangeIterator{}, nil
	}

	windows, err := period.EnumerateRanges(start, end, d)
	if err != nil {
		return nil, err
	}

	return &RangeIterator{store: r.store, w: r.w, key: key, duration: d, windows: windows}, nil
}

// PointIterator is the lazy sequence returned by QueryRaw.
type PointIterator struct {
	w       int
	it      *storage.TickIterator
	has     bool
	endTick int64
}

// Next polls ctx for cancellation, then yields the next Point, if any.
func (p *PointIterator) Next(ctx context.Context) (series.Point, bool, error) {
	if p.it == nil || !p.has {
		return series.Point{}, false, nil
	}
	if err := storage.WithCancellation(ctx); err != nil {
		return series.Point{}, false, err
	}
	tick := p.it.CurrentKey()
	if tick > p.endTick {
		return series.Point{}, false, nil
	}
	pt := series.Point{At: tick, Values: series.DecodePoint(p.it.CurrentValue(), p.w)}
	p.has = p.it.MoveNext()
	return pt, true, nil
}

// RangeIterator is the lazy sequence returned by QueryRollup.
type RangeIterator struct {
	store    *Store
	w        byte
	key      string
	duration period.Duration
	windows  []period.Window
	pos      int
}

// Next polls ctx for cancellation, then yields the next rollup Range,
// computing and caching it if it was not already cached.
func (r *RangeIterator) Next(ctx context.Context) (series.Range, bool, error) {
	if r.pos >= len(r.windows) {
		return series.Range{}, false, nil
	}
	if err := storage.WithCancellation(ctx); err != nil {
		return series.Range{}, false, err
	}
	w := r.windows[r.pos]
	r.pos++
	rng, err := r.store.fillOrReadBucket(r.w, r.key, w, r.duration)
	if err != nil {
		return series.Range{}, false, err
	}
	return rng, true, nil
}
