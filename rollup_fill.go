package rollupdb

import (
	"fmt"
	"sync/atomic"

	"github.com/rollupdb/rollupdb/internal/period"
	"github.com/rollupdb/rollupdb/internal/series"
	"github.com/rollupdb/rollupdb/internal/storage"
)

// fillOrReadBucket returns the cached rollup Range for window, computing
// and caching it first if necessary. Concurrent calls for the exact same
// (arity, key, duration, window) are deduped with singleflight: at most
// one goroutine per Store opens a write transaction for it, the rest
// wait and share its result. This does not change correctness: the
// substrate's single-writer serialization already guarantees a second
// writer observes the first's committed bucket on its initial seek. It
// only avoids redundant write-transaction acquisitions under contention
// (see DESIGN.md, open question 5).
func (s *Store) fillOrReadBucket(w byte, key string, window period.Window, d period.Duration) (series.Range, error) {
	tick := period.ToTicks(window.Start)
	sfKey := fmt.Sprintf("%d|%s|%s|%d", w, key, d.String(), tick)

	v, err, _ := s.fillGroup.Do(sfKey, func() (any, error) {
		return s.fillBucket(w, key, window, d)
	})
	if err != nil {
		return series.Range{}, err
	}
	return v.(series.Range), nil
}

func (s *Store) fillBucket(w byte, key string, window period.Window, d period.Duration) (series.Range, error) {
	tick := period.ToTicks(window.Start)

	wtx := s.storage.BeginWrite()
	periodsTree := wtx.Tree(series.PeriodsTreeName(w))
	ft := periodsTree.FixedTreeFor(series.RollupFixedTreeKey(key, d), series.BucketWidth(w))

	if cached, ok := ft.Seek(tick); ok && cached.CurrentKey() == tick {
		values := series.DecodeBucket(cached.CurrentValue(), int(w))
		if err := wtx.Commit(); err != nil {
			return series.Range{}, err
		}
		atomic.AddInt64(&s.cacheHits, 1)
		return series.Range{StartAt: tick, Duration: d, Values: values}, nil
	}
	atomic.AddInt64(&s.cacheMisses, 1)

	values := aggregateRaw(wtx.Tree(series.SeriesTreeName(w)), key, int(w), tick, period.ToTicks(window.End))

	buf := make([]byte, series.BucketWidth(w))
	series.EncodeBucket(buf, values)
	if err := ft.Add(tick, buf); err != nil {
		wtx.Rollback()
		return series.Range{}, err
	}
	if err := wtx.Commit(); err != nil {
		return series.Range{}, err
	}
	return series.Range{StartAt: tick, Duration: d, Values: values}, nil
}

// aggregateRaw scans every raw point for key with tick in [startTick,
// endTick) and folds it into OHLC + Volume + Sum per axis, per §4.E.
func aggregateRaw(rawTree *storage.Tree, key string, w int, startTick, endTick int64) []series.RangeValue {
	values := make([]series.RangeValue, w)

	ft := rawTree.FixedTreeFor(key, series.PointWidth(byte(w)))
	it, has := ft.Seek(startTick)
	for has {
		tick := it.CurrentKey()
		if tick >= endTick {
			break
		}
		raw := series.DecodePoint(it.CurrentValue(), w)
		for i, v := range raw {
			if values[i].Volume == 0 {
				values[i] = series.RangeValue{Volume: 1, High: v, Low: v, Open: v, Close: v, Sum: v}
				continue
			}
			values[i].Volume++
			if v > values[i].High {
				values[i].High = v
			}
			if v < values[i].Low {
				values[i].Low = v
			}
			values[i].Sum += v
			values[i].Close = v
		}
		has = it.MoveNext()
	}
	return values
}
