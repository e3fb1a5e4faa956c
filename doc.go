// Package rollupdb implements a durable, transactional time-series store
// that persists numeric samples keyed by a string identifier and a
// timestamp, and that computes, caches, and serves pre-aggregated
// rollups (OHLC + Volume + Sum) over arbitrary calendar periods.
//
// A Store is opened once per process against a config.Config. Callers
// obtain a Reader or Writer scoped to a fixed series arity (the number
// of parallel double-valued axes per sample, 1..255); Writers append
// points and invalidate affected rollup caches on commit, Readers serve
// raw point ranges and rollup ranges, computing and caching missing
// buckets on demand.
package rollupdb
