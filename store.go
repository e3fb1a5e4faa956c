package rollupdb

import (
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rollupdb/rollupdb/internal/clock"
	"github.com/rollupdb/rollupdb/internal/config"
	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
	"github.com/rollupdb/rollupdb/internal/logging"
	"github.com/rollupdb/rollupdb/internal/metadata"
	"github.com/rollupdb/rollupdb/internal/series"
	"github.com/rollupdb/rollupdb/internal/storage"
)

// closeDrainTimeout bounds how long Close waits for in-flight readers and
// writers to finish before releasing the substrate.
const closeDrainTimeout = 3 * time.Second

// bootstrapTreeName is a reserved tree created on open and never read by
// the engine, kept for forward compatibility with future bootstrap data.
const bootstrapTreeName = "data"

// Store owns one transactional substrate and the metadata bootstrapped
// into it: the server id and registered prefix configurations.
type Store struct {
	storage *storage.Store
	cfg     *config.Config
	clk     clock.Clock

	fillGroup singleflight.Group

	cacheHits   int64
	cacheMisses int64

	log *slog.Logger
}

// Stats reports counters useful for operators: open trees, journal
// bytes written, and rollup cache hit/miss counts since open.
type Stats struct {
	TreeCount       int
	JournalBytes    int64
	RollupCacheHits int64
	RollupCacheMiss int64
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	st := s.storage.Stats()
	return Stats{
		TreeCount:       st.TreeCount,
		JournalBytes:    st.JournalBytes,
		RollupCacheHits: atomic.LoadInt64(&s.cacheHits),
		RollupCacheMiss: atomic.LoadInt64(&s.cacheMisses),
	}
}

// Open creates or opens a Store against cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := storage.Options{}
	if !cfg.RunInMemory && cfg.JournalPath != "" {
		opts.JournalPath = cfg.JournalPath
	}

	st, err := storage.Open(opts)
	if err != nil {
		return nil, err
	}

	s := &Store{
		storage: st,
		cfg:     cfg,
		clk:     clock.Real(),
		log:     logging.Component("store"),
	}

	wtx := st.BeginWrite()
	wtx.Tree(bootstrapTreeName)
	if _, err := metadata.Bootstrap(wtx); err != nil {
		wtx.Rollback()
		st.Close(closeDrainTimeout)
		return nil, err
	}
	if err := wtx.Commit(); err != nil {
		st.Close(closeDrainTimeout)
		return nil, err
	}

	s.log.Info("store opened", "run_in_memory", cfg.RunInMemory)
	return s, nil
}

// Close drains in-flight readers and writers for up to 3 seconds, then
// releases the substrate.
func (s *Store) Close() error {
	return s.storage.Close(closeDrainTimeout)
}

// ServerID returns the store's 16-byte identifier, stable for the life
// of the storage.
func (s *Store) ServerID() ([]byte, error) {
	rtx := s.storage.BeginRead()
	defer rtx.Done()
	id, ok := metadata.ServerID(rtx)
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return id, nil
}

// CreatePrefixConfiguration registers prefix as using series arity w.
func (s *Store) CreatePrefixConfiguration(prefix string, w byte) error {
	wtx := s.storage.BeginWrite()
	if err := metadata.CreatePrefixConfiguration(wtx, prefix, w); err != nil {
		wtx.Rollback()
		return err
	}
	return wtx.Commit()
}

// DeletePrefixConfiguration removes prefix's registration.
func (s *Store) DeletePrefixConfiguration(prefix string) error {
	wtx := s.storage.BeginWrite()
	if err := metadata.DeletePrefixConfiguration(wtx, prefix); err != nil {
		wtx.Rollback()
		return err
	}
	return wtx.Commit()
}

// GetPrefixConfiguration is reserved; see DESIGN.md open question 2.
func (s *Store) GetPrefixConfiguration(prefix string) (byte, error) {
	rtx := s.storage.BeginRead()
	defer rtx.Done()
	return metadata.GetPrefixConfiguration(rtx, prefix)
}

// GetTimeSeriesCount is reserved; it always returns ErrNotImplemented.
func (s *Store) GetTimeSeriesCount() (int64, error) {
	return 0, domainerrors.ErrNotImplemented
}

// ListPrefixConfigurations returns every registered (prefix, arity)
// pair. Supplemental operator surface, not part of spec.md's
// programmatic surface.
func (s *Store) ListPrefixConfigurations() []metadata.PrefixConfiguration {
	rtx := s.storage.BeginRead()
	defer rtx.Done()
	return metadata.ListPrefixConfigurations(rtx)
}

// Reader opens a read-scoped Reader against series arity w. The caller
// must Close it when done.
func (s *Store) Reader(w byte) (*Reader, error) {
	if err := series.ValidateArity(int(w)); err != nil {
		return nil, err
	}
	return &Reader{
		store: s,
		w:     w,
		tx:    s.storage.BeginRead(),
		log:   logging.Component("reader"),
	}, nil
}

// Writer opens a write-scoped Writer against series arity w, blocking
// until any other open writer commits or rolls back. The caller must
// Commit or Dispose it when done.
func (s *Store) Writer(w byte) (*Writer, error) {
	if err := series.ValidateArity(int(w)); err != nil {
		return nil, err
	}
	return &Writer{
		store:   s,
		w:       w,
		tx:      s.storage.BeginWrite(),
		buf:     make([]byte, series.PointWidth(w)),
		touched: make(map[string]*series.RollupSpan),
		log:     logging.Component("writer"),
	}, nil
}
