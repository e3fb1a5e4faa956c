// Package storage implements the transactional key/value substrate the
// engine is built on: named trees, fixed-size trees embedded within them,
// and snapshot-isolated read transactions served alongside a single
// serialized write transaction at a time.
//
// Named trees are backed by github.com/google/btree; read transactions
// snapshot every tree with btree.Clone(), an O(1) copy-on-write operation,
// so an open read transaction never blocks a writer. BeginRead itself
// takes the read lock to snapshot, so it waits while a write transaction
// is open.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
	"github.com/rollupdb/rollupdb/internal/logging"
)

// Store owns the set of named trees and, when not running in-memory, the
// durability journal backing them.
type Store struct {
	mu    sync.RWMutex
	trees map[string]*Tree

	journal *journal
	inFlight sync.WaitGroup

	log *slog.Logger
}

// Options configures a Store.
type Options struct {
	// JournalPath, if non-empty, enables durability: every committed write
	// transaction is appended here before Commit returns.
	JournalPath string
}

// Open creates a Store, replaying JournalPath if it names an existing
// journal.
func Open(opts Options) (*Store, error) {
	s := &Store{
		trees: make(map[string]*Tree),
		log:   logging.Component("storage"),
	}

	if opts.JournalPath != "" {
		j, err := openJournal(opts.JournalPath)
		if err != nil {
			return nil, err
		}
		s.journal = j

		records, err := replayJournal(opts.JournalPath)
		if err != nil {
			j.close()
			return nil, err
		}
		for _, muts := range records {
			s.applyMutations(muts)
		}
		s.log.Info("replayed journal", "path", opts.JournalPath, "records", len(records))
	}

	return s, nil
}

// Close waits for in-flight transactions to finish, up to timeout, then
// closes the journal. Transactions still outstanding after timeout are
// abandoned rather than awaited forever.
func (s *Store) Close(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.log.Warn("close timed out waiting for in-flight transactions", "timeout", timeout)
	}

	return s.journal.close()
}

func (s *Store) applyMutations(muts []mutation) {
	for _, m := range muts {
		t, ok := s.trees[m.tree]
		if !ok {
			t = newTree(m.tree)
			s.trees[m.tree] = t
		}
		switch m.op {
		case opCreateTree:
			// tree already created above as a side effect of lookup
		case opPut:
			t.writable = true
			t.Put(m.key, m.value)
			t.writable = false
		case opDelete:
			t.writable = true
			t.Delete(m.key)
			t.writable = false
		}
	}
}

// ReadTx is a snapshot-isolated read transaction. Every Tree it returns
// is an independent clone taken at BeginRead time; it is never blocked by,
// nor does it block, concurrent writers.
type ReadTx struct {
	store *Store
	trees map[string]*Tree
}

// BeginRead opens a read transaction over a consistent snapshot of every
// tree that currently exists.
func (s *Store) BeginRead() *ReadTx {
	s.inFlight.Add(1)
	s.mu.RLock()
	snap := make(map[string]*Tree, len(s.trees))
	for name, t := range s.trees {
		snap[name] = t.clone()
	}
	s.mu.RUnlock()
	return &ReadTx{store: s, trees: snap}
}

// Tree returns the named tree's snapshot, or (nil, false) if it did not
// exist when the transaction began.
func (tx *ReadTx) Tree(name string) (*Tree, bool) {
	t, ok := tx.trees[name]
	return t, ok
}

// Done releases the read transaction's accounting. It does not release
// any lock, since BeginRead never holds one past snapshotting.
func (tx *ReadTx) Done() {
	tx.store.inFlight.Done()
}

// WriteTx is the single write transaction the Store allows at a time. It
// mutates the Store's live trees directly through the *Tree handles it
// hands out, and journals every mutation made through them as one record
// on Commit.
type WriteTx struct {
	store *Store
	muts  []mutation
	done  bool
}

// BeginWrite opens the write transaction, blocking until any other write
// transaction completes.
func (s *Store) BeginWrite() *WriteTx {
	s.inFlight.Add(1)
	s.mu.Lock()
	return &WriteTx{store: s}
}

// Tree returns the named tree for mutation, creating it if it does not
// already exist. Every Put/Delete made through the returned handle (and
// through any FixedTree derived from it) is recorded for journaling.
func (tx *WriteTx) Tree(name string) *Tree {
	t, ok := tx.store.trees[name]
	if !ok {
		t = newTree(name)
		tx.store.trees[name] = t
		tx.muts = append(tx.muts, mutation{op: opCreateTree, tree: name})
	}
	t.writable = true
	t.log = &tx.muts
	return t
}

// Commit journals every mutation made during the transaction (if
// durability is enabled) and releases the write lock.
func (tx *WriteTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	defer tx.release()

	if len(tx.muts) == 0 {
		return nil
	}
	return tx.store.journal.append(tx.muts)
}

// Rollback releases the write transaction without journaling its
// mutations. Mutations already applied to the live trees are not undone;
// callers validate before mutating rather than relying on rollback to
// undo partial writes.
func (tx *WriteTx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.release()
}

func (tx *WriteTx) release() {
	for _, t := range tx.store.trees {
		t.writable = false
	}
	tx.store.mu.Unlock()
	tx.store.inFlight.Done()
}

// Stats reports counters useful for observability: how many named trees
// are open and how many bytes the journal has written since open.
type Stats struct {
	TreeCount    int
	JournalBytes int64
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{TreeCount: len(s.trees)}
	if s.journal != nil {
		stats.JournalBytes = s.journal.bytesWritten
	}
	return stats
}

// WithCancellation polls ctx between the items an iteration step yields,
// returning ErrCancelled the moment it is done. The root package's reader
// iterators call it before each item to honor caller-supplied
// cancellation tokens.
func WithCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domainerrors.ErrCancelled, ctx.Err())
	default:
		return nil
	}
}
