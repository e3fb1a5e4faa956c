package storage

import (
	"bytes"

	"github.com/google/btree"

	"github.com/rollupdb/rollupdb/internal/codec"
)

const btreeDegree = 32

// item is the google/btree.Item stored in every named tree's underlying
// btree. Both the engine's "flat" entries ($metadata keys) and its
// "fixed-size tree" entries (series/periods ticks) are items in the same
// ordered byte-keyed structure; the two usages never mix within one named
// tree, so one btree.BTree per Tree is enough to snapshot everything that
// tree holds with a single Clone().
type item struct {
	key   []byte
	value []byte
}

func (i *item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*item).key) < 0
}

// Tree is one named tree: either a flat string-keyed byte-blob store (the
// engine's $metadata tree) or the parent of many fixed-size trees
// (series-w / periods-w), distinguished only by which methods callers use.
type Tree struct {
	name     string
	data     *btree.BTree
	writable bool
	log      *[]mutation
}

func newTree(name string) *Tree {
	return &Tree{name: name, data: btree.New(btreeDegree)}
}

// clone returns a read-only, independent snapshot of t. Because
// google/btree nodes are copy-on-write, Clone is O(1) and the clone is
// unaffected by any later mutation of t.
func (t *Tree) clone() *Tree {
	return &Tree{name: t.name, data: t.data.Clone(), writable: false}
}

// Name returns the tree's name.
func (t *Tree) Name() string { return t.name }

// Get returns the value stored under key, if any.
func (t *Tree) Get(key []byte) ([]byte, bool) {
	found := t.data.Get(&item{key: key})
	if found == nil {
		return nil, false
	}
	return found.(*item).value, true
}

// Put stores value under key, overwriting any prior value.
func (t *Tree) Put(key, value []byte) error {
	if !t.writable {
		return errReadOnly
	}
	key, value = cloneBytes(key), cloneBytes(value)
	t.data.ReplaceOrInsert(&item{key: key, value: value})
	if t.log != nil {
		*t.log = append(*t.log, mutation{op: opPut, tree: t.name, key: key, value: value})
	}
	return nil
}

// Delete removes key, if present.
func (t *Tree) Delete(key []byte) error {
	if !t.writable {
		return errReadOnly
	}
	t.data.Delete(&item{key: key})
	if t.log != nil {
		*t.log = append(*t.log, mutation{op: opDelete, tree: t.name, key: key})
	}
	return nil
}

// HasPrefix reports whether any entry's key starts with prefix.
func (t *Tree) HasPrefix(prefix []byte) bool {
	found := false
	t.data.AscendGreaterOrEqual(&item{key: prefix}, func(i btree.Item) bool {
		if bytes.HasPrefix(i.(*item).key, prefix) {
			found = true
		}
		return false
	})
	return found
}

// PrefixIterator walks every entry whose key starts with prefix, in
// ascending order.
type PrefixIterator struct {
	entries []*item
	pos     int
}

// IteratePrefix returns an iterator over every entry whose key starts with
// prefix.
func (t *Tree) IteratePrefix(prefix []byte) *PrefixIterator {
	var entries []*item
	t.data.AscendGreaterOrEqual(&item{key: prefix}, func(i btree.Item) bool {
		it := i.(*item)
		if !bytes.HasPrefix(it.key, prefix) {
			return false
		}
		entries = append(entries, it)
		return true
	})
	return &PrefixIterator{entries: entries, pos: -1}
}

// MoveNext advances the iterator; it returns false once exhausted.
func (it *PrefixIterator) MoveNext() bool {
	it.pos++
	return it.pos < len(it.entries)
}

// Key returns the current entry's key.
func (it *PrefixIterator) Key() []byte { return it.entries[it.pos].key }

// Value returns the current entry's value.
func (it *PrefixIterator) Value() []byte { return it.entries[it.pos].value }

// FixedTree is a fixed-width-value, int64-tick-keyed ordered map embedded
// within a named parent Tree, per spec.md §4.C.
type FixedTree struct {
	tree       *Tree
	key        string
	prefix     []byte
	valueWidth int
}

// FixedTreeFor returns the fixed-size tree for key inside t, lazily
// scoped to entries whose composite key is key followed by an 8-byte
// big-endian tick.
func (t *Tree) FixedTreeFor(key string, valueWidth int) *FixedTree {
	return &FixedTree{tree: t, key: key, prefix: []byte(key), valueWidth: valueWidth}
}

// RequiredPrefix returns the byte prefix shared by every entry of this
// fixed tree within its parent.
func (f *FixedTree) RequiredPrefix() []byte { return f.prefix }

func (f *FixedTree) compositeKey(tick int64) []byte {
	buf := make([]byte, len(f.prefix)+codec.TickWidth)
	copy(buf, f.prefix)
	codec.PutTick(buf, len(f.prefix), tick)
	return buf
}

// Add stores value (which must be exactly f.valueWidth bytes) at tick.
func (f *FixedTree) Add(tick int64, value []byte) error {
	if len(value) != f.valueWidth {
		return errValueWidth
	}
	return f.tree.Put(f.compositeKey(tick), value)
}

// Delete removes the entry at tick, if present.
func (f *FixedTree) Delete(tick int64) error {
	return f.tree.Delete(f.compositeKey(tick))
}

// TickIterator walks a FixedTree's entries in ascending tick order.
type TickIterator struct {
	inner *PrefixIterator
	f     *FixedTree
}

// Iterate returns a fresh iterator over every entry in f, starting
// before the first key; call Seek or MoveNext to position it.
func (f *FixedTree) Iterate() *TickIterator {
	inner := f.tree.IteratePrefix(f.prefix)
	// Keep only key+tick entries; longer keys that merely share this key
	// as a prefix belong to other fixed trees.
	n := 0
	for _, e := range inner.entries {
		if len(e.key) == len(f.prefix)+codec.TickWidth {
			inner.entries[n] = e
			n++
		}
	}
	inner.entries = inner.entries[:n]
	return &TickIterator{inner: inner, f: f}
}

// Seek positions the iterator at the first key >= tick and reports
// whether that position holds an entry at all (false once the tree has
// no key >= tick, i.e. the iterator is exhausted). It does not report
// whether that entry's tick is exactly tick; callers that need an exact
// match check CurrentKey() themselves.
func (f *FixedTree) Seek(tick int64) (*TickIterator, bool) {
	it := f.Iterate()
	target := f.compositeKey(tick)
	for it.inner.MoveNext() {
		if bytes.Compare(it.inner.Key(), target) >= 0 {
			return it, true
		}
	}
	it.inner.pos = len(it.inner.entries) // exhausted
	return it, false
}

// MoveNext advances the iterator; false once exhausted.
func (it *TickIterator) MoveNext() bool { return it.inner.MoveNext() }

// CurrentKey returns the current entry's tick.
func (it *TickIterator) CurrentKey() int64 {
	k := it.inner.Key()
	return codec.DecodeTickKey(k[len(it.f.prefix):])
}

// CurrentValue returns the current entry's raw value bytes
// (createReaderForCurrent, simplified to a byte slice).
func (it *TickIterator) CurrentValue() []byte { return it.inner.Value() }

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
