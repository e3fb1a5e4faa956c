// Package metadata implements the engine's $metadata tree: the store's
// server identifier and its registered (prefix -> arity) configurations.
package metadata

import (
	"fmt"

	"github.com/google/uuid"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
	"github.com/rollupdb/rollupdb/internal/series"
	"github.com/rollupdb/rollupdb/internal/storage"
)

// TreeName is the well-known name of the metadata tree.
const TreeName = "$metadata"

const idKey = "id"

const prefixKeyPrefix = "prefixes-"

// Bootstrap ensures $metadata["id"] exists, generating a random 16-byte
// server id with google/uuid on first open. It is idempotent: once
// written, the id never changes for the life of the store.
func Bootstrap(tx *storage.WriteTx) ([]byte, error) {
	tree := tx.Tree(TreeName)
	if existing, ok := tree.Get([]byte(idKey)); ok {
		return existing, nil
	}
	id := uuid.New()
	idBytes := id[:]
	if err := tree.Put([]byte(idKey), idBytes); err != nil {
		return nil, fmt.Errorf("%w: write server id: %v", domainerrors.ErrStorage, err)
	}
	return idBytes, nil
}

// ServerID returns the store's server id from a read snapshot.
func ServerID(tx *storage.ReadTx) ([]byte, bool) {
	tree, ok := tx.Tree(TreeName)
	if !ok {
		return nil, false
	}
	return tree.Get([]byte(idKey))
}

func prefixKey(prefix string) []byte {
	return []byte(prefixKeyPrefix + prefix)
}

// CreatePrefixConfiguration registers prefix as using arity w. It fails
// with ErrAlreadyExists if prefix is already registered.
func CreatePrefixConfiguration(tx *storage.WriteTx, prefix string, w byte) error {
	tree := tx.Tree(TreeName)
	if _, ok := tree.Get(prefixKey(prefix)); ok {
		return fmt.Errorf("%w: prefix %q is already registered", domainerrors.ErrAlreadyExists, prefix)
	}
	return tree.Put(prefixKey(prefix), []byte{w})
}

// DeletePrefixConfiguration removes prefix's registration. It fails with
// ErrNotFound if prefix was never registered, or with ErrHasData if raw
// data still exists for the arity that prefix maps to, detected by
// checking whether any series-w tree has an entry whose key starts with
// prefix, per the registered arity.
func DeletePrefixConfiguration(tx *storage.WriteTx, prefix string) error {
	tree := tx.Tree(TreeName)
	w, ok := tree.Get(prefixKey(prefix))
	if !ok {
		return fmt.Errorf("%w: prefix %q is not registered", domainerrors.ErrNotFound, prefix)
	}

	seriesTree := tx.Tree(series.SeriesTreeName(w[0]))
	if seriesTree.HasPrefix([]byte(prefix)) {
		return fmt.Errorf("%w: prefix %q still has raw data", domainerrors.ErrHasData, prefix)
	}

	return tree.Delete(prefixKey(prefix))
}

// PrefixConfiguration pairs a registered prefix with its series arity.
type PrefixConfiguration struct {
	Prefix string
	Arity  byte
}

// ListPrefixConfigurations returns every registered (prefix, arity)
// pair, ordered by prefix. This supplements the functional spec, which
// only names single-prefix create/delete/get operations, for operator
// tooling that needs to enumerate what is registered.
func ListPrefixConfigurations(tx *storage.ReadTx) []PrefixConfiguration {
	tree, ok := tx.Tree(TreeName)
	if !ok {
		return nil
	}
	var out []PrefixConfiguration
	it := tree.IteratePrefix([]byte(prefixKeyPrefix))
	for it.MoveNext() {
		prefix := string(it.Key()[len(prefixKeyPrefix):])
		value := it.Value()
		if len(value) != 1 {
			continue
		}
		out = append(out, PrefixConfiguration{Prefix: prefix, Arity: value[0]})
	}
	return out
}

// GetPrefixConfiguration is reserved; the functional spec defers its
// exact read semantics (§9, open question 2).
func GetPrefixConfiguration(*storage.ReadTx, string) (byte, error) {
	return 0, domainerrors.ErrNotImplemented
}
