package metadata

import (
	"bytes"
	"errors"
	"testing"
	"time"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
	"github.com/rollupdb/rollupdb/internal/storage"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(storage.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close(time.Second) })
	return s
}

func TestBootstrapGeneratesAndPersistsID(t *testing.T) {
	s := openStore(t)

	wtx := s.BeginWrite()
	id1, err := Bootstrap(wtx)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if len(id1) != 16 {
		t.Fatalf("expected 16-byte id, got %d bytes", len(id1))
	}
	wtx.Commit()

	wtx2 := s.BeginWrite()
	id2, err := Bootstrap(wtx2)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	wtx2.Commit()

	if !bytes.Equal(id1, id2) {
		t.Errorf("server id changed across bootstrap calls: %x != %x", id1, id2)
	}
}

func TestServerIDVisibleToReaders(t *testing.T) {
	s := openStore(t)
	wtx := s.BeginWrite()
	id, _ := Bootstrap(wtx)
	wtx.Commit()

	rtx := s.BeginRead()
	defer rtx.Done()
	got, ok := ServerID(rtx)
	if !ok || !bytes.Equal(got, id) {
		t.Fatalf("ServerID = %x, ok=%v, want %x", got, ok, id)
	}
}

func TestCreatePrefixConfigurationRejectsDuplicate(t *testing.T) {
	s := openStore(t)

	wtx := s.BeginWrite()
	if err := CreatePrefixConfiguration(wtx, "trades", 3); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := CreatePrefixConfiguration(wtx, "trades", 3)
	if !errors.Is(err, domainerrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	wtx.Commit()
}

func TestDeletePrefixConfigurationNotFound(t *testing.T) {
	s := openStore(t)
	wtx := s.BeginWrite()
	err := DeletePrefixConfiguration(wtx, "missing")
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	wtx.Commit()
}

func TestDeletePrefixConfigurationRejectsWhenDataExists(t *testing.T) {
	s := openStore(t)

	wtx := s.BeginWrite()
	if err := CreatePrefixConfiguration(wtx, "trades", 1); err != nil {
		t.Fatalf("create: %v", err)
	}
	seriesTree := wtx.Tree("series-1")
	ft := seriesTree.FixedTreeFor("trades-aapl", 8)
	ft.Add(1, make([]byte, 8))
	wtx.Commit()

	wtx2 := s.BeginWrite()
	err := DeletePrefixConfiguration(wtx2, "trades")
	if !errors.Is(err, domainerrors.ErrHasData) {
		t.Fatalf("expected ErrHasData, got %v", err)
	}
	wtx2.Commit()
}

func TestListPrefixConfigurationsReturnsAllRegistered(t *testing.T) {
	s := openStore(t)

	wtx := s.BeginWrite()
	CreatePrefixConfiguration(wtx, "trades", 1)
	CreatePrefixConfiguration(wtx, "quotes", 2)
	wtx.Commit()

	rtx := s.BeginRead()
	defer rtx.Done()
	got := ListPrefixConfigurations(rtx)
	if len(got) != 2 {
		t.Fatalf("expected 2 configurations, got %+v", got)
	}
	byPrefix := make(map[string]byte)
	for _, c := range got {
		byPrefix[c.Prefix] = c.Arity
	}
	if byPrefix["trades"] != 1 || byPrefix["quotes"] != 2 {
		t.Fatalf("got %+v", byPrefix)
	}
}

func TestListPrefixConfigurationsEmptyWhenNoneRegistered(t *testing.T) {
	s := openStore(t)
	rtx := s.BeginRead()
	defer rtx.Done()
	if got := ListPrefixConfigurations(rtx); len(got) != 0 {
		t.Fatalf("expected no configurations, got %+v", got)
	}
}

func TestDeletePrefixConfigurationSucceedsWhenEmpty(t *testing.T) {
	s := openStore(t)

	wtx := s.BeginWrite()
	CreatePrefixConfiguration(wtx, "trades", 1)
	wtx.Commit()

	wtx2 := s.BeginWrite()
	if err := DeletePrefixConfiguration(wtx2, "trades"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wtx2.Commit()
}
