package rollupdb

import (
	"errors"
	"testing"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
)

func TestWriterArityMismatch(t *testing.T) {
	s := openTestStore(t)
	w, _ := s.Writer(2)
	defer w.Dispose()

	err := w.Append("k", mustTime("2015-01-01T00:00:00Z"), []float64{1})
	if !errors.Is(err, domainerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestWriterDeleteNotImplemented(t *testing.T) {
	s := openTestStore(t)
	w, _ := s.Writer(1)
	defer w.Dispose()

	if err := w.Delete("k", mustTime("2015-01-01T00:00:00Z")); !errors.Is(err, domainerrors.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if err := w.DeleteRange("k", mustTime("2015-01-01T00:00:00Z"), mustTime("2015-01-01T00:01:00Z")); !errors.Is(err, domainerrors.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestWriterDisposeDoesNotPersist(t *testing.T) {
	s := openTestStore(t)

	w, _ := s.Writer(1)
	w.Append("k", mustTime("2015-01-01T00:00:00Z"), []float64{1})
	w.Dispose()

	w2, _ := s.Writer(1)
	defer w2.Dispose()
	// The dispose above released the write lock without committing; a
	// second writer should be able to acquire it immediately.
	if err := w2.Append("k2", mustTime("2015-01-01T00:00:00Z"), []float64{2}); err != nil {
		t.Fatalf("expected second writer to proceed: %v", err)
	}
}

func TestWriterCommitIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	w, _ := s.Writer(1)
	w.Append("k", mustTime("2015-01-01T00:00:00Z"), []float64{1})
	if err := w.Commit(); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("second commit should be a no-op, got: %v", err)
	}
}
