package rollupdb

import (
	"context"
	"errors"
	"testing"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
	"github.com/rollupdb/rollupdb/internal/period"
)

func TestQueryRollupMisalignedRange(t *testing.T) {
	s := openTestStore(t)
	w, _ := s.Writer(1)
	w.Append("k", mustTime("2015-01-01T00:00:00Z"), []float64{1})
	w.Commit()

	r, _ := s.Reader(1)
	defer r.Close()

	// Both boundaries pass the alignment check (minutes 56 and 0 are
	// multiples of 7), but 00:56 + 7 minutes = 01:03 overshoots 01:00.
	_, err := r.QueryRollup("k", mustTime("2015-01-01T00:56:00Z"), mustTime("2015-01-01T01:00:00Z"), period.Duration{Type: period.Minutes, Duration: 7})
	if !errors.Is(err, domainerrors.ErrMisalignedRange) {
		t.Fatalf("expected ErrMisalignedRange, got %v", err)
	}
}

func TestQueryRollupAbsentSeriesYieldsEmpty(t *testing.T) {
	s := openTestStore(t)
	r, _ := s.Reader(1)
	defer r.Close()

	it, err := r.QueryRollup("never-written", mustTime("2015-01-01T00:00:00Z"), mustTime("2015-01-01T00:01:00Z"), period.Duration{Type: period.Minutes, Duration: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := it.Next(context.Background()); ok {
		t.Errorf("expected empty sequence for an absent series tree")
	}
}

func TestQueryRawAbsentSeriesYieldsEmpty(t *testing.T) {
	s := openTestStore(t)
	r, _ := s.Reader(1)
	defer r.Close()

	it := r.QueryRaw("never-written", mustTime("2015-01-01T00:00:00Z"), mustTime("2015-01-01T00:01:00Z"))
	if _, ok, _ := it.Next(context.Background()); ok {
		t.Errorf("expected empty sequence for an absent series tree")
	}
}

func TestQueryRawStartBetweenTicksStillYieldsInRangePoints(t *testing.T) {
	s := openTestStore(t)
	w, _ := s.Writer(1)
	w.Append("k", mustTime("2015-01-01T00:00:10Z"), []float64{1})
	w.Append("k", mustTime("2015-01-01T00:00:20Z"), []float64{2})
	w.Commit()

	r, _ := s.Reader(1)
	defer r.Close()

	// start falls strictly between the epoch and the first written tick,
	// so Seek never lands on an exact match; it must still report the
	// first point at or after start instead of an empty sequence.
	it := r.QueryRaw("k", mustTime("2015-01-01T00:00:00Z"), mustTime("2015-01-01T00:00:30Z"))

	var values []float64
	for {
		pt, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		values = append(values, pt.Values[0])
	}
	if len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Fatalf("got values %v, want [1 2]", values)
	}
}

func TestQueryRollupMultiWindow(t *testing.T) {
	s := openTestStore(t)
	w, _ := s.Writer(1)
	w.Append("k", mustTime("2015-01-01T00:00:10Z"), []float64{1})
	w.Append("k", mustTime("2015-01-01T00:01:10Z"), []float64{2})
	w.Commit()

	r, _ := s.Reader(1)
	defer r.Close()

	it, err := r.QueryRollup("k", mustTime("2015-01-01T00:00:00Z"), mustTime("2015-01-01T00:02:00Z"), period.Duration{Type: period.Minutes, Duration: 1})
	if err != nil {
		t.Fatalf("query rollup: %v", err)
	}

	var volumes []float64
	for {
		rng, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		volumes = append(volumes, rng.Values[0].Volume)
	}
	if len(volumes) != 2 || volumes[0] != 1 || volumes[1] != 1 {
		t.Fatalf("got volumes %v, want [1 1]", volumes)
	}
}
