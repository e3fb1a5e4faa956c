package storage

import "testing"

func TestTreePutGet(t *testing.T) {
	tr := newTree("$metadata")
	tr.writable = true

	if err := tr.Put([]byte("id"), []byte{1, 2, 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := tr.Get([]byte("id"))
	if !ok {
		t.Fatalf("expected key to exist")
	}
	if string(got) != "\x01\x02\x03" {
		t.Errorf("got %v", got)
	}
}

func TestTreeReadOnlyRejectsMutation(t *testing.T) {
	tr := newTree("series-1")
	if err := tr.Put([]byte("k"), []byte("v")); err == nil {
		t.Fatalf("expected error mutating a read-only tree")
	}
}

func TestTreeCloneIsIndependent(t *testing.T) {
	tr := newTree("series-1")
	tr.writable = true
	tr.Put([]byte("a"), []byte("1"))

	snap := tr.clone()
	tr.Put([]byte("b"), []byte("2"))

	if _, ok := snap.Get([]byte("b")); ok {
		t.Fatalf("snapshot observed a mutation made after it was taken")
	}
	if _, ok := tr.Get([]byte("b")); !ok {
		t.Fatalf("live tree should see its own mutation")
	}
}

func TestFixedTreeAddSeekIterate(t *testing.T) {
	tr := newTree("series-1")
	tr.writable = true
	ft := tr.FixedTreeFor("aapl", 8)

	for _, tick := range []int64{100, 50, 200} {
		if err := ft.Add(tick, []byte("12345678")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	it, ok := ft.Seek(100)
	if !ok {
		t.Fatalf("expected a valid position at tick 100")
	}
	if it.CurrentKey() != 100 {
		t.Errorf("CurrentKey = %d, want 100", it.CurrentKey())
	}

	it = ft.Iterate()
	var ticks []int64
	for it.MoveNext() {
		ticks = append(ticks, it.CurrentKey())
	}
	want := []int64{50, 100, 200}
	if len(ticks) != len(want) {
		t.Fatalf("got %d ticks, want %d", len(ticks), len(want))
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Errorf("ticks[%d] = %d, want %d", i, ticks[i], want[i])
		}
	}
}

func TestFixedTreeSeekBetweenKeysIsValidButNotExact(t *testing.T) {
	tr := newTree("series-1")
	tr.writable = true
	ft := tr.FixedTreeFor("aapl", 8)

	for _, tick := range []int64{100, 200} {
		if err := ft.Add(tick, []byte("12345678")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	it, ok := ft.Seek(150)
	if !ok {
		t.Fatalf("expected a valid position landing on the next key after 150")
	}
	if it.CurrentKey() != 200 {
		t.Errorf("CurrentKey = %d, want 200 (first key >= 150)", it.CurrentKey())
	}
}

func TestFixedTreeSeekPastEndIsInvalid(t *testing.T) {
	tr := newTree("series-1")
	tr.writable = true
	ft := tr.FixedTreeFor("aapl", 8)
	if err := ft.Add(100, []byte("12345678")); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, ok := ft.Seek(200)
	if ok {
		t.Fatalf("expected no valid position past the last key")
	}
}

func TestFixedTreeRejectsWrongWidth(t *testing.T) {
	tr := newTree("series-1")
	tr.writable = true
	ft := tr.FixedTreeFor("aapl", 8)
	if err := ft.Add(1, []byte("short")); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestFixedTreeDelete(t *testing.T) {
	tr := newTree("series-1")
	tr.writable = true
	ft := tr.FixedTreeFor("aapl", 1)
	ft.Add(1, []byte{1})
	ft.Delete(1)

	it := ft.Iterate()
	if it.MoveNext() {
		t.Fatalf("expected no entries after delete")
	}
}

func TestTreeIteratePrefixIsolatesDistinctKeys(t *testing.T) {
	tr := newTree("periods-w")
	tr.writable = true
	ft1 := tr.FixedTreeFor("aaplMinutes-1", 1)
	ft2 := tr.FixedTreeFor("aaplHours-1", 1)
	ft1.Add(1, []byte{1})
	ft2.Add(1, []byte{2})

	it := ft1.Iterate()
	count := 0
	for it.MoveNext() {
		count++
	}
	if count != 1 {
		t.Fatalf("expected fixed tree iteration to see only its own entries, got %d", count)
	}
}

func TestHasPrefix(t *testing.T) {
	tr := newTree("$metadata")
	tr.writable = true
	tr.Put([]byte("prefixes-trades"), []byte{1})

	if !tr.HasPrefix([]byte("prefixes-")) {
		t.Errorf("expected HasPrefix to find prefixes-trades")
	}
	if tr.HasPrefix([]byte("prefixes-quotes")) {
		t.Errorf("did not expect a match for an unrelated prefix")
	}
}
