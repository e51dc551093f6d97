package store

import (
	"testing"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

func TestOpenCreatesBucketAndIsEmpty(t *testing.T) {
	st, err := Open(t.TempDir(), "a_store", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	n, err := st.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected empty store, got %d keys", n)
	}
}

func TestUpdateThenViewRoundTrip(t *testing.T) {
	st, err := Open(t.TempDir(), "a_store", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.Update(func(b *bolt.Bucket) error {
		return b.Put([]byte("k"), []byte("v"))
	}); err != nil {
		t.Fatal(err)
	}

	var got []byte
	if err := st.View(func(b *bolt.Bucket) error {
		got = append([]byte(nil), b.Get([]byte("k"))...)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}

	n, err := st.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 key, got %d", n)
	}
}

func TestBeginReadSessionSeesCommittedData(t *testing.T) {
	st, err := Open(t.TempDir(), "a_store", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.Update(func(b *bolt.Bucket) error {
		return b.Put([]byte("x"), []byte("1"))
	}); err != nil {
		t.Fatal(err)
	}

	rs, err := st.Begin()
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Close()

	if got := rs.Get([]byte("x")); string(got) != "1" {
		t.Fatalf("got %q, want %q", got, "1")
	}
}
