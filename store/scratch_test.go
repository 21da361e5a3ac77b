package store

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	rerr "github.com/rulexdb/rulexdb/error"
)

type fakeOrdered struct {
	puts [][2]string
}

func (f *fakeOrdered) Get([]byte) ([]byte, error)       { return nil, rerr.New(rerr.NotFound, "") }
func (f *fakeOrdered) Delete([]byte) error              { return nil }
func (f *fakeOrdered) Truncate() error                  { return nil }
func (f *fakeOrdered) Count() (uint64, error)            { return uint64(len(f.puts)), nil }
func (f *fakeOrdered) Cursor() (Cursor, error)           { return nil, nil }
func (f *fakeOrdered) Put(key, value []byte, overwrite bool) error {
	f.puts = append(f.puts, [2]string{string(key), string(value)})
	return nil
}

func TestScratchPutGetDelete(t *testing.T) {
	s := NewScratch()
	if err := s.Put([]byte("cat"), []byte("v1"), false); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Put([]byte("cat"), []byte("v2"), false); rerr.Of(err) != rerr.Duplicate {
		t.Fatalf("expected Duplicate, got %v", err)
	}
	v, err := s.Get([]byte("cat"))
	if err != nil || !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := s.Delete([]byte("cat")); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get([]byte("cat")); rerr.Of(err) != rerr.NotFound {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestScratchDumpSortsKeys(t *testing.T) {
	s := NewScratch()
	s.Put([]byte("banana"), []byte("b"), true)
	s.Put([]byte("apple"), []byte("a"), true)
	s.Put([]byte("cherry"), []byte("c"), true)

	dst := &fakeOrdered{}
	if err := s.Dump(dst); err != nil {
		t.Fatalf("Dump error: %v", err)
	}
	want := [][2]string{{"apple", "a"}, {"banana", "b"}, {"cherry", "c"}}
	if diff := cmp.Diff(want, dst.puts); diff != "" {
		t.Fatalf("dump order mismatch (-want +got):\n%s", diff)
	}
	if n, _ := s.Count(); n != 0 {
		t.Fatalf("scratch should be empty after dump, count=%d", n)
	}
}
