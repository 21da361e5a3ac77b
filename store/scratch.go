package store

import (
	"sort"
	"sync"

	rerr "github.com/rulexdb/rulexdb/error"
)

// Scratch is an in-memory, unordered OrderedStore used to bulk-build a new
// database: records land in a plain map during Create, then Dump writes
// them into a real ordered backend in sorted key order in one pass,
// avoiding the B-tree rebalancing cost of inserting keys out of order.
type Scratch struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewScratch returns an empty bulk-build store.
func NewScratch() *Scratch {
	return &Scratch{data: make(map[string][]byte)}
}

func (s *Scratch) Get(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, rerr.New(rerr.NotFound, "key not present")
	}
	return append([]byte(nil), v...), nil
}

func (s *Scratch) Put(key, value []byte, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !overwrite {
		if _, ok := s.data[string(key)]; ok {
			return rerr.Wrap(rerr.Duplicate, ErrDuplicate)
		}
	}
	s.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (s *Scratch) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[string(key)]; !ok {
		return rerr.New(rerr.NotFound, "key not present")
	}
	delete(s.data, string(key))
	return nil
}

func (s *Scratch) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

func (s *Scratch) Count() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.data)), nil
}

// Cursor is unsupported: Scratch is unordered bulk-build storage, walked
// only via Dump.
func (s *Scratch) Cursor() (Cursor, error) {
	return nil, rerr.New(rerr.Access, "scratch store does not support cursors, use Dump")
}

// Dump writes every record into dst in ascending key order and truncates
// the scratch store.
func (s *Scratch) Dump(dst OrderedStore) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		values[k] = v
	}
	s.mu.Unlock()

	for _, k := range keys {
		if err := dst.Put([]byte(k), values[k], true); err != nil {
			return err
		}
	}
	return s.Truncate()
}
