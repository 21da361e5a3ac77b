package store

import (
	"encoding/binary"
	"os"
	"time"

	"go.etcd.io/bbolt"

	rerr "github.com/rulexdb/rulexdb/error"
)

// Dataset bucket names, one per persisted dataset named in the external
// interface layout.
const (
	BucketLexbases    = "lexbases"
	BucketExceptions  = "exceptions"
	BucketGeneral     = "general"
	BucketLexclasses  = "lexclasses"
	BucketCorrections = "corrections"
	BucketPrefixes    = "prefixes"
)

// Database is the bbolt-backed concrete persistence adapter. A single
// Database owns one *bbolt.DB; datasets are buckets within it.
type Database struct {
	db   *bbolt.DB
	mode Mode
}

// Open opens (or, in Create mode, creates) the database file at path.
// A second Update or Create handle on the same file fails fast with Access
// instead of blocking, since bbolt's file lock would otherwise stall the
// caller indefinitely.
func Open(path string, mode Mode) (*Database, error) {
	if mode != Create {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, rerr.New(rerr.NotFound, "database %q does not exist", path)
			}
			return nil, rerr.Wrap(rerr.Failure, err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout:  200 * time.Millisecond,
		ReadOnly: mode == Search,
	})
	if err != nil {
		if err == bbolt.ErrTimeout {
			return nil, rerr.New(rerr.Access, "database %q is locked by another process", path)
		}
		return nil, rerr.Wrap(rerr.Failure, err)
	}
	return &Database{db: db, mode: mode}, nil
}

func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return rerr.Wrap(rerr.Failure, err)
	}
	return nil
}

// Ordered opens the named bucket as an OrderedStore.
func (d *Database) Ordered(bucket string) (OrderedStore, error) {
	if err := d.ensureBucket(bucket); err != nil {
		return nil, err
	}
	return &boltOrdered{db: d.db, bucket: []byte(bucket), mode: d.mode}, nil
}

// Recno opens the named bucket as a RecnoStore, keyed by big-endian
// uint64 record numbers starting at 1.
func (d *Database) Recno(bucket string) (RecnoStore, error) {
	if err := d.ensureBucket(bucket); err != nil {
		return nil, err
	}
	return &boltRecno{db: d.db, bucket: []byte(bucket), mode: d.mode}, nil
}

func (d *Database) ensureBucket(bucket string) error {
	if d.mode == Search {
		return nil
	}
	err := d.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return rerr.Wrap(rerr.Failure, err)
	}
	return nil
}

type boltOrdered struct {
	db     *bbolt.DB
	bucket []byte
	mode   Mode
}

func (s *boltOrdered) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, rerr.Wrap(rerr.Failure, err)
	}
	if out == nil {
		return nil, rerr.New(rerr.NotFound, "key not present")
	}
	return out, nil
}

func (s *boltOrdered) Put(key, value []byte, overwrite bool) error {
	if s.mode == Search {
		return rerr.New(rerr.Access, "store opened read-only")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		if !overwrite && b.Get(key) != nil {
			return ErrDuplicate
		}
		return b.Put(key, append([]byte(nil), value...))
	})
	switch err {
	case nil:
		return nil
	case ErrDuplicate:
		return rerr.Wrap(rerr.Duplicate, ErrDuplicate)
	default:
		return rerr.Wrap(rerr.Failure, err)
	}
}

func (s *boltOrdered) Delete(key []byte) error {
	if s.mode == Search {
		return rerr.New(rerr.Access, "store opened read-only")
	}
	var found bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil || b.Get(key) == nil {
			return nil
		}
		found = true
		return b.Delete(key)
	})
	if err != nil {
		return rerr.Wrap(rerr.Failure, err)
	}
	if !found {
		return rerr.New(rerr.NotFound, "key not present")
	}
	return nil
}

func (s *boltOrdered) Truncate() error {
	if s.mode == Search {
		return rerr.New(rerr.Access, "store opened read-only")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
	if err != nil {
		return rerr.Wrap(rerr.Failure, err)
	}
	return nil
}

func (s *boltOrdered) Count() (uint64, error) {
	var n uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(s.bucket); b != nil {
			n = uint64(b.Stats().KeyN)
		}
		return nil
	})
	if err != nil {
		return 0, rerr.Wrap(rerr.Failure, err)
	}
	return n, nil
}

func (s *boltOrdered) Cursor() (Cursor, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, rerr.Wrap(rerr.Failure, err)
	}
	b := tx.Bucket(s.bucket)
	if b == nil {
		tx.Rollback()
		return &boltCursor{}, nil
	}
	return &boltCursor{tx: tx, c: b.Cursor()}, nil
}

type boltCursor struct {
	tx *bbolt.Tx
	c  *bbolt.Cursor
}

func (c *boltCursor) First() ([]byte, []byte, bool) {
	if c.c == nil {
		return nil, nil, false
	}
	k, v := c.c.First()
	return k, v, k != nil
}

func (c *boltCursor) Next() ([]byte, []byte, bool) {
	if c.c == nil {
		return nil, nil, false
	}
	k, v := c.c.Next()
	return k, v, k != nil
}

func (c *boltCursor) Prev() ([]byte, []byte, bool) {
	if c.c == nil {
		return nil, nil, false
	}
	k, v := c.c.Prev()
	return k, v, k != nil
}

func (c *boltCursor) Last() ([]byte, []byte, bool) {
	if c.c == nil {
		return nil, nil, false
	}
	k, v := c.c.Last()
	return k, v, k != nil
}

func (c *boltCursor) Close() error {
	if c.tx == nil {
		return nil
	}
	return c.tx.Rollback()
}

// boltRecno implements RecnoStore over a bucket keyed by big-endian
// uint64 record numbers. Insertion/deletion in the middle of the sequence
// renumbers every record after the affected position, which is acceptable
// since rule programs are short and edited rarely.
type boltRecno struct {
	db     *bbolt.DB
	bucket []byte
	mode   Mode
}

func recnoKey(n uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], n)
	return k[:]
}

func (s *boltRecno) Append(value []byte) (uint64, error) {
	if s.mode == Search {
		return 0, rerr.New(rerr.Access, "store opened read-only")
	}
	var n uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		n = uint64(b.Stats().KeyN) + 1
		return b.Put(recnoKey(n), append([]byte(nil), value...))
	})
	if err != nil {
		return 0, rerr.Wrap(rerr.Failure, err)
	}
	return n, nil
}

func (s *boltRecno) InsertAt(n uint64, value []byte) error {
	if s.mode == Search {
		return rerr.New(rerr.Access, "store opened read-only")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		count := uint64(b.Stats().KeyN)
		if n == 0 || n > count+1 {
			return rerr.New(rerr.Parameter, "position %d out of range (count=%d)", n, count)
		}
		for i := count; i >= n; i-- {
			v := b.Get(recnoKey(i))
			if err := b.Put(recnoKey(i+1), append([]byte(nil), v...)); err != nil {
				return err
			}
		}
		return b.Put(recnoKey(n), append([]byte(nil), value...))
	})
}

func (s *boltRecno) DeleteAt(n uint64) error {
	if s.mode == Search {
		return rerr.New(rerr.Access, "store opened read-only")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return rerr.New(rerr.NotFound, "record %d not present", n)
		}
		count := uint64(b.Stats().KeyN)
		if n == 0 || n > count {
			return rerr.New(rerr.NotFound, "record %d not present", n)
		}
		for i := n; i < count; i++ {
			v := b.Get(recnoKey(i + 1))
			if err := b.Put(recnoKey(i), append([]byte(nil), v...)); err != nil {
				return err
			}
		}
		return b.Delete(recnoKey(count))
	})
}

func (s *boltRecno) GetByN(n uint64) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(recnoKey(n)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, rerr.Wrap(rerr.Failure, err)
	}
	if out == nil {
		return nil, rerr.New(rerr.NotFound, "record %d not present", n)
	}
	return out, nil
}

func (s *boltRecno) Count() (uint64, error) {
	var n uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(s.bucket); b != nil {
			n = uint64(b.Stats().KeyN)
		}
		return nil
	})
	if err != nil {
		return 0, rerr.Wrap(rerr.Failure, err)
	}
	return n, nil
}

func (s *boltRecno) Truncate() error {
	if s.mode == Search {
		return rerr.New(rerr.Access, "store opened read-only")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
}
