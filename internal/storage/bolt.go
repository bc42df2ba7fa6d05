package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultBucket is the single bucket every jetmock record lives in.
const DefaultBucket = "jetmock"

// BoltStore is a Store backed by a bbolt database file.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &BoltStore{db: db, bucket: []byte(DefaultBucket)}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return s, nil
}

// Get returns the value for key, or ErrNotFound.
func (s *BoltStore) Get(key string) ([]byte, error) {
	var out []byte
	err := s.view(func(b *bolt.Bucket) error {
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		out = bytes.Clone(v)
		return nil
	})
	return out, err
}

// Put stores value under key.
func (s *BoltStore) Put(key string, value []byte) error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Put([]byte(key), value)
	})
}

// Delete removes key.
func (s *BoltStore) Delete(key string) error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Delete([]byte(key))
	})
}

// Scan returns every entry under prefix in ascending key order.
func (s *BoltStore) Scan(prefix string) ([]Entry, error) {
	var out []Entry
	err := s.view(func(b *bolt.Bucket) error {
		p := []byte(prefix)
		c := b.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			out = append(out, Entry{Key: string(k), Value: bytes.Clone(v)})
		}
		return nil
	})
	return out, err
}

// DeletePrefix removes every key under prefix inside one transaction.
func (s *BoltStore) DeletePrefix(prefix string) (int, error) {
	var n int
	err := s.update(func(b *bolt.Bucket) error {
		var err error
		n, err = deletePrefix(b, []byte(prefix))
		return err
	})
	return n, err
}

// Write applies the batch inside one transaction.
func (s *BoltStore) Write(batch *Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	return s.update(func(b *bolt.Bucket) error {
		for _, o := range batch.ops {
			var err error
			switch o.kind {
			case opPut:
				err = b.Put([]byte(o.key), o.value)
			case opDelete:
				err = b.Delete([]byte(o.key))
			case opDeletePrefix:
				_, err = deletePrefix(b, []byte(o.key))
			}
			if err != nil {
				return fmt.Errorf("batch %s: %w", o.key, err)
			}
		}
		return nil
	})
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) view(fn func(b *bolt.Bucket) error) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(s.bucket))
	})
	return mapBoltErr(err)
}

func (s *BoltStore) update(fn func(b *bolt.Bucket) error) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(s.bucket))
	})
	return mapBoltErr(err)
}

// deletePrefix collects keys first; deleting under a live cursor skips entries.
func deletePrefix(b *bolt.Bucket, prefix []byte) (int, error) {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, bytes.Clone(k))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func mapBoltErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// Ensure BoltStore implements Store.
var _ Store = (*BoltStore)(nil)
