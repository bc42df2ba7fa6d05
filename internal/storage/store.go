package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Entry is a single key/value pair returned by a prefix scan.
type Entry struct {
	Key   string
	Value []byte
}

// Store defines the contract over an embedded ordered key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Scan returns every entry whose key starts with prefix, in ascending key order.
	Scan(prefix string) ([]Entry, error)

	// DeletePrefix atomically removes every key starting with prefix and
	// returns how many keys were removed.
	DeletePrefix(prefix string) (int, error)

	// Write applies all operations of the batch atomically.
	Write(b *Batch) error

	// Close releases the underlying resources.
	Close() error
}

type opKind int

const (
	opPut opKind = iota
	opDelete
	opDeletePrefix
)

type op struct {
	kind  opKind
	key   string
	value []byte
}

// Batch collects write operations applied atomically by Store.Write.
// Operations are applied in the order they were added.
type Batch struct {
	ops []op
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Put queues a put.
func (b *Batch) Put(key string, value []byte) {
	b.ops = append(b.ops, op{kind: opPut, key: key, value: value})
}

// PutJSON queues a put of v encoded as JSON.
func (b *Batch) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	b.Put(key, data)
	return nil
}

// Delete queues a delete.
func (b *Batch) Delete(key string) {
	b.ops = append(b.ops, op{kind: opDelete, key: key})
}

// DeletePrefix queues a prefix delete.
func (b *Batch) DeletePrefix(prefix string) {
	b.ops = append(b.ops, op{kind: opDeletePrefix, key: prefix})
}

// Len returns the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// GetJSON reads key and decodes its JSON value into a T.
func GetJSON[T any](s Store, key string) (T, error) {
	var out T
	data, err := s.Get(key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// PutJSON encodes v as JSON and stores it under key.
func PutJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// ScanJSON decodes every value under prefix into a T, in key order.
func ScanJSON[T any](s Store, prefix string) ([]T, error) {
	entries, err := s.Scan(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
