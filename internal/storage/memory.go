package storage

import (
	"slices"
	"strings"
	"sync"
)

// MemoryStore is a thread-safe in-memory implementation of Store.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get returns the value for key, or ErrNotFound.
func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Put stores value under key.
func (s *MemoryStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[key] = slices.Clone(value)
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.data, key)
	return nil
}

// Scan returns every entry under prefix in ascending key order.
func (s *MemoryStore) Scan(prefix string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	keys := s.keysWithPrefix(prefix)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: slices.Clone(s.data[k])})
	}
	return out, nil
}

// DeletePrefix removes every key under prefix.
func (s *MemoryStore) DeletePrefix(prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.deletePrefixLocked(prefix), nil
}

// Write applies the batch under a single lock acquisition.
func (s *MemoryStore) Write(b *Batch) error {
	if b == nil || b.Len() == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, o := range b.ops {
		switch o.kind {
		case opPut:
			s.data[o.key] = slices.Clone(o.value)
		case opDelete:
			delete(s.data, o.key)
		case opDeletePrefix:
			s.deletePrefixLocked(o.key)
		}
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) keysWithPrefix(prefix string) []string {
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func (s *MemoryStore) deletePrefixLocked(prefix string) int {
	keys := s.keysWithPrefix(prefix)
	for _, k := range keys {
		delete(s.data, k)
	}
	return len(keys)
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
