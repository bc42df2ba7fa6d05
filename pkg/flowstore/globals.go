package flowstore

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/jetmock/jetmock/internal/storage"
	"github.com/jetmock/jetmock/pkg/flow"
)

// GlobalStore persists global variables as one collection under a single
// key. Every upsert rewrites the whole collection.
type GlobalStore struct {
	store storage.Store
	mu    sync.Mutex
}

// NewGlobalStore creates a GlobalStore over store.
func NewGlobalStore(store storage.Store) *GlobalStore {
	return &GlobalStore{store: store}
}

// List returns all global variables in insertion order.
func (s *GlobalStore) List() ([]flow.GlobalVariable, error) {
	vars, err := storage.GetJSON[[]flow.GlobalVariable](s.store, globalVariableKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []flow.GlobalVariable{}, nil
	}
	return vars, err
}

// Get returns the value of the variable whose key equals key ignoring case.
func (s *GlobalStore) Get(key string) (any, bool, error) {
	vars, err := s.List()
	if err != nil {
		return nil, false, err
	}
	for _, v := range vars {
		if strings.EqualFold(v.Key, key) {
			return v.Value, true, nil
		}
	}
	return nil, false, nil
}

// Upsert replaces any variable sharing a key (ignoring case) with the given
// ones, appending them to the end of the collection.
func (s *GlobalStore) Upsert(vars ...flow.GlobalVariable) error {
	if len(vars) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.List()
	if err != nil {
		return err
	}
	for _, v := range vars {
		current = slices.DeleteFunc(current, func(c flow.GlobalVariable) bool {
			return strings.EqualFold(c.Key, v.Key)
		})
		current = append(current, v)
	}
	return storage.PutJSON(s.store, globalVariableKey, current)
}
