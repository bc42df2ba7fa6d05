package flowstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jetmock/jetmock/internal/storage"
	"github.com/jetmock/jetmock/pkg/flow"
)

// Group errors.
var (
	ErrGroupNotFound = errors.New("group not found")
	ErrGroupExists   = errors.New("group already exists")
)

// GroupStore persists groups and a lowercase name index.
type GroupStore struct {
	store storage.Store
	// mu serializes the name uniqueness check with the write.
	mu sync.Mutex
}

// NewGroupStore creates a GroupStore over store.
func NewGroupStore(store storage.Store) *GroupStore {
	return &GroupStore{store: store}
}

// Create stores g. The name must be unique ignoring case.
func (s *GroupStore) Create(g *flow.Group) error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("group name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.Get(groupNameKey(g.Name))
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrGroupExists, g.Name)
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}

	batch := storage.NewBatch()
	if err := batch.PutJSON(groupKey(g.ID), g); err != nil {
		return err
	}
	if err := batch.PutJSON(groupNameKey(g.Name), g.ID); err != nil {
		return err
	}
	return s.store.Write(batch)
}

// Get returns the group with id.
func (s *GroupStore) Get(id string) (*flow.Group, error) {
	g, err := storage.GetJSON[flow.Group](s.store, groupKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FindByName returns the group whose name equals name ignoring case.
func (s *GroupStore) FindByName(name string) (*flow.Group, error) {
	raw, err := s.store.Get(groupNameKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("decode group name index: %w", err)
	}
	return s.Get(id)
}

// List returns every group ordered by id.
func (s *GroupStore) List() ([]*flow.Group, error) {
	entries, err := s.store.Scan(groupPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*flow.Group, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Key, groupNamePrefix) {
			continue
		}
		var g flow.Group
		if err := json.Unmarshal(e.Value, &g); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, &g)
	}
	return out, nil
}

// SetActive toggles the group's active flag.
func (s *GroupStore) SetActive(id string, active bool) (*flow.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	g.IsActive = active
	if err := storage.PutJSON(s.store, groupKey(id), g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes the group and its name index row.
func (s *GroupStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.Get(id)
	if err != nil {
		return err
	}
	batch := storage.NewBatch()
	batch.Delete(groupKey(id))
	batch.Delete(groupNameKey(g.Name))
	return s.store.Write(batch)
}
