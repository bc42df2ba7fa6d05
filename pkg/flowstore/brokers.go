package flowstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jetmock/jetmock/internal/storage"
	"github.com/jetmock/jetmock/pkg/flow"
)

// ErrBrokerNotFound is returned when a Kafka broker id is unknown.
var ErrBrokerNotFound = errors.New("kafka broker not found")

// BrokerStore persists Kafka broker settings.
type BrokerStore struct {
	store storage.Store
}

// NewBrokerStore creates a BrokerStore over store.
func NewBrokerStore(store storage.Store) *BrokerStore {
	return &BrokerStore{store: store}
}

// Save upserts b.
func (s *BrokerStore) Save(b *flow.KafkaBroker) error {
	if b.ID == "" {
		return errors.New("broker id is required")
	}
	if strings.TrimSpace(b.URL) == "" {
		return errors.New("broker url is required")
	}
	return storage.PutJSON(s.store, brokerKey(b.ID), b)
}

// Get returns the broker with id.
func (s *BrokerStore) Get(id string) (*flow.KafkaBroker, error) {
	b, err := storage.GetJSON[flow.KafkaBroker](s.store, brokerKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBrokerNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns every broker ordered by id.
func (s *BrokerStore) List() ([]*flow.KafkaBroker, error) {
	brokers, err := storage.ScanJSON[flow.KafkaBroker](s.store, brokerPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*flow.KafkaBroker, len(brokers))
	for i := range brokers {
		out[i] = &brokers[i]
	}
	return out, nil
}

// Delete removes the broker with id.
func (s *BrokerStore) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.store.Delete(brokerKey(id))
}
