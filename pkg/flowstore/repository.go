package flowstore

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jetmock/jetmock/internal/storage"
	"github.com/jetmock/jetmock/pkg/flow"
)

// ErrFlowNotFound is returned when a flow id has no stored flow.
var ErrFlowNotFound = errors.New("flow not found")

// Repository stores flows and keeps their match index rows in step with
// them. Every save and delete is a single atomic batch.
type Repository struct {
	store storage.Store
}

// NewRepository creates a Repository over store.
func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

// Save upserts f and rewrites its index rows. Rows derived from the
// previously stored version of the flow are removed in the same batch, so a
// changed trigger never leaves a stale row behind.
func (r *Repository) Save(f *flow.Flow) error {
	if f == nil || f.ID == "" {
		return errors.New("flow id is required")
	}

	batch := storage.NewBatch()

	prev, err := r.FindByID(f.ID)
	switch {
	case err == nil:
		for key := range indexEntries(prev) {
			batch.Delete(key)
		}
	case !errors.Is(err, ErrFlowNotFound):
		return err
	}

	if err := batch.PutJSON(flowKey(f.ID), f); err != nil {
		return err
	}
	for key, entry := range indexEntries(f) {
		if err := batch.PutJSON(key, entry); err != nil {
			return err
		}
	}

	if err := r.store.Write(batch); err != nil {
		return fmt.Errorf("save flow %s: %w", f.ID, err)
	}
	return nil
}

// FindByID loads the flow stored under id.
func (r *Repository) FindByID(id string) (*flow.Flow, error) {
	f, err := storage.GetJSON[flow.Flow](r.store, flowKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindAll returns every stored flow ordered by id.
func (r *Repository) FindAll() ([]*flow.Flow, error) {
	flows, err := storage.ScanJSON[flow.Flow](r.store, flowPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*flow.Flow, len(flows))
	for i := range flows {
		out[i] = &flows[i]
	}
	return out, nil
}

// FindByGroup returns the flows of one group ordered by id.
func (r *Repository) FindByGroup(groupID string) ([]*flow.Flow, error) {
	all, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(f *flow.Flow) bool {
		return f.GroupID != groupID
	}), nil
}

// CountByGroup returns how many flows belong to groupID.
func (r *Repository) CountByGroup(groupID string) (int, error) {
	flows, err := r.FindByGroup(groupID)
	if err != nil {
		return 0, err
	}
	return len(flows), nil
}

// FindMatchingByMethodAndPath returns the static index rows for an exact
// (group, method, path), ordered by flow id.
func (r *Repository) FindMatchingByMethodAndPath(groupID, method, path string) ([]flow.MatchEntry, error) {
	method = strings.ToUpper(method)
	entries, err := r.scan(staticPathPrefix(groupID, method, path))
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(entries, func(e flow.MatchEntry) bool {
		return e.Method != method || e.Path != path
	}), nil
}

// FindMatchingByMethod returns every dynamic-path index row for
// (group, method), ordered by flow id. Callers match the path templates.
func (r *Repository) FindMatchingByMethod(groupID, method string) ([]flow.MatchEntry, error) {
	method = strings.ToUpper(method)
	entries, err := r.scan(dynamicMethodPrefix(groupID, method))
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(entries, func(e flow.MatchEntry) bool {
		return e.Method != method
	}), nil
}

// FindByKafkaTrigger returns the Kafka index rows for (broker, topic),
// ordered by flow id.
func (r *Repository) FindByKafkaTrigger(brokerID, topic string) ([]flow.MatchEntry, error) {
	entries, err := r.scan(kafkaTopicPrefix(brokerID, topic))
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(entries, func(e flow.MatchEntry) bool {
		return e.BrokerID != brokerID || e.Topic != topic
	}), nil
}

// FindAllKafkaTriggers returns every Kafka index row.
func (r *Repository) FindAllKafkaTriggers() ([]flow.MatchEntry, error) {
	return r.scan(kafkaPrefix)
}

// Delete removes the flow and its own index rows. Deleting a missing flow
// is a no-op.
func (r *Repository) Delete(id string) error {
	f, err := r.FindByID(id)
	if errors.Is(err, ErrFlowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	batch := storage.NewBatch()
	batch.Delete(flowKey(id))
	for key := range indexEntries(f) {
		batch.Delete(key)
	}
	if err := r.store.Write(batch); err != nil {
		return fmt.Errorf("delete flow %s: %w", id, err)
	}
	return nil
}

func (r *Repository) scan(prefix string) ([]flow.MatchEntry, error) {
	entries, err := storage.ScanJSON[flow.MatchEntry](r.store, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	slices.SortStableFunc(entries, func(a, b flow.MatchEntry) int {
		return strings.Compare(a.FlowID, b.FlowID)
	})
	return entries, nil
}
