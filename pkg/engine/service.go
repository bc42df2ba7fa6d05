package engine

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/jetmock/jetmock/internal/id"
	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/validation"
)

// MockRequest creates or replaces a flow.
type MockRequest struct {
	GroupID   string            `json:"groupId"`
	Name      string            `json:"name,omitempty"`
	FlowSteps []validation.Step `json:"flowSteps"`
}

// MockDetail is a flow rendered as flat steps ordered by order number.
type MockDetail struct {
	ID        string            `json:"id"`
	GroupID   string            `json:"groupId"`
	Name      string            `json:"name,omitempty"`
	FlowSteps []validation.Step `json:"flowSteps"`
}

// ListenerControl starts and stops Kafka listeners.
type ListenerControl interface {
	Start(brokerURL, brokerID, topic, groupID string) error
	Stop(brokerURL, topic, groupID string)
}

// FlowService manages flow definitions and keeps Kafka listeners in step
// with them.
type FlowService struct {
	flows     *flowstore.Repository
	groups    *flowstore.GroupStore
	brokers   *flowstore.BrokerStore
	listeners ListenerControl
	log       *slog.Logger
}

// NewFlowService creates a FlowService. listeners may be nil.
func NewFlowService(flows *flowstore.Repository, groups *flowstore.GroupStore, brokers *flowstore.BrokerStore, listeners ListenerControl, log *slog.Logger) *FlowService {
	if log == nil {
		log = logging.Nop()
	}
	return &FlowService{flows: flows, groups: groups, brokers: brokers, listeners: listeners, log: log}
}

// Create validates and stores a new flow.
func (s *FlowService) Create(req *MockRequest) (*MockDetail, error) {
	f, broker, err := s.build(id.UUID(), req)
	if err != nil {
		return nil, err
	}
	if err := s.flows.Save(f); err != nil {
		return nil, err
	}
	s.log.Info("mock created", "flowId", f.ID, "groupId", f.GroupID)
	s.startListener(f, broker)
	return detail(f), nil
}

// Update replaces the flow with the given id.
func (s *FlowService) Update(flowID string, req *MockRequest) (*MockDetail, error) {
	old, err := s.flows.FindByID(flowID)
	if err != nil {
		return nil, err
	}
	f, broker, err := s.build(flowID, req)
	if err != nil {
		return nil, err
	}
	if err := s.flows.Save(f); err != nil {
		return nil, err
	}
	s.log.Info("mock updated", "flowId", f.ID, "groupId", f.GroupID)

	oldBroker, oldTopic, hadTrigger := old.KafkaTrigger()
	newBroker, newTopic, hasTrigger := f.KafkaTrigger()
	if hadTrigger && (!hasTrigger || oldBroker != newBroker || oldTopic != newTopic) {
		s.stopIfUnused(oldBroker, oldTopic, flowID)
	}
	s.startListener(f, broker)
	return detail(f), nil
}

// Get returns a flow as steps.
func (s *FlowService) Get(flowID string) (*MockDetail, error) {
	f, err := s.flows.FindByID(flowID)
	if err != nil {
		return nil, err
	}
	return detail(f), nil
}

// List returns the flows of a group, or every flow when groupID is empty.
func (s *FlowService) List(groupID string) ([]*MockDetail, error) {
	var (
		flows []*flow.Flow
		err   error
	)
	if groupID == "" {
		flows, err = s.flows.FindAll()
	} else {
		flows, err = s.flows.FindByGroup(groupID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]*MockDetail, 0, len(flows))
	for _, f := range flows {
		out = append(out, detail(f))
	}
	return out, nil
}

// Delete removes a flow. Its Kafka listener is stopped first unless another
// flow still consumes the same broker and topic.
func (s *FlowService) Delete(flowID string) error {
	f, err := s.flows.FindByID(flowID)
	if err != nil {
		return err
	}
	if brokerID, topic, ok := f.KafkaTrigger(); ok {
		s.stopIfUnused(brokerID, topic, flowID)
	}
	if err := s.flows.Delete(flowID); err != nil {
		return err
	}
	s.log.Info("mock deleted", "flowId", flowID)
	return nil
}

// build validates req and assembles the flow. For Kafka-triggered flows the
// broker is resolved before anything is persisted.
func (s *FlowService) build(flowID string, req *MockRequest) (*flow.Flow, *flow.KafkaBroker, error) {
	if req == nil {
		return nil, nil, apperr.BadRequest("Request body is required", nil)
	}
	if strings.TrimSpace(req.GroupID) == "" {
		return nil, nil, apperr.Validation(apperr.Check{Field: "groupId", Message: validation.MsgNotBlank})
	}
	if _, err := s.groups.Get(req.GroupID); err != nil {
		return nil, nil, err
	}

	elements, err := validation.Build(req.FlowSteps, id.UUID)
	if err != nil {
		return nil, nil, err
	}
	f := &flow.Flow{ID: flowID, GroupID: req.GroupID, Name: req.Name, Elements: elements}

	brokerID, _, ok := f.KafkaTrigger()
	if !ok {
		return f, nil, nil
	}
	broker, err := s.brokers.Get(brokerID)
	if err != nil {
		return nil, nil, err
	}
	return f, broker, nil
}

func (s *FlowService) startListener(f *flow.Flow, broker *flow.KafkaBroker) {
	if s.listeners == nil || broker == nil {
		return
	}
	_, topic, _ := f.KafkaTrigger()
	if err := s.listeners.Start(broker.URL, broker.ID, topic, ""); err != nil {
		s.log.Error("kafka listener not started", "flowId", f.ID, "brokerId", broker.ID, "topic", topic, "error", err)
	}
}

// stopIfUnused stops the listener for (brokerID, topic) when no flow other
// than excludeID triggers on it.
func (s *FlowService) stopIfUnused(brokerID, topic, excludeID string) {
	if s.listeners == nil {
		return
	}
	entries, err := s.flows.FindByKafkaTrigger(brokerID, topic)
	if err != nil {
		s.log.Error("kafka listener lookup failed", "brokerId", brokerID, "topic", topic, "error", err)
		return
	}
	for _, e := range entries {
		if e.FlowID != excludeID {
			return
		}
	}
	broker, err := s.brokers.Get(brokerID)
	if errors.Is(err, flowstore.ErrBrokerNotFound) {
		s.log.Warn("kafka listener not stopped: broker unknown", "brokerId", brokerID, "topic", topic)
		return
	}
	if err != nil {
		s.log.Error("kafka listener not stopped", "brokerId", brokerID, "topic", topic, "error", err)
		return
	}
	s.listeners.Stop(broker.URL, topic, "")
}

func detail(f *flow.Flow) *MockDetail {
	return &MockDetail{
		ID:        f.ID,
		GroupID:   f.GroupID,
		Name:      f.Name,
		FlowSteps: validation.Steps(f.Sorted()),
	}
}
