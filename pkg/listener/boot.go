package listener

import (
	"github.com/jetmock/jetmock/pkg/flow"
)

// TriggerSource lists persisted Kafka trigger index rows and resolves the
// flows they point at.
type TriggerSource interface {
	FindAllKafkaTriggers() ([]flow.MatchEntry, error)
	FindByID(id string) (*flow.Flow, error)
}

// BrokerResolver resolves broker ids to broker settings.
type BrokerResolver interface {
	Get(id string) (*flow.KafkaBroker, error)
}

// Boot starts a listener for every persisted Kafka trigger. A trigger whose
// flow is gone, whose broker cannot be resolved or whose listener fails to start is logged and
// skipped. It returns the number of listeners started.
func (m *Manager) Boot(src TriggerSource, brokers BrokerResolver) (int, error) {
	entries, err := src.FindAllKafkaTriggers()
	if err != nil {
		return 0, err
	}

	started := 0
	for _, e := range entries {
		if _, err := src.FindByID(e.FlowID); err != nil {
			m.log.Warn("kafka listener not started: flow unresolved", "flowId", e.FlowID, "topic", e.Topic, "error", err)
			continue
		}
		broker, err := brokers.Get(e.BrokerID)
		if err != nil {
			m.log.Error("kafka listener not started: broker unresolved", "flowId", e.FlowID, "brokerId", e.BrokerID, "error", err)
			continue
		}
		if m.IsActive(broker.URL, e.Topic, "") {
			continue
		}
		if err := m.Start(broker.URL, broker.ID, e.Topic, ""); err != nil {
			m.log.Error("kafka listener not started", "flowId", e.FlowID, "brokerId", e.BrokerID, "topic", e.Topic, "error", err)
			continue
		}
		started++
	}
	m.log.Info("kafka listeners restored", "triggers", len(entries), "started", started)
	return started, nil
}
