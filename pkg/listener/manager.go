// Package listener owns the Kafka consumers started for flows with a
// KAFKA_TRIGGER element.
//
// One consumer runs per (broker URL, topic, consumer group). Start is
// idempotent and safe to call concurrently: the registry slot is reserved
// under the lock before the consumer is created, so racing callers never
// start a second consumer for the same key.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jetmock/jetmock/pkg/kafka"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/metrics"
)

// Handler receives every message consumed by a listener.
type Handler func(ctx context.Context, brokerID, topic string, payload []byte)

// Key identifies a listener.
type Key struct {
	BrokerURL string
	Topic     string
	GroupID   string
}

// String renders the key as brokerUrl|topic|groupId.
func (k Key) String() string {
	return k.BrokerURL + "|" + k.Topic + "|" + k.GroupID
}

// ActiveListener is a snapshot of one registered consumer.
type ActiveListener struct {
	BrokerURL string `json:"brokerUrl"`
	BrokerID  string `json:"brokerId"`
	Topic     string `json:"topic"`
	GroupID   string `json:"groupId"`
	Running   bool   `json:"running"`
}

type listener struct {
	key      Key
	brokerID string

	ctx    context.Context
	cancel context.CancelFunc

	// started is closed once the start attempt finished, successfully or not.
	started chan struct{}
	// done is closed when the consume loop exits.
	done    chan struct{}
	sub     message.Subscriber
	running atomic.Bool
}

// Manager is the registry of running listeners.
type Manager struct {
	factory kafka.Factory
	handler Handler
	groupID string
	log     *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	listeners map[string]*listener
	closed    bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMetrics records the active listener count.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithGroupID overrides the default consumer group.
func WithGroupID(groupID string) Option {
	return func(m *Manager) {
		if groupID != "" {
			m.groupID = groupID
		}
	}
}

// NewManager creates a Manager whose listeners hand messages to handler.
func NewManager(factory kafka.Factory, handler Handler, opts ...Option) *Manager {
	m := &Manager{
		factory:   factory,
		handler:   handler,
		groupID:   kafka.DefaultConsumerGroup,
		log:       logging.Nop(),
		listeners: make(map[string]*listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GroupID returns the consumer group listeners join by default.
func (m *Manager) GroupID() string {
	return m.groupID
}

// Start runs a consumer for (brokerURL, topic, groupID) unless one is
// already registered. An empty groupID selects the manager's default.
func (m *Manager) Start(brokerURL, brokerID, topic, groupID string) error {
	if strings.TrimSpace(brokerURL) == "" {
		return kafka.ErrEmptyBrokerURL
	}
	if topic == "" {
		return errors.New("kafka topic is empty")
	}
	if groupID == "" {
		groupID = m.groupID
	}
	key := Key{BrokerURL: brokerURL, Topic: topic, GroupID: groupID}

	ctx, cancel := context.WithCancel(context.Background())
	l := &listener{
		key:      key,
		brokerID: brokerID,
		ctx:      ctx,
		cancel:   cancel,
		started:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return errors.New("listener manager closed")
	}
	if _, exists := m.listeners[key.String()]; exists {
		m.mu.Unlock()
		cancel()
		return nil
	}
	m.listeners[key.String()] = l
	m.mu.Unlock()

	err := m.run(l)
	close(l.started)
	if err != nil {
		cancel()
		m.mu.Lock()
		if m.listeners[key.String()] == l {
			delete(m.listeners, key.String())
		}
		m.mu.Unlock()
		return fmt.Errorf("start listener %s: %w", key, err)
	}

	m.log.Info("kafka listener started", "brokerUrl", brokerURL, "brokerId", brokerID, "topic", topic, "groupId", groupID)
	m.updateGauge()
	return nil
}

func (m *Manager) run(l *listener) error {
	sub, err := m.factory.NewSubscriber(l.key.BrokerURL, l.key.GroupID)
	if err != nil {
		return err
	}
	msgs, err := sub.Subscribe(l.ctx, l.key.Topic)
	if err != nil {
		_ = sub.Close()
		return err
	}
	l.sub = sub
	l.running.Store(true)

	go func() {
		defer close(l.done)
		defer l.running.Store(false)
		for msg := range msgs {
			m.dispatch(l, msg)
			msg.Ack()
		}
	}()
	return nil
}

func (m *Manager) dispatch(l *listener, msg *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("kafka message handler panicked", "topic", l.key.Topic, "brokerId", l.brokerID, "panic", r)
		}
	}()
	if m.handler != nil {
		m.handler(l.ctx, l.brokerID, l.key.Topic, msg.Payload)
	}
}

// Stop stops and removes the consumer for the key, if any.
func (m *Manager) Stop(brokerURL, topic, groupID string) {
	if groupID == "" {
		groupID = m.groupID
	}
	key := Key{BrokerURL: brokerURL, Topic: topic, GroupID: groupID}

	m.mu.Lock()
	l, ok := m.listeners[key.String()]
	if ok {
		delete(m.listeners, key.String())
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.shutdown(l)
	m.log.Info("kafka listener stopped", "brokerUrl", brokerURL, "topic", topic, "groupId", groupID)
	m.updateGauge()
}

// Restart stops then starts the consumer for the key.
func (m *Manager) Restart(brokerURL, brokerID, topic, groupID string) error {
	m.Stop(brokerURL, topic, groupID)
	return m.Start(brokerURL, brokerID, topic, groupID)
}

// IsActive reports whether a consumer is registered for the key.
func (m *Manager) IsActive(brokerURL, topic, groupID string) bool {
	if groupID == "" {
		groupID = m.groupID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.listeners[Key{BrokerURL: brokerURL, Topic: topic, GroupID: groupID}.String()]
	return ok
}

// ListActive returns a snapshot of every registered consumer ordered by key.
func (m *Manager) ListActive() []ActiveListener {
	m.mu.Lock()
	out := make([]ActiveListener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, ActiveListener{
			BrokerURL: l.key.BrokerURL,
			BrokerID:  l.brokerID,
			Topic:     l.key.Topic,
			GroupID:   l.key.GroupID,
			Running:   l.running.Load(),
		})
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b ActiveListener) int {
		return strings.Compare(
			Key{a.BrokerURL, a.Topic, a.GroupID}.String(),
			Key{b.BrokerURL, b.Topic, b.GroupID}.String(),
		)
	})
	return out
}

// Close stops every consumer. Start fails afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	all := make([]*listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		all = append(all, l)
	}
	clear(m.listeners)
	m.mu.Unlock()

	for _, l := range all {
		m.shutdown(l)
	}
	m.updateGauge()
	return nil
}

func (m *Manager) shutdown(l *listener) {
	<-l.started
	l.cancel()
	if l.sub == nil {
		return
	}
	if err := l.sub.Close(); err != nil {
		m.log.Warn("closing kafka subscriber failed", "brokerUrl", l.key.BrokerURL, "topic", l.key.Topic, "error", err)
	}
	<-l.done
}

func (m *Manager) updateGauge() {
	m.mu.Lock()
	n := len(m.listeners)
	m.mu.Unlock()
	m.metrics.SetActiveListeners(n)
}
