package listener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/kafka"
	"github.com/jetmock/jetmock/pkg/kafka/kafkatest"
)

type received struct {
	brokerID string
	topic    string
	payload  string
}

func collector() (Handler, <-chan received) {
	ch := make(chan received, 16)
	return func(_ context.Context, brokerID, topic string, payload []byte) {
		ch <- received{brokerID, topic, string(payload)}
	}, ch
}

func publish(t *testing.T, f *kafkatest.ChannelFactory, url, topic, payload string) {
	t.Helper()
	require.NoError(t, f.Bus(url).Publish(topic, message.NewMessage(watermill.NewUUID(), []byte(payload))))
}

func TestManagerStartDispatches(t *testing.T) {
	factory := kafkatest.NewChannelFactory()
	defer factory.Close()
	handler, got := collector()

	m := NewManager(factory, handler)
	defer m.Close()

	require.NoError(t, m.Start("broker:9092", "b1", "orders", ""))
	publish(t, factory, "broker:9092", "orders", `{"id":1}`)

	select {
	case r := <-got:
		assert.Equal(t, received{"b1", "orders", `{"id":1}`}, r)
	case <-time.After(2 * time.Second):
		t.Fatal("message not dispatched")
	}

	active := m.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, ActiveListener{
		BrokerURL: "broker:9092",
		BrokerID:  "b1",
		Topic:     "orders",
		GroupID:   kafka.DefaultConsumerGroup,
		Running:   true,
	}, active[0])
}

func TestManagerConcurrentStartIsIdempotent(t *testing.T) {
	factory := kafkatest.NewChannelFactory()
	defer factory.Close()
	m := NewManager(factory, nil)
	defer m.Close()

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Start("broker:9092", "b1", "orders", "g"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, factory.Subscribers())
	assert.Len(t, m.ListActive(), 1)
}

func TestManagerStopAndRestart(t *testing.T) {
	factory := kafkatest.NewChannelFactory()
	defer factory.Close()
	handler, got := collector()
	m := NewManager(factory, handler, WithGroupID("custom"))
	defer m.Close()

	assert.Equal(t, "custom", m.GroupID())
	require.NoError(t, m.Start("broker:9092", "b1", "orders", ""))
	assert.True(t, m.IsActive("broker:9092", "orders", "custom"))

	m.Stop("broker:9092", "orders", "")
	assert.False(t, m.IsActive("broker:9092", "orders", ""))
	assert.Empty(t, m.ListActive())
	m.Stop("broker:9092", "orders", "") // no-op

	require.NoError(t, m.Restart("broker:9092", "b1", "orders", ""))
	require.NoError(t, m.Restart("broker:9092", "b1", "orders", ""))
	assert.Equal(t, 3, factory.Subscribers())
	assert.Len(t, m.ListActive(), 1)

	publish(t, factory, "broker:9092", "orders", "after restart")
	select {
	case r := <-got:
		assert.Equal(t, "after restart", r.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("message not dispatched after restart")
	}
}

func TestManagerStartFailureReleasesSlot(t *testing.T) {
	factory := kafkatest.NewChannelFactory()
	defer factory.Close()
	factory.Err = errors.New("no brokers")
	m := NewManager(factory, nil)
	defer m.Close()

	err := m.Start("broker:9092", "b1", "orders", "")
	require.Error(t, err)
	assert.Empty(t, m.ListActive())

	factory.Err = nil
	require.NoError(t, m.Start("broker:9092", "b1", "orders", ""))
	assert.Len(t, m.ListActive(), 1)
}

func TestManagerRejectsBadArguments(t *testing.T) {
	m := NewManager(kafkatest.NewChannelFactory(), nil)
	assert.ErrorIs(t, m.Start("", "b1", "t", ""), kafka.ErrEmptyBrokerURL)
	assert.Error(t, m.Start("broker", "b1", "", ""))

	require.NoError(t, m.Close())
	assert.Error(t, m.Start("broker", "b1", "t", ""))
}

func TestManagerHandlerPanicDoesNotStopListener(t *testing.T) {
	factory := kafkatest.NewChannelFactory()
	defer factory.Close()
	calls := make(chan string, 4)
	m := NewManager(factory, func(_ context.Context, _, _ string, payload []byte) {
		calls <- string(payload)
		if string(payload) == "boom" {
			panic("handler failed")
		}
	})
	defer m.Close()

	require.NoError(t, m.Start("broker", "b1", "t", ""))
	publish(t, factory, "broker", "t", "boom")
	publish(t, factory, "broker", "t", "next")

	// gochannel delivers each message from its own goroutine, so arrival
	// order is not fixed.
	var got []string
	for range 2 {
		select {
		case payload := <-calls:
			got = append(got, payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("handler called %d times, want 2", len(got))
		}
	}
	assert.ElementsMatch(t, []string{"boom", "next"}, got)
}

type fakeTriggers []flow.MatchEntry

func (f fakeTriggers) FindAllKafkaTriggers() ([]flow.MatchEntry, error) { return f, nil }

// FindByID knows every flow except those with a "stale" prefix.
func (f fakeTriggers) FindByID(id string) (*flow.Flow, error) {
	if strings.HasPrefix(id, "stale") {
		return nil, fmt.Errorf("flow %s not found", id)
	}
	return &flow.Flow{ID: id}, nil
}

type fakeBrokers map[string]string

func (f fakeBrokers) Get(id string) (*flow.KafkaBroker, error) {
	url, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("broker %s not found", id)
	}
	return &flow.KafkaBroker{ID: id, URL: url}, nil
}

func TestManagerBoot(t *testing.T) {
	factory := kafkatest.NewChannelFactory()
	defer factory.Close()
	m := NewManager(factory, nil)
	defer m.Close()

	triggers := fakeTriggers{
		{FlowID: "f1", BrokerID: "b1", Topic: "orders"},
		{FlowID: "f2", BrokerID: "b1", Topic: "orders"},
		{FlowID: "f3", BrokerID: "b1", Topic: "payments"},
		{FlowID: "f4", BrokerID: "missing", Topic: "orders"},
		{FlowID: "stale-1", BrokerID: "b1", Topic: "refunds"},
	}
	started, err := m.Boot(triggers, fakeBrokers{"b1": "broker:9092"})
	require.NoError(t, err)
	assert.Equal(t, 2, started)

	active := m.ListActive()
	require.Len(t, active, 2)
	assert.Equal(t, "orders", active[0].Topic)
	assert.Equal(t, "payments", active[1].Topic)
}
