// Package kafkatest provides an in-process stand-in for Kafka built on
// Watermill's gochannel pub/sub.
package kafkatest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ChannelFactory hands out publishers and subscribers backed by one
// gochannel per broker URL. It satisfies kafka.Factory.
type ChannelFactory struct {
	mu    sync.Mutex
	buses map[string]*gochannel.GoChannel

	publishers  atomic.Int32
	subscribers atomic.Int32

	// Err, when set, is returned by every constructor.
	Err error
}

// NewChannelFactory creates an empty factory.
func NewChannelFactory() *ChannelFactory {
	return &ChannelFactory{buses: make(map[string]*gochannel.GoChannel)}
}

// Bus returns the gochannel standing in for brokerURL.
func (f *ChannelFactory) Bus(brokerURL string) *gochannel.GoChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	bus, ok := f.buses[brokerURL]
	if !ok {
		bus = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
		f.buses[brokerURL] = bus
	}
	return bus
}

// NewPublisher implements kafka.Factory.
func (f *ChannelFactory) NewPublisher(brokerURL string) (message.Publisher, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.publishers.Add(1)
	return publisher{bus: f.Bus(brokerURL)}, nil
}

// NewSubscriber implements kafka.Factory.
func (f *ChannelFactory) NewSubscriber(brokerURL, _ string) (message.Subscriber, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.subscribers.Add(1)
	return subscriber{bus: f.Bus(brokerURL)}, nil
}

// Publishers returns how many publishers were created.
func (f *ChannelFactory) Publishers() int { return int(f.publishers.Load()) }

// Subscribers returns how many subscribers were created.
func (f *ChannelFactory) Subscribers() int { return int(f.subscribers.Load()) }

// Close shuts down every bus.
func (f *ChannelFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, bus := range f.buses {
		_ = bus.Close()
	}
	clear(f.buses)
	return nil
}

// publisher and subscriber leave the shared bus open on Close so one
// component shutting down does not cut off the others.
type publisher struct{ bus *gochannel.GoChannel }

func (p publisher) Publish(topic string, msgs ...*message.Message) error {
	return p.bus.Publish(topic, msgs...)
}

func (p publisher) Close() error { return nil }

type subscriber struct{ bus *gochannel.GoChannel }

func (s subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.bus.Subscribe(ctx, topic)
}

func (s subscriber) Close() error { return nil }
