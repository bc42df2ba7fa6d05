package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jetmock/jetmock/pkg/logging"
)

// ErrProducersClosed is returned by Publish after Close.
var ErrProducersClosed = errors.New("kafka producers closed")

// Producers keeps one publisher per broker URL, created on first use.
type Producers struct {
	factory Factory
	log     *slog.Logger

	mu     sync.Mutex
	pubs   map[string]message.Publisher
	closed bool
}

// NewProducers creates an empty producer pool.
func NewProducers(factory Factory, log *slog.Logger) *Producers {
	if log == nil {
		log = logging.Nop()
	}
	return &Producers{
		factory: factory,
		log:     log,
		pubs:    make(map[string]message.Publisher),
	}
}

// Publish sends payload to topic on brokerURL.
func (p *Producers) Publish(ctx context.Context, brokerURL, topic string, payload []byte) error {
	if topic == "" {
		return errors.New("kafka topic is empty")
	}
	pub, err := p.publisher(brokerURL)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s on %s: %w", topic, brokerURL, err)
	}
	p.log.Debug("kafka message published", "brokerUrl", brokerURL, "topic", topic, "messageId", msg.UUID)
	return nil
}

// Len returns the number of cached publishers.
func (p *Producers) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pubs)
}

// Close closes every cached publisher.
func (p *Producers) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for url, pub := range p.pubs {
		if err := pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher %s: %w", url, err))
		}
	}
	clear(p.pubs)
	return errors.Join(errs...)
}

func (p *Producers) publisher(brokerURL string) (message.Publisher, error) {
	if brokerURL == "" {
		return nil, ErrEmptyBrokerURL
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrProducersClosed
	}
	if pub, ok := p.pubs[brokerURL]; ok {
		return pub, nil
	}
	pub, err := p.factory.NewPublisher(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("create publisher for %s: %w", brokerURL, err)
	}
	p.pubs[brokerURL] = pub
	p.log.Info("kafka publisher created", "brokerUrl", brokerURL)
	return pub, nil
}
