package kafka

import (
	"errors"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ErrEmptyBrokerURL is returned when a broker URL is blank.
var ErrEmptyBrokerURL = errors.New("kafka broker url is empty")

// Factory creates publishers and subscribers for a broker URL.
type Factory interface {
	NewPublisher(brokerURL string) (message.Publisher, error)
	NewSubscriber(brokerURL, groupID string) (message.Subscriber, error)
}

// SaramaFactory creates Watermill Kafka publishers and subscribers.
type SaramaFactory struct {
	ClientID string
	Logger   watermill.LoggerAdapter
}

// NewPublisher creates a synchronous publisher for brokerURL.
func (f *SaramaFactory) NewPublisher(brokerURL string) (message.Publisher, error) {
	brokers, err := Brokers(brokerURL)
	if err != nil {
		return nil, err
	}
	return kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: PublisherSaramaConfig(f.ClientID),
	}, f.logger())
}

// NewSubscriber creates a consumer-group subscriber for brokerURL.
func (f *SaramaFactory) NewSubscriber(brokerURL, groupID string) (message.Subscriber, error) {
	brokers, err := Brokers(brokerURL)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		groupID = DefaultConsumerGroup
	}
	return kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		ConsumerGroup:         groupID,
		OverwriteSaramaConfig: SubscriberSaramaConfig(f.ClientID),
	}, f.logger())
}

func (f *SaramaFactory) logger() watermill.LoggerAdapter {
	if f.Logger == nil {
		return watermill.NopLogger{}
	}
	return f.Logger
}

// Brokers splits a comma-separated broker URL list.
func Brokers(brokerURL string) ([]string, error) {
	var out []string
	for _, b := range strings.Split(brokerURL, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyBrokerURL
	}
	return out, nil
}
