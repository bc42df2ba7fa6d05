package kafka

import (
	"math"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

// DefaultConsumerGroup is the consumer group every flow listener joins.
const DefaultConsumerGroup = "group-ms-mock"

// minVersion is the lowest protocol version supporting idempotent producers.
var minVersion = sarama.V2_1_0_0

// SubscriberSaramaConfig returns the consumer settings for flow listeners.
func SubscriberSaramaConfig(clientID string) *sarama.Config {
	cfg := kafka.DefaultSaramaSubscriberConfig()
	cfg.Version = minVersion
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Offsets.AutoCommit.Enable = true
	if clientID != "" {
		cfg.ClientID = clientID
	}
	return cfg
}

// PublisherSaramaConfig returns the producer settings for KAFKA_PUBLISHER
// steps.
func PublisherSaramaConfig(clientID string) *sarama.Config {
	cfg := kafka.DefaultSaramaSyncPublisherConfig()
	cfg.Version = minVersion
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Retry.Max = math.MaxInt32
	cfg.Net.MaxOpenRequests = 1
	if clientID != "" {
		cfg.ClientID = clientID
	}
	return cfg
}
