// Package kafka provides the Kafka transport used by flows: a factory for
// Watermill publishers and subscribers backed by sarama, and a producer pool
// that keeps one publisher per broker URL.
//
// Subscribers start from the newest offset and commit automatically.
// Publishers wait for all in-sync replicas, are idempotent and retry
// indefinitely. Sarama only allows idempotence with a single in-flight
// request per connection, so that limit is 1.
package kafka
