package requestlog

import "time"

// Trigger kinds.
const (
	TriggerHTTP  = "http"
	TriggerKafka = "kafka"
)

// MaxBodySize is the number of body bytes kept on an entry.
const MaxBodySize = 10 * 1024

// Entry captures one dispatched request or message.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request or message was received.
	Timestamp time.Time `json:"timestamp"`

	// Trigger is "http" or "kafka".
	Trigger string `json:"trigger"`

	// Group is the group name from the first path segment (HTTP only).
	Group string `json:"group,omitempty"`

	// Method and Path describe an HTTP request. Path excludes the group segment.
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`

	// QueryString is the raw query string (HTTP only).
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (HTTP only).
	Headers map[string][]string `json:"headers,omitempty"`

	// BrokerID and Topic describe a consumed Kafka message.
	BrokerID string `json:"brokerId,omitempty"`
	Topic    string `json:"topic,omitempty"`

	// Body is the request body or message payload, truncated to MaxBodySize.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address (HTTP only).
	RemoteAddr string `json:"remoteAddr,omitempty"`

	// MatchedFlowID is the flow that handled the trigger, empty on no match.
	MatchedFlowID string `json:"matchedFlowId,omitempty"`

	// ResponseStatus is the HTTP status returned. Zero for Kafka.
	ResponseStatus int `json:"responseStatus,omitempty"`

	// DurationMs is the time spent on the synchronous part of the flow.
	DurationMs int `json:"durationMs"`

	// Error is set when dispatch failed.
	Error string `json:"error,omitempty"`
}

// SetBody stores body on the entry, truncating it to MaxBodySize.
func (e *Entry) SetBody(body []byte) {
	e.BodySize = len(body)
	if len(body) > MaxBodySize {
		body = body[:MaxBodySize]
	}
	e.Body = string(body)
}
