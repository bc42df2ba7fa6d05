package matching

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jetmock/jetmock/pkg/flow"
)

// Headers flattens request headers into a map keyed by lowercase name,
// keeping the first value of each header.
func Headers(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		out[strings.ToLower(name)] = values[0]
	}
	return out
}

// QueryParams flattens query parameters, keeping the first value of each.
func QueryParams(q url.Values) map[string]any {
	out := make(map[string]any, len(q))
	for name, values := range q {
		if len(values) == 0 {
			continue
		}
		out[name] = values[0]
	}
	return out
}

// Body decodes a request or message body: JSON when it parses, the raw
// text otherwise, nil when empty.
func Body(raw []byte) any {
	return flow.ParseBody(string(raw))
}

// HTTPTrigger builds the trigger payload of an HTTP request.
func HTTPTrigger(r *http.Request, body []byte, pathVars map[string]string) *flow.TriggerPayload {
	return &flow.TriggerPayload{
		Header: Headers(r.Header),
		Body:   Body(body),
		Path:   pathVars,
		Param:  QueryParams(r.URL.Query()),
	}
}

// KafkaTrigger builds the trigger payload of a consumed Kafka message. The
// header exposes the topic and the broker id the message arrived on.
func KafkaTrigger(brokerID, topic string, payload []byte) *flow.TriggerPayload {
	return &flow.TriggerPayload{
		Header: map[string]any{"topic": topic, "brokerId": brokerID},
		Body:   Body(payload),
	}
}
