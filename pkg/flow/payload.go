package flow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ohler55/ojg/oj"
)

// Payload is the resolved output of an element. Fields exposes the payload
// as a navigable map for placeholders and condition expressions.
type Payload interface {
	Fields() map[string]any
}

// Data is a free-form payload.
type Data map[string]any

// Fields implements Payload.
func (d Data) Fields() map[string]any { return d }

// TriggerPayload is the inbound event that started a flow: an HTTP request
// or a consumed Kafka message.
type TriggerPayload struct {
	Header map[string]any
	Body   any
	// Path holds variables extracted from a templated trigger path.
	Path map[string]string
	// Param holds the first value of each query parameter.
	Param map[string]any
}

// Fields implements Payload.
func (t *TriggerPayload) Fields() map[string]any {
	path := make(map[string]any, len(t.Path))
	for k, v := range t.Path {
		path[k] = v
	}
	header := t.Header
	if header == nil {
		header = map[string]any{}
	}
	param := t.Param
	if param == nil {
		param = map[string]any{}
	}
	return map[string]any{
		"header": header,
		"body":   t.Body,
		"path":   path,
		"param":  param,
	}
}

// ConditionPayload carries a flow's condition expression.
type ConditionPayload struct {
	Expression string
}

func (p *ConditionPayload) Fields() map[string]any {
	return map[string]any{"expression": p.Expression}
}

// APIRequestPayload describes the HTTP trigger an element declares.
type APIRequestPayload struct {
	Method string
	Path   string
}

func (p *APIRequestPayload) Fields() map[string]any {
	return map[string]any{"method": p.Method, "path": p.Path}
}

// ResponsePayload is the synchronous HTTP response of a flow.
type ResponsePayload struct {
	Status  int
	Latency int
	// Header is a JSON object template of response headers.
	Header string
	Body   string
}

// Fields implements Payload. After rendering, body holds the resolved text
// parsed as JSON when possible so later steps can navigate into it.
func (p *ResponsePayload) Fields() map[string]any {
	return map[string]any{
		"status":  p.Status,
		"latency": p.Latency,
		"header":  ParseBody(p.Header),
		"body":    ParseBody(p.Body),
	}
}

// KafkaTriggerPayload describes the topic and broker a flow consumes.
type KafkaTriggerPayload struct {
	Topic  string
	Broker string
}

func (p *KafkaTriggerPayload) Fields() map[string]any {
	return map[string]any{"topic": p.Topic, "broker": p.Broker}
}

// CallbackPayload is an outbound HTTP call made after the response.
type CallbackPayload struct {
	Path    string
	Method  string
	Latency int
	Header  string
	Param   string
	Body    string
}

func (p *CallbackPayload) Fields() map[string]any {
	return map[string]any{
		"path":    p.Path,
		"method":  p.Method,
		"latency": p.Latency,
		"header":  ParseBody(p.Header),
		"param":   ParseBody(p.Param),
		"body":    ParseBody(p.Body),
	}
}

// PublisherPayload is an outbound Kafka message.
type PublisherPayload struct {
	Topic  string
	Broker string
	Body   string
}

func (p *PublisherPayload) Fields() map[string]any {
	return map[string]any{"topic": p.Topic, "broker": p.Broker, "body": ParseBody(p.Body)}
}

// VariablePayload is a JSON object template whose entries are upserted as
// global variables.
type VariablePayload struct {
	Variable string
}

func (p *VariablePayload) Fields() map[string]any {
	return map[string]any{"variable": ParseBody(p.Variable)}
}

type constructor func(Attributes) Payload

var constructors = map[ElementType]constructor{
	TypeCondition: func(as Attributes) Payload {
		return &ConditionPayload{Expression: as.String("expression")}
	},
	TypeAPITriggerRequest: func(as Attributes) Payload {
		return &APIRequestPayload{Method: strings.ToUpper(as.String("method")), Path: as.String("path")}
	},
	TypeAPIResponse: func(as Attributes) Payload {
		return &ResponsePayload{
			Status:  as.Int("status"),
			Latency: as.Int("latency"),
			Header:  as.String("header"),
			Body:    as.String("body"),
		}
	},
	TypeKafkaTrigger: func(as Attributes) Payload {
		return &KafkaTriggerPayload{Topic: as.String("topic"), Broker: as.String("broker")}
	},
	TypeCallbackAPI: func(as Attributes) Payload {
		return &CallbackPayload{
			Path:    as.String("path"),
			Method:  strings.ToUpper(as.String("method")),
			Latency: as.Int("latency"),
			Header:  as.String("header"),
			Param:   as.String("param"),
			Body:    as.String("body"),
		}
	},
	TypeKafkaPublisher: func(as Attributes) Payload {
		return &PublisherPayload{Topic: as.String("topic"), Broker: as.String("broker"), Body: as.String("body")}
	},
	TypeGlobalVariable: func(as Attributes) Payload {
		return &VariablePayload{Variable: as.String("variable")}
	},
}

// NewPayload builds the typed payload for an element from its attributes.
// Attributes not declared by the element type's schema are ignored.
func NewPayload(e Element) (Payload, error) {
	ctor, ok := constructors[e.Type]
	if !ok {
		return nil, fmt.Errorf("unknown element type %q", e.Type)
	}
	schema := schemas[e.Type]
	declared := make(Attributes, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		if _, ok := schema[a.Name]; ok {
			declared = append(declared, a)
		}
	}
	return ctor(declared), nil
}

// ParseBody parses text as JSON. Blank text yields nil; text that is not
// valid JSON is returned as the original string.
func ParseBody(text string) any {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	v, err := oj.ParseString(text)
	if err != nil {
		return text
	}
	return v
}

// ExecutionContext maps step order numbers to the payload each step produced.
// It is created per request and handed from the synchronous phase to the
// asynchronous one.
type ExecutionContext struct {
	mu    sync.RWMutex
	steps map[int]Payload
}

// NewExecutionContext returns an empty context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{steps: make(map[int]Payload)}
}

// Set records the payload produced by the step with the given order number.
func (c *ExecutionContext) Set(order int, p Payload) {
	c.mu.Lock()
	c.steps[order] = p
	c.mu.Unlock()
}

// Get returns the payload recorded for order.
func (c *ExecutionContext) Get(order int) (Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.steps[order]
	return p, ok
}

// Len returns the number of recorded steps.
func (c *ExecutionContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.steps)
}
