package flow

import (
	"slices"
	"strings"
	"time"
)

// ElementType identifies what an element does inside a flow.
type ElementType string

const (
	TypeCondition         ElementType = "CONDITION"
	TypeAPITriggerRequest ElementType = "API_TRIGGER_REQUEST"
	TypeAPIResponse       ElementType = "API_TRIGGER_RESPONSE"
	TypeKafkaTrigger      ElementType = "KAFKA_TRIGGER"
	TypeCallbackAPI       ElementType = "CALLBACK_API"
	TypeKafkaPublisher    ElementType = "KAFKA_PUBLISHER"
	TypeGlobalVariable    ElementType = "GLOBAL_VARIABLE"
)

// Flow is a named, ordered sequence of elements defining one mock behavior.
type Flow struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"groupId"`
	Name     string    `json:"name,omitempty"`
	Elements []Element `json:"flowElements"`
}

// Element is one typed, ordered step of a flow.
type Element struct {
	ID          string      `json:"id"`
	Type        ElementType `json:"name"`
	OrderNumber int         `json:"orderNumber"`
	Attributes  Attributes  `json:"attributes"`
}

// Find returns the first element of the given type.
func (f *Flow) Find(t ElementType) (Element, bool) {
	for _, e := range f.Elements {
		if e.Type == t {
			return e, true
		}
	}
	return Element{}, false
}

// Sorted returns a copy of the elements ordered by ascending order number.
func (f *Flow) Sorted() []Element {
	out := slices.Clone(f.Elements)
	slices.SortStableFunc(out, func(a, b Element) int {
		return a.OrderNumber - b.OrderNumber
	})
	return out
}

// Condition returns the flow's condition expression, or "" when it has none.
func (f *Flow) Condition() string {
	e, ok := f.Find(TypeCondition)
	if !ok {
		return ""
	}
	return e.Attributes.String("expression")
}

// APITrigger returns the method and path of the flow's HTTP trigger.
func (f *Flow) APITrigger() (method, path string, ok bool) {
	e, found := f.Find(TypeAPITriggerRequest)
	if !found {
		return "", "", false
	}
	method = strings.ToUpper(e.Attributes.String("method"))
	path = e.Attributes.String("path")
	if method == "" || path == "" {
		return "", "", false
	}
	return method, path, true
}

// KafkaTrigger returns the broker id and topic of the flow's Kafka trigger.
func (f *Flow) KafkaTrigger() (brokerID, topic string, ok bool) {
	e, found := f.Find(TypeKafkaTrigger)
	if !found {
		return "", "", false
	}
	brokerID = e.Attributes.String("broker")
	topic = e.Attributes.String("topic")
	if brokerID == "" || topic == "" {
		return "", "", false
	}
	return brokerID, topic, true
}

// MatchEntry is the lightweight projection of a flow stored under the match
// indexes, so candidate selection never loads full flows.
type MatchEntry struct {
	FlowID     string `json:"id"`
	Expression string `json:"expression,omitempty"`
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
	BrokerID   string `json:"brokerId,omitempty"`
	Topic      string `json:"topic,omitempty"`
}

// HasCondition reports whether the entry carries a non-blank expression.
func (m MatchEntry) HasCondition() bool {
	return strings.TrimSpace(m.Expression) != ""
}

// Group is a namespace selected by the first segment of a mocked URL.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// KafkaBroker is a broker referenced by id from Kafka elements.
type KafkaBroker struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// GlobalVariable is a process-wide named value.
type GlobalVariable struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// IsDynamicPath reports whether any segment of path is a ':'-prefixed variable.
func IsDynamicPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ":") {
			return true
		}
	}
	return false
}
