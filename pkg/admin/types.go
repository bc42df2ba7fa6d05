package admin

import (
	"time"

	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/requestlog"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	Uptime          int    `json:"uptime"`
	ActiveListeners int    `json:"activeListeners"`
}

// GroupRequest creates a group.
type GroupRequest struct {
	Name string `json:"name"`
}

// GroupStatusRequest toggles a group.
type GroupStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

// GroupResponse is a group with its flow count.
type GroupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	MockCount int       `json:"mockCount"`
	IsActive  bool      `json:"isActive"`
}

// BrokerRequest registers a Kafka broker.
type BrokerRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GlobalsResponse lists global variables.
type GlobalsResponse struct {
	Variables []flow.GlobalVariable `json:"variables"`
}

// RequestListResponse is returned by GET /v1/requests.
type RequestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Total    int                 `json:"total"`
}
