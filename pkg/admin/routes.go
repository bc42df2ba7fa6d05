// Route registration for the Admin API.

package admin

import (
	"net/http"
)

// registerRoutes sets up all API routes.
func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.Handle("GET /metrics", a.backend.Metrics().Handler())

	// Flows
	mux.HandleFunc("POST /v1/mocks", a.handleCreateMock)
	mux.HandleFunc("GET /v1/mocks", a.handleListMocks)
	mux.HandleFunc("GET /v1/mocks/{id}", a.handleGetMock)
	mux.HandleFunc("PUT /v1/mocks/{id}", a.handleUpdateMock)
	mux.HandleFunc("DELETE /v1/mocks/{id}", a.handleDeleteMock)

	// Groups
	mux.HandleFunc("POST /v1/groups", a.handleCreateGroup)
	mux.HandleFunc("GET /v1/groups", a.handleListGroups)
	mux.HandleFunc("GET /v1/groups/{id}", a.handleGetGroup)
	mux.HandleFunc("PATCH /v1/groups/{id}/status", a.handleUpdateGroupStatus)
	mux.HandleFunc("DELETE /v1/groups/{id}", a.handleDeleteGroup)

	// Kafka brokers
	mux.HandleFunc("POST /v1/settings/kafka-brokers", a.handleCreateBroker)
	mux.HandleFunc("GET /v1/settings/kafka-brokers", a.handleListBrokers)
	mux.HandleFunc("GET /v1/settings/kafka-brokers/{id}", a.handleGetBroker)
	mux.HandleFunc("DELETE /v1/settings/kafka-brokers/{id}", a.handleDeleteBroker)

	// Global variables
	mux.HandleFunc("GET /v1/globals", a.handleListGlobals)
	mux.HandleFunc("PUT /v1/globals", a.handleUpsertGlobals)

	// Request history
	mux.HandleFunc("GET /v1/requests", a.handleListRequests)
	mux.HandleFunc("GET /v1/requests/{id}", a.handleGetRequest)
	mux.HandleFunc("DELETE /v1/requests", a.handleClearRequests)

	// Kafka listeners
	mux.HandleFunc("GET /api/v1/kafka/listeners", a.handleListListeners)
}
