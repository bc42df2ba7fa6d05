// Package admin provides the REST API for managing flows and their
// supporting settings at runtime.
//
// Endpoints:
//
//	GET    /health                            - Health check
//	GET    /metrics                           - Prometheus metrics
//	POST   /v1/mocks                          - Create a flow
//	GET    /v1/mocks?groupId=                 - List flows, optionally by group
//	GET    /v1/mocks/{id}                     - Get a flow as ordered steps
//	PUT    /v1/mocks/{id}                     - Replace a flow
//	DELETE /v1/mocks/{id}                     - Delete a flow
//	POST   /v1/groups                         - Create a group
//	GET    /v1/groups                         - List groups with mock counts
//	GET    /v1/groups/{id}                    - Get a group
//	PATCH  /v1/groups/{id}/status             - Activate or deactivate a group
//	DELETE /v1/groups/{id}                    - Delete a group and its flows
//	POST   /v1/settings/kafka-brokers         - Register a Kafka broker
//	GET    /v1/settings/kafka-brokers         - List brokers
//	GET    /v1/settings/kafka-brokers/{id}    - Get a broker
//	DELETE /v1/settings/kafka-brokers/{id}    - Delete a broker
//	GET    /v1/globals                        - List global variables
//	PUT    /v1/globals                        - Upsert global variables
//	GET    /v1/requests                       - Dispatch history, newest first
//	GET    /v1/requests/{id}                  - Get a history entry
//	DELETE /v1/requests                       - Clear the history
//	GET    /api/v1/kafka/listeners            - List active Kafka listeners
//
// Errors are returned as {uuid, code, message, checks}.
//
// Usage:
//
//	srv := engine.NewServer(cfg, store)
//	api := admin.NewAPI(cfg.AdminAddr(), srv, admin.WithLogger(log))
//	api.Start()
//	defer api.Stop()
//
// Example:
//
//	curl -X POST http://localhost:4290/v1/groups -d '{"name":"payments"}'
package admin
