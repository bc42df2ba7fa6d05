package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetmock/jetmock/internal/storage"
	"github.com/jetmock/jetmock/pkg/config"
	"github.com/jetmock/jetmock/pkg/engine"
	"github.com/jetmock/jetmock/pkg/kafka/kafkatest"
	"github.com/jetmock/jetmock/pkg/metrics"
)

type testEnv struct {
	srv *engine.Server
	api *API
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	m, err := metrics.New()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Workers = 2
	srv := engine.NewServer(cfg, storage.NewMemoryStore(),
		engine.WithKafkaFactory(kafkatest.NewChannelFactory()),
		engine.WithMetrics(m),
	)
	t.Cleanup(func() { _ = srv.Listeners().Close() })
	return &testEnv{srv: srv, api: NewAPI("127.0.0.1:0", srv)}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	UUID    string `json:"uuid"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Checks  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"checks"`
}

func (e *testEnv) createGroup(t *testing.T, name string) GroupResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/groups", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[GroupResponse](t, rec)
}

const mockBody = `{
	"groupId": %q,
	"flowSteps": [
		{"elementName": "API_TRIGGER_REQUEST", "orderNumber": 1, "method": "GET", "path": "/ping"},
		{"elementName": "API_TRIGGER_RESPONSE", "orderNumber": 2, "status": 200, "latency": 0, "header": "{}", "body": "pong"}
	]
}`

func mockJSON(groupID string) string {
	return strings.Replace(mockBody, "%q", `"`+groupID+`"`, 1)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jetmock_kafka_active_listeners")
}

func TestPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/groups", nil)
	req.Header.Set("Origin", "http://ui.local")
	rec := httptest.NewRecorder()
	env.api.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestGroups(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGroup(t, "payments")
	assert.True(t, g.IsActive)
	assert.NotEmpty(t, g.ID)
	assert.False(t, g.CreatedAt.IsZero())

	rec := env.do(t, http.MethodPost, "/v1/groups", `{"name":"PAYMENTS"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "GROUP_ALREADY_EXISTS", decode[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/v1/groups", `{"name":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_EXCEPTION", decode[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/v1/mocks", mockJSON(g.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/groups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]GroupResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].MockCount)

	rec = env.do(t, http.MethodPatch, "/v1/groups/"+g.ID+"/status", `{"isActive":false}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/groups/"+g.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[GroupResponse](t, rec).IsActive)

	rec = env.do(t, http.MethodPatch, "/v1/groups/"+g.ID+"/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/v1/groups/"+g.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/groups/"+g.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "GROUP_NOT_FOUND", decode[errorBody](t, rec).Code)

	all, err := env.srv.Flows().FindAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMocks(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGroup(t, "orders")

	rec := env.do(t, http.MethodPost, "/v1/mocks", mockJSON(g.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[engine.MockDetail](t, rec)
	require.Len(t, created.FlowSteps, 2)
	assert.Equal(t, "API_TRIGGER_REQUEST", created.FlowSteps[0]["elementName"])

	rec = env.do(t, http.MethodGet, "/v1/mocks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[engine.MockDetail](t, rec)
	assert.Equal(t, "pong", got.FlowSteps[1]["body"])
	assert.EqualValues(t, 200, got.FlowSteps[1]["status"])

	rec = env.do(t, http.MethodGet, "/v1/mocks?groupId="+g.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]engine.MockDetail](t, rec), 1)

	update := strings.Replace(mockJSON(g.ID), `"pong"`, `"pong v2"`, 1)
	rec = env.do(t, http.MethodPut, "/v1/mocks/"+created.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pong v2", decode[engine.MockDetail](t, rec).FlowSteps[1]["body"])

	rec = env.do(t, http.MethodDelete, "/v1/mocks/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/mocks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MOCK_NOT_FOUND", decode[errorBody](t, rec).Code)
}

func TestMocks_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGroup(t, "orders")

	body := `{"groupId":"` + g.ID + `","flowSteps":[
		{"elementName":"API_TRIGGER_RESPONSE","orderNumber":1,"status":"200","header":"{}","body":"x","colour":"red"}
	]}`
	rec := env.do(t, http.MethodPost, "/v1/mocks", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	eb := decode[errorBody](t, rec)
	assert.Equal(t, "VALIDATION_EXCEPTION", eb.Code)
	assert.NotEmpty(t, eb.UUID)

	fields := map[string]string{}
	for _, c := range eb.Checks {
		fields[c.Field] = c.Message
	}
	assert.Equal(t, "data type must be INTEGER", fields["API_TRIGGER_RESPONSE.status"])
	assert.Equal(t, "must not be null", fields["API_TRIGGER_RESPONSE.latency"])
	assert.Equal(t, "Field 'colour' is not allowed for element type API_TRIGGER_RESPONSE", fields["colour"])

	rec = env.do(t, http.MethodPost, "/v1/mocks", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[errorBody](t, rec).Code)
}

func TestBrokersAndListeners(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGroup(t, "events")

	rec := env.do(t, http.MethodPost, "/v1/settings/kafka-brokers", `{"name":"local","url":"localhost:9092"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	broker := decode[struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}](t, rec)
	require.NotEmpty(t, broker.ID)

	rec = env.do(t, http.MethodPost, "/v1/settings/kafka-brokers", `{"name":"nourl"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/settings/kafka-brokers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	body := `{"groupId":"` + g.ID + `","flowSteps":[
		{"elementName":"KAFKA_TRIGGER","orderNumber":1,"topic":"orders","broker":"` + broker.ID + `"}
	]}`
	rec = env.do(t, http.MethodPost, "/v1/mocks", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/kafka/listeners", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listeners := decode[[]map[string]any](t, rec)
	require.Len(t, listeners, 1)
	assert.Equal(t, "localhost:9092", listeners[0]["brokerUrl"])
	assert.Equal(t, "orders", listeners[0]["topic"])
	assert.Equal(t, config.DefaultConsumerGroup, listeners[0]["groupId"])

	rec = env.do(t, http.MethodDelete, "/v1/settings/kafka-brokers/"+broker.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/settings/kafka-brokers/"+broker.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "KAFKA_BROKER_NOT_FOUND", decode[errorBody](t, rec).Code)
}

func TestGlobals(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/globals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[GlobalsResponse](t, rec).Variables)

	rec = env.do(t, http.MethodPut, "/v1/globals", `[{"key":"k","value":"v1"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPut, "/v1/globals", `[{"key":"k","value":"v2"},{"key":"n","value":3}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	vars := decode[GlobalsResponse](t, rec).Variables
	require.Len(t, vars, 2)
	assert.Equal(t, "k", vars[0].Key)
	assert.Equal(t, "v2", vars[0].Value)

	rec = env.do(t, http.MethodPut, "/v1/globals", `[{"key":"","value":1}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "variables[0].key", decode[errorBody](t, rec).Checks[0].Field)
}

func TestStartStop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.api.Start())
	assert.Error(t, env.api.Start())

	resp, err := http.Get("http://" + env.api.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, env.api.Stop())
	require.NoError(t, env.api.Stop())
}

func TestRequestHistory(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGroup(t, "orders")
	rec := env.do(t, http.MethodPost, "/v1/mocks", mockJSON(g.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, target := range []string{"/orders/ping", "/orders/missing", "/orders/ping?x=1"} {
		mockRec := httptest.NewRecorder()
		env.srv.Handler().ServeHTTP(mockRec, httptest.NewRequest(http.MethodGet, target, nil))
	}

	rec = env.do(t, http.MethodGet, "/v1/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[RequestListResponse](t, rec)
	require.Len(t, all.Requests, 3)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, "x=1", all.Requests[0].QueryString, "newest first")
	assert.Equal(t, "orders", all.Requests[0].Group)
	assert.Equal(t, "/ping", all.Requests[0].Path)
	assert.NotEmpty(t, all.Requests[0].MatchedFlowID)
	assert.Equal(t, http.StatusOK, all.Requests[0].ResponseStatus)

	rec = env.do(t, http.MethodGet, "/v1/requests?hasError=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	failed := decode[RequestListResponse](t, rec)
	require.Len(t, failed.Requests, 1)
	assert.Equal(t, "/missing", failed.Requests[0].Path)
	assert.Equal(t, http.StatusNotFound, failed.Requests[0].ResponseStatus)
	assert.Contains(t, failed.Requests[0].Error, "MOCK_NOT_FOUND")

	rec = env.do(t, http.MethodGet, "/v1/requests/"+failed.Requests[0].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/requests?limit=1&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[RequestListResponse](t, rec).Requests, 1)

	rec = env.do(t, http.MethodGet, "/v1/requests?limit=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/v1/requests", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/requests/req-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "REQUEST_NOT_FOUND", decode[errorBody](t, rec).Code)
}
