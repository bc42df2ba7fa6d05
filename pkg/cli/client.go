package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jetmock/jetmock/pkg/admin"
	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/engine"
	"github.com/jetmock/jetmock/pkg/listener"
)

// AdminClient talks to a running jetmock admin API.
type AdminClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAdminClient creates a client for the admin API at baseURL.
func NewAdminClient(baseURL string) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Health checks that the server answers.
func (c *AdminClient) Health() (*admin.HealthResponse, error) {
	var out admin.HealthResponse
	if err := c.do(http.MethodGet, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMocks returns all flows, or only those of groupID when it is set.
func (c *AdminClient) ListMocks(groupID string) ([]*engine.MockDetail, error) {
	path := "/v1/mocks"
	if groupID != "" {
		path += "?groupId=" + url.QueryEscape(groupID)
	}
	var out []*engine.MockDetail
	if err := c.do(http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMock returns a single flow.
func (c *AdminClient) GetMock(id string) (*engine.MockDetail, error) {
	var out engine.MockDetail
	if err := c.do(http.MethodGet, "/v1/mocks/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMock deletes a flow.
func (c *AdminClient) DeleteMock(id string) error {
	return c.do(http.MethodDelete, "/v1/mocks/"+url.PathEscape(id), nil)
}

// ListGroups returns all groups with their flow counts.
func (c *AdminClient) ListGroups() ([]*admin.GroupResponse, error) {
	var out []*admin.GroupResponse
	if err := c.do(http.MethodGet, "/v1/groups", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListListeners returns the active Kafka listeners.
func (c *AdminClient) ListListeners() ([]listener.ActiveListener, error) {
	var out []listener.ActiveListener
	if err := c.do(http.MethodGet, "/api/v1/kafka/listeners", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach admin API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// parseAPIError turns an error response into an *apperr.Error, keeping the
// raw body when it is not an error envelope.
func parseAPIError(status int, body []byte) error {
	var e apperr.Error
	if err := json.Unmarshal(body, &e); err != nil || e.Code == "" {
		return fmt.Errorf("admin API returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	e.Status = status
	return &e
}
