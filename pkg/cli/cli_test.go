package cli

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/config"
	"github.com/jetmock/jetmock/pkg/engine"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const flowsYAML = `mocks:
  - name: ping
    flowSteps:
      - elementName: API_TRIGGER_REQUEST
        orderNumber: 1
        method: GET
        path: /ping
      - elementName: API_TRIGGER_RESPONSE
        orderNumber: 2
        status: 200
        latency: 0
        header: "{}"
        body: pong
  - name: broken
    flowSteps:
      - elementName: API_TRIGGER_REQUEST
        orderNumber: 1
        method: " "
        path: /x
`

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    map[string]bool
		wantErr bool
	}{
		{
			name:    "yaml list",
			file:    "flows.yaml",
			content: flowsYAML,
			want:    map[string]bool{"ping": true, "broken": false},
		},
		{
			name:    "single json flow",
			file:    "flow.json",
			content: `{"name":"cond","flowSteps":[{"elementName":"CONDITION","orderNumber":1,"expression":"true"}]}`,
			want:    map[string]bool{"cond": true},
		},
		{
			name:    "unnamed flow",
			file:    "flow.json",
			content: `{"flowSteps":[{"elementName":"NOPE","orderNumber":1}]}`,
			want:    map[string]bool{"flow #1": false},
		},
		{
			name:    "no flows",
			file:    "empty.yaml",
			content: "name: nothing\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := validateFile(writeFile(t, tt.file, tt.content))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			got := make(map[string]bool, len(reports))
			for _, r := range reports {
				got[r.Name] = r.Valid
				assert.Equal(t, r.Valid, len(r.Errors) == 0)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateFile_MissingFile(t *testing.T) {
	_, err := validateFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, config.ErrFileNotFound)
}

func TestValidateCommand(t *testing.T) {
	path := writeFile(t, "flows.yaml", flowsYAML)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", path, "--json=false"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	assert.ErrorIs(t, err, ErrInvalidFlows)
	assert.Contains(t, out.String(), "✓ ping")
	assert.Contains(t, out.String(), "✗ broken")
	assert.Contains(t, out.String(), "API_TRIGGER_REQUEST.method: must not be blank")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--json=false"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "jetmock "))
}

func TestApplyServeFlags(t *testing.T) {
	require.NoError(t, serveCmd.ParseFlags([]string{"--mock-port", "9000", "--log-format", "json", "--data", ":memory:"}))

	cfg := config.Default()
	cfg.AdminPort = 9100
	applyServeFlags(serveCmd, cfg)

	assert.Equal(t, 9000, cfg.MockPort)
	assert.Equal(t, 9100, cfg.AdminPort, "unset flags keep the configured value")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, config.MemoryDataPath, cfg.DataPath)
	assert.Equal(t, config.DefaultWorkers, cfg.Workers)
}

func TestWarnServeConfig(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer
	warnServeConfig(&buf, cfg)
	assert.Empty(t, buf.String())

	cfg.DataPath = config.MemoryDataPath
	warnServeConfig(&buf, cfg)
	assert.Equal(t, "Warning: in-memory storage: mocks, groups and brokers are lost on shutdown\n", buf.String())
}

func TestDescribeTrigger(t *testing.T) {
	tests := []struct {
		name  string
		steps []validation.Step
		want  string
	}{
		{
			name:  "http trigger",
			steps: []validation.Step{{"elementName": "API_TRIGGER_REQUEST", "method": "GET", "path": "/ping"}},
			want:  "GET /ping",
		},
		{
			name:  "kafka trigger",
			steps: []validation.Step{{"elementName": "CONDITION"}, {"elementName": "KAFKA_TRIGGER", "topic": "orders"}},
			want:  "kafka:orders",
		},
		{
			name: "no trigger",
			want: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeTrigger(&engine.MockDetail{FlowSteps: tt.steps}))
		})
	}
}

func TestRuntime_EndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.MockPort = 0
	cfg.AdminPort = 0
	cfg.DataPath = filepath.Join(t.TempDir(), "jetmock.db")

	rt, err := StartRuntime(cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Stop() })

	adminBase := "http://" + rt.AdminAddr()
	client := NewAdminClient(adminBase)

	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	post := func(path, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(adminBase+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("/v1/groups", `{"name":"payments"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	groups, err := client.ListGroups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	groupID := groups[0].ID

	resp = post("/v1/mocks", `{"groupId":"`+groupID+`","flowSteps":[
		{"elementName":"API_TRIGGER_REQUEST","orderNumber":1,"method":"GET","path":"/ping"},
		{"elementName":"API_TRIGGER_RESPONSE","orderNumber":2,"status":200,"latency":0,"header":"{}","body":"pong"}
	]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	mocks, err := client.ListMocks(groupID)
	require.NoError(t, err)
	require.Len(t, mocks, 1)
	assert.Equal(t, "GET /ping", describeTrigger(mocks[0]))

	mockResp, err := http.Get("http://" + rt.MockAddr() + "/payments/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(mockResp.Body)
	mockResp.Body.Close()
	assert.Equal(t, http.StatusOK, mockResp.StatusCode)
	assert.Equal(t, "pong", string(body))

	listeners, err := client.ListListeners()
	require.NoError(t, err)
	assert.Empty(t, listeners)

	require.NoError(t, client.DeleteMock(mocks[0].ID))

	_, err = client.GetMock(mocks[0].ID)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
	assert.Equal(t, apperr.CodeMockNotFound, appErr.Code)
}

func TestStartRuntime_BadDataPath(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.MockPort = 0
	cfg.AdminPort = 0
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg.DataPath = filepath.Join(blocker, "jetmock.db")

	_, err := StartRuntime(cfg, logging.Nop())
	assert.Error(t, err)
}

func TestAdminClient_Unreachable(t *testing.T) {
	_, err := NewAdminClient("http://127.0.0.1:1").Health()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reach admin API")
}
