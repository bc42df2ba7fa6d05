package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/logging"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]string{"foo": "bar"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "bar", result["foo"])
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		checks int
	}{
		{"not found", apperr.NotFound(apperr.CodeMockNotFound, "Mock not found"), http.StatusNotFound, apperr.CodeMockNotFound, 0},
		{"validation", apperr.Validation(apperr.Check{Field: "a", Message: "must not be null"}), http.StatusBadRequest, apperr.CodeValidation, 1},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, apperr.CodeUnexpected, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()

			WriteError(rec, logging.Nop(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body struct {
				UUID    string         `json:"uuid"`
				Code    string         `json:"code"`
				Message string         `json:"message"`
				Checks  []apperr.Check `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.UUID)
			assert.NotEmpty(t, body.Message)
			assert.Len(t, body.Checks, tt.checks)
		})
	}
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	var v map[string]any
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	require.NoError(t, ReadJSON(req, &v))
	assert.Equal(t, 1.0, v["a"])

	for _, body := range []string{"", "{not json", `"str"`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var target map[string]any
		err := ReadJSON(req, &target)
		require.Error(t, err, body)
		assert.Equal(t, http.StatusBadRequest, apperr.From(err).Status)
	}
}
