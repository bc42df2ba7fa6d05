// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jetmock/jetmock/pkg/apperr"
)

// MaxBodySize bounds request bodies read by ReadJSON.
const MaxBodySize = 10 << 20

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes the error envelope {uuid, code, message, checks} with
// the status of err's kind. Unexpected errors are logged with their
// correlation id.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	e := apperr.From(err)
	if log != nil {
		if e.Status >= http.StatusInternalServerError {
			log.Error("request failed", "correlationId", e.UUID, "code", e.Code, "error", err)
		} else {
			log.Debug("request rejected", "correlationId", e.UUID, "code", e.Code, "error", err)
		}
	}
	WriteJSON(w, e.Status, e)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteCreated writes a 201 Created response with the created resource.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteOK writes a 200 OK response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// ReadJSON decodes the request body into v. Malformed bodies yield a
// BAD_REQUEST error.
func ReadJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
	if err != nil {
		return apperr.BadRequest("Failed to read request body", err)
	}
	if len(body) == 0 {
		return apperr.BadRequest("Request body is empty", nil)
	}
	if err := json.Unmarshal(body, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return apperr.BadRequest(fmt.Sprintf("Invalid JSON at offset %d", syntaxErr.Offset), err)
		}
		return apperr.BadRequest("Invalid JSON body", err)
	}
	return nil
}
