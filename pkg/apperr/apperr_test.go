package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/validation"
)

func TestFrom(t *testing.T) {
	result := &validation.Result{}
	result.Add("CONDITION.expression", validation.MsgNotBlank)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation result", result, http.StatusBadRequest, CodeValidation},
		{"flow not found", fmt.Errorf("%w: f1", flowstore.ErrFlowNotFound), http.StatusNotFound, CodeMockNotFound},
		{"group not found", flowstore.ErrGroupNotFound, http.StatusNotFound, CodeGroupNotFound},
		{"group exists", flowstore.ErrGroupExists, http.StatusBadRequest, CodeGroupExists},
		{"broker not found", fmt.Errorf("load: %w", flowstore.ErrBrokerNotFound), http.StatusNotFound, CodeBrokerNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeUnexpected},
		{"already typed", fmt.Errorf("wrapped: %w", NotFound(CodeMockNotFound, "x")), http.StatusNotFound, CodeMockNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := From(tt.err)
			require.NotNil(t, e)
			assert.Equal(t, tt.status, e.StatusCode())
			assert.Equal(t, tt.code, e.Code)
			assert.Len(t, e.UUID, 36)
		})
	}

	assert.Nil(t, From(nil))
}

func TestFromValidationCarriesChecks(t *testing.T) {
	result := &validation.Result{}
	result.Add("a", "must not be null")
	result.Add("b", "must not be blank")

	e := From(result)
	assert.Equal(t, "Validation failed", e.Message)
	assert.Equal(t, []Check{{"a", "must not be null"}, {"b", "must not be blank"}}, e.Checks)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	e := Unexpected(cause)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "disk full")

	assert.NotEqual(t, Unexpected(cause).UUID, e.UUID, "each error gets its own correlation id")
}
