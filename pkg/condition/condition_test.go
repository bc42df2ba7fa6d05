package condition

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetmock/jetmock/pkg/flow"
)

func trigger() *flow.TriggerPayload {
	return &flow.TriggerPayload{
		Header: map[string]any{"x-tenant": "acme"},
		Body: map[string]any{
			"name":    "Ann",
			"qty":     int64(3),
			"payload": `{"kind":"gold"}`,
		},
		Path:  map[string]string{"id": "42"},
		Param: map[string]any{"debug": "true"},
	}
}

func TestEligible(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"blank is eligible", "  ", true},
		{"body field", `trigger.body.name == "Ann"`, true},
		{"numeric comparison", "trigger.body.qty > 2", true},
		{"header", `trigger.header["x-tenant"] == "acme"`, true},
		{"path variable", `trigger.path.id == "42"`, true},
		{"query param", `trigger.param.debug == "true"`, true},
		{"false result", `trigger.body.name == "Bob"`, false},
		{"json helper", `json(trigger.body.payload).kind == "gold"`, true},
		{"non-boolean result", "trigger.body.qty", false},
		{"syntax error", "trigger.body.name ==", false},
		{"nil navigation", "trigger.body.missing.deeper == 1", false},
		{"injection semicolon", "1 == 1; DROP", false},
		{"injection backslash", `trigger.body.name == "\u0041nn"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Eligible(tt.expr, trigger()))
		})
	}
}

func TestInjectionIsNeverEvaluated(t *testing.T) {
	e := NewEvaluator()
	assert.True(t, IsInjection("1 == 1; DROP"))
	assert.False(t, e.Eligible("1 == 1; DROP", trigger()))
	assert.False(t, e.Eligible("1 == 1; DROP", nil))

	e.programMu.RLock()
	defer e.programMu.RUnlock()
	assert.Empty(t, e.programs, "rejected expressions must not be compiled")
}

func TestEvalCachesPrograms(t *testing.T) {
	e := NewEvaluator()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, e.Eligible("trigger.body.qty == 3", trigger()))
		}()
	}
	wg.Wait()

	e.programMu.RLock()
	defer e.programMu.RUnlock()
	assert.Len(t, e.programs, 1)
}

func TestEvalReportsErrors(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Eval("trigger.body.name ==", trigger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile")

	v, err := e.Eval("trigger.body.qty * 2", trigger())
	require.NoError(t, err)
	assert.EqualValues(t, 6, v)
}
