package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetmock/jetmock/pkg/flow"
)

func checks(r *Result) map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		out[e.Field] = e.Message
	}
	return out
}

func TestValidateStep(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want map[string]string
	}{
		{
			name: "valid trigger",
			step: Step{"elementName": "API_TRIGGER_REQUEST", "orderNumber": 1, "method": "GET", "path": "/x"},
			want: map[string]string{},
		},
		{
			name: "missing element name",
			step: Step{"orderNumber": 1},
			want: map[string]string{"elementName": MsgNotNull},
		},
		{
			name: "missing order number",
			step: Step{"elementName": "CONDITION", "expression": "true"},
			want: map[string]string{"CONDITION.orderNumber": MsgNotNull},
		},
		{
			name: "blank and missing fields",
			step: Step{"elementName": "API_TRIGGER_REQUEST", "orderNumber": 1, "method": "  "},
			want: map[string]string{
				"API_TRIGGER_REQUEST.method": MsgNotBlank,
				"API_TRIGGER_REQUEST.path":   MsgNotBlank,
			},
		},
		{
			name: "required integer missing",
			step: Step{"elementName": "API_TRIGGER_RESPONSE", "orderNumber": 2, "latency": 0, "header": "{}", "body": "ok"},
			want: map[string]string{"API_TRIGGER_RESPONSE.status": MsgNotNull},
		},
		{
			name: "wrong data types",
			step: Step{"elementName": "API_TRIGGER_RESPONSE", "orderNumber": 2, "status": "200", "latency": 1.5, "header": "{}", "body": 7},
			want: map[string]string{
				"API_TRIGGER_RESPONSE.status":  "data type must be INTEGER",
				"API_TRIGGER_RESPONSE.latency": "data type must be INTEGER",
				"API_TRIGGER_RESPONSE.body":    "data type must be TEXT",
			},
		},
		{
			name: "unknown attribute",
			step: Step{"elementName": "CONDITION", "orderNumber": 1, "expression": "true", "extra": "x"},
			want: map[string]string{"extra": "Field 'extra' is not allowed for element type CONDITION"},
		},
		{
			name: "element type key is tolerated",
			step: Step{"elementName": "CONDITION", "elementType": "X", "orderNumber": 1, "expression": "true"},
			want: map[string]string{},
		},
		{
			name: "unknown element type",
			step: Step{"elementName": "NOPE", "orderNumber": 1},
			want: map[string]string{"elementName": "unknown element type NOPE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateStep(tt.step)
			assert.Equal(t, tt.want, checks(r))
			assert.Equal(t, len(tt.want) == 0, r.Valid())
		})
	}
}

func TestValidateStepsCollectsAll(t *testing.T) {
	r := ValidateSteps([]Step{
		{"orderNumber": 1},
		{"elementName": "KAFKA_TRIGGER", "orderNumber": 2},
		{"elementName": "CONDITION", "orderNumber": 2, "expression": "true"},
	})
	require.False(t, r.Valid())
	got := checks(r)
	assert.Equal(t, MsgNotNull, got["elementName"])
	assert.Equal(t, MsgNotBlank, got["KAFKA_TRIGGER.topic"])
	assert.Equal(t, MsgNotBlank, got["KAFKA_TRIGGER.broker"])
	assert.Equal(t, "duplicate order number 2", got["orderNumber"])
	assert.Len(t, r.Errors, 4)
	assert.ErrorContains(t, r.Err(), "validation failed")
}

func TestBuildAndSteps(t *testing.T) {
	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}

	steps := []Step{
		{"elementName": "API_TRIGGER_RESPONSE", "orderNumber": 2.0, "status": 200.0, "latency": 0.0, "header": "{}", "body": "ok"},
		{"elementName": "API_TRIGGER_REQUEST", "orderNumber": 1.0, "method": "GET", "path": "/x"},
	}
	elements, err := Build(steps, newID)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	assert.Equal(t, flow.TypeAPITriggerRequest, elements[0].Type)
	assert.Equal(t, 1, elements[0].OrderNumber)
	assert.Equal(t, "el-2", elements[0].ID)

	status, ok := elements[1].Attributes.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, 200, status)

	back := Steps(elements)
	assert.Equal(t, []Step{
		{"elementName": "API_TRIGGER_REQUEST", "orderNumber": 1, "method": "GET", "path": "/x"},
		{"elementName": "API_TRIGGER_RESPONSE", "orderNumber": 2, "status": 200, "latency": 0, "header": "{}", "body": "ok"},
	}, back)
}

func TestBuildRejectsInvalid(t *testing.T) {
	_, err := Build([]Step{{"elementName": "CONDITION"}}, func() string { return "x" })
	require.Error(t, err)

	var r *Result
	require.ErrorAs(t, err, &r)
	assert.Equal(t, MsgNotNull, checks(r)["CONDITION.orderNumber"])
}
