package template

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetmock/jetmock/pkg/flow"
)

type fakeGlobals map[string]any

func (g fakeGlobals) Get(key string) (any, bool, error) {
	if key == "broken" {
		return nil, false, errors.New("store closed")
	}
	v, ok := g[key]
	return v, ok, nil
}

func newContext() *flow.ExecutionContext {
	ctx := flow.NewExecutionContext()
	ctx.Set(1, &flow.TriggerPayload{
		Header: map[string]any{"x-tenant": "acme"},
		Body: map[string]any{
			"name":  "Ann",
			"age":   int64(31),
			"items": []any{map[string]any{"sku": "A-1"}, map[string]any{"sku": "B-2"}},
			"tags":  map[string]any{"vip": true},
		},
		Path: map[string]string{"id": "42"},
	})
	ctx.Set(3, &flow.ResponsePayload{Status: 201, Body: `{"orderId":"o-9"}`})
	return ctx
}

func TestResolve(t *testing.T) {
	r := New(WithGlobals(fakeGlobals{"token": "abc", "limit": 5.0}))
	ctx := newContext()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain text", "no placeholders", "no placeholders"},
		{"body field", "Hi {{1.body.name}}", "Hi Ann"},
		{"whitespace inside braces", "Hi {{ 1.body.name }}", "Hi Ann"},
		{"number leaf", "{{1.body.age}}", "31"},
		{"boolean leaf", "{{1.body.tags.vip}}", "true"},
		{"composite leaf is JSON", "{{1.body.tags}}", `{"vip":true}`},
		{"numeric segment indexes arrays", "{{1.body.items.1.sku}}", "B-2"},
		{"bracket notation", "{{1.body.items[0].sku}}", "A-1"},
		{"header", "{{1.header.x-tenant}}", "acme"},
		{"path variable", "/orders/{{1.path.id}}", "/orders/42"},
		{"response body is navigable", "{{3.body.orderId}}", "o-9"},
		{"response status", "{{3.status}}", "201"},
		{"missing order", "{{9.body.name}}", ""},
		{"missing field", "x{{1.body.nope.deeper}}y", "xy"},
		{"malformed path", "{{1..name}}", ""},
		{"not an order number", "{{abc.name}}", ""},
		{"global", "Bearer {{global.token}}", "Bearer abc"},
		{"global number", "{{global.limit}}", "5"},
		{"missing global", "{{global.nope}}", ""},
		{"failing global source", "{{global.broken}}", ""},
		{"multiple", "{{1.body.name}}-{{1.path.id}}", "Ann-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.text, ctx))
		})
	}
}

func TestResolveMissingOrderYieldsEmpty(t *testing.T) {
	ctx := flow.NewExecutionContext()
	ctx.Set(1, flow.Data{"body": map[string]any{"name": "Ann"}})

	r := New()
	assert.Equal(t, "Hi Ann", r.Resolve("Hi {{1.body.name}}", ctx))
	assert.Equal(t, "Hi ", r.Resolve("Hi {{2.body.name}}", ctx))
	assert.Equal(t, "", r.Resolve("{{1.body.name}}", nil))
}

func TestResolveBuiltins(t *testing.T) {
	r := New()
	uuidRe := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	a := r.Resolve("{{random.uuid}}", nil)
	b := r.Resolve("{{random.uuid}}", nil)
	assert.Regexp(t, uuidRe, a)
	assert.NotEqual(t, a, b)

	assert.Regexp(t, `^\d+$`, r.Resolve("{{timestamp}}", nil))
	assert.Regexp(t, `^\d{1,3}$`, r.Resolve("{{random.int}}", nil))
	assert.Empty(t, r.Resolve("{{global.x}}", nil), "no global source configured")
}

func TestResolveObject(t *testing.T) {
	r := New()
	ctx := newContext()

	got, err := r.ResolveObject(`{"X-Tenant":"{{1.header.x-tenant}}","X-Count":3}`, ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Tenant": "acme", "X-Count": "3"}, got)

	got, err = r.ResolveObject("  ", ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = r.ResolveObject("not json", ctx)
	assert.Error(t, err)
}

func TestResolveObject_ValuesNeedNoEscaping(t *testing.T) {
	r := New()
	ctx := flow.NewExecutionContext()
	ctx.Set(1, flow.Data{"param": map[string]any{"q": `say "hi" \ now`}})

	got, err := r.ResolveObject(`{"X-Echo":"{{1.param.q}}"}`, ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Echo": `say "hi" \ now`}, got)
}
