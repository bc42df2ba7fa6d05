package template

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/logging"
)

// placeholderRegex matches {{expression}} patterns with optional whitespace.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// GlobalSource looks up global variables by key.
type GlobalSource interface {
	Get(key string) (any, bool, error)
}

// Resolver substitutes placeholders. It is safe for concurrent use.
type Resolver struct {
	globals GlobalSource
	log     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGlobals sets the source for global.<key> placeholders.
func WithGlobals(g GlobalSource) Option {
	return func(r *Resolver) { r.globals = g }
}

// WithLogger sets the logger used to report lookup failures.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{log: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve replaces every placeholder in text using ctx.
func (r *Resolver) Resolve(text string, ctx *flow.ExecutionContext) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return placeholderRegex.ReplaceAllStringFunc(text, func(match string) string {
		inner := placeholderRegex.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		return r.evaluate(strings.TrimSpace(inner[1]), ctx)
	})
}

// ResolveObject decodes text as a JSON object and resolves placeholders in
// each string value, so resolved values never have to be valid JSON. Blank
// text yields an empty map. Non-string values are rendered as text.
func (r *Resolver) ResolveObject(text string, ctx *flow.ExecutionContext) (map[string]string, error) {
	if strings.TrimSpace(text) == "" {
		return map[string]string{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = r.Resolve(s, ctx)
			continue
		}
		out[k] = flow.Stringify(v)
	}
	return out, nil
}

func (r *Resolver) evaluate(expr string, ctx *flow.ExecutionContext) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug("placeholder resolution panicked", "placeholder", expr, "panic", rec)
			out = ""
		}
	}()

	if fn, ok := builtins[expr]; ok {
		return fn()
	}

	if key, ok := strings.CutPrefix(expr, "global."); ok {
		return r.global(key)
	}

	return lookupStep(expr, ctx)
}

func (r *Resolver) global(key string) string {
	if r.globals == nil || key == "" {
		return ""
	}
	v, ok, err := r.globals.Get(key)
	if err != nil {
		r.log.Warn("global variable lookup failed", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return flow.Stringify(v)
}

// lookupStep resolves "<order>.<path>" against ctx.
func lookupStep(expr string, ctx *flow.ExecutionContext) string {
	if ctx == nil {
		return ""
	}
	orderText, path, ok := strings.Cut(expr, ".")
	if !ok || path == "" {
		return ""
	}
	order, err := strconv.Atoi(orderText)
	if err != nil {
		return ""
	}
	payload, ok := ctx.Get(order)
	if !ok || payload == nil {
		return ""
	}

	x, err := compilePath(path)
	if err != nil {
		return ""
	}
	return flow.Stringify(x.First(payload.Fields()))
}

// compilePath turns a dotted path into a JSONPath expression. Purely
// numeric segments index into arrays. Bracket notation is passed to the
// JSONPath parser as is.
func compilePath(path string) (jp.Expr, error) {
	if strings.ContainsAny(path, "[]*") {
		return jp.ParseString("$." + path)
	}
	x := jp.R()
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil, fmt.Errorf("empty segment in %q", path)
		}
		if n, err := strconv.Atoi(seg); err == nil {
			x = x.N(n)
			continue
		}
		x = x.C(seg)
	}
	return x, nil
}
