// Package condition evaluates flow condition expressions against a trigger
// payload.
//
// Expressions are written in the expr language and see a single root object,
// trigger, exposing header, body, path and param:
//
//	trigger.body.amount > 100 && trigger.header["x-tenant"] == "acme"
//
// Evaluation never fails the caller. A blank expression is always eligible;
// an expression that does not compile, errors at runtime or yields a
// non-boolean is ineligible. Expressions containing ';' or '\' are rejected
// before compilation. That guard is a token filter, not a sandbox: it blocks
// statement chaining and escape tricks but does not restrict what a valid
// expression may read.
package condition

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/logging"
)

var blacklist = regexp.MustCompile(`[;\\]`)

// IsInjection reports whether expression trips the blacklist guard.
func IsInjection(expression string) bool {
	return blacklist.MatchString(expression)
}

// Evaluator compiles and runs condition expressions, caching compiled
// programs by expression text.
type Evaluator struct {
	log *slog.Logger

	programMu sync.RWMutex
	programs  map[string]*vm.Program
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used to report rejected and failing
// expressions.
func WithLogger(log *slog.Logger) Option {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		log:      logging.Nop(),
		programs: make(map[string]*vm.Program),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Eligible reports whether expression holds for trigger.
func (e *Evaluator) Eligible(expression string, trigger flow.Payload) bool {
	if strings.TrimSpace(expression) == "" {
		return true
	}
	if IsInjection(expression) {
		e.log.Warn("condition rejected by injection guard", "expression", expression)
		return false
	}

	result, err := e.Eval(expression, trigger)
	if err != nil {
		e.log.Debug("condition evaluation failed", "expression", expression, "error", err)
		return false
	}
	ok, isBool := result.(bool)
	if !isBool {
		e.log.Debug("condition did not yield a boolean", "expression", expression, "type", fmt.Sprintf("%T", result))
		return false
	}
	return ok
}

// Eval runs expression against trigger and returns the raw result. Unlike
// Eligible it does not apply the injection guard and reports errors. Panics
// raised while evaluating are returned as errors.
func (e *Evaluator) Eval(expression string, trigger flow.Payload) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("eval %q: panic: %v", expression, r)
		}
	}()

	env := newEnv(trigger)
	program, err := e.compile(expression, env)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}

	result, err = expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expression, err)
	}
	return result, nil
}

func (e *Evaluator) compile(expression string, env map[string]any) (*vm.Program, error) {
	e.programMu.RLock()
	if program, ok := e.programs[expression]; ok {
		e.programMu.RUnlock()
		return program, nil
	}
	e.programMu.RUnlock()

	program, err := expr.Compile(expression, expr.Env(env), jsonFunction)
	if err != nil {
		return nil, err
	}

	e.programMu.Lock()
	if existing, ok := e.programs[expression]; ok {
		e.programMu.Unlock()
		return existing, nil
	}
	e.programs[expression] = program
	e.programMu.Unlock()

	return program, nil
}

func newEnv(trigger flow.Payload) map[string]any {
	var fields map[string]any
	if trigger != nil {
		fields = trigger.Fields()
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return map[string]any{"trigger": fields}
}

// jsonFunction exposes json(text), which parses a JSON document so string
// fields holding JSON can be navigated inside a condition.
var jsonFunction = expr.Function(
	"json",
	func(params ...any) (any, error) {
		s, ok := params[0].(string)
		if !ok {
			return params[0], nil
		}
		return flow.ParseBody(s), nil
	},
	new(func(any) any),
)
