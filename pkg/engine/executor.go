package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/ohler55/ojg/oj"

	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/metrics"
	"github.com/jetmock/jetmock/pkg/template"
)

// Default settings.
const (
	DefaultWorkers         = 64
	DefaultCallbackTimeout = 30 * time.Second
)

// Execution phases, used in log records.
const (
	PhaseMatched       = "MATCHED"
	PhasePreExecuting  = "PRE_EXECUTING"
	PhaseResponding    = "RESPONDING"
	PhasePostExecuting = "POST_EXECUTING"
	PhaseDone          = "DONE"
)

// Publisher sends a message to a topic on the broker at brokerURL.
type Publisher interface {
	Publish(ctx context.Context, brokerURL, topic string, payload []byte) error
}

// BrokerLookup resolves broker ids.
type BrokerLookup interface {
	Get(id string) (*flow.KafkaBroker, error)
}

// GlobalWriter upserts global variables.
type GlobalWriter interface {
	Upsert(vars ...flow.GlobalVariable) error
}

// Response is the rendered synchronous response of an HTTP flow.
type Response struct {
	Status int
	Header map[string]string
	Body   string
}

// Executor runs matched flows.
type Executor struct {
	resolver  *template.Resolver
	publisher Publisher
	brokers   BrokerLookup
	globals   GlobalWriter
	client    *http.Client
	pool      pond.Pool
	workers   int
	closeOnce sync.Once
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(log *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithExecutorMetrics records step outcomes.
func WithExecutorMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithHTTPClient sets the client used for CALLBACK_API steps.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithWorkers sets the size of the pool running post-trigger steps.
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewExecutor creates an Executor.
func NewExecutor(resolver *template.Resolver, publisher Publisher, brokers BrokerLookup, globals GlobalWriter, opts ...ExecutorOption) *Executor {
	e := &Executor{
		resolver:  resolver,
		publisher: publisher,
		brokers:   brokers,
		globals:   globals,
		client:    &http.Client{Timeout: DefaultCallbackTimeout},
		workers:   DefaultWorkers,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pool = pond.NewPool(e.workers)
	return e
}

// Close waits for queued post-trigger steps and stops the worker pool.
func (e *Executor) Close() {
	e.closeOnce.Do(e.pool.StopAndWait)
}

// ExecuteHTTP runs an HTTP-triggered flow and returns its response. Steps
// after the response element are scheduled on the worker pool and run with
// a context detached from ctx's cancellation.
func (e *Executor) ExecuteHTTP(ctx context.Context, m *Match) (*Response, error) {
	log := e.log.With("flowId", m.Flow.ID)
	ectx := flow.NewExecutionContext()
	steps := m.Flow.Sorted()

	start := seed(steps, flow.TypeAPITriggerRequest, m.Trigger, ectx)
	respIdx := -1
	for i := start; i < len(steps); i++ {
		if steps[i].Type == flow.TypeAPIResponse {
			respIdx = i
			break
		}
	}

	// Without a response element every step after the trigger is a side effect.
	if respIdx < 0 {
		log.Debug("flow has no response element", "phase", PhaseResponding)
		e.schedule(ctx, m.Flow.ID, steps[start:], ectx)
		return &Response{Status: http.StatusOK, Header: map[string]string{}}, nil
	}

	log.Debug("running steps", "phase", PhasePreExecuting, "steps", respIdx-start)
	for _, step := range steps[start:respIdx] {
		if err := e.runStep(ctx, step, ectx); err != nil {
			return nil, err
		}
	}

	resp, err := e.respond(ctx, steps[respIdx], ectx)
	e.metrics.ObserveStep(string(flow.TypeAPIResponse), err)
	if err != nil {
		return nil, err
	}

	e.schedule(ctx, m.Flow.ID, steps[respIdx+1:], ectx)
	return resp, nil
}

// ExecuteKafka schedules every step after the Kafka trigger on the worker
// pool. It returns once the steps are queued.
func (e *Executor) ExecuteKafka(ctx context.Context, m *Match) {
	ectx := flow.NewExecutionContext()
	steps := m.Flow.Sorted()
	start := seed(steps, flow.TypeKafkaTrigger, m.Trigger, ectx)
	e.schedule(ctx, m.Flow.ID, steps[start:], ectx)
}

// seed stores the trigger payload under the trigger element's order number
// and returns the index of the first step after it.
func seed(steps []flow.Element, trigger flow.ElementType, payload *flow.TriggerPayload, ectx *flow.ExecutionContext) int {
	for i, s := range steps {
		if s.Type == trigger {
			if payload != nil {
				ectx.Set(s.OrderNumber, payload)
			}
			return i + 1
		}
	}
	return 0
}

func (e *Executor) schedule(ctx context.Context, flowID string, steps []flow.Element, ectx *flow.ExecutionContext) {
	if len(steps) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := e.log.With("flowId", flowID, "phase", PhasePostExecuting)
	e.pool.Submit(func() {
		for _, step := range steps {
			if err := e.runStep(ctx, step, ectx); err != nil {
				log.Error("post-trigger step failed", "order", step.OrderNumber, "type", step.Type, "error", err)
			}
		}
		log.Debug("flow finished", "phase", PhaseDone, "steps", len(steps))
	})
}

// respond renders the response element after its latency and records the
// resolved response in the context.
func (e *Executor) respond(ctx context.Context, step flow.Element, ectx *flow.ExecutionContext) (*Response, error) {
	p, err := flow.NewPayload(step)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	rp := p.(*flow.ResponsePayload)

	if err := sleep(ctx, rp.Latency); err != nil {
		return nil, err
	}

	header, err := e.resolver.ResolveObject(rp.Header, ectx)
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("response header: %w", err))
	}
	headerText := flow.Stringify(header)
	if !hasHeader(header, "Content-Type") {
		header["Content-Type"] = "application/json"
	}

	resolved := &flow.ResponsePayload{
		Status:  rp.Status,
		Latency: rp.Latency,
		Header:  headerText,
		Body:    e.resolver.Resolve(rp.Body, ectx),
	}
	ectx.Set(step.OrderNumber, resolved)

	status := rp.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{Status: status, Header: header, Body: resolved.Body}, nil
}

// runStep executes one step and records its resolved payload. Failures of
// outbound calls and publishes are logged and swallowed.
func (e *Executor) runStep(ctx context.Context, step flow.Element, ectx *flow.ExecutionContext) error {
	p, err := flow.NewPayload(step)
	if err != nil {
		return apperr.Unexpected(err)
	}
	log := e.log.With("order", step.OrderNumber, "type", step.Type)

	switch payload := p.(type) {
	case *flow.CallbackPayload:
		err = e.callback(ctx, payload, ectx)
		ectx.Set(step.OrderNumber, payload)
		e.metrics.ObserveStep(string(step.Type), err)
		if err != nil {
			log.Warn("callback failed", "method", payload.Method, "path", payload.Path, "error", err)
		}
		return nil

	case *flow.PublisherPayload:
		err = e.publish(ctx, payload, ectx)
		ectx.Set(step.OrderNumber, payload)
		e.metrics.ObserveStep(string(step.Type), err)
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		if err != nil {
			log.Warn("publish failed", "topic", payload.Topic, "broker", payload.Broker, "error", err)
		}
		return nil

	case *flow.VariablePayload:
		err = e.upsertGlobals(payload, ectx)
		ectx.Set(step.OrderNumber, payload)
		e.metrics.ObserveStep(string(step.Type), err)
		return err

	default:
		// Conditions, triggers and stray responses carry no action.
		ectx.Set(step.OrderNumber, p)
		return nil
	}
}

// callback resolves the step in place and issues the outbound request.
func (e *Executor) callback(ctx context.Context, p *flow.CallbackPayload, ectx *flow.ExecutionContext) error {
	p.Path = e.resolver.Resolve(p.Path, ectx)
	p.Body = e.resolver.Resolve(p.Body, ectx)
	params, err := e.resolver.ResolveObject(p.Param, ectx)
	if err != nil {
		return fmt.Errorf("callback param: %w", err)
	}
	p.Param = flow.Stringify(params)
	header, err := e.resolver.ResolveObject(p.Header, ectx)
	if err != nil {
		return fmt.Errorf("callback header: %w", err)
	}
	p.Header = flow.Stringify(header)

	if err := sleep(ctx, p.Latency); err != nil {
		return err
	}

	target, err := url.Parse(p.Path)
	if err != nil {
		return fmt.Errorf("callback url: %w", err)
	}
	if len(params) > 0 {
		q := target.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}

	var body io.Reader
	if p.Body != "" {
		body = strings.NewReader(p.Body)
	}
	method := p.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("create callback request: %w", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	e.log.Debug("callback sent", "method", method, "url", target.String(), "status", resp.StatusCode)
	return nil
}

// publish resolves the step in place and sends its body. An unknown broker
// is reported as KAFKA_BROKER_NOT_FOUND.
func (e *Executor) publish(ctx context.Context, p *flow.PublisherPayload, ectx *flow.ExecutionContext) error {
	p.Topic = e.resolver.Resolve(p.Topic, ectx)
	p.Body = e.resolver.Resolve(p.Body, ectx)

	broker, err := e.brokers.Get(p.Broker)
	if errors.Is(err, flowstore.ErrBrokerNotFound) {
		return apperr.NotFound(apperr.CodeBrokerNotFound, fmt.Sprintf("Kafka broker %s not found", p.Broker))
	}
	if err != nil {
		return err
	}
	return e.publisher.Publish(ctx, broker.URL, p.Topic, []byte(p.Body))
}

// upsertGlobals resolves the variable template and upserts its entries. The
// resolved text is either a JSON array of {key, value} objects or a JSON
// object mapping keys to values.
func (e *Executor) upsertGlobals(p *flow.VariablePayload, ectx *flow.ExecutionContext) error {
	p.Variable = e.resolver.Resolve(p.Variable, ectx)

	parsed, err := oj.ParseString(p.Variable)
	if err != nil {
		return fmt.Errorf("global variable: %w", err)
	}

	var vars []flow.GlobalVariable
	switch v := parsed.(type) {
	case []any:
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("global variable: entry must be an object, got %T", item)
			}
			key, _ := entry["key"].(string)
			if strings.TrimSpace(key) == "" {
				return errors.New("global variable: entry without key")
			}
			vars = append(vars, flow.GlobalVariable{Key: key, Value: entry["value"]})
		}
	case map[string]any:
		for k, val := range v {
			vars = append(vars, flow.GlobalVariable{Key: k, Value: val})
		}
	default:
		return fmt.Errorf("global variable: expected array or object, got %T", parsed)
	}
	if len(vars) == 0 {
		return nil
	}
	return e.globals.Upsert(vars...)
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, ms int) error {
	if ms <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
