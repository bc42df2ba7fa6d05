package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/httputil"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/metrics"
	"github.com/jetmock/jetmock/pkg/requestlog"
)

// reservedPrefixes are first path segments never routed to a group.
var reservedPrefixes = map[string]bool{
	"swagger-ui": true,
	"v3":         true,
	"api-docs":   true,
}

// GroupResolver resolves a group by its name.
type GroupResolver interface {
	FindByName(name string) (*flow.Group, error)
}

// Dispatcher routes mocked HTTP requests and consumed Kafka messages to
// their flows.
type Dispatcher struct {
	groups   GroupResolver
	matcher  *Matcher
	executor *Executor
	requests requestlog.Logger
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. requests may be nil.
func NewDispatcher(groups GroupResolver, matcher *Matcher, executor *Executor, requests requestlog.Logger, log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{groups: groups, matcher: matcher, executor: executor, requests: requests, log: log, metrics: m}
}

// SplitPath splits a request path into the group name and the remaining
// path. The remaining path always starts with "/".
func SplitPath(p string) (group, rest string) {
	group, rest, _ = strings.Cut(strings.TrimPrefix(p, "/"), "/")
	return group, "/" + rest
}

// ServeHTTP handles /{group}/{path...}.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entry := &requestlog.Entry{
		Timestamp:   start,
		Trigger:     requestlog.TriggerHTTP,
		Method:      r.Method,
		QueryString: r.URL.RawQuery,
		Headers:     r.Header.Clone(),
		RemoteAddr:  r.RemoteAddr,
	}
	outcome := metrics.OutcomeMatched
	defer func() {
		elapsed := time.Since(start)
		d.metrics.ObserveDispatch(metrics.TriggerHTTP, outcome, elapsed)
		d.record(entry, elapsed)
	}()

	resp, err := d.dispatch(r, entry)
	if err != nil {
		outcome = outcomeOf(err)
		ae := apperr.From(err)
		entry.ResponseStatus = ae.StatusCode()
		entry.Error = ae.Error()
		httputil.WriteError(w, d.log, ae)
		return
	}
	entry.ResponseStatus = resp.Status

	for k, v := range resp.Header {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.Status)
	if resp.Body != "" {
		_, _ = io.WriteString(w, resp.Body)
	}
}

func (d *Dispatcher) dispatch(r *http.Request, entry *requestlog.Entry) (*Response, error) {
	groupName, path := SplitPath(r.URL.Path)
	entry.Group = groupName
	entry.Path = path
	if groupName == "" || reservedPrefixes[groupName] {
		return nil, ErrNoMatch()
	}

	group, err := d.groups.FindByName(groupName)
	if errors.Is(err, flowstore.ErrGroupNotFound) || (err == nil && !group.IsActive) {
		return nil, apperr.NotFound(apperr.CodeGroupNotFound, "Group "+groupName+" not found")
	}
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodySize))
	if err != nil {
		return nil, apperr.BadRequest("Failed to read request body", err)
	}
	entry.SetBody(body)

	match, err := d.matcher.MatchHTTP(group.ID, r, path, body)
	if err != nil {
		return nil, err
	}
	entry.MatchedFlowID = match.Flow.ID
	d.log.Debug("dispatching", "phase", PhaseMatched, "group", groupName, "method", r.Method, "path", path, "flowId", match.Flow.ID)

	return d.executor.ExecuteHTTP(r.Context(), match)
}

// HandleKafka matches a consumed message and schedules its flow. It has the
// signature of a listener handler.
func (d *Dispatcher) HandleKafka(ctx context.Context, brokerID, topic string, payload []byte) {
	start := time.Now()
	entry := &requestlog.Entry{
		Timestamp: start,
		Trigger:   requestlog.TriggerKafka,
		BrokerID:  brokerID,
		Topic:     topic,
	}
	entry.SetBody(payload)
	outcome := metrics.OutcomeMatched
	defer func() {
		elapsed := time.Since(start)
		d.metrics.ObserveDispatch(metrics.TriggerKafka, outcome, elapsed)
		d.record(entry, elapsed)
	}()

	match, err := d.matcher.MatchKafka(brokerID, topic, payload)
	if err != nil {
		outcome = outcomeOf(err)
		entry.Error = err.Error()
		if outcome == metrics.OutcomeNoMatch {
			d.log.Debug("kafka message without flow", "brokerId", brokerID, "topic", topic)
			return
		}
		d.log.Error("kafka dispatch failed", "brokerId", brokerID, "topic", topic, "error", err)
		return
	}
	entry.MatchedFlowID = match.Flow.ID
	d.log.Debug("dispatching", "phase", PhaseMatched, "brokerId", brokerID, "topic", topic, "flowId", match.Flow.ID)
	d.executor.ExecuteKafka(ctx, match)
}

func (d *Dispatcher) record(entry *requestlog.Entry, elapsed time.Duration) {
	if d.requests == nil {
		return
	}
	entry.DurationMs = int(elapsed.Milliseconds())
	d.requests.Log(entry)
}

func outcomeOf(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Code == apperr.CodeMockNotFound {
		return metrics.OutcomeNoMatch
	}
	return metrics.OutcomeError
}
