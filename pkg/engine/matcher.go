package engine

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jetmock/jetmock/internal/matching"
	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/metrics"
)

// FlowIndex is the read side of the flow repository used for matching.
type FlowIndex interface {
	FindByID(id string) (*flow.Flow, error)
	FindMatchingByMethodAndPath(groupID, method, path string) ([]flow.MatchEntry, error)
	FindMatchingByMethod(groupID, method string) ([]flow.MatchEntry, error)
	FindByKafkaTrigger(brokerID, topic string) ([]flow.MatchEntry, error)
}

// ConditionEvaluator decides whether a candidate's condition holds.
type ConditionEvaluator interface {
	Eligible(expression string, trigger flow.Payload) bool
}

// Match is a selected flow together with the trigger payload it matched.
type Match struct {
	Flow    *flow.Flow
	Entry   flow.MatchEntry
	Trigger *flow.TriggerPayload
}

type candidate struct {
	entry   flow.MatchEntry
	trigger *flow.TriggerPayload
}

// Matcher selects the flow for an inbound request or message.
type Matcher struct {
	index   FlowIndex
	cond    ConditionEvaluator
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewMatcher creates a Matcher.
func NewMatcher(index FlowIndex, cond ConditionEvaluator, log *slog.Logger, m *metrics.Metrics) *Matcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Matcher{index: index, cond: cond, log: log, metrics: m}
}

// ErrNoMatch returns the error reported when no flow matches.
func ErrNoMatch() *apperr.Error {
	return apperr.NotFound(apperr.CodeMockNotFound, "Mock not found")
}

// MatchHTTP selects the flow of groupID for a request to path. The exact
// path index is consulted first; path templates are only tried when it
// yields nothing.
func (m *Matcher) MatchHTTP(groupID string, r *http.Request, path string, body []byte) (*Match, error) {
	method := r.Method

	static, err := m.index.FindMatchingByMethodAndPath(groupID, method, path)
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	if len(static) > 0 {
		for _, e := range static {
			candidates = append(candidates, candidate{entry: e, trigger: matching.HTTPTrigger(r, body, map[string]string{})})
		}
	} else {
		dynamic, err := m.index.FindMatchingByMethod(groupID, method)
		if err != nil {
			return nil, err
		}
		for _, e := range dynamic {
			vars, ok := matching.MatchTemplate(e.Path, path)
			if !ok {
				continue
			}
			candidates = append(candidates, candidate{entry: e, trigger: matching.HTTPTrigger(r, body, vars)})
		}
	}

	return m.selectFlow(candidates, "group", groupID, "method", method, "path", path)
}

// MatchKafka selects the flow triggered by a message on (brokerID, topic).
func (m *Matcher) MatchKafka(brokerID, topic string, payload []byte) (*Match, error) {
	entries, err := m.index.FindByKafkaTrigger(brokerID, topic)
	if err != nil {
		return nil, err
	}
	candidates := make([]candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, candidate{entry: e, trigger: matching.KafkaTrigger(brokerID, topic, payload)})
	}
	return m.selectFlow(candidates, "brokerId", brokerID, "topic", topic)
}

// selectFlow picks the first eligible candidate and loads its flow.
// Candidates arrive ordered by flow id.
func (m *Matcher) selectFlow(candidates []candidate, logArgs ...any) (*Match, error) {
	if len(candidates) == 0 {
		m.log.Debug("no flow candidates", logArgs...)
		return nil, ErrNoMatch()
	}

	var chosen *candidate
	if len(candidates) == 1 {
		chosen = &candidates[0]
	} else {
		for i := range candidates {
			c := &candidates[i]
			eligible := m.cond.Eligible(c.entry.Expression, c.trigger)
			if c.entry.HasCondition() {
				m.metrics.ObserveCondition(eligible)
			}
			if eligible {
				chosen = c
				break
			}
		}
	}
	if chosen == nil {
		m.log.Debug("no eligible flow", append(logArgs, "candidates", len(candidates))...)
		return nil, ErrNoMatch()
	}

	f, err := m.index.FindByID(chosen.entry.FlowID)
	if errors.Is(err, flowstore.ErrFlowNotFound) {
		m.log.Error("index row without flow", append(logArgs, "flowId", chosen.entry.FlowID)...)
		return nil, ErrNoMatch()
	}
	if err != nil {
		return nil, err
	}

	m.log.Debug("flow matched", append(logArgs, "flowId", f.ID)...)
	return &Match{Flow: f, Entry: chosen.entry, Trigger: chosen.trigger}, nil
}
