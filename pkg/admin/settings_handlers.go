package admin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jetmock/jetmock/internal/id"
	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/httputil"
	"github.com/jetmock/jetmock/pkg/validation"
)

// handleCreateBroker handles POST /v1/settings/kafka-brokers. A request
// carrying an existing id replaces that broker.
func (a *API) handleCreateBroker(w http.ResponseWriter, r *http.Request) {
	var req BrokerRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		httputil.WriteError(w, a.log, apperr.Validation(apperr.Check{Field: "url", Message: validation.MsgNotBlank}))
		return
	}

	b := &flow.KafkaBroker{ID: req.ID, Name: req.Name, URL: strings.TrimSpace(req.URL)}
	if b.ID == "" {
		b.ID = id.UUID()
	}
	if err := a.backend.Brokers().Save(b); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	a.log.Info("kafka broker saved", "brokerId", b.ID, "url", b.URL)
	httputil.WriteCreated(w, b)
}

// handleListBrokers handles GET /v1/settings/kafka-brokers.
func (a *API) handleListBrokers(w http.ResponseWriter, r *http.Request) {
	brokers, err := a.backend.Brokers().List()
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, brokers)
}

// handleGetBroker handles GET /v1/settings/kafka-brokers/{id}.
func (a *API) handleGetBroker(w http.ResponseWriter, r *http.Request) {
	b, err := a.backend.Brokers().Get(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, b)
}

// handleDeleteBroker handles DELETE /v1/settings/kafka-brokers/{id}.
func (a *API) handleDeleteBroker(w http.ResponseWriter, r *http.Request) {
	if err := a.backend.Brokers().Delete(r.PathValue("id")); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteNoContent(w)
}

// handleListGlobals handles GET /v1/globals.
func (a *API) handleListGlobals(w http.ResponseWriter, r *http.Request) {
	vars, err := a.backend.Globals().List()
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, GlobalsResponse{Variables: vars})
}

// handleUpsertGlobals handles PUT /v1/globals. The body is a JSON array of
// {key, value}; entries replace existing keys.
func (a *API) handleUpsertGlobals(w http.ResponseWriter, r *http.Request) {
	var vars []flow.GlobalVariable
	if err := httputil.ReadJSON(r, &vars); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	var checks []apperr.Check
	for i, v := range vars {
		if strings.TrimSpace(v.Key) == "" {
			checks = append(checks, apperr.Check{Field: fmt.Sprintf("variables[%d].key", i), Message: validation.MsgNotBlank})
		}
	}
	if len(checks) > 0 {
		httputil.WriteError(w, a.log, apperr.Validation(checks...))
		return
	}
	if err := a.backend.Globals().Upsert(vars...); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	all, err := a.backend.Globals().List()
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, GlobalsResponse{Variables: all})
}
