package admin

import (
	"net/http"
	"strconv"

	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/httputil"
	"github.com/jetmock/jetmock/pkg/requestlog"
)

// handleListRequests handles GET /v1/requests.
func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRequestFilter(r)
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	store := a.backend.Requests()
	httputil.WriteOK(w, RequestListResponse{
		Requests: store.List(filter),
		Total:    store.Count(),
	})
}

// handleGetRequest handles GET /v1/requests/{id}.
func (a *API) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry := a.backend.Requests().Get(id)
	if entry == nil {
		httputil.WriteError(w, a.log, apperr.NotFound(apperr.CodeRequestNotFound, "Request "+id+" not found"))
		return
	}
	httputil.WriteOK(w, entry)
}

// handleClearRequests handles DELETE /v1/requests.
func (a *API) handleClearRequests(w http.ResponseWriter, r *http.Request) {
	a.backend.Requests().Clear()
	httputil.WriteNoContent(w)
}

func parseRequestFilter(r *http.Request) (*requestlog.Filter, error) {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		Trigger:   q.Get("trigger"),
		Group:     q.Get("group"),
		Method:    q.Get("method"),
		Path:      q.Get("path"),
		Topic:     q.Get("topic"),
		MatchedID: q.Get("flowId"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"status", &filter.StatusCode},
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, apperr.BadRequest("Invalid query parameter "+p.name, err)
		}
		*p.dst = n
	}

	if v := q.Get("hasError"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperr.BadRequest("Invalid query parameter hasError", err)
		}
		filter.HasError = &b
	}
	return filter, nil
}
