package admin

import (
	"net/http"

	"github.com/jetmock/jetmock/pkg/engine"
	"github.com/jetmock/jetmock/pkg/httputil"
)

// handleCreateMock handles POST /v1/mocks.
func (a *API) handleCreateMock(w http.ResponseWriter, r *http.Request) {
	var req engine.MockRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	detail, err := a.backend.Service().Create(&req)
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteCreated(w, detail)
}

// handleListMocks handles GET /v1/mocks with an optional groupId filter.
func (a *API) handleListMocks(w http.ResponseWriter, r *http.Request) {
	mocks, err := a.backend.Service().List(r.URL.Query().Get("groupId"))
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, mocks)
}

// handleGetMock handles GET /v1/mocks/{id}.
func (a *API) handleGetMock(w http.ResponseWriter, r *http.Request) {
	detail, err := a.backend.Service().Get(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, detail)
}

// handleUpdateMock handles PUT /v1/mocks/{id}.
func (a *API) handleUpdateMock(w http.ResponseWriter, r *http.Request) {
	var req engine.MockRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	detail, err := a.backend.Service().Update(r.PathValue("id"), &req)
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, detail)
}

// handleDeleteMock handles DELETE /v1/mocks/{id}.
func (a *API) handleDeleteMock(w http.ResponseWriter, r *http.Request) {
	if err := a.backend.Service().Delete(r.PathValue("id")); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteNoContent(w)
}
