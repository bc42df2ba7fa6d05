package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/jetmock/jetmock/internal/id"
	"github.com/jetmock/jetmock/pkg/apperr"
	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/jetmock/jetmock/pkg/httputil"
	"github.com/jetmock/jetmock/pkg/validation"
)

// handleCreateGroup handles POST /v1/groups. New groups are active.
func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httputil.WriteError(w, a.log, apperr.Validation(apperr.Check{Field: "name", Message: validation.MsgNotBlank}))
		return
	}

	g := &flow.Group{
		ID:        id.UUID(),
		Name:      strings.TrimSpace(req.Name),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.backend.Groups().Create(g); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	a.log.Info("group created", "groupId", g.ID, "name", g.Name)
	httputil.WriteCreated(w, a.groupResponse(g, 0))
}

// handleListGroups handles GET /v1/groups.
func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := a.backend.Groups().List()
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		count, err := a.backend.Flows().CountByGroup(g.ID)
		if err != nil {
			httputil.WriteError(w, a.log, err)
			return
		}
		out = append(out, a.groupResponse(g, count))
	}
	httputil.WriteOK(w, out)
}

// handleGetGroup handles GET /v1/groups/{id}.
func (a *API) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := a.backend.Groups().Get(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	count, err := a.backend.Flows().CountByGroup(g.ID)
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	httputil.WriteOK(w, a.groupResponse(g, count))
}

// handleUpdateGroupStatus handles PATCH /v1/groups/{id}/status.
func (a *API) handleUpdateGroupStatus(w http.ResponseWriter, r *http.Request) {
	var req GroupStatusRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	if req.IsActive == nil {
		httputil.WriteError(w, a.log, apperr.Validation(apperr.Check{Field: "isActive", Message: validation.MsgNotNull}))
		return
	}
	g, err := a.backend.Groups().SetActive(r.PathValue("id"), *req.IsActive)
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	a.log.Info("group status changed", "groupId", g.ID, "isActive", g.IsActive)
	httputil.WriteNoContent(w)
}

// handleDeleteGroup handles DELETE /v1/groups/{id}. The group's flows are
// deleted first so their index rows and listeners go with them.
func (a *API) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if _, err := a.backend.Groups().Get(groupID); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}

	mocks, err := a.backend.Service().List(groupID)
	if err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	for _, m := range mocks {
		if err := a.backend.Service().Delete(m.ID); err != nil {
			httputil.WriteError(w, a.log, err)
			return
		}
	}

	if err := a.backend.Groups().Delete(groupID); err != nil {
		httputil.WriteError(w, a.log, err)
		return
	}
	a.log.Info("group deleted", "groupId", groupID, "mocks", len(mocks))
	httputil.WriteNoContent(w)
}

func (a *API) groupResponse(g *flow.Group, count int) GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		MockCount: count,
		IsActive:  g.IsActive,
	}
}
