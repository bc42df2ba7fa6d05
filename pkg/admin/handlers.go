package admin

import (
	"net/http"

	"github.com/jetmock/jetmock/pkg/httputil"
)

// handleHealth handles GET /health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, HealthResponse{
		Status:          "ok",
		Uptime:          a.Uptime(),
		ActiveListeners: len(a.backend.Listeners().ListActive()),
	})
}

// handleListListeners handles GET /api/v1/kafka/listeners.
func (a *API) handleListListeners(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, a.backend.Listeners().ListActive())
}
