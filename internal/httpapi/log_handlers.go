package httpapi

import (
	"net/http"
	"strconv"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
)

func (a *API) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermReadLogs) {
		return
	}
	limit := auth.DefaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := a.svc.ListActivity(r.Context(), limit)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
