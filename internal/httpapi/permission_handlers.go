package httpapi

import (
	"net/http"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
)

type createPermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, auth.PermReadPermissions) {
			return
		}
		perms, err := a.svc.ListPermissions(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, perms)

	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCreatePermissions) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())
		var req createPermissionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		perm, err := a.svc.CreatePermission(r.Context(), principal.User.ID, req.Name, req.Description, clientIP(r))
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, perm)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}
