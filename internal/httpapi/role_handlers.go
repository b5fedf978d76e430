package httpapi

import (
	"net/http"
	"strings"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
)

type createRoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Description string   `json:"description"`
}

type updateRoleRequest struct {
	Name        *string   `json:"name"`
	Permissions *[]string `json:"permissions"`
	Description *string   `json:"description"`
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, auth.PermReadRoles) {
			return
		}
		roles, err := a.svc.ListRoles(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, roles)

	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCreateRoles) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())
		var req createRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.svc.CreateRole(r.Context(), principal.User.ID, req.Name, req.Permissions, req.Description, clientIP(r))
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, role)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/roles/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		if !a.ensurePermissions(w, r, auth.PermUpdateRoles) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())
		var req updateRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd := auth.RoleUpdate{
			Name:        req.Name,
			Permissions: req.Permissions,
			Description: req.Description,
		}
		role, err := a.svc.UpdateRole(r.Context(), principal.User.ID, id, upd, clientIP(r))
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, role)

	case http.MethodDelete:
		if !a.ensurePermissions(w, r, auth.PermDeleteRoles) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())
		if err := a.svc.DeleteRole(r.Context(), principal.User.ID, id, clientIP(r)); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Role removed"})

	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}
