package httpapi

import (
	"net/http"
	"strings"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// updateUserRequest distinguishes omitted fields (nil) from explicitly
// cleared ones, so `"role": ""` unassigns while leaving name untouched.
type updateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// userView joins the resolved role onto a user for display.
type userView struct {
	auth.User
	Role *auth.Role `json:"role,omitempty"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, auth.PermReadUsers) {
			return
		}
		users, err := a.svc.ListUsers(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		roles, err := a.svc.ListRoles(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		byID := make(map[string]auth.Role, len(roles))
		for _, role := range roles {
			byID[role.ID] = role
		}
		views := make([]userView, 0, len(users))
		for _, user := range users {
			view := userView{User: user}
			if role, ok := byID[user.RoleID]; ok {
				role := role
				view.Role = &role
			}
			views = append(views, view)
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCreateUsers) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())
		var req createUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.svc.CreateUser(r.Context(), principal.User.ID, req.Name, req.Email, req.Password, req.Role, req.Status, clientIP(r))
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		if !a.ensurePermissions(w, r, auth.PermUpdateUsers) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd := auth.UserUpdate{
			Name:   req.Name,
			Email:  req.Email,
			RoleID: req.Role,
			Status: req.Status,
		}
		user, err := a.svc.UpdateUser(r.Context(), principal.User.ID, id, upd, clientIP(r))
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if !a.ensurePermissions(w, r, auth.PermDeleteUsers) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())
		if err := a.svc.DeleteUser(r.Context(), principal.User.ID, id, clientIP(r)); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "User removed"})

	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}
