package httpapi

import (
	"net/http"

	"github.com/samad-59/access-guard-role-Project/internal/audit"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.svc.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		mapError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": session.User.ID,
		"email":   session.User.Email,
	})
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.svc.Register(r.Context(), req.Name, req.Email, req.Password, clientIP(r))
	if err != nil {
		mapError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": session.User.ID,
		"email":   session.User.Email,
	})
	writeJSON(w, http.StatusCreated, session)
}
