package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
	"github.com/samad-59/access-guard-role-Project/internal/store/memory"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "bootstrap-pw"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	svc     *auth.Service
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := memory.New()
	tokens, err := auth.NewTokenIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	svc, err := auth.NewService(store, tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Bootstrap(t.Context(), "Admin", testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	api := New(svc, ReadyProbe{}, "test")
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		svc:     svc,
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) put(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *apiClient) delete(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodDelete, path, nil, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func (c *apiClient) login(email, password string) auth.Session {
	c.t.Helper()
	resp := c.post("/api/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	session := decode[auth.Session](c.t, resp)
	if session.Token == "" {
		c.t.Fatal("empty token issued")
	}
	return session
}

func (c *apiClient) adminAuth() map[string]string {
	c.t.Helper()
	session := c.login(testAdminEmail, testAdminPassword)
	return map[string]string{"Authorization": "Bearer " + session.Token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["service"] != "access-guard-api" {
		t.Fatalf("unexpected service name: %v", body["service"])
	}

	resp = api.get("/readyz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterLoginFlow(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/api/auth/register", map[string]any{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "pw-123",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}
	session := decode[auth.Session](t, resp)
	if session.User.Email != "alice@example.com" || session.Token == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Role != nil {
		t.Fatalf("self-registered user must have no role: %+v", session.Role)
	}

	api.login("alice@example.com", "pw-123")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t)

	body := map[string]any{"name": "Alice", "email": "alice@example.com", "password": "pw"}
	resp := api.post("/api/auth/register", body, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register status: %d", resp.StatusCode)
	}
	resp = api.post("/api/auth/register", body, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/api/auth/login", map[string]any{
		"email":    testAdminEmail,
		"password": "wrong",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["message"] != "invalid email or password" {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/api/users", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.StatusCode)
	}

	resp = api.get("/api/users", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", resp.StatusCode)
	}

	resp = api.get("/api/users", nil, map[string]string{"Authorization": "Basic abc"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong scheme: expected 401, got %d", resp.StatusCode)
	}
}

func TestRegisteredUserHasNoRole(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/api/auth/register", map[string]any{
		"name": "Alice", "email": "alice@example.com", "password": "pw",
	}, nil)
	session := decode[auth.Session](t, resp)

	resp = api.get("/api/users", nil, map[string]string{"Authorization": "Bearer " + session.Token})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["message"] != "Access denied. No role assigned." {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}

func TestInsufficientPermissions(t *testing.T) {
	api := newTestAPI(t)
	adminAuth := api.adminAuth()

	// A viewer role that can read users but nothing else.
	resp := api.post("/api/roles", map[string]any{
		"name":        "Viewer",
		"permissions": []string{auth.PermReadUsers},
	}, adminAuth)
	role := decode[auth.Role](t, resp)

	resp = api.post("/api/users", map[string]any{
		"name": "Violet", "email": "violet@example.com", "password": "pw", "role": role.ID,
	}, adminAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user status: %d", resp.StatusCode)
	}

	session := api.login("violet@example.com", "pw")
	viewerAuth := map[string]string{"Authorization": "Bearer " + session.Token}

	resp = api.get("/api/users", nil, viewerAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("viewer read: expected 200, got %d", resp.StatusCode)
	}

	resp = api.post("/api/roles", map[string]any{"name": "Sneaky"}, viewerAuth)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["message"] != "Access denied. Insufficient permissions." {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}

func TestBlockedAccountRejectedWithLiveToken(t *testing.T) {
	api := newTestAPI(t)
	adminAuth := api.adminAuth()

	resp := api.post("/api/auth/register", map[string]any{
		"name": "Mallory", "email": "mallory@example.com", "password": "pw",
	}, nil)
	session := decode[auth.Session](t, resp)
	userAuth := map[string]string{"Authorization": "Bearer " + session.Token}

	// Block the account while its token is still valid.
	resp = api.put("/api/users/"+session.User.ID, map[string]any{"status": auth.StatusBlocked}, adminAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("block status: %d", resp.StatusCode)
	}

	resp = api.get("/api/users", nil, userAuth)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["message"] != "Your account has been blocked." {
		t.Fatalf("unexpected message: %q", body["message"])
	}

	// Login with correct credentials also fails closed.
	resp = api.post("/api/auth/login", map[string]any{
		"email": "mallory@example.com", "password": "pw",
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("blocked login: expected 403, got %d", resp.StatusCode)
	}
}

func TestUserCRUD(t *testing.T) {
	api := newTestAPI(t)
	adminAuth := api.adminAuth()

	resp := api.post("/api/users", map[string]any{
		"name": "Bob", "email": "bob@example.com", "password": "pw",
	}, adminAuth)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	created := decode[auth.User](t, resp)
	if created.Status != auth.StatusActive {
		t.Fatalf("default status wrong: %s", created.Status)
	}

	// Partial update: only the name changes.
	resp = api.put("/api/users/"+created.ID, map[string]any{"name": "Robert"}, adminAuth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %d", resp.StatusCode)
	}
	updated := decode[auth.User](t, resp)
	if updated.Name != "Robert" || updated.Email != "bob@example.com" {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	resp = api.get("/api/users", nil, adminAuth)
	users := decode[[]userView](t, resp)
	if len(users) != 2 {
		t.Fatalf("expected admin plus bob, got %d users", len(users))
	}

	resp = api.delete("/api/users/"+created.ID, adminAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}

	resp = api.put("/api/users/"+created.ID, map[string]any{"name": "Ghost"}, adminAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update deleted: expected 404, got %d", resp.StatusCode)
	}
}

func TestRoleCRUDAndDanglingAssignment(t *testing.T) {
	api := newTestAPI(t)
	adminAuth := api.adminAuth()

	resp := api.post("/api/roles", map[string]any{
		"name":        "Editor",
		"permissions": []string{auth.PermReadUsers, auth.PermUpdateUsers},
		"description": "can edit users",
	}, adminAuth)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create role status: %d", resp.StatusCode)
	}
	role := decode[auth.Role](t, resp)

	// Update clears permissions via an explicit empty list.
	resp = api.put("/api/roles/"+role.ID, map[string]any{"permissions": []string{}}, adminAuth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update role status: %d", resp.StatusCode)
	}
	updated := decode[auth.Role](t, resp)
	if len(updated.Permissions) != 0 {
		t.Fatalf("permissions not cleared: %v", updated.Permissions)
	}
	if updated.Description != "can edit users" {
		t.Fatalf("untouched description changed: %q", updated.Description)
	}

	// Assign the role, then delete it; the user keeps a dangling reference.
	resp = api.post("/api/users", map[string]any{
		"name": "Eve", "email": "eve@example.com", "password": "pw", "role": role.ID,
	}, adminAuth)
	resp.Body.Close()

	resp = api.delete("/api/roles/"+role.ID, adminAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete role status: %d", resp.StatusCode)
	}

	session := api.login("eve@example.com", "pw")
	if session.Role != nil {
		t.Fatalf("dangling role must resolve to nil: %+v", session.Role)
	}
	resp = api.get("/api/users", nil, map[string]string{"Authorization": "Bearer " + session.Token})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("dangling role access: expected 403, got %d", resp.StatusCode)
	}
}

func TestPermissionCatalog(t *testing.T) {
	api := newTestAPI(t)
	adminAuth := api.adminAuth()

	resp := api.get("/api/permissions", nil, adminAuth)
	perms := decode[[]auth.Permission](t, resp)
	if len(perms) != len(auth.BuiltinPermissionNames) {
		t.Fatalf("expected seeded catalog, got %d", len(perms))
	}

	resp = api.post("/api/permissions", map[string]any{
		"name": "export_reports", "description": "Can export reports",
	}, adminAuth)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create permission status: %d", resp.StatusCode)
	}
	perm := decode[auth.Permission](t, resp)
	if perm.Name != "export_reports" {
		t.Fatalf("unexpected permission: %+v", perm)
	}

	resp = api.post("/api/permissions", map[string]any{"name": "export_reports"}, adminAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate permission: expected 409, got %d", resp.StatusCode)
	}
}

func TestActivityLogEndpoint(t *testing.T) {
	api := newTestAPI(t)
	adminAuth := api.adminAuth()

	resp := api.post("/api/roles", map[string]any{"name": "Auditors"}, adminAuth)
	resp.Body.Close()

	resp = api.get("/api/logs", nil, adminAuth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logs status: %d", resp.StatusCode)
	}
	records := decode[[]auth.ActivityRecord](t, resp)
	if len(records) < 2 {
		t.Fatalf("expected login and role creation entries, got %d", len(records))
	}
	if records[0].Action != "Create Role" {
		t.Fatalf("newest entry first, got %q", records[0].Action)
	}
	if records[0].Actor.Name != "Admin" || records[0].Actor.Email != testAdminEmail {
		t.Fatalf("actor projection wrong: %+v", records[0].Actor)
	}

	resp = api.get("/api/logs", url.Values{"limit": {"1"}}, adminAuth)
	limited := decode[[]auth.ActivityRecord](t, resp)
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	api := newTestAPI(t)
	adminAuth := api.adminAuth()

	resp := api.get("/api/unknown", nil, adminAuth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp = api.delete("/api/users", adminAuth)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow == "" {
		t.Fatal("missing Allow header")
	}
}

func TestMalformedBody(t *testing.T) {
	api := newTestAPI(t)

	req, err := http.NewRequest(http.MethodPost, api.baseURL+"/api/auth/login", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
