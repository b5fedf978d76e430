package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samad-59/access-guard-role-Project/internal/obs"
)

// DefaultActivityLimit caps audit listings unless the caller asks for less.
const DefaultActivityLimit = 100

// Service provides authentication, RBAC administration and the audit
// trail on top of a Store.
type Service struct {
	store  Store
	tokens *TokenIssuer
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, tokens *TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	svc := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Session is the result of a successful authentication: the user, their
// resolved role (nil when unassigned or dangling) and a fresh credential.
type Session struct {
	User      User      `json:"user"`
	Role      *Role     `json:"role,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyToken resolves a raw bearer token to a user id.
func (s *Service) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

// Register creates a self-service account with no role assigned and logs
// the caller straight in.
func (s *Service) Register(ctx context.Context, name, email, password, origin string) (Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateEmail(email); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(password) == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.CreateUser(ctx, name, email, hash, "", StatusActive)
	if err != nil {
		return Session{}, err
	}
	s.appendActivity(ctx, user.ID, "Register", origin, "User registered")
	return s.session(user, nil)
}

// Login authenticates credentials and issues a session. Unknown email and
// password mismatch are indistinguishable to the caller; a blocked
// account with correct credentials fails closed without issuing a token.
func (s *Service) Login(ctx context.Context, email, password, origin string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if user.Status == StatusBlocked {
		return Session{}, ErrAccountBlocked
	}
	role, err := s.resolveRole(ctx, user.RoleID)
	if err != nil {
		return Session{}, err
	}
	s.appendActivity(ctx, user.ID, "Login", origin, "User logged in successfully")
	return s.session(user, role)
}

// CreateUser is the operator path: role and status are assignable at
// creation. The audit entry is attributed to the operator, not the new
// account.
func (s *Service) CreateUser(ctx context.Context, actorID, name, email, password, roleID, status, origin string) (User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateEmail(email); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(password) == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	status, err := normalizeStatus(status)
	if err != nil {
		return User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	user, err := s.store.CreateUser(ctx, name, email, hash, strings.TrimSpace(roleID), status)
	if err != nil {
		return User{}, err
	}
	s.appendActivity(ctx, actorID, "Create User", origin, fmt.Sprintf("Created user %s", user.Email))
	return user, nil
}

// UpdateUser applies a partial mutation; nil fields are left unchanged.
func (s *Service) UpdateUser(ctx context.Context, actorID, id string, upd UserUpdate, origin string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if err := validateEmail(email); err != nil {
			return User{}, err
		}
		upd.Email = &email
	}
	if upd.Status != nil {
		status, err := normalizeStatus(*upd.Status)
		if err != nil {
			return User{}, err
		}
		upd.Status = &status
	}
	if upd.RoleID != nil {
		roleID := strings.TrimSpace(*upd.RoleID)
		upd.RoleID = &roleID
	}
	user, err := s.store.UpdateUser(ctx, id, upd)
	if err != nil {
		return User{}, err
	}
	s.appendActivity(ctx, actorID, "Update User", origin, fmt.Sprintf("Updated user %s", user.Email))
	return user, nil
}

// DeleteUser removes an account. The deletion is always audited.
func (s *Service) DeleteUser(ctx context.Context, actorID, id, origin string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.appendActivity(ctx, actorID, "Delete User", origin, fmt.Sprintf("Deleted user %s", user.Email))
	return nil
}

// GetUser fetches a live user record by id.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.store.GetUser(ctx, strings.TrimSpace(id))
}

// ListUsers returns all users in creation order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// ResolveRole loads the role referenced by a user, tolerating dangling
// references: a missing role comes back nil, not an error.
func (s *Service) ResolveRole(ctx context.Context, roleID string) (*Role, error) {
	return s.resolveRole(ctx, roleID)
}

// CreateRole registers a new permission bundle.
func (s *Service) CreateRole(ctx context.Context, actorID, name string, permissions []string, description, origin string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role, err := s.store.CreateRole(ctx, name, strings.TrimSpace(description), dedupeStrings(permissions))
	if err != nil {
		return Role{}, err
	}
	s.appendActivity(ctx, actorID, "Create Role", origin, fmt.Sprintf("Created role %s", role.Name))
	return role, nil
}

// UpdateRole applies a partial mutation; nil fields are left unchanged.
// A non-nil empty permission slice clears the set.
func (s *Service) UpdateRole(ctx context.Context, actorID, id string, upd RoleUpdate, origin string) (Role, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Role{}, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		upd.Description = &desc
	}
	if upd.Permissions != nil {
		perms := dedupeStrings(*upd.Permissions)
		upd.Permissions = &perms
	}
	role, err := s.store.UpdateRole(ctx, id, upd)
	if err != nil {
		return Role{}, err
	}
	s.appendActivity(ctx, actorID, "Update Role", origin, fmt.Sprintf("Updated role %s", role.Name))
	return role, nil
}

// DeleteRole removes a role. Users referencing it are left untouched;
// their checks resolve to "no role assigned" from now on.
func (s *Service) DeleteRole(ctx context.Context, actorID, id, origin string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.appendActivity(ctx, actorID, "Delete Role", origin, fmt.Sprintf("Deleted role %s", role.Name))
	return nil
}

// ListRoles returns all roles in insertion order.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// CreatePermission adds a capability to the catalog.
func (s *Service) CreatePermission(ctx context.Context, actorID, name, description, origin string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	perm, err := s.store.CreatePermission(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Permission{}, err
	}
	s.appendActivity(ctx, actorID, "Create Permission", origin, fmt.Sprintf("Created permission %s", perm.Name))
	return perm, nil
}

// ListPermissions returns the full catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// ListActivity returns the newest audit records first, joined with a
// display-safe actor projection.
func (s *Service) ListActivity(ctx context.Context, limit int) ([]ActivityRecord, error) {
	if limit <= 0 || limit > DefaultActivityLimit {
		limit = DefaultActivityLimit
	}
	return s.store.ListActivity(ctx, limit)
}

func (s *Service) session(user User, role *Role) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Role: role, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) resolveRole(ctx context.Context, roleID string) (*Role, error) {
	if strings.TrimSpace(roleID) == "" {
		return nil, nil
	}
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// appendActivity records an audit entry. Best effort: a failing append is
// logged and never rolls back the mutation that triggered it.
func (s *Service) appendActivity(ctx context.Context, actorID, action, origin, details string) {
	entry := ActivityEntry{
		ActorID:    actorID,
		Action:     action,
		Origin:     origin,
		Details:    details,
		OccurredAt: s.now().UTC(),
	}
	if _, err := s.store.AppendActivity(ctx, entry); err != nil {
		obs.LogRequest(map[string]any{
			"level":  "error",
			"msg":    "activity append failed",
			"action": action,
			"error":  err.Error(),
		})
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return nil
}

func normalizeStatus(status string) (string, error) {
	switch strings.TrimSpace(status) {
	case "", StatusActive:
		return StatusActive, nil
	case StatusBlocked:
		return StatusBlocked, nil
	default:
		return "", fmt.Errorf("%w: unsupported status %q", ErrInvalidInput, status)
	}
}

func dedupeStrings(values []string) []string {
	set := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
