package auth

import (
	"context"
	"errors"
)

// Deny reasons reported by the authorization gate.
const (
	DenyUnauthenticated = "unauthenticated"
	DenyNoRole          = "no role assigned"
	DenyInsufficient    = "insufficient permissions"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision          { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Principal is the resolved caller of a request: the live user record and
// their role at authentication time. Role may be nil.
type Principal struct {
	User User  `json:"user"`
	Role *Role `json:"role,omitempty"`
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}

// Check decides whether user may perform the operation guarded by the
// required permission. The role is re-read from the store on every call
// so concurrent role edits are observed; a dangling or absent role
// resolves to "no role assigned". Check performs no side effects.
func (s *Service) Check(ctx context.Context, user *User, required string) (Decision, error) {
	if user == nil {
		return deny(DenyUnauthenticated), nil
	}
	if user.RoleID == "" {
		return deny(DenyNoRole), nil
	}
	role, err := s.store.GetRole(ctx, user.RoleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return deny(DenyNoRole), nil
		}
		return Decision{}, err
	}
	if role.HasPermission(required) {
		return allow(), nil
	}
	return deny(DenyInsufficient), nil
}
