package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/samad-59/access-guard-role-Project/internal/obs"
)

// Permission names understood by the HTTP layer.
const (
	PermReadUsers         = "read_users"
	PermCreateUsers       = "create_users"
	PermUpdateUsers       = "update_users"
	PermDeleteUsers       = "delete_users"
	PermReadRoles         = "read_roles"
	PermCreateRoles       = "create_roles"
	PermUpdateRoles       = "update_roles"
	PermDeleteRoles       = "delete_roles"
	PermReadPermissions   = "read_permissions"
	PermCreatePermissions = "create_permissions"
	PermReadLogs          = "read_logs"
)

// BuiltinPermissionNames lists every capability seeded at bootstrap, in
// seeding order.
var BuiltinPermissionNames = []string{
	PermReadUsers, PermCreateUsers, PermUpdateUsers, PermDeleteUsers,
	PermReadRoles, PermCreateRoles, PermUpdateRoles, PermDeleteRoles,
	PermReadPermissions, PermCreatePermissions,
	PermReadLogs,
}

// AdminRoleName is the seeded role holding every builtin permission.
const AdminRoleName = "Admin"

// Bootstrap populates the default permissions, the Admin role and the
// initial admin account. It runs once at process start and is guarded by
// the catalog-empty precondition, so reruns are no-ops.
func (s *Service) Bootstrap(ctx context.Context, adminName, adminEmail, adminPassword string) error {
	count, err := s.store.CountPermissions(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: count permissions: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range BuiltinPermissionNames {
		description := "Can " + strings.ReplaceAll(name, "_", " ")
		if _, err := s.store.CreatePermission(ctx, name, description); err != nil {
			return fmt.Errorf("bootstrap: seed permission %s: %w", name, err)
		}
	}

	role, err := s.store.CreateRole(ctx, AdminRoleName, "Administrator with full access", BuiltinPermissionNames)
	if err != nil {
		return fmt.Errorf("bootstrap: seed admin role: %w", err)
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap: hash admin password: %w", err)
	}
	admin, err := s.store.CreateUser(ctx, adminName, normalizeEmail(adminEmail), hash, role.ID, StatusActive)
	if err != nil {
		return fmt.Errorf("bootstrap: seed admin user: %w", err)
	}

	obs.LogRequest(map[string]any{
		"level": "info",
		"msg":   "bootstrap seeded defaults",
		"admin": admin.Email,
		"role":  role.Name,
		"perms": len(BuiltinPermissionNames),
	})
	return nil
}
