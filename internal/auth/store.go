package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
// Uniqueness of user email and role name is enforced inside the store as
// an atomic check-and-insert: with concurrent creates of the same key
// exactly one caller wins and every loser receives ErrConflict.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash, roleID, status string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateRole(ctx context.Context, name, description string, permissions []string) (Role, error)
	GetRole(ctx context.Context, id string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id string, upd RoleUpdate) (Role, error)
	DeleteRole(ctx context.Context, id string) error

	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	CountPermissions(ctx context.Context) (int, error)

	AppendActivity(ctx context.Context, entry ActivityEntry) (ActivityEntry, error)
	ListActivity(ctx context.Context, limit int) ([]ActivityRecord, error)
}
