package auth

import "time"

// User statuses. A blocked user keeps their record but cannot
// authenticate or pass the authorization gate.
const (
	StatusActive  = "Active"
	StatusBlocked = "Blocked"
)

// User is a human account. RoleID may be empty (no role assigned) or may
// point at a role that no longer exists; both resolve to "no role" at
// authorization time.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role bundles permission names. Permissions is an unordered set; entries
// are not cross-checked against the permission catalog.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasPermission reports set membership of a permission name.
func (r Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// Permission is an atomic capability, referenced by name everywhere.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityEntry is one append-only audit record.
type ActivityEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	Origin     string    `json:"origin,omitempty"`
	Details    string    `json:"details,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActorRef is the display-safe projection of the acting user joined onto
// activity listings. Never carries the password hash.
type ActorRef struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ActivityRecord is an activity entry with its actor resolved for display.
type ActivityRecord struct {
	ActivityEntry
	Actor ActorRef `json:"actor"`
}

// UserUpdate carries a partial user mutation. Nil means "leave unchanged";
// a non-nil pointer to an empty string clears the field where clearing is
// meaningful (RoleID).
type UserUpdate struct {
	Name   *string
	Email  *string
	RoleID *string
	Status *string
}

// RoleUpdate carries a partial role mutation with the same nil semantics.
type RoleUpdate struct {
	Name        *string
	Permissions *[]string
	Description *string
}
