// Package memory implements auth.Store with process-local state. It backs
// the test suite and DSN-less development runs; uniqueness is enforced as
// an atomic check-and-insert under one mutex, so concurrent creates of
// the same key surface auth.ErrConflict to exactly one loser.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
	"github.com/samad-59/access-guard-role-Project/internal/ids"
)

var _ auth.Store = (*Store)(nil)

// Store keeps all collections in memory.
type Store struct {
	mu sync.RWMutex

	users     map[string]auth.User
	userOrder []string

	roles     map[string]auth.Role
	roleOrder []string

	perms     map[string]auth.Permission
	permOrder []string

	activity []auth.ActivityEntry

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users: make(map[string]auth.User),
		roles: make(map[string]auth.Role),
		perms: make(map[string]auth.Permission),
		now:   time.Now,
	}
}

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, roleID, status string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return auth.User{}, auth.ErrConflict
		}
	}
	now := s.now().UTC()
	user := auth.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		RoleID:       roleID,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user
	s.userOrder = append(s.userOrder, user.ID)
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.userOrder {
		if u, ok := s.users[id]; ok && u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]auth.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd auth.UserUpdate) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	if upd.Email != nil && *upd.Email != user.Email {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *upd.Email {
				return auth.User{}, auth.ErrConflict
			}
		}
		user.Email = *upd.Email
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.RoleID != nil {
		user.RoleID = *upd.RoleID
	}
	if upd.Status != nil {
		user.Status = *upd.Status
	}
	user.UpdatedAt = s.now().UTC()
	s.users[id] = user
	return user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	for i, uid := range s.userOrder {
		if uid == id {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) CreateRole(ctx context.Context, name, description string, permissions []string) (auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			return auth.Role{}, auth.ErrConflict
		}
	}
	now := s.now().UTC()
	role := auth.Role{
		ID:          ids.New(),
		Name:        name,
		Permissions: append([]string(nil), permissions...),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.roles[role.ID] = role
	s.roleOrder = append(s.roleOrder, role.ID)
	return role, nil
}

func (s *Store) GetRole(ctx context.Context, id string) (auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		return auth.Role{}, auth.ErrNotFound
	}
	role.Permissions = append([]string(nil), role.Permissions...)
	return role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]auth.Role, 0, len(s.roleOrder))
	for _, id := range s.roleOrder {
		if r, ok := s.roles[id]; ok {
			r.Permissions = append([]string(nil), r.Permissions...)
			roles = append(roles, r)
		}
	}
	return roles, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, upd auth.RoleUpdate) (auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return auth.Role{}, auth.ErrNotFound
	}
	if upd.Name != nil && *upd.Name != role.Name {
		for otherID, other := range s.roles {
			if otherID != id && other.Name == *upd.Name {
				return auth.Role{}, auth.ErrConflict
			}
		}
		role.Name = *upd.Name
	}
	if upd.Permissions != nil {
		role.Permissions = append([]string(nil), (*upd.Permissions)...)
	}
	if upd.Description != nil {
		role.Description = *upd.Description
	}
	role.UpdatedAt = s.now().UTC()
	s.roles[id] = role
	return role, nil
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.roles, id)
	for i, rid := range s.roleOrder {
		if rid == id {
			s.roleOrder = append(s.roleOrder[:i], s.roleOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) CreatePermission(ctx context.Context, name, description string) (auth.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.perms {
		if p.Name == name {
			return auth.Permission{}, auth.ErrConflict
		}
	}
	perm := auth.Permission{
		ID:          ids.New(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	s.perms[perm.ID] = perm
	s.permOrder = append(s.permOrder, perm.ID)
	return perm, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms := make([]auth.Permission, 0, len(s.permOrder))
	for _, id := range s.permOrder {
		if p, ok := s.perms[id]; ok {
			perms = append(perms, p)
		}
	}
	return perms, nil
}

func (s *Store) CountPermissions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.perms), nil
}

func (s *Store) AppendActivity(ctx context.Context, entry auth.ActivityEntry) (auth.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = s.now().UTC()
	}
	s.activity = append(s.activity, entry)
	return entry, nil
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]auth.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = auth.DefaultActivityLimit
	}
	records := make([]auth.ActivityRecord, 0, limit)
	// Entries append in timestamp order, so walking backwards yields
	// newest first.
	for i := len(s.activity) - 1; i >= 0 && len(records) < limit; i-- {
		entry := s.activity[i]
		record := auth.ActivityRecord{ActivityEntry: entry}
		if actor, ok := s.users[entry.ActorID]; ok {
			record.Actor = auth.ActorRef{Name: actor.Name, Email: actor.Email}
		}
		records = append(records, record)
	}
	return records, nil
}
