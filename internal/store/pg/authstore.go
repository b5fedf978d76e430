package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
	"github.com/samad-59/access-guard-role-Project/internal/ids"
)

var _ auth.Store = (*Store)(nil)

// User store ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, roleID, status string) (auth.User, error) {
	var user auth.User
	var role sql.NullString
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, name, email, password_hash, role_id, status)
		values ($1, $2, $3, $4, $5, $6)
		returning id, name, email, password_hash, role_id, status, created_at, updated_at
	`, ids.New(), name, email, passwordHash, nullIfEmpty(roleID), status)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.User{}, auth.ErrConflict
		}
		return auth.User{}, err
	}
	if role.Valid {
		user.RoleID = role.String
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (auth.User, error) {
	return s.userBy(ctx, `id = $1`, id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.userBy(ctx, `email = $1`, email)
}

func (s *Store) userBy(ctx context.Context, where, arg string) (auth.User, error) {
	var user auth.User
	var role sql.NullString
	err := s.db.QueryRowContext(ctx, `
		select id, name, email, password_hash, role_id, status, created_at, updated_at
		from users
		where `+where, arg,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.User{}, err
	}
	if role.Valid {
		user.RoleID = role.String
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, email, password_hash, role_id, status, created_at, updated_at
		from users
		order by created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		var user auth.User
		var role sql.NullString
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		if role.Valid {
			user.RoleID = role.String
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd auth.UserUpdate) (auth.User, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, *upd.Email)
		idx++
	}
	if upd.RoleID != nil {
		sets = append(sets, fmt.Sprintf("role_id = $%d", idx))
		args = append(args, nullIfEmpty(*upd.RoleID))
		idx++
	}
	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", idx))
		args = append(args, *upd.Status)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return auth.User{}, auth.ErrConflict
			}
			return auth.User{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return auth.User{}, err
		}
		if aff == 0 {
			return auth.User{}, auth.ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "users", id)
}

// Role store ---------------------------------------------------------------

func (s *Store) CreateRole(ctx context.Context, name, description string, permissions []string) (auth.Role, error) {
	perms, err := marshalPermissions(permissions)
	if err != nil {
		return auth.Role{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		insert into roles (id, name, permissions, description)
		values ($1, $2, $3, $4)
		returning id, name, permissions, description, created_at, updated_at
	`, ids.New(), name, perms, nullIfEmpty(description))
	role, err := scanRole(row)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.Role{}, auth.ErrConflict
		}
		return auth.Role{}, err
	}
	return role, nil
}

func (s *Store) GetRole(ctx context.Context, id string) (auth.Role, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, name, permissions, description, created_at, updated_at
		from roles
		where id = $1
	`, id)
	role, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Role{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.Role{}, err
	}
	return role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, permissions, description, created_at, updated_at
		from roles
		order by created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Store) UpdateRole(ctx context.Context, id string, upd auth.RoleUpdate) (auth.Role, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Permissions != nil {
		perms, err := marshalPermissions(*upd.Permissions)
		if err != nil {
			return auth.Role{}, err
		}
		sets = append(sets, fmt.Sprintf("permissions = $%d", idx))
		args = append(args, perms)
		idx++
	}
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Description))
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update roles set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return auth.Role{}, auth.ErrConflict
			}
			return auth.Role{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return auth.Role{}, err
		}
		if aff == 0 {
			return auth.Role{}, auth.ErrNotFound
		}
	}
	return s.GetRole(ctx, id)
}

// DeleteRole removes the role only. Users keep their role_id; the
// dangling reference resolves to "no role assigned" at check time.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "roles", id)
}

// Permission store ---------------------------------------------------------

func (s *Store) CreatePermission(ctx context.Context, name, description string) (auth.Permission, error) {
	var perm auth.Permission
	var desc sql.NullString
	row := s.db.QueryRowContext(ctx, `
		insert into permissions (id, name, description)
		values ($1, $2, $3)
		returning id, name, description, created_at
	`, ids.New(), name, nullIfEmpty(description))
	if err := row.Scan(&perm.ID, &perm.Name, &desc, &perm.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.Permission{}, auth.ErrConflict
		}
		return auth.Permission{}, err
	}
	if desc.Valid {
		perm.Description = desc.String
	}
	return perm, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, created_at
		from permissions
		order by created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []auth.Permission
	for rows.Next() {
		var perm auth.Permission
		var desc sql.NullString
		if err := rows.Scan(&perm.ID, &perm.Name, &desc, &perm.CreatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			perm.Description = desc.String
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (s *Store) CountPermissions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `select count(*) from permissions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Activity store -----------------------------------------------------------

func (s *Store) AppendActivity(ctx context.Context, entry auth.ActivityEntry) (auth.ActivityEntry, error) {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into activity_log (id, actor_id, action, origin, details, occurred_at)
		values ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.ActorID, entry.Action, nullIfEmpty(entry.Origin), nullIfEmpty(entry.Details), entry.OccurredAt)
	if err != nil {
		return auth.ActivityEntry{}, err
	}
	return entry, nil
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]auth.ActivityRecord, error) {
	if limit <= 0 {
		limit = auth.DefaultActivityLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		select a.id, a.actor_id, a.action, a.origin, a.details, a.occurred_at, u.name, u.email
		from activity_log a
		left join users u on u.id = a.actor_id
		order by a.occurred_at desc, a.id desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []auth.ActivityRecord
	for rows.Next() {
		var rec auth.ActivityRecord
		var origin, details, actorName, actorEmail sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &origin, &details, &rec.OccurredAt, &actorName, &actorEmail); err != nil {
			return nil, err
		}
		rec.Origin = origin.String
		rec.Details = details.String
		rec.Actor = auth.ActorRef{Name: actorName.String, Email: actorEmail.String}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// helpers ------------------------------------------------------------------

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`delete from %s where id = $1`, table), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

type roleScanner interface {
	Scan(dest ...any) error
}

func scanRole(row roleScanner) (auth.Role, error) {
	var (
		role     auth.Role
		rawPerms []byte
		desc     sql.NullString
	)
	if err := row.Scan(&role.ID, &role.Name, &rawPerms, &desc, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return auth.Role{}, err
	}
	if len(rawPerms) > 0 {
		if err := json.Unmarshal(rawPerms, &role.Permissions); err != nil {
			return auth.Role{}, fmt.Errorf("decode permissions: %w", err)
		}
	}
	if desc.Valid {
		role.Description = desc.String
	}
	return role, nil
}

func marshalPermissions(permissions []string) ([]byte, error) {
	if permissions == nil {
		permissions = []string{}
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}
	return data, nil
}

func nullIfEmpty(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
