package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
)

func TestCreateUserConcurrentSameEmail(t *testing.T) {
	store := New()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateUser(ctx, "Alice", "alice@example.com", "hash", "", auth.StatusActive)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, auth.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != writers-1 {
		t.Fatalf("expected exactly one winner, got ok=%d conflicts=%d", ok, conflicts)
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("duplicate users stored: %d", len(users))
	}
}

func TestUserLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "Bob", "bob@example.com", "hash", "role-1", auth.StatusActive)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == "" || user.CreatedAt.IsZero() {
		t.Fatalf("incomplete record: %+v", user)
	}

	found, err := store.FindUserByEmail(ctx, "bob@example.com")
	if err != nil || found.ID != user.ID {
		t.Fatalf("FindUserByEmail: %+v %v", found, err)
	}

	name := "Robert"
	updated, err := store.UpdateUser(ctx, user.ID, auth.UserUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "Robert" || updated.Email != "bob@example.com" {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := store.GetUser(ctx, user.ID); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteUser(ctx, user.ID); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserEmailConflict(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, "A", "a@example.com", "h", "", auth.StatusActive); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	b, err := store.CreateUser(ctx, "B", "b@example.com", "h", "", auth.StatusActive)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	taken := "a@example.com"
	if _, err := store.UpdateUser(ctx, b.ID, auth.UserUpdate{Email: &taken}); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRoleNameUniqueAndIsolated(t *testing.T) {
	store := New()
	ctx := context.Background()

	role, err := store.CreateRole(ctx, "Editor", "", []string{"read_users"})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if _, err := store.CreateRole(ctx, "Editor", "", nil); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Mutating a returned slice must not leak into the store.
	got, err := store.GetRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("GetRole: %v", err)
	}
	got.Permissions[0] = "mangled"
	again, err := store.GetRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("GetRole: %v", err)
	}
	if again.Permissions[0] != "read_users" {
		t.Fatalf("stored permissions aliased: %v", again.Permissions)
	}
}

func TestListOrderIsInsertionOrder(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		if _, err := store.CreatePermission(ctx, name, ""); err != nil {
			t.Fatalf("CreatePermission: %v", err)
		}
	}
	perms, err := store.ListPermissions(ctx)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	for i, want := range []string{"one", "two", "three"} {
		if perms[i].Name != want {
			t.Fatalf("permission %d = %q, want %q", i, perms[i].Name, want)
		}
	}
	count, err := store.CountPermissions(ctx)
	if err != nil || count != 3 {
		t.Fatalf("CountPermissions = %d, %v", count, err)
	}
}

func TestActivityNewestFirstWithActorJoin(t *testing.T) {
	store := New()
	ctx := context.Background()

	actor, err := store.CreateUser(ctx, "Alice", "alice@example.com", "h", "", auth.StatusActive)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, action := range []string{"Login", "Create Role", "Delete Role"} {
		_, err := store.AppendActivity(ctx, auth.ActivityEntry{
			ActorID:    actor.ID,
			Action:     action,
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendActivity: %v", err)
		}
	}

	records, err := store.ListActivity(ctx, 2)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("limit not applied: %d", len(records))
	}
	if records[0].Action != "Delete Role" || records[1].Action != "Create Role" {
		t.Fatalf("not newest first: %+v", records)
	}
	if records[0].Actor.Name != "Alice" || records[0].Actor.Email != "alice@example.com" {
		t.Fatalf("actor join wrong: %+v", records[0].Actor)
	}

	// Unknown actor leaves the projection empty rather than failing.
	if _, err := store.AppendActivity(ctx, auth.ActivityEntry{ActorID: "ghost", Action: "Login"}); err != nil {
		t.Fatalf("AppendActivity: %v", err)
	}
	records, err = store.ListActivity(ctx, 1)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if records[0].Actor != (auth.ActorRef{}) {
		t.Fatalf("expected empty actor for unknown id: %+v", records[0].Actor)
	}
}
