package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

type userRepoStub struct {
	users   map[string]User
	updated []User
}

func newUserRepoStub(users ...User) *userRepoStub {
	s := &userRepoStub{users: make(map[string]User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (s *userRepoStub) GetUserByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, persistence.ErrNotFound
}

func (s *userRepoStub) UpdateUser(ctx context.Context, user User) (User, error) {
	s.users[user.ID] = user
	s.updated = append(s.updated, user)
	return user, nil
}

func (s *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *userRepoStub) SearchUsersByName(ctx context.Context, query string, limit int) ([]User, error) {
	var out []User
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.FullName), strings.ToLower(query)) {
			out = append(out, u)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func staffDirectory() *userRepoStub {
	return newUserRepoStub(
		User{ID: "u1", Email: "ana@colegio.cl", FullName: "Ana Rojas", Role: booking.RoleFuncionario, Active: true},
		User{ID: "u2", Email: "andres@colegio.cl", FullName: "Andrés Soto", Role: booking.RoleSubdirector, Active: true},
		User{ID: "u3", Email: "anibal@colegio.cl", FullName: "Aníbal Díaz", Role: booking.RoleFuncionario, Active: false},
		User{ID: "root", Email: "root@colegio.cl", FullName: "Marta Vidal", Role: booking.RoleSuperAdmin, Active: true},
	)
}

func TestUserService_SearchResponsible(t *testing.T) {
	svc := NewUserService(staffDirectory())
	caller := principal("u1", booking.RoleFuncionario)

	found, err := svc.SearchResponsible(context.Background(), caller, " an ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 2 || found[0].ID != "u1" || found[1].ID != "u2" {
		t.Fatalf("expected active matches sorted by name, got %+v", found)
	}

	short, err := svc.SearchResponsible(context.Background(), caller, "a")
	if err != nil || len(short) != 0 {
		t.Fatalf("expected no results for a one-letter query, got %v %v", short, err)
	}

	if _, err := svc.SearchResponsible(context.Background(), Principal{}, "ana"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestUserService_ListUsers(t *testing.T) {
	svc := NewUserService(staffDirectory())
	if _, err := svc.ListUsers(context.Background(), principal("u2", booking.RoleSubdirector)); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	users, err := svc.ListUsers(context.Background(), principal("a1", booking.RoleAdmin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 4 || users[0].FullName != "Ana Rojas" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestUserService_UpdateRole(t *testing.T) {
	ctx := context.Background()
	root := principal("root", booking.RoleSuperAdmin)

	t.Run("promotes a user", func(t *testing.T) {
		repo := staffDirectory()
		svc := NewUserService(repo)
		user, err := svc.UpdateRole(ctx, UpdateRoleParams{Principal: root, UserID: "u1", Role: booking.RoleAdmin})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Role != booking.RoleAdmin || len(repo.updated) != 1 {
			t.Fatalf("expected stored promotion, got %+v", user)
		}
	})

	t.Run("admins cannot change roles", func(t *testing.T) {
		svc := NewUserService(staffDirectory())
		_, err := svc.UpdateRole(ctx, UpdateRoleParams{Principal: principal("a1", booking.RoleAdmin), UserID: "u1", Role: booking.RoleSubdirector})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("rejects self demotion and unknown roles", func(t *testing.T) {
		svc := NewUserService(staffDirectory())
		_, err := svc.UpdateRole(ctx, UpdateRoleParams{Principal: root, UserID: "root", Role: booking.RoleAdmin})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		_, err = svc.UpdateRole(ctx, UpdateRoleParams{Principal: root, UserID: "u1", Role: booking.Role("rector")})
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error for unknown role, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := NewUserService(staffDirectory())
		_, err := svc.UpdateRole(ctx, UpdateRoleParams{Principal: root, UserID: "ghost", Role: booking.RoleSubdirector})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
