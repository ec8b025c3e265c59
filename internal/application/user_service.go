package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

const responsibleSearchLimit = 10

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SearchUsersByName(ctx context.Context, query string, limit int) ([]User, error)
}

// UserService manages staff profiles.
type UserService struct {
	users UserRepository
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// SearchResponsible finds active users whose name contains query, for the
// responsible-party picker of the booking form.
func (s *UserService) SearchResponsible(ctx context.Context, principal Principal, query string) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return nil, nil
	}

	found, err := s.users.SearchUsersByName(ctx, query, responsibleSearchLimit*2)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	out := make([]User, 0, len(found))
	for _, u := range found {
		if u.Active {
			out = append(out, u)
		}
	}
	sortUsers(out)
	if len(out) > responsibleSearchLimit {
		out = out[:responsibleSearchLimit]
	}
	return out, nil
}

// ListUsers returns every profile for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if !booking.CanManageRooms(principal.Role) {
		return nil, ErrPermissionDenied
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	sortUsers(users)
	return users, nil
}

// UpdateRole changes another user's role. Only super administrators may do
// this, and they cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, params UpdateRoleParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.Authenticated() {
		return User{}, ErrNotAuthenticated
	}
	if !booking.CanManageUsers(params.Principal.Role) {
		return User{}, ErrPermissionDenied
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.UserID) == "" {
		vErr.add("id", "user id is required")
	}
	if !params.Role.Known() {
		vErr.add("role", "unknown role")
	}
	if params.UserID == params.Principal.UserID && params.Role != booking.RoleSuperAdmin {
		vErr.add("role", "you cannot change your own role")
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	user, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	user.Role = params.Role
	updated, err := s.users.UpdateUser(ctx, user)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return updated, nil
}

func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName != users[j].FullName {
			return users[i].FullName < users[j].FullName
		}
		return users[i].ID < users[j].ID
	})
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return &UpstreamError{Op: "user directory", Err: err}
}
