package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

// Identity is what a verified bearer token asserts about its holder.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// TokenVerifier validates bearer tokens issued by the identity provider.
type TokenVerifier interface {
	VerifyToken(token string) (Identity, error)
}

// ProfileStore looks up staff profiles for authenticated identities.
type ProfileStore interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// AuthService turns bearer tokens into principals.
type AuthService struct {
	verifier TokenVerifier
	profiles ProfileStore
	logger   *slog.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(verifier TokenVerifier, profiles ProfileStore, logger *slog.Logger) *AuthService {
	return &AuthService{verifier: verifier, profiles: profiles, logger: defaultLogger(logger)}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// ValidateSession verifies token and resolves the caller's active profile.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ValidateSession")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session rejected", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		err = ErrNotAuthenticated
		return
	}

	identity, verifyErr := s.verifier.VerifyToken(token)
	if verifyErr != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidToken, verifyErr)
		return
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		err = fmt.Errorf("%w: token carries no email", ErrInvalidToken)
		return
	}

	user, lookupErr := s.profiles.GetUserByEmail(ctx, email)
	if lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) || errors.Is(lookupErr, ErrNotFound) {
			err = ErrNotAuthenticated
			return
		}
		err = &UpstreamError{Op: "get profile", Err: lookupErr}
		return
	}
	if !user.Active {
		err = ErrInactiveUser
		return
	}

	return Principal{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName,
		Role:   user.Role,
	}, nil
}
