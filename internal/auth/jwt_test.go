package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestVerifier(t *testing.T, now time.Time, domain string) *Verifier {
	t.Helper()
	v, err := NewVerifier(Options{
		Secret:        []byte("test-secret"),
		Issuer:        "reservas",
		AllowedDomain: domain,
		Now:           func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewVerifier returned error: %v", err)
	}
	return v
}

func TestVerifier(t *testing.T) {
	now := time.Date(2024, time.March, 11, 8, 30, 0, 0, time.UTC)

	t.Run("round trips an issued token", func(t *testing.T) {
		v := newTestVerifier(t, now, "colegio.cl")
		token, err := v.Issue("sub-1", "Ana.Rojas@colegio.cl", "Ana Rojas", time.Hour)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		identity, err := v.VerifyToken(token)
		if err != nil {
			t.Fatalf("VerifyToken returned error: %v", err)
		}
		if identity.Subject != "sub-1" || identity.Email != "ana.rojas@colegio.cl" || identity.Name != "Ana Rojas" {
			t.Fatalf("unexpected identity %+v", identity)
		}
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		issuer := newTestVerifier(t, now.Add(-2*time.Hour), "")
		token, err := issuer.Issue("sub-1", "ana@colegio.cl", "", time.Hour)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		_, err = newTestVerifier(t, now, "").VerifyToken(token)
		if !errors.Is(err, jwt.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("rejects foreign domains", func(t *testing.T) {
		v := newTestVerifier(t, now, "colegio.cl")
		token, err := v.Issue("sub-2", "intruso@gmail.com", "", time.Hour)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if _, err := v.VerifyToken(token); !errors.Is(err, ErrDomainNotAllowed) {
			t.Fatalf("expected ErrDomainNotAllowed, got %v", err)
		}
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		other, err := NewVerifier(Options{Secret: []byte("other"), Issuer: "reservas", Now: func() time.Time { return now }})
		if err != nil {
			t.Fatalf("NewVerifier returned error: %v", err)
		}
		token, err := other.Issue("sub-1", "ana@colegio.cl", "", time.Hour)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if _, err := newTestVerifier(t, now, "").VerifyToken(token); !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			t.Fatalf("expected ErrTokenSignatureInvalid, got %v", err)
		}
	})

	t.Run("rejects wrong issuer and unsigned tokens", func(t *testing.T) {
		v := newTestVerifier(t, now, "")
		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Email: "ana@colegio.cl",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		signed, err := foreign.SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("SignedString returned error: %v", err)
		}
		if _, err := v.VerifyToken(signed); !errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			t.Fatalf("expected ErrTokenInvalidIssuer, got %v", err)
		}

		none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "ana@colegio.cl"})
		unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("SignedString returned error: %v", err)
		}
		if _, err := v.VerifyToken(unsigned); err == nil {
			t.Fatalf("expected unsigned token to be rejected")
		}
	})

	t.Run("requires a secret", func(t *testing.T) {
		if _, err := NewVerifier(Options{}); !errors.Is(err, ErrMissingSecret) {
			t.Fatalf("expected ErrMissingSecret, got %v", err)
		}
	})
}
