// Package auth verifies the bearer tokens presented by staff members.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/room-reservations/internal/application"
)

var (
	// ErrDomainNotAllowed is returned when the token's email belongs to another domain.
	ErrDomainNotAllowed = errors.New("auth: email domain not allowed")
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("auth: signing secret is required")
)

// Claims is the payload carried by staff session tokens.
type Claims struct {
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	HostedDomain string `json:"hd,omitempty"`
	jwt.RegisteredClaims
}

// Options configures a Verifier.
type Options struct {
	Secret        []byte
	Issuer        string
	AllowedDomain string
	Now           func() time.Time
}

// Verifier validates HS256 session tokens.
type Verifier struct {
	secret []byte
	issuer string
	domain string
	now    func() time.Time
	parser *jwt.Parser
}

// NewVerifier constructs a Verifier.
func NewVerifier(opts Options) (*Verifier, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(opts.Now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	return &Verifier{
		secret: opts.Secret,
		issuer: opts.Issuer,
		domain: strings.ToLower(strings.TrimPrefix(opts.AllowedDomain, "@")),
		now:    opts.Now,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

// VerifyToken implements application.TokenVerifier.
func (v *Verifier) VerifyToken(token string) (application.Identity, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return application.Identity{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return application.Identity{}, jwt.ErrTokenInvalidClaims
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if v.domain != "" && !v.allowed(email, claims.HostedDomain) {
		return application.Identity{}, fmt.Errorf("%w: %s", ErrDomainNotAllowed, email)
	}
	return application.Identity{Subject: claims.Subject, Email: email, Name: claims.Name}, nil
}

func (v *Verifier) allowed(email, hostedDomain string) bool {
	if hd := strings.ToLower(hostedDomain); hd != "" && hd != v.domain {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && email[at+1:] == v.domain
}

// Issue signs a token for email valid for ttl. It backs the development
// token command and tests; production tokens come from the identity provider.
func (v *Verifier) Issue(subject, email, name string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if at := strings.LastIndex(email, "@"); at > 0 {
		claims.HostedDomain = strings.ToLower(email[at+1:])
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
