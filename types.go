package authgate

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenService holds methods to issue, verify, and inspect signed tokens
type TokenService interface {
	Issue(identity Identity, claims IssueClaims) (string, error)
	SignClaims(claims *TokenClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	SubjectOf(tokenString string) (string, error)
	IsExpired(tokenString string) bool
	IsValidFor(tokenString, expectedSubject string) bool
}

// Identity holds the attributes of an identity
type Identity interface {
	Subject() string
	Role() string
	FullName() string
	Avatar() string
}

// Principal is the resolved identity attached to an authenticated request.
// Request scoped, never persisted, never shared across requests.
type Principal struct {
	Subject      string
	PasswordHash string
	Role         string
}

// PrincipalResolver hydrates the authenticated principal for a subject.
// Implementations return ErrPrincipalNotFound when the subject is unknown.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject string) (*Principal, error)
}

// PrincipalResolverFunc adapts a function into a PrincipalResolver.
type PrincipalResolverFunc func(ctx context.Context, subject string) (*Principal, error)

func (f PrincipalResolverFunc) Resolve(ctx context.Context, subject string) (*Principal, error) {
	if f == nil {
		return nil, ErrPrincipalNotFound
	}
	return f(ctx, subject)
}

// RevocationStore records tokens that must be treated as invalid regardless
// of cryptographic validity and answers membership queries. Revoke is
// idempotent; a revoke that completes before IsRevoked must be visible to it.
type RevocationStore interface {
	Revoke(ctx context.Context, record RevokedToken) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context) (int, error)
}

// LoginPayload is the credential payload accepted by Auther.Login
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetRevocationTimeout() time.Duration
}

// NewDefaultLogger returns the stdout fallback logger used when no Logger
// is configured.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHGATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
