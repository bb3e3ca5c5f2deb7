package authgate

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired          = "auth_token_expired"
	TextCodeTokenMalformed        = "auth_token_malformed"
	TextCodeTokenRevoked          = "auth_token_revoked"
	TextCodeRevocationUnavailable = "auth_revocation_unavailable"
	TextCodePrincipalNotFound     = "auth_principal_not_found"
)

// ErrTokenExpired is returned when a token's expiration has passed.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, truncated tokens, and
// unparseable structures. All of them fail closed.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenRevoked is returned for tokens present in the revocation store.
var ErrTokenRevoked = errors.New("token has been revoked", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrRevocationUnavailable is returned when the revocation store cannot be
// reached. The gate rejects the request rather than admit a possibly
// revoked token.
var ErrRevocationUnavailable = errors.New("revocation store unavailable", errors.CategoryAuth).
	WithTextCode(TextCodeRevocationUnavailable).
	WithCode(errors.CodeUnauthorized)

// ErrPrincipalNotFound is returned when the resolver has no record for a
// token's subject.
var ErrPrincipalNotFound = errors.New("principal not found", errors.CategoryAuth).
	WithTextCode(TextCodePrincipalNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = errors.New("credentials do not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString guards hashing empty passwords
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsRevokedError will check for revoked tokens
func IsRevokedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenRevoked)
}

// IsRevocationUnavailable will check for revocation store failures
func IsRevocationUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRevocationUnavailable) {
		return true
	}
	return strings.Contains(err.Error(), ErrRevocationUnavailable.Message)
}

// IsPrincipalNotFound will check for missing principals
func IsPrincipalNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrPrincipalNotFound)
}
