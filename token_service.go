package authgate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultTokenExpiration is the fixed TTL, in hours, applied when the
// configured expiration is zero or negative.
const DefaultTokenExpiration = 24

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
}

// NewTokenService creates a new TokenService instance. tokenExpiration is
// expressed in hours; values <= 0 fall back to DefaultTokenExpiration.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpiration
	}
	return &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
	}
}

// Issue creates a signed token for an identity with the given application
// claims. Expiration is issuedAt + the configured TTL.
func (ts *TokenServiceImpl) Issue(identity Identity, claims IssueClaims) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryBadInput)
	}
	if identity.Subject() == "" {
		return "", errors.New("identity subject must not be empty", errors.CategoryBadInput)
	}

	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	tokenClaims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.Subject(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		CodigoUsuario:  claims.UserCode,
		Foto:           claims.Avatar,
		Rol:            claims.Role,
		NombreCompleto: claims.FullName,
	}

	if tokenClaims.CodigoUsuario == "" {
		tokenClaims.CodigoUsuario = identity.Subject()
	}

	return ts.SignClaims(tokenClaims)
}

// SignClaims signs arbitrary token claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Validate parses and verifies a token string, returning structured claims.
// Tampering, a wrong key, or an unexpected signing method all fail closed.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// SubjectOf extracts the subject claim without requiring a principal.
func (ts *TokenServiceImpl) SubjectOf(tokenString string) (string, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject(), nil
}

// IsExpired compares the embedded expiration to current time.
func (ts *TokenServiceImpl) IsExpired(tokenString string) bool {
	claims, err := ts.parseUnverifiedExpiry(tokenString)
	if err != nil {
		return true
	}
	return claims.Expires().Before(time.Now())
}

// IsValidFor is the single validity predicate the gate relies on: the
// signature verifies, the subject matches, and the token is not expired.
// It does NOT consult the revocation store; callers distinguish
// "cryptographically invalid" from "explicitly revoked".
func (ts *TokenServiceImpl) IsValidFor(tokenString, expectedSubject string) bool {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return false
	}
	if expectedSubject == "" || claims.Subject() != expectedSubject {
		return false
	}
	return !claims.Expires().Before(time.Now())
}

// parseUnverifiedExpiry reads the claims with full signature verification
// but without the expiry check, so callers can inspect expiration of an
// otherwise authentic token.
func (ts *TokenServiceImpl) parseUnverifiedExpiry(tokenString string) (AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
