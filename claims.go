package authgate

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the read-only view of a verified token's claims
type AuthClaims interface {
	Subject() string
	UserCode() string
	Role() string
	FullName() string
	Avatar() string
	Expires() time.Time
	IssuedAt() time.Time
}

// IssueClaims is the application claims mapping embedded at issuance time.
// Read-only after creation; the codec owns the encoding format.
type IssueClaims struct {
	UserCode string
	Avatar   string
	Role     string
	FullName string
}

// TokenClaims is the concrete wire format: registered fields plus the
// application claims carried by every issued token.
type TokenClaims struct {
	jwt.RegisteredClaims
	CodigoUsuario  string `json:"codigoUsuario,omitempty"`
	Foto           string `json:"foto,omitempty"`
	Rol            string `json:"rol,omitempty"`
	NombreCompleto string `json:"nombreCompleto,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserCode returns the user code, falling back to the subject when the
// claim was not set at issuance.
func (c *TokenClaims) UserCode() string {
	if c.CodigoUsuario != "" {
		return c.CodigoUsuario
	}
	return c.Subject()
}

// Role returns the role claim
func (c *TokenClaims) Role() string {
	return c.Rol
}

// FullName returns the display name claim
func (c *TokenClaims) FullName() string {
	return c.NombreCompleto
}

// Avatar returns the avatar reference claim
func (c *TokenClaims) Avatar() string {
	return c.Foto
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ClaimsFromIdentity builds the issuance claims for an identity.
func ClaimsFromIdentity(identity Identity) IssueClaims {
	if identity == nil {
		return IssueClaims{}
	}
	return IssueClaims{
		UserCode: identity.Subject(),
		Avatar:   identity.Avatar(),
		Role:     identity.Role(),
		FullName: identity.FullName(),
	}
}
