package authgate_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authgate"
)

// MockIdentity implements authgate.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) FullName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Avatar() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements authgate.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

func adminIdentity() *MockIdentity {
	identity := &MockIdentity{}
	identity.On("Subject").Return("U001")
	identity.On("Role").Return("ADMIN")
	identity.On("FullName").Return("Ada Lovelace")
	identity.On("Avatar").Return("avatars/u001.png")
	return identity
}

func TestNewTokenService(t *testing.T) {
	signingKey := []byte("test-signing-key")

	t.Run("creates token service with logger", func(t *testing.T) {
		service := authgate.NewTokenService(signingKey, 24, "test-issuer", jwt.ClaimStrings{"test-audience"}, &MockLogger{})
		assert.NotNil(t, service)
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service := authgate.NewTokenService(signingKey, 24, "test-issuer", nil, nil)
		assert.NotNil(t, service)
	})
}

func TestTokenService_Issue(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := authgate.NewTokenService(signingKey, 24, "test-issuer", jwt.ClaimStrings{"test-audience"}, nil)

	t.Run("issued claims round trip", func(t *testing.T) {
		identity := adminIdentity()

		tokenString, err := service.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)
		require.NotEmpty(t, tokenString)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)

		assert.Equal(t, "U001", claims.Subject())
		assert.Equal(t, "U001", claims.UserCode())
		assert.Equal(t, "ADMIN", claims.Role())
		assert.Equal(t, "Ada Lovelace", claims.FullName())
		assert.Equal(t, "avatars/u001.png", claims.Avatar())
		assert.False(t, claims.IssuedAt().IsZero())
		assert.False(t, claims.Expires().IsZero())
	})

	t.Run("expiration is issuedAt plus fixed TTL", func(t *testing.T) {
		identity := adminIdentity()

		tokenString, err := service.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)

		assert.WithinDuration(t, claims.IssuedAt().Add(24*time.Hour), claims.Expires(), time.Second)
	})

	t.Run("zero configured TTL falls back to 24h default", func(t *testing.T) {
		svc := authgate.NewTokenService(signingKey, 0, "", nil, nil)
		identity := adminIdentity()

		tokenString, err := svc.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		claims, err := svc.Validate(tokenString)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)
	})

	t.Run("nil identity is rejected", func(t *testing.T) {
		_, err := service.Issue(nil, authgate.IssueClaims{})
		assert.Error(t, err)
	})

	t.Run("empty subject is rejected", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("Subject").Return("")

		_, err := service.Issue(identity, authgate.IssueClaims{})
		assert.Error(t, err)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := authgate.NewTokenService(signingKey, 24, "test-issuer", jwt.ClaimStrings{"test-audience"}, nil)

	t.Run("wrong signing key fails verification", func(t *testing.T) {
		other := authgate.NewTokenService([]byte("a-different-key"), 24, "test-issuer", jwt.ClaimStrings{"test-audience"}, nil)
		identity := adminIdentity()

		tokenString, err := other.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
		assert.True(t, authgate.IsMalformedError(err))
	})

	t.Run("garbage input fails closed", func(t *testing.T) {
		for _, tokenString := range []string{"", "garbage", "a.b", "a.b.c.d"} {
			_, err := service.Validate(tokenString)
			assert.Error(t, err, "input %q", tokenString)
		}
	})

	t.Run("tampered payload fails verification", func(t *testing.T) {
		identity := adminIdentity()
		tokenString, err := service.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		tampered := tokenString[:len(tokenString)-4] + "AAAA"
		_, err = service.Validate(tampered)
		assert.Error(t, err)
	})

	t.Run("unsigned token fails verification", func(t *testing.T) {
		claims := &authgate.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "U001",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Validate(unsigned)
		assert.Error(t, err)
	})

	t.Run("expired token maps to ErrTokenExpired", func(t *testing.T) {
		expired := signExpiredToken(t, service, "U001", -time.Hour)

		_, err := service.Validate(expired)
		assert.Error(t, err)
		assert.True(t, authgate.IsTokenExpiredError(err))
	})
}

func TestTokenService_SubjectOf(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := authgate.NewTokenService(signingKey, 24, "", nil, nil)

	t.Run("extracts subject without a principal", func(t *testing.T) {
		identity := adminIdentity()
		tokenString, err := service.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		subject, err := service.SubjectOf(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "U001", subject)
	})

	t.Run("fails for malformed input", func(t *testing.T) {
		_, err := service.SubjectOf("garbage")
		assert.Error(t, err)
	})
}

func TestTokenService_IsExpired(t *testing.T) {
	service := authgate.NewTokenService([]byte("test-signing-key"), 24, "", nil, nil)

	t.Run("fresh token is not expired", func(t *testing.T) {
		identity := adminIdentity()
		tokenString, err := service.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		assert.False(t, service.IsExpired(tokenString))
	})

	t.Run("past expiration is expired", func(t *testing.T) {
		expired := signExpiredToken(t, service, "U001", -time.Minute)
		assert.True(t, service.IsExpired(expired))
	})

	t.Run("malformed token is treated as expired", func(t *testing.T) {
		assert.True(t, service.IsExpired("garbage"))
	})
}

func TestTokenService_IsValidFor(t *testing.T) {
	service := authgate.NewTokenService([]byte("test-signing-key"), 24, "", nil, nil)

	t.Run("valid token and matching subject", func(t *testing.T) {
		identity := adminIdentity()
		tokenString, err := service.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		assert.True(t, service.IsValidFor(tokenString, "U001"))
	})

	t.Run("subject mismatch fails", func(t *testing.T) {
		identity := adminIdentity()
		tokenString, err := service.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		assert.False(t, service.IsValidFor(tokenString, "U002"))
		assert.False(t, service.IsValidFor(tokenString, ""))
	})

	t.Run("expired token fails even with correct signature", func(t *testing.T) {
		expired := signExpiredToken(t, service, "U001", -time.Second)
		assert.False(t, service.IsValidFor(expired, "U001"))
	})

	t.Run("wrong key fails", func(t *testing.T) {
		other := authgate.NewTokenService([]byte("a-different-key"), 24, "", nil, nil)
		identity := adminIdentity()
		tokenString, err := other.Issue(identity, authgate.ClaimsFromIdentity(identity))
		require.NoError(t, err)

		assert.False(t, service.IsValidFor(tokenString, "U001"))
	})
}

// signExpiredToken signs claims whose expiration sits offset in the past,
// simulating a clock advance beyond the TTL.
func signExpiredToken(t *testing.T, service authgate.TokenService, subject string, offset time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := &authgate.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now.Add(offset - 24*time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(offset)),
		},
		CodigoUsuario: subject,
		Rol:           "ADMIN",
	}

	tokenString, err := service.SignClaims(claims)
	require.NoError(t, err)
	return tokenString
}
