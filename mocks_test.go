package authgate_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-authgate"
)

// MockIdentityProvider implements authgate.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (authgate.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(authgate.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (authgate.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(authgate.Identity)
	return identity, args.Error(1)
}

// MockConfig implements authgate.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	audience, _ := args.Get(0).([]string)
	return audience
}

func (m *MockConfig) GetRevocationTimeout() time.Duration {
	args := m.Called()
	timeout, _ := args.Get(0).(time.Duration)
	return timeout
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	return mockConfig
}

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	subject  string
	role     string
	fullName string
	avatar   string
}

func (t TestIdentity) Subject() string  { return t.subject }
func (t TestIdentity) Role() string     { return t.role }
func (t TestIdentity) FullName() string { return t.fullName }
func (t TestIdentity) Avatar() string   { return t.avatar }

// recordingSink captures emitted activity events
type recordingSink struct {
	events []authgate.ActivityEvent
}

func (r *recordingSink) Record(ctx context.Context, event authgate.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}
