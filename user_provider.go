package authgate

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// IdentityProvider ensures we have a store to retrieve auth identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// UserProvider handles identity lookup and credential verification over
// the Users store.
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(logger Logger) *UserProvider {
	if logger != nil {
		u.logger = logger
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the identity
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.findUser(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) || IsPrincipalNotFound(err) {
			// same failure as a bad password so callers cannot probe accounts
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByIdentifier returns the identity without credential checks
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.findUser(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return NewIdentityFromUser(user), nil
}

// findUser accepts either a user code or a login email. The issued
// subject is always the user code regardless of which one logged in.
func (u *UserProvider) findUser(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)

	if strings.Contains(identifier, "@") {
		return u.store.GetByEmail(ctx, identifier)
	}
	return u.store.GetByUserCode(ctx, identifier)
}

var _ IdentityProvider = (*UserProvider)(nil)
