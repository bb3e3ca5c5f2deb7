package authgate

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserIdentity adapts a User into the Identity interface for token issuance.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// Subject returns the user's code. The user code is the one canonical
// subject identifier across issuance, validation, and revocation.
func (u UserIdentity) Subject() string {
	if u.user == nil {
		return ""
	}
	return u.user.UserCode
}

// Role returns the user's role as a string.
func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return u.user.Role
}

// FullName returns the user's display name.
func (u UserIdentity) FullName() string {
	if u.user == nil {
		return ""
	}
	return u.user.FullName()
}

// Avatar returns the user's avatar reference.
func (u UserIdentity) Avatar() string {
	if u.user == nil {
		return ""
	}
	return u.user.ProfilePicture
}

var _ Identity = UserIdentity{}

// PrincipalFromUser projects the stored account onto the request-scoped
// principal shape.
func PrincipalFromUser(user *User) *Principal {
	if user == nil {
		return nil
	}
	return &Principal{
		Subject:      user.UserCode,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
	}
}

// UserPrincipalResolver resolves principals from the Users store.
type UserPrincipalResolver struct {
	store  Users
	logger Logger
}

// NewUserPrincipalResolver creates a resolver over the Users repository.
func NewUserPrincipalResolver(store Users) *UserPrincipalResolver {
	return &UserPrincipalResolver{
		store:  store,
		logger: defLogger{},
	}
}

func (r *UserPrincipalResolver) WithLogger(logger Logger) *UserPrincipalResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Resolve looks up the current identity for a subject. Unknown subjects
// map to ErrPrincipalNotFound.
func (r *UserPrincipalResolver) Resolve(ctx context.Context, subject string) (*Principal, error) {
	user, err := r.store.GetByUserCode(ctx, subject)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve principal")
	}

	return PrincipalFromUser(user), nil
}

var _ PrincipalResolver = (*UserPrincipalResolver)(nil)
