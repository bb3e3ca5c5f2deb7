package authgate

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the read side of the account store the resolver depends on
type Users interface {
	repository.Repository[*User]

	GetByUserCode(ctx context.Context, userCode string, criteria ...repository.SelectCriteria) (*User, error)
	GetByUserCodeTx(ctx context.Context, tx bun.IDB, userCode string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository creates the bun backed Users repository.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_code"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByUserCode(ctx context.Context, userCode string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByUserCodeTx(ctx, a.db, userCode, criteria...)
}

func (a *users) GetByUserCodeTx(ctx context.Context, tx bun.IDB, userCode string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.getByColumn(ctx, tx, "user_code", strings.TrimSpace(userCode), criteria...)
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.getByColumn(ctx, a.db, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (a *users) getByColumn(ctx context.Context, tx bun.IDB, column, value string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}
