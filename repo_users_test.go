package authgate_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-authgate"
)

const sqliteCreateUsers = `CREATE TABLE users (
	id TEXT NOT NULL PRIMARY KEY,
	user_code TEXT NOT NULL UNIQUE,
	user_role TEXT NOT NULL,
	first_name TEXT,
	last_name TEXT,
	profile_picture TEXT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	deleted_at TIMESTAMP
);`

func setupUsersDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	t.Cleanup(func() {
		bunDB.Close()
	})

	return bunDB
}

func seedUser(t *testing.T, db *bun.DB, userCode, email, password string) *authgate.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &authgate.User{
		ID:             uuid.New(),
		UserCode:       userCode,
		Role:           "ADMIN",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		ProfilePicture: "avatars/" + userCode + ".png",
		Email:          email,
		PasswordHash:   string(hash),
	}

	_, err = db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func TestUsersRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("GetByUserCode finds the seeded user", func(t *testing.T) {
		db := setupUsersDB(t)
		repo := authgate.NewUsersRepository(db)
		seedUser(t, db, "U001", "ada@example.com", "s3cret")

		user, err := repo.GetByUserCode(ctx, "U001")
		require.NoError(t, err)
		assert.Equal(t, "U001", user.UserCode)
		assert.Equal(t, "ADMIN", user.Role)
		assert.Equal(t, "Ada Lovelace", user.FullName())
	})

	t.Run("GetByUserCode trims whitespace", func(t *testing.T) {
		db := setupUsersDB(t)
		repo := authgate.NewUsersRepository(db)
		seedUser(t, db, "U001", "ada@example.com", "s3cret")

		user, err := repo.GetByUserCode(ctx, "  U001  ")
		require.NoError(t, err)
		assert.Equal(t, "U001", user.UserCode)
	})

	t.Run("GetByEmail is case insensitive", func(t *testing.T) {
		db := setupUsersDB(t)
		repo := authgate.NewUsersRepository(db)
		seedUser(t, db, "U001", "ada@example.com", "s3cret")

		user, err := repo.GetByEmail(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, "U001", user.UserCode)
	})

	t.Run("missing user maps to record not found", func(t *testing.T) {
		db := setupUsersDB(t)
		repo := authgate.NewUsersRepository(db)

		_, err := repo.GetByUserCode(ctx, "nope")
		assert.Error(t, err)
	})
}

func TestUserPrincipalResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the principal for a known subject", func(t *testing.T) {
		db := setupUsersDB(t)
		repo := authgate.NewUsersRepository(db)
		seeded := seedUser(t, db, "U001", "ada@example.com", "s3cret")

		resolver := authgate.NewUserPrincipalResolver(repo)

		principal, err := resolver.Resolve(ctx, "U001")
		require.NoError(t, err)
		require.NotNil(t, principal)
		assert.Equal(t, "U001", principal.Subject)
		assert.Equal(t, "ADMIN", principal.Role)
		assert.Equal(t, seeded.PasswordHash, principal.PasswordHash)
	})

	t.Run("unknown subject maps to ErrPrincipalNotFound", func(t *testing.T) {
		db := setupUsersDB(t)
		resolver := authgate.NewUserPrincipalResolver(authgate.NewUsersRepository(db))

		_, err := resolver.Resolve(ctx, "ghost")
		assert.True(t, authgate.IsPrincipalNotFound(err))
	})
}

func TestUserIdentity(t *testing.T) {
	user := &authgate.User{
		UserCode:       "U001",
		Role:           "ADMIN",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		ProfilePicture: "avatars/u001.png",
	}

	identity := authgate.NewIdentityFromUser(user)
	require.NotNil(t, identity)

	assert.Equal(t, "U001", identity.Subject())
	assert.Equal(t, "ADMIN", identity.Role())
	assert.Equal(t, "Ada Lovelace", identity.FullName())
	assert.Equal(t, "avatars/u001.png", identity.Avatar())

	assert.Nil(t, authgate.NewIdentityFromUser(nil))
}

func TestUserFullName(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"Ada", "Lovelace", "Ada Lovelace"},
		{"Ada", "", "Ada"},
		{"", "Lovelace", "Lovelace"},
		{"", "", ""},
	}

	for _, tc := range cases {
		user := &authgate.User{FirstName: tc.first, LastName: tc.last}
		assert.Equal(t, tc.want, user.FullName())
	}
}
