package authgate

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// BunRevocationStore persists revocations in the blacklist_tokens table.
// Backed by a shared database it is the durable option: a revoke on one
// instance is visible to every other instance on the next read, which is
// what makes logout effective cluster-wide.
type BunRevocationStore struct {
	db bun.IDB
}

// NewBunRevocationStore creates a store over the given database handle.
func NewBunRevocationStore(db bun.IDB) *BunRevocationStore {
	return &BunRevocationStore{db: db}
}

// Revoke inserts the record, ignoring conflicts on the token key so a
// second revoke of the same token stays a no-op.
func (s *BunRevocationStore) Revoke(ctx context.Context, record RevokedToken) error {
	_, err := s.db.NewInsert().
		Model(&record).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx)
	return err
}

// IsRevoked reports whether the token has a blacklist record.
func (s *BunRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.db.NewSelect().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.token = ?", token).
		Exists(ctx)
}

// PurgeExpired deletes records whose original expiration has passed.
func (s *BunRevocationStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.expires_at < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

var _ RevocationStore = (*BunRevocationStore)(nil)
