package authgate

import (
	"context"
	"sync"
	"time"
)

// Revoker blacklists issued tokens. It derives the record's expiration and
// owning subject from the token itself so the store can audit and prune.
type Revoker struct {
	tokens TokenService
	store  RevocationStore
	logger Logger
}

// NewRevoker creates a Revoker backed by the given store.
func NewRevoker(tokens TokenService, store RevocationStore) *Revoker {
	return &Revoker{
		tokens: tokens,
		store:  store,
		logger: defLogger{},
	}
}

func (r *Revoker) WithLogger(logger Logger) *Revoker {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Revoke records the token as permanently invalid even if it has not yet
// expired. Revoking an already revoked token is a no-op. Revoking an
// already expired token is also a no-op: it cannot be replayed.
func (r *Revoker) Revoke(ctx context.Context, tokenString string) error {
	claims, err := r.tokens.Validate(tokenString)
	if err != nil {
		if IsTokenExpiredError(err) {
			r.logger.Debug("Revoke skipped expired token")
			return nil
		}
		return err
	}

	record := RevokedToken{
		Token:     tokenString,
		UserCode:  claims.UserCode(),
		ExpiresAt: claims.Expires(),
	}

	if err := r.store.Revoke(ctx, record); err != nil {
		r.logger.Error("Revoke store write failed", "error", err)
		return err
	}

	r.logger.Info("Token revoked", "user_code", record.UserCode)
	return nil
}

// IsRevoked answers the membership test against the backing store.
func (r *Revoker) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	return r.store.IsRevoked(ctx, tokenString)
}

// MemoryRevocationStore keeps revocations in process memory. Revocations
// are lost on restart and invisible to other instances, so it only suits
// a single-process deployment or tests; use the bun or redis store for
// cluster-wide logout.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	records map[string]RevokedToken
}

// NewMemoryRevocationStore creates an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		records: make(map[string]RevokedToken),
	}
}

// Revoke records a token. Idempotent: the first record wins.
func (s *MemoryRevocationStore) Revoke(ctx context.Context, record RevokedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Token]; exists {
		return nil
	}
	s.records[record.Token] = record
	return nil
}

// IsRevoked reports membership. Safe for concurrent use with Revoke; a
// completed Revoke is immediately visible.
func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, revoked := s.records[token]
	return revoked, nil
}

// PurgeExpired drops records whose expiration has passed.
func (s *MemoryRevocationStore) PurgeExpired(ctx context.Context) (int, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for token, record := range s.records {
		if record.ExpiresAt.Before(now) {
			delete(s.records, token)
			purged++
		}
	}
	return purged, nil
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)
