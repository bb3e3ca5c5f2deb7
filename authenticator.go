package authgate

import (
	"context"
	"reflect"
	"time"
)

// Auther orchestrates issuance and revocation around the token codec
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	revoker      *Revoker
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Auther wired from configuration.
func NewAuthenticator(provider IdentityProvider, store RevocationStore, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		revoker:      NewRevoker(tokenService, store),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		s.revoker = s.revoker.WithLogger(logger)
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the default token service.
func (s *Auther) WithTokenService(tokenService TokenService) *Auther {
	if tokenService != nil {
		s.tokenService = tokenService
		s.revoker = NewRevoker(tokenService, s.revoker.store).WithLogger(s.logger)
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Revoker returns the revocation service used by this Auther
func (s *Auther) Revoker() *Revoker {
	return s.revoker
}

// Login verifies the credentials and issues a signed token carrying the
// identity's claims. Subject is the user code.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": identifier,
			"error":      ErrPrincipalNotFound.Error(),
		})
		return "", ErrPrincipalNotFound
	}

	token, err := s.tokenService.Issue(identity, ClaimsFromIdentity(identity))
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, identity.Subject(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, identity.Subject(), map[string]any{
		"identifier": identifier,
	})

	return token, nil
}

// Logout revokes the presented token so it is rejected cluster-wide even
// though it remains cryptographically valid until expiration.
func (s *Auther) Logout(ctx context.Context, tokenString string) error {
	if err := s.revoker.Revoke(ctx, tokenString); err != nil {
		s.logger.Error("Logout revocation error", "error", err)
		return err
	}

	subject := ""
	if claims, err := s.tokenService.Validate(tokenString); err == nil {
		subject = claims.Subject()
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, subject, nil)
	return nil
}

// ClaimsFromToken validates a raw token and returns its claims.
func (s *Auther) ClaimsFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("ClaimsFromToken validation failed", "error", err)
		return nil, err
	}
	return claims, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, subject string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Subject:   subject,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
