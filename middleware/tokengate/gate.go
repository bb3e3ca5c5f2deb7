package tokengate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-authgate"
)

var (
	defaultTokenLookup       = "header:" + router.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// RevocationChecker answers whether a token has been explicitly revoked.
// Both *authgate.Revoker and any authgate.RevocationStore satisfy it.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ValidationListener is invoked after a token has been validated but before
// the principal is attached.
type ValidationListener func(ctx router.Context, claims authgate.AuthClaims) error

type Config struct {
	// Filter skips the gate entirely when it returns true.
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	// ErrorHandler writes the terminal response for hard rejections
	// (revoked token, unavailable revocation store). Defaults to the 401
	// JSON body from authgate.NewUnauthorizedHandler.
	ErrorHandler router.ErrorHandler
	SigningKey   SigningKey
	SigningKeys  map[string]SigningKey
	JWKSetURLs   []string
	KeyFunc      jwt.Keyfunc
	// ContextKey is the request Locals key for validated claims.
	ContextKey string
	// PrincipalKey is the request Locals key for the resolved principal.
	PrincipalKey string
	TokenLookup  string
	AuthScheme   string

	// TokenValidator verifies tokens. When nil one is built from the
	// configured key material.
	TokenValidator authgate.TokenValidator

	// FallbackValidators are tried in order when TokenValidator rejects a
	// token as malformed. During a signing key rotation the previous key
	// goes here so outstanding tokens stay valid until they expire.
	FallbackValidators []authgate.TokenValidator

	// Revocations is consulted before cryptographic validation. A revoked
	// token terminates the request; a store error fails closed. When nil
	// the revocation check is skipped (single-service deployments that
	// never revoke).
	Revocations RevocationChecker

	// Principals hydrates the authenticated principal from the token
	// subject. When nil the claims alone are attached.
	Principals authgate.PrincipalResolver

	// ContextEnricher propagates claims to the standard Go context after
	// successful validation.
	ContextEnricher func(c context.Context, claims authgate.AuthClaims) context.Context

	// ValidationListeners run after validation succeeds, before the
	// request proceeds.
	ValidationListeners []ValidationListener

	Logger authgate.Logger
}

type SigningKey struct {
	JWTAlg string
	Key    any
}

// New returns the authentication gate middleware. It runs once per
// request, before any route authorization check:
//
//	no token            -> next, unauthenticated
//	revoked token       -> terminal 401
//	store unavailable   -> terminal 401 (fail closed)
//	invalid/expired     -> next, unauthenticated
//	valid token         -> principal + claims attached, next
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil || raw == "" {
				// absent header or wrong scheme: downstream authorization
				// decides whether anonymous access is acceptable
				return ctx.Next()
			}

			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsRevoked(ctx.Context(), raw)
				if err != nil {
					cfg.Logger.Error("token gate revocation store error", "error", err)
					return cfg.ErrorHandler(ctx, authgate.ErrRevocationUnavailable)
				}
				if revoked {
					cfg.Logger.Info("token gate rejected revoked token", "path", ctx.OriginalURL())
					return cfg.ErrorHandler(ctx, authgate.ErrTokenRevoked)
				}
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				// malformed, forged, or expired: treated as no credential
				cfg.Logger.Debug("token gate validation failed", "error", err)
				return ctx.Next()
			}

			if err := cfg.runValidationListeners(ctx, claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.attachPrincipal(ctx, raw, claims); err != nil {
				cfg.Logger.Debug("token gate principal not attached", "error", err)
				return ctx.Next()
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				ctx.SetContext(cfg.ContextEnricher(stdCtx, claims))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// attachPrincipal resolves the principal for the token subject and stores
// it in the request Locals when the token is valid for that principal.
func (cfg *Config) attachPrincipal(ctx router.Context, raw string, claims authgate.AuthClaims) error {
	if cfg.Principals == nil {
		return nil
	}

	if existing := ctx.Locals(cfg.PrincipalKey); existing != nil {
		return nil
	}

	principal, err := cfg.Principals.Resolve(ctx.Context(), claims.Subject())
	if err != nil {
		return err
	}
	if principal == nil {
		return authgate.ErrPrincipalNotFound
	}

	if !cfg.validFor(raw, claims, principal.Subject) {
		return fmt.Errorf("token is not valid for subject %q", principal.Subject)
	}

	ctx.Locals(cfg.PrincipalKey, principal)
	return nil
}

// validFor prefers the validator's own predicate when it exposes one,
// falling back to a subject comparison on the already verified claims.
func (cfg *Config) validFor(raw string, claims authgate.AuthClaims, expectedSubject string) bool {
	if checker, ok := cfg.TokenValidator.(interface {
		IsValidFor(tokenString, expectedSubject string) bool
	}); ok {
		return checker.IsValidFor(raw, expectedSubject)
	}
	return expectedSubject != "" && claims.Subject() == expectedSubject
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Logger == nil {
		cfg.Logger = authgate.NewDefaultLogger()
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = authgate.NewUnauthorizedHandler(cfg.Logger)
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.PrincipalKey == "" {
		cfg.PrincipalKey = "principal"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.TokenValidator == nil {
		if cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 && cfg.KeyFunc == nil {
			panic("AUTHGATE: token gate configuration: one of TokenValidator, KeyFunc, JWKSetURLs, SigningKeys, or SigningKey is required.")
		}
		cfg.TokenValidator = keyfuncValidator{keyFunc: cfg.buildKeyFunc()}
	}

	if len(cfg.FallbackValidators) > 0 {
		validators := append([]authgate.TokenValidator{cfg.TokenValidator}, cfg.FallbackValidators...)
		cfg.TokenValidator = authgate.NewMultiTokenValidator(validators...)
	}

	return cfg
}

func (cfg *Config) buildKeyFunc() jwt.Keyfunc {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc
	}

	if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
		var givenKeys map[string]keyfunc.GivenKey
		if cfg.SigningKeys != nil {
			givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
			for kid, key := range cfg.SigningKeys {
				givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
					Algorithm: key.JWTAlg,
				})
			}
		}
		if len(cfg.JWKSetURLs) > 0 {
			kf, err := multiKeyfunc(givenKeys, cfg.JWKSetURLs)
			if err != nil {
				panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
			}
			return kf
		}
		return keyfunc.NewGiven(givenKeys).Keyfunc
	}

	return signingKeyFunc(cfg.SigningKey)
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}

// keyfuncValidator verifies tokens against configured key material when no
// full TokenService is supplied (externally issued tokens).
type keyfuncValidator struct {
	keyFunc jwt.Keyfunc
}

func (v keyfuncValidator) Validate(tokenString string) (authgate.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &authgate.TokenClaims{}, v.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authgate.ErrTokenExpired
		}
		return nil, authgate.ErrTokenMalformed
	}

	claims, ok := token.Claims.(*authgate.TokenClaims)
	if !ok || !token.Valid {
		return nil, authgate.ErrTokenMalformed
	}

	return claims, nil
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims authgate.AuthClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		//header:Authorization
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, tokenFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

type TokenExtractor func(c router.Context) (string, error)

// tokenFromHeader returns a function that extracts the token from the
// request header. The scheme prefix must match exactly.
func tokenFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		authScheme = strings.TrimSpace(authScheme)
		l := len(authScheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		if len(a) > l+1 && strings.HasPrefix(a, authScheme+" ") {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// tokenFromQuery returns a function that extracts the token from the query string.
func tokenFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromParam returns a function that extracts the token from the url param string.
func tokenFromParam(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts the token from the named cookie.
func tokenFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
