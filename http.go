package authgate

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorResponse is the JSON body shape for both terminal handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginRequest is the credential payload for token issuance endpoints.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (r LoginRequest) GetIdentifier() string { return r.Identifier }
func (r LoginRequest) GetPassword() string   { return r.Password }

// Validate enforces the payload contract before credentials are checked.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required, validation.Length(3, 254)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
	)
}

// ValidateEmailIdentifier is the stricter variant for deployments where the
// login identifier is always an email address.
func (r LoginRequest) ValidateEmailIdentifier() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
	)
}

var _ LoginPayload = LoginRequest{}

// NewUnauthorizedHandler builds the terminal handler invoked when a
// protected route is reached without a valid authenticated context.
// It writes 401 with a structured JSON body and never leaks internals.
func NewUnauthorizedHandler(logger Logger) func(router.Context, error) error {
	if logger == nil {
		logger = defLogger{}
	}

	return func(ctx router.Context, err error) error {
		reason := authFailureReason(err)

		logger.Info(
			"Authentication failed",
			"method", ctx.Method(),
			"path", ctx.OriginalURL(),
			"reason", reason,
		)

		var richErr *errors.Error
		if errors.As(err, &richErr) && len(richErr.Metadata) > 0 {
			logger.Debug("Authentication failure metadata", "metadata", print.MaybePrettyJSON(richErr.Metadata))
		}

		return ctx.JSON(router.StatusUnauthorized, ErrorResponse{
			Error: fmt.Sprintf("Authentication failed: %s", reason),
		})
	}
}

// NewForbiddenHandler builds the terminal handler invoked when an
// authenticated principal lacks the required authority for a route.
func NewForbiddenHandler(logger Logger) func(router.Context, error) error {
	if logger == nil {
		logger = defLogger{}
	}

	return func(ctx router.Context, err error) error {
		reason := "insufficient permission"
		if err != nil {
			reason = err.Error()
		}

		logger.Info(
			"Access denied",
			"method", ctx.Method(),
			"path", ctx.OriginalURL(),
			"reason", reason,
		)

		return ctx.JSON(router.StatusForbidden, ErrorResponse{
			Error: "Access denied: insufficient permission",
		})
	}
}

// authFailureReason maps internal errors to client-safe reasons. Stack
// traces and wrapped causes stay in the logs.
func authFailureReason(err error) string {
	switch {
	case err == nil:
		return "credentials required"
	case IsRevokedError(err):
		return "token has been revoked"
	case IsTokenExpiredError(err):
		return "token is expired"
	case IsMalformedError(err):
		return "invalid authentication token"
	case IsRevocationUnavailable(err):
		return "authentication service unavailable"
	case IsPrincipalNotFound(err):
		return "unknown principal"
	default:
		return "invalid authentication token"
	}
}
