package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
// Repositories return it on unique-constraint violations.
var ErrDuplicate = errors.New("resource already exists")

// Authentication and session errors.
var (
	// ErrInvalidCredentials is returned for an unknown identifier and for a wrong
	// password alike, so callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMfaRequired means the password was correct but the account needs a TOTP code.
	ErrMfaRequired = errors.New("mfa code required")
	// ErrInvalidMfaCode means the supplied TOTP code did not match.
	ErrInvalidMfaCode = errors.New("invalid mfa code")
	// ErrMfaNotEnabled is returned when verifying a code for an account without MFA.
	ErrMfaNotEnabled = errors.New("mfa is not enabled")
	// ErrAlreadyEnabled is returned when enrolling an account that already has MFA.
	ErrAlreadyEnabled = errors.New("mfa is already enabled")
	// ErrInvalidToken is returned for an access token with a bad signature or shape.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidRefreshToken is returned for a refresh token with a bad signature or shape.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpired is returned for a correctly signed token whose expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrTokenRevoked is returned when a presented refresh token has no live record.
	// It doubles as the replay/theft signal.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrCsrfMismatch is returned when the CSRF header and cookie are missing or differ.
	ErrCsrfMismatch = errors.New("csrf token mismatch")
	// ErrDuplicateEmailOrUsername is returned when registration collides with an existing account.
	ErrDuplicateEmailOrUsername = errors.New("email or username already registered")
	// ErrLinkFailed is returned when an OAuth profile could not be linked to a local user.
	ErrLinkFailed = errors.New("oauth account link failed")
	// ErrForbidden is returned when an authenticated caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownProvider is returned for an OAuth provider that is not configured.
	ErrUnknownProvider = errors.New("unknown oauth provider")
)

// AppError is an error carrying the HTTP status and the message that is safe to
// show to the client. The wrapped Err is kept for logging only.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with the given status, message and cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, nil)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrDuplicate)
}

func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}

func NewGatewayTimeoutError(message string) *AppError {
	return NewAppError(http.StatusGatewayTimeout, message, nil)
}

// ToHTTP maps a service error onto the response that may be shown to a client.
// Refresh-token failures collapse into one generic 401 so the response body
// never reveals whether a token was reused, expired or forged.
func ToHTTP(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewAppError(http.StatusUnauthorized, "Invalid credentials", err)
	case errors.Is(err, ErrMfaRequired):
		return NewAppError(http.StatusUnauthorized, "MFA code required", err)
	case errors.Is(err, ErrInvalidMfaCode):
		return NewAppError(http.StatusUnauthorized, "Invalid MFA code", err)
	case errors.Is(err, ErrMfaNotEnabled):
		return NewAppError(http.StatusBadRequest, "MFA is not enabled", err)
	case errors.Is(err, ErrAlreadyEnabled):
		return NewAppError(http.StatusBadRequest, "MFA is already enabled", err)
	case errors.Is(err, ErrTokenRevoked),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpired):
		return NewAppError(http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, ErrCsrfMismatch):
		return NewAppError(http.StatusForbidden, "CSRF check failed", err)
	case errors.Is(err, ErrForbidden):
		return NewAppError(http.StatusForbidden, "Forbidden", err)
	case errors.Is(err, ErrDuplicateEmailOrUsername), errors.Is(err, ErrDuplicate):
		return NewAppError(http.StatusConflict, "Email or username already registered", err)
	case errors.Is(err, ErrUnknownProvider), errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, "Not found", err)
	case errors.Is(err, ErrValidation):
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, ErrLinkFailed):
		return NewAppError(http.StatusBadGateway, "OAuth authentication failed", err)
	default:
		return NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}
