package utils

import (
	"crypto/subtle"
	"net/http"

	"github.com/SscSPs/identity_service/internal/apperrors"
)

// CSRFTokenBytes is the entropy of a minted double-submit token.
const CSRFTokenBytes = 32

// IsSafeMethod reports whether method is a read that the CSRF guard exempts.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CheckDoubleSubmit verifies the double-submit pair for a request. Safe
// methods always pass; otherwise both values must be present and equal, or
// apperrors.ErrCsrfMismatch is returned.
func CheckDoubleSubmit(method, headerValue, cookieValue string) error {
	if IsSafeMethod(method) {
		return nil
	}
	if headerValue == "" || cookieValue == "" {
		return apperrors.ErrCsrfMismatch
	}
	if subtle.ConstantTimeCompare([]byte(headerValue), []byte(cookieValue)) != 1 {
		return apperrors.ErrCsrfMismatch
	}
	return nil
}

// NewCSRFToken mints a hex-encoded double-submit token.
func NewCSRFToken() (string, error) {
	return GenerateSecureRandomString(CSRFTokenBytes)
}
