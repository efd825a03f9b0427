package dto

// MfaEnableRequest confirms an enrolment with the secret returned by setup
// and a code generated from it.
type MfaEnableRequest struct {
	Secret string `json:"secret" binding:"required,base32secret"`
	Code   string `json:"code" binding:"required,numeric,len=6"`
}

// MfaCodeRequest carries a single TOTP code.
type MfaCodeRequest struct {
	Code string `json:"code" binding:"required,numeric,len=6"`
}

// MfaVerifyResponse reports whether a code matched.
type MfaVerifyResponse struct {
	Verified bool `json:"verified"`
}
