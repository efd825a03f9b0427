package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpSecretBytes = 20 // 160 bits
	totpPeriod      = 30
	totpDigits      = otp.DigitsSix

	backupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	backupCodeLength   = 10
)

// TOTPEnrollment is a freshly generated, not yet persisted TOTP secret.
type TOTPEnrollment struct {
	Secret          string
	ProvisioningURI string
}

// TOTPEngine generates and checks RFC 6238 codes (SHA1, 6 digits, 30s step).
type TOTPEngine struct {
	issuer    string
	skewSteps uint
}

// NewTOTPEngine builds an engine tolerating skewSteps steps of clock drift
// either side of now.
func NewTOTPEngine(issuer string, skewSteps int) (*TOTPEngine, error) {
	if issuer == "" {
		return nil, errors.New("totp issuer is required")
	}
	if skewSteps < 0 {
		return nil, errors.New("totp skew must be >= 0")
	}
	return &TOTPEngine{issuer: issuer, skewSteps: uint(skewSteps)}, nil
}

// GenerateSecret creates a base32 secret and its otpauth:// provisioning URI
// labelled with issuer and account.
func (e *TOTPEngine) GenerateSecret(account string) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: account,
		Period:      totpPeriod,
		SecretSize:  totpSecretBytes,
		Digits:      totpDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return &TOTPEnrollment{Secret: key.Secret(), ProvisioningURI: key.URL()}, nil
}

// Validate reports whether code matches secret at now within the skew window.
// A malformed secret or code reports false.
func (e *TOTPEngine) Validate(secret, code string, now time.Time) bool {
	code = strings.TrimSpace(code)
	if secret == "" || len(code) != totpDigits.Length() {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, now.UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      e.skewSteps,
		Digits:    totpDigits,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateCode returns the code for secret at t.
func (e *TOTPEngine) GenerateCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t.UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    totpDigits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// GenerateBackupCodes returns n human-enterable codes like "ABCDE-FGH23".
// Ambiguous characters (0, O, 1, I) are left out of the alphabet.
func GenerateBackupCodes(n int) ([]string, error) {
	if n <= 0 {
		return nil, errors.New("backup code count must be positive")
	}
	codes := make([]string, 0, n)
	buf := make([]byte, backupCodeLength)
	for i := 0; i < n; i++ {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to read random bytes: %w", err)
		}
		var b strings.Builder
		for j, v := range buf {
			if j == backupCodeLength/2 {
				b.WriteByte('-')
			}
			// 256 is a multiple of 32, so the modulo is unbiased.
			b.WriteByte(backupCodeAlphabet[int(v)%len(backupCodeAlphabet)])
		}
		codes = append(codes, b.String())
	}
	return codes, nil
}
