package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/core/services"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/stretchr/testify/require"
)

func newFastHasher(t *testing.T) *utils.PasswordHasher {
	t.Helper()
	h, err := utils.NewPasswordHasher(utils.Argon2Params{MemoryKB: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}, 8)
	require.NoError(t, err)
	return h
}

func newTestTokenService(t *testing.T) portssvc.TokenSvcFacade {
	t.Helper()
	signer, err := utils.NewTokenSigner(utils.TokenSignerConfig{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "test-refresh-secret-fedcba9876543210",
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "identity-service-test",
	})
	require.NoError(t, err)
	return services.NewTokenServiceWithSigner(signer)
}

func newTestTOTP(t *testing.T) *utils.TOTPEngine {
	t.Helper()
	e, err := utils.NewTOTPEngine("Identity Test", 2)
	require.NoError(t, err)
	return e
}

// wrongCode returns a six-digit code that does not validate for secret at now.
func wrongCode(t *testing.T, e *utils.TOTPEngine, secret string, now time.Time) string {
	t.Helper()
	for i := 0; i < 1000000; i++ {
		candidate := fmt.Sprintf("%06d", i)
		if !e.Validate(secret, candidate, now) {
			return candidate
		}
	}
	t.Fatal("no rejected code found")
	return ""
}

// interleavingHasher runs onHash once, at the start of the next Hash call,
// standing in for a request that lands while the digest is being computed.
type interleavingHasher struct {
	*utils.PasswordHasher
	onHash func()
}

func (h *interleavingHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if fn := h.onHash; fn != nil {
		h.onHash = nil
		fn()
	}
	return h.PasswordHasher.Hash(ctx, plaintext)
}
