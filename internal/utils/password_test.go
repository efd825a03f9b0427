package utils_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastParams() utils.Argon2Params {
	return utils.Argon2Params{MemoryKB: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newTestHasher(t *testing.T) *utils.PasswordHasher {
	t.Helper()
	h, err := utils.NewPasswordHasher(fastParams(), 4)
	require.NoError(t, err)
	return h
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "Password123!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.True(t, h.Verify(ctx, digest, "Password123!"))
	assert.False(t, h.Verify(ctx, digest, "Password123?"))
	assert.False(t, h.Verify(ctx, digest, ""))
}

func TestPasswordHasher_SaltsEveryDigest(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	a, err := h.Hash(ctx, "same input")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify(ctx, a, "same input"))
	assert.True(t, h.Verify(ctx, b, "same input"))
}

func TestPasswordHasher_MalformedDigestFailsClosed(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	for _, digest := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=1024,t=1,p=1$$",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	} {
		assert.False(t, h.Verify(ctx, digest, "anything"), "digest %q", digest)
	}
}

func TestPasswordHasher_VerifiesLegacyBcrypt(t *testing.T) {
	h := newTestHasher(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, h.Verify(context.Background(), string(legacy), "Password123!"))
	assert.False(t, h.Verify(context.Background(), string(legacy), "wrong"))
	assert.True(t, h.NeedsRehash(string(legacy)))
}

func TestPasswordHasher_NeedsRehash(t *testing.T) {
	weak := newTestHasher(t)
	digest, err := weak.Hash(context.Background(), "Password123!")
	require.NoError(t, err)

	assert.False(t, weak.NeedsRehash(digest))

	stronger := fastParams()
	stronger.Time = 2
	strong, err := utils.NewPasswordHasher(stronger, 1)
	require.NoError(t, err)
	assert.True(t, strong.NeedsRehash(digest))
}

func TestPasswordHasher_CancelledContext(t *testing.T) {
	h := newTestHasher(t)
	digest, err := h.Hash(context.Background(), "Password123!")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "Password123!")
	assert.Error(t, err)
	assert.False(t, h.Verify(ctx, digest, "Password123!"))
}

func TestPasswordHasher_ConcurrentUse(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := h.Hash(ctx, "concurrent")
			if err != nil {
				errs <- err
				return
			}
			if !h.Verify(ctx, d, "concurrent") {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestNewPasswordHasher_RejectsWeakParams(t *testing.T) {
	p := fastParams()
	p.MemoryKB = 8
	_, err := utils.NewPasswordHasher(p, 1)
	assert.Error(t, err)

	_, err = utils.NewPasswordHasher(fastParams(), 0)
	assert.Error(t, err)
}
