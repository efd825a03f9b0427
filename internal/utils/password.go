package utils

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	argon2AlgorithmID = "argon2id"

	minArgon2MemoryKB uint32 = 1024
	minArgon2Time     uint32 = 1
	minSaltLength     uint32 = 16
	minKeyLength      uint32 = 16
)

// Argon2Params are the cost parameters written into every new digest.
type Argon2Params struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the OWASP-recommended argon2id baseline.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKB:    64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// PasswordHasher hashes secrets with argon2id, encoded in PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash) so each digest carries its own
// salt and parameters. Legacy bcrypt digests still verify.
//
// Each call allocates its own argon2 memory; the semaphore only bounds how
// many run at once so a login burst cannot exhaust the heap.
type PasswordHasher struct {
	params Argon2Params
	sem    *semaphore.Weighted
}

// NewPasswordHasher validates params and builds a hasher allowing at most
// maxConcurrent simultaneous hash computations.
func NewPasswordHasher(params Argon2Params, maxConcurrent int64) (*PasswordHasher, error) {
	if params.MemoryKB < minArgon2MemoryKB {
		return nil, fmt.Errorf("argon2 memory must be >= %d KB", minArgon2MemoryKB)
	}
	if params.Time < minArgon2Time {
		return nil, errors.New("argon2 time must be >= 1")
	}
	if params.Parallelism < 1 {
		return nil, errors.New("argon2 parallelism must be >= 1")
	}
	if params.SaltLength < minSaltLength {
		return nil, fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	}
	if params.KeyLength < minKeyLength {
		return nil, fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	}
	if maxConcurrent <= 0 {
		return nil, errors.New("max concurrent hashes must be positive")
	}
	return &PasswordHasher{params: params, sem: semaphore.NewWeighted(maxConcurrent)}, nil
}

// Hash returns a salted argon2id digest of plaintext. Two calls with the same
// input return different digests.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to read salt: %w", err)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemoryKB, h.params.Parallelism, h.params.KeyLength)
	h.sem.Release(1)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2AlgorithmID,
		argon2.Version,
		h.params.MemoryKB,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches digest. A malformed digest, an
// unsupported algorithm or a cancelled context all report false.
func (h *PasswordHasher) Verify(ctx context.Context, digest string, plaintext string) bool {
	if isBcryptDigest(digest) {
		if err := h.sem.Acquire(ctx, 1); err != nil {
			return false
		}
		defer h.sem.Release(1)
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}

	parsed, err := parseArgon2Digest(digest)
	if err != nil {
		return false
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(plaintext), parsed.salt, parsed.time, parsed.memoryKB, parsed.parallelism, uint32(len(parsed.key)))
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1
}

// NeedsRehash reports whether digest was produced by bcrypt or with weaker
// argon2 parameters than the hasher's current ones.
func (h *PasswordHasher) NeedsRehash(digest string) bool {
	if isBcryptDigest(digest) {
		return true
	}
	parsed, err := parseArgon2Digest(digest)
	if err != nil {
		return false
	}
	return parsed.memoryKB < h.params.MemoryKB ||
		parsed.time < h.params.Time ||
		parsed.parallelism < h.params.Parallelism ||
		uint32(len(parsed.key)) < h.params.KeyLength
}

func isBcryptDigest(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") || strings.HasPrefix(digest, "$2b$") || strings.HasPrefix(digest, "$2y$")
}

type argon2Digest struct {
	memoryKB    uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2Digest(digest string) (*argon2Digest, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != argon2AlgorithmID {
		return nil, errors.New("unsupported algorithm")
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errors.New("unsupported argon2 version")
	}

	var d argon2Digest
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("invalid parameter entry")
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid parameter %q", k)
		}
		switch k {
		case "m":
			d.memoryKB = uint32(n)
		case "t":
			d.time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errors.New("invalid parallelism parameter")
			}
			d.parallelism = uint8(n)
		default:
			return nil, errors.New("unsupported parameter")
		}
	}
	if d.memoryKB == 0 || d.time == 0 || d.parallelism == 0 {
		return nil, errors.New("missing parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, errors.New("invalid hash")
	}
	d.salt = salt
	d.key = key
	return &d, nil
}
