package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	"github.com/SscSPs/identity_service/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *memory.Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.store = memory.NewStore()
	s.ctx = context.Background()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func newUser(id, email, username string) domain.User {
	now := time.Now()
	return domain.User{
		UserID:      id,
		Email:       email,
		Username:    username,
		Role:        domain.RoleUser,
		AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
}

func (s *StoreTestSuite) TestCreateAndFindUser() {
	require.NoError(s.T(), s.store.CreateUser(s.ctx, newUser("u1", "alice@example.com", "alice")))

	byEmail, err := s.store.FindUserByEmailOrUsername(s.ctx, "ALICE@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "u1", byEmail.UserID)

	byName, err := s.store.FindUserByEmailOrUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "u1", byName.UserID)

	_, err = s.store.FindUserByEmailOrUsername(s.ctx, "bob")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)

	_, err = s.store.FindUserByID(s.ctx, "missing")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestCreateUser_Duplicate() {
	require.NoError(s.T(), s.store.CreateUser(s.ctx, newUser("u1", "alice@example.com", "alice")))

	err := s.store.CreateUser(s.ctx, newUser("u2", "alice@example.com", "other"))
	assert.ErrorIs(s.T(), err, apperrors.ErrDuplicate)

	err = s.store.CreateUser(s.ctx, newUser("u3", "other@example.com", "alice"))
	assert.ErrorIs(s.T(), err, apperrors.ErrDuplicate)
}

func (s *StoreTestSuite) TestFindUsers_Paginates() {
	base := time.Now()
	for i, name := range []string{"a", "b", "c"} {
		u := newUser(name, name+"@example.com", name)
		u.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(s.T(), s.store.CreateUser(s.ctx, u))
	}

	page, err := s.store.FindUsers(s.ctx, 2, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), page, 2)
	assert.Equal(s.T(), "c", page[0].UserID)
	assert.Equal(s.T(), "b", page[1].UserID)

	page, err = s.store.FindUsers(s.ctx, 2, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), page, 1)
	assert.Equal(s.T(), "a", page[0].UserID)

	page, err = s.store.FindUsers(s.ctx, 2, 10)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), page)
}

func (s *StoreTestSuite) TestRevokeRefreshToken_CompareAndSet() {
	require.NoError(s.T(), s.store.CreateRefreshToken(s.ctx, domain.RefreshToken{TokenID: "t1", LineageID: "t1", UserID: "u1"}))

	ok, err := s.store.RevokeRefreshToken(s.ctx, "t1")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.store.RevokeRefreshToken(s.ctx, "t1")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	ok, err = s.store.RevokeRefreshToken(s.ctx, "missing")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	got, err := s.store.FindRefreshToken(s.ctx, "t1", "u1")
	require.NoError(s.T(), err)
	assert.True(s.T(), got.Revoked)
	assert.NotNil(s.T(), got.RevokedAt)

	_, err = s.store.FindRefreshToken(s.ctx, "t1", "someone-else")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestRevokeAllAndLineage() {
	for _, t := range []domain.RefreshToken{
		{TokenID: "a1", LineageID: "a", UserID: "u1"},
		{TokenID: "a2", LineageID: "a", UserID: "u1"},
		{TokenID: "b1", LineageID: "b", UserID: "u1"},
		{TokenID: "c1", LineageID: "c", UserID: "u2"},
	} {
		require.NoError(s.T(), s.store.CreateRefreshToken(s.ctx, t))
	}

	n, err := s.store.RevokeLineage(s.ctx, "a")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), n)

	n, err = s.store.RevokeAllRefreshTokens(s.ctx, "u1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	assert.Len(s.T(), s.store.LiveRefreshTokens("c"), 1)
}

func (s *StoreTestSuite) TestWithinTx_RollsBackOnError() {
	boom := errors.New("boom")
	err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.CredentialStore) error {
		if err := tx.CreateUser(ctx, newUser("u1", "alice@example.com", "alice")); err != nil {
			return err
		}
		// Reads inside the unit of work see its own writes.
		if _, err := tx.FindUserByID(ctx, "u1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(s.T(), err, boom)

	_, err = s.store.FindUserByID(s.ctx, "u1")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestWithinTx_CommitsAndNests() {
	err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.CredentialStore) error {
		if err := tx.CreateUser(ctx, newUser("u1", "alice@example.com", "alice")); err != nil {
			return err
		}
		return tx.WithinTx(ctx, func(ctx context.Context, inner portsrepo.CredentialStore) error {
			return inner.CreateOAuthAccount(ctx, domain.OAuthAccount{ID: "l1", Provider: domain.ProviderGitHub, ProviderUserID: "42", UserID: "u1"})
		})
	})
	require.NoError(s.T(), err)

	_, err = s.store.FindUserByID(s.ctx, "u1")
	assert.NoError(s.T(), err)
	link, err := s.store.FindOAuthAccount(s.ctx, domain.ProviderGitHub, "42")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "u1", link.UserID)
	assert.Equal(s.T(), 1, s.store.CountOAuthAccounts())
}

func (s *StoreTestSuite) TestWithinTx_SerialisesRotation() {
	require.NoError(s.T(), s.store.CreateRefreshToken(s.ctx, domain.RefreshToken{TokenID: "t1", LineageID: "t1", UserID: "u1"}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.CredentialStore) error {
				ok, err := tx.RevokeRefreshToken(ctx, "t1")
				if err != nil || !ok {
					return apperrors.ErrTokenRevoked
				}
				mu.Lock()
				wins++
				mu.Unlock()
				return tx.CreateRefreshToken(ctx, domain.RefreshToken{TokenID: "next", LineageID: "t1", UserID: "u1"})
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(s.T(), 1, wins)
	live := s.store.LiveRefreshTokens("t1")
	require.Len(s.T(), live, 1)
	assert.Equal(s.T(), "next", live[0].TokenID)
}

func (s *StoreTestSuite) TestCredentialUpdates_LeaveOtherColumnsAlone() {
	s.Require().NoError(s.store.CreateUser(s.ctx, newUser("u1", "a@example.com", "alice")))
	now := time.Now()

	enabled, err := s.store.EnableMfa(s.ctx, "u1", "SECRET", now)
	s.Require().NoError(err)
	s.True(enabled)
	s.Require().NoError(s.store.UpdateRole(s.ctx, "u1", domain.RoleAdmin, now))
	s.Require().NoError(s.store.SetPasswordHash(s.ctx, "u1", "digest-2", now))

	u, err := s.store.FindUserByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.True(u.MfaEnabled)
	s.Equal("SECRET", *u.MfaSecret)
	s.Equal(domain.RoleAdmin, u.Role)
	s.Equal("digest-2", *u.PasswordHash)

	s.ErrorIs(s.store.SetPasswordHash(s.ctx, "missing", "x", now), apperrors.ErrNotFound)
	s.ErrorIs(s.store.UpdateRole(s.ctx, "missing", domain.RoleUser, now), apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestGuardedUpdates() {
	s.Require().NoError(s.store.CreateUser(s.ctx, newUser("u1", "a@example.com", "alice")))
	now := time.Now()
	s.Require().NoError(s.store.SetPasswordHash(s.ctx, "u1", "legacy", now))

	swapped, err := s.store.ReplacePasswordHash(s.ctx, "u1", "stale", "upgraded", now)
	s.Require().NoError(err)
	s.False(swapped)
	swapped, err = s.store.ReplacePasswordHash(s.ctx, "u1", "legacy", "upgraded", now)
	s.Require().NoError(err)
	s.True(swapped)

	enabled, err := s.store.EnableMfa(s.ctx, "u1", "FIRST", now)
	s.Require().NoError(err)
	s.True(enabled)
	enabled, err = s.store.EnableMfa(s.ctx, "u1", "SECOND", now)
	s.Require().NoError(err)
	s.False(enabled)

	disabled, err := s.store.DisableMfa(s.ctx, "u1", "SECOND", now)
	s.Require().NoError(err)
	s.False(disabled)
	disabled, err = s.store.DisableMfa(s.ctx, "u1", "FIRST", now)
	s.Require().NoError(err)
	s.True(disabled)

	u, err := s.store.FindUserByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.False(u.MfaEnabled)
	s.Nil(u.MfaSecret)
	s.Equal("upgraded", *u.PasswordHash)

	swapped, err = s.store.ReplacePasswordHash(s.ctx, "missing", "a", "b", now)
	s.NoError(err)
	s.False(swapped)
}
