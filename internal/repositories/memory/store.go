// Package memory is an in-process CredentialStore. It serves local runs
// without PGSQL_URL and gives service tests real unit-of-work semantics.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
)

type state struct {
	users    map[string]domain.User
	tokens   map[string]domain.RefreshToken
	accounts map[string]domain.OAuthAccount
}

func newState() *state {
	return &state{
		users:    make(map[string]domain.User),
		tokens:   make(map[string]domain.RefreshToken),
		accounts: make(map[string]domain.OAuthAccount),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[string]domain.User, len(s.users)),
		tokens:   make(map[string]domain.RefreshToken, len(s.tokens)),
		accounts: make(map[string]domain.OAuthAccount, len(s.accounts)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	return c
}

// Store implements portsrepo.CredentialStore in memory. Transactions are
// serialised on one mutex and run against a copy of the state that replaces
// the committed state only when the unit of work succeeds.
type Store struct {
	root *Store // nil on the root store
	mu   sync.Mutex
	st   *state
	now  func() time.Time
}

var _ portsrepo.CredentialStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) inTx() bool { return s.root != nil }

// view runs fn on the current state, holding the lock unless s is a
// transaction view whose lock is already held by WithinTx.
func (s *Store) view(fn func(st *state) error) error {
	if s.inTx() {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// WithinTx implements portsrepo.TransactionManager.
func (s *Store) WithinTx(ctx context.Context, fn portsrepo.TxFunc) error {
	if s.inTx() {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{root: s, st: s.st.clone(), now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func accountKey(provider domain.Provider, providerUserID string) string {
	return string(provider) + "|" + providerUserID
}

// FindUserByID implements portsrepo.UserReader.
func (s *Store) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var out *domain.User
	err := s.view(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

// FindUserByEmailOrUsername implements portsrepo.UserReader.
func (s *Store) FindUserByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	var out *domain.User
	err := s.view(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, identifier) || u.Username == identifier {
				u := u
				out = &u
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
	return out, err
}

// FindUserByEmail implements portsrepo.UserReader.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := s.view(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
	return out, err
}

// FindUsers implements portsrepo.UserReader.
func (s *Store) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	var out []domain.User
	err := s.view(func(st *state) error {
		all := make([]domain.User, 0, len(st.users))
		for _, u := range st.users {
			all = append(all, u)
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].UserID < all[j].UserID
			}
			return all[i].CreatedAt.After(all[j].CreatedAt)
		})
		if offset >= len(all) {
			out = []domain.User{}
			return nil
		}
		end := len(all)
		if limit > 0 && offset+limit < end {
			end = offset + limit
		}
		out = all[offset:end]
		return nil
	})
	return out, err
}

// CreateUser implements portsrepo.UserWriter.
func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	return s.view(func(st *state) error {
		if _, ok := st.users[user.UserID]; ok {
			return apperrors.ErrDuplicate
		}
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
				return apperrors.ErrDuplicate
			}
		}
		st.users[user.UserID] = user
		return nil
	})
}

// updateUser applies fn to the stored user. fn reports whether it changed
// anything; an unknown user is apperrors.ErrNotFound.
func (s *Store) updateUser(userID string, fn func(u *domain.User) bool) (bool, error) {
	changed := false
	err := s.view(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return apperrors.ErrNotFound
		}
		if changed = fn(&u); changed {
			st.users[userID] = u
		}
		return nil
	})
	return changed, err
}

// SetPasswordHash implements portsrepo.UserWriter.
func (s *Store) SetPasswordHash(ctx context.Context, userID string, hash string, at time.Time) error {
	_, err := s.updateUser(userID, func(u *domain.User) bool {
		u.PasswordHash = &hash
		u.LastUpdatedAt = at
		return true
	})
	return err
}

// ReplacePasswordHash implements portsrepo.UserWriter.
func (s *Store) ReplacePasswordHash(ctx context.Context, userID string, oldHash string, newHash string, at time.Time) (bool, error) {
	ok, err := s.updateUser(userID, func(u *domain.User) bool {
		if u.PasswordHash == nil || *u.PasswordHash != oldHash {
			return false
		}
		u.PasswordHash = &newHash
		u.LastUpdatedAt = at
		return true
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return ok, err
}

// EnableMfa implements portsrepo.UserWriter.
func (s *Store) EnableMfa(ctx context.Context, userID string, secret string, at time.Time) (bool, error) {
	ok, err := s.updateUser(userID, func(u *domain.User) bool {
		if u.MfaEnabled {
			return false
		}
		u.MfaEnabled = true
		u.MfaSecret = &secret
		u.LastUpdatedAt = at
		return true
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return ok, err
}

// DisableMfa implements portsrepo.UserWriter.
func (s *Store) DisableMfa(ctx context.Context, userID string, secret string, at time.Time) (bool, error) {
	ok, err := s.updateUser(userID, func(u *domain.User) bool {
		if !u.MfaEnabled || u.MfaSecret == nil || *u.MfaSecret != secret {
			return false
		}
		u.MfaEnabled = false
		u.MfaSecret = nil
		u.LastUpdatedAt = at
		return true
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return ok, err
}

// UpdateRole implements portsrepo.UserWriter.
func (s *Store) UpdateRole(ctx context.Context, userID string, role domain.Role, at time.Time) error {
	_, err := s.updateUser(userID, func(u *domain.User) bool {
		u.Role = role
		u.LastUpdatedAt = at
		return true
	})
	return err
}

// FindRefreshToken implements portsrepo.RefreshTokenReader.
func (s *Store) FindRefreshToken(ctx context.Context, tokenID string, userID string) (*domain.RefreshToken, error) {
	var out *domain.RefreshToken
	err := s.view(func(st *state) error {
		t, ok := st.tokens[tokenID]
		if !ok || t.UserID != userID {
			return apperrors.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

// CreateRefreshToken implements portsrepo.RefreshTokenWriter.
func (s *Store) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	return s.view(func(st *state) error {
		if _, ok := st.tokens[token.TokenID]; ok {
			return apperrors.ErrDuplicate
		}
		token.Revoked = false
		token.RevokedAt = nil
		st.tokens[token.TokenID] = token
		return nil
	})
}

// RevokeRefreshToken implements portsrepo.RefreshTokenWriter.
func (s *Store) RevokeRefreshToken(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.view(func(st *state) error {
		t, ok := st.tokens[tokenID]
		if !ok || t.Revoked {
			return nil
		}
		now := s.now()
		t.Revoked = true
		t.RevokedAt = &now
		st.tokens[tokenID] = t
		revoked = true
		return nil
	})
	return revoked, err
}

// RevokeLineage implements portsrepo.RefreshTokenWriter.
func (s *Store) RevokeLineage(ctx context.Context, lineageID string) (int64, error) {
	return s.revokeWhere(func(t domain.RefreshToken) bool { return t.LineageID == lineageID })
}

// RevokeAllRefreshTokens implements portsrepo.RefreshTokenWriter.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) (int64, error) {
	return s.revokeWhere(func(t domain.RefreshToken) bool { return t.UserID == userID })
}

func (s *Store) revokeWhere(match func(domain.RefreshToken) bool) (int64, error) {
	var n int64
	err := s.view(func(st *state) error {
		now := s.now()
		for id, t := range st.tokens {
			if t.Revoked || !match(t) {
				continue
			}
			t.Revoked = true
			t.RevokedAt = &now
			st.tokens[id] = t
			n++
		}
		return nil
	})
	return n, err
}

// FindOAuthAccount implements portsrepo.OAuthAccountRepositoryFacade.
func (s *Store) FindOAuthAccount(ctx context.Context, provider domain.Provider, providerUserID string) (*domain.OAuthAccount, error) {
	var out *domain.OAuthAccount
	err := s.view(func(st *state) error {
		a, ok := st.accounts[accountKey(provider, providerUserID)]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

// CreateOAuthAccount implements portsrepo.OAuthAccountRepositoryFacade.
func (s *Store) CreateOAuthAccount(ctx context.Context, account domain.OAuthAccount) error {
	return s.view(func(st *state) error {
		key := accountKey(account.Provider, account.ProviderUserID)
		if _, ok := st.accounts[key]; ok {
			return apperrors.ErrDuplicate
		}
		st.accounts[key] = account
		return nil
	})
}

// CountOAuthAccounts returns the number of stored links.
func (s *Store) CountOAuthAccounts() int {
	var n int
	_ = s.view(func(st *state) error {
		n = len(st.accounts)
		return nil
	})
	return n
}

// LiveRefreshTokens returns the non-revoked records of a lineage.
func (s *Store) LiveRefreshTokens(lineageID string) []domain.RefreshToken {
	var out []domain.RefreshToken
	_ = s.view(func(st *state) error {
		for _, t := range st.tokens {
			if !t.Revoked && t.LineageID == lineageID {
				out = append(out, t)
			}
		}
		return nil
	})
	return out
}
