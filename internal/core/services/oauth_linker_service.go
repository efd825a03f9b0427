package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/google/uuid"
)

// syntheticIdentityAttempts bounds how many suffixed usernames are tried when
// the plain <provider>_<id> name is already held by another user.
const syntheticIdentityAttempts = 5

// linkAttempts bounds retries after losing a first-sight race to a
// concurrent callback for the same identity.
const linkAttempts = 2

type oauthLinkerService struct {
	BaseService
	store  portsrepo.CredentialStore
	hasher portssvc.PasswordHasherSvc
}

var _ portssvc.OAuthLinkerSvcFacade = (*oauthLinkerService)(nil)

// NewOAuthLinkerService creates a new OAuth identity linker.
func NewOAuthLinkerService(store portsrepo.CredentialStore, hasher portssvc.PasswordHasherSvc) portssvc.OAuthLinkerSvcFacade {
	return &oauthLinkerService{
		BaseService: newBaseService(),
		store:       store,
		hasher:      hasher,
	}
}

func (s *oauthLinkerService) LinkProfile(ctx context.Context, provider domain.Provider, profile domain.OAuthProfile) (*domain.User, error) {
	if provider == "" || strings.TrimSpace(profile.ExternalID) == "" {
		return nil, fmt.Errorf("%w: profile has no external id", apperrors.ErrLinkFailed)
	}
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))

	var lastErr error
	for attempt := 0; attempt < linkAttempts; attempt++ {
		user, err := s.findLinked(ctx, provider, profile.ExternalID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrLinkFailed, err)
		}

		user, err = s.linkNew(ctx, provider, profile)
		if err == nil {
			return user, nil
		}
		lastErr = err
		if !errors.Is(err, apperrors.ErrDuplicate) {
			break
		}
		s.LogDebug(ctx, "OAuth link lost a race, retrying",
			slog.String("provider", string(provider)),
			slog.String("provider_user_id", profile.ExternalID))
	}

	s.LogError(ctx, lastErr, "Failed to link OAuth profile", slog.String("provider", string(provider)))
	return nil, fmt.Errorf("%w: %v", apperrors.ErrLinkFailed, lastErr)
}

// findLinked is the fast path for a returning identity.
func (s *oauthLinkerService) findLinked(ctx context.Context, provider domain.Provider, externalID string) (*domain.User, error) {
	link, err := s.store.FindOAuthAccount(ctx, provider, externalID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByID(ctx, link.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("oauth account %s points at missing user %s", link.ID, link.UserID)
		}
		return nil, err
	}
	return user, nil
}

// linkNew resolves or creates the local user and inserts the link in one
// transaction, so a failed link leaves no orphan user behind.
func (s *oauthLinkerService) linkNew(ctx context.Context, provider domain.Provider, profile domain.OAuthProfile) (*domain.User, error) {
	// Hashed outside the transaction; only used if a user is created.
	unusable, err := s.unusablePasswordHash(ctx)
	if err != nil {
		return nil, err
	}

	var linked *domain.User
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.CredentialStore) error {
		user, created, err := s.resolveUser(ctx, tx, provider, profile, unusable)
		if err != nil {
			return err
		}

		account := domain.OAuthAccount{
			ID:             uuid.NewString(),
			Provider:       provider,
			ProviderUserID: profile.ExternalID,
			Email:          optional(profile.Email),
			DisplayName:    optional(profile.DisplayName),
			AvatarURL:      optional(profile.AvatarURL),
			UserID:         user.UserID,
			CreatedAt:      s.Now(),
		}
		if err := tx.CreateOAuthAccount(ctx, account); err != nil {
			return err
		}

		s.LogInfo(ctx, "OAuth account linked",
			slog.String("provider", string(provider)),
			slog.String("user_id", user.UserID),
			slog.Bool("user_created", created))
		linked = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return linked, nil
}

func (s *oauthLinkerService) resolveUser(ctx context.Context, tx portsrepo.CredentialStore, provider domain.Provider, profile domain.OAuthProfile, unusable string) (*domain.User, bool, error) {
	if profile.Email != "" {
		existing, err := tx.FindUserByEmail(ctx, profile.Email)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, err
		}
	}

	username, email, err := s.freeSyntheticIdentity(ctx, tx, provider, profile)
	if err != nil {
		return nil, false, err
	}

	now := s.Now()
	user := domain.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: &unusable,
		Role:         domain.RoleUser,
		AuditFields:  domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// freeSyntheticIdentity picks a username, and a placeholder email when the
// profile has none, that no existing user holds. The plain <provider>_<id>
// form is preferred; a random suffix is added only when it is taken. Checking
// up front keeps the transaction usable, since a failed insert aborts it on
// Postgres.
func (s *oauthLinkerService) freeSyntheticIdentity(ctx context.Context, tx portsrepo.CredentialStore, provider domain.Provider, profile domain.OAuthProfile) (string, string, error) {
	base := fmt.Sprintf("%s_%s", provider, profile.ExternalID)
	for attempt := 0; attempt < syntheticIdentityAttempts; attempt++ {
		username := base
		if attempt > 0 {
			suffix, err := utils.GenerateSecureRandomString(4)
			if err != nil {
				return "", "", err
			}
			username = base + "_" + suffix
		}

		free, err := s.identityFree(ctx, tx, username, profile.Email)
		if err != nil {
			return "", "", err
		}
		if free {
			email := profile.Email
			if email == "" {
				email = username + "@" + domain.PlaceholderEmailDomain
			}
			return username, email, nil
		}
		s.LogDebug(ctx, "Synthetic username taken, trying a suffixed one",
			slog.String("provider", string(provider)),
			slog.String("username", username))
	}
	return "", "", fmt.Errorf("%w: no free username for %s", apperrors.ErrDuplicate, base)
}

func (s *oauthLinkerService) identityFree(ctx context.Context, tx portsrepo.CredentialStore, username, profileEmail string) (bool, error) {
	_, err := tx.FindUserByEmailOrUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}
	if profileEmail != "" {
		return true, nil
	}
	_, err = tx.FindUserByEmail(ctx, username+"@"+domain.PlaceholderEmailDomain)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// unusablePasswordHash hashes a random secret nobody knows, so the account
// has no password login until one is set explicitly.
func (s *oauthLinkerService) unusablePasswordHash(ctx context.Context) (string, error) {
	secret, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return "", err
	}
	return s.hasher.Hash(ctx, secret)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
