package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/core/services"
	"github.com/SscSPs/identity_service/internal/repositories/memory"
	"github.com/stretchr/testify/suite"
)

type OAuthLinkerServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	service  portssvc.OAuthLinkerSvcFacade
	sessions portssvc.SessionSvcFacade
}

func (suite *OAuthLinkerServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	hasher := newFastHasher(suite.T())
	suite.service = services.NewOAuthLinkerService(suite.store, hasher)
	suite.sessions = services.NewSessionService(suite.store, hasher, newTestTokenService(suite.T()), nil)
}

func (suite *OAuthLinkerServiceTestSuite) TestLinkProfile_CreatesPlaceholderUser() {
	user, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGitHub, domain.OAuthProfile{ExternalID: "4242", DisplayName: "Octo"})
	suite.Require().NoError(err)

	suite.Equal("github_4242", user.Username)
	suite.Equal("github_4242@oauth.local", user.Email)
	suite.Equal(domain.RoleUser, user.Role)
	suite.True(user.HasPassword())
	suite.Equal(1, suite.store.CountOAuthAccounts())

	account, err := suite.store.FindOAuthAccount(suite.ctx, domain.ProviderGitHub, "4242")
	suite.Require().NoError(err)
	suite.Equal(user.UserID, account.UserID)
	suite.Require().NotNil(account.DisplayName)
	suite.Equal("Octo", *account.DisplayName)
	suite.Nil(account.Email)
}

func (suite *OAuthLinkerServiceTestSuite) TestLinkProfile_ReturningIdentity() {
	profile := domain.OAuthProfile{ExternalID: "g-1", Email: "carol@example.com"}
	first, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGoogle, profile)
	suite.Require().NoError(err)

	second, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGoogle, profile)
	suite.Require().NoError(err)

	suite.Equal(first.UserID, second.UserID)
	suite.Equal(1, suite.store.CountOAuthAccounts())
}

func (suite *OAuthLinkerServiceTestSuite) TestLinkProfile_LinksByEmail() {
	existing, err := suite.sessions.Register(suite.ctx, "dave@example.com", "dave", "dave-password-1")
	suite.Require().NoError(err)

	viaGoogle, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGoogle, domain.OAuthProfile{ExternalID: "g-dave", Email: "Dave@Example.com"})
	suite.Require().NoError(err)
	viaGitHub, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGitHub, domain.OAuthProfile{ExternalID: "77", Email: "dave@example.com"})
	suite.Require().NoError(err)

	suite.Equal(existing.UserID, viaGoogle.UserID)
	suite.Equal(existing.UserID, viaGitHub.UserID)
	suite.Equal(2, suite.store.CountOAuthAccounts())

	// The local password still works after linking.
	_, err = suite.sessions.Login(suite.ctx, "dave", "dave-password-1", "")
	suite.NoError(err)
}

func (suite *OAuthLinkerServiceTestSuite) TestLinkProfile_RejectsEmptyExternalID() {
	_, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGoogle, domain.OAuthProfile{Email: "x@example.com"})
	suite.ErrorIs(err, apperrors.ErrLinkFailed)
	suite.Zero(suite.store.CountOAuthAccounts())
}

func (suite *OAuthLinkerServiceTestSuite) TestLinkProfile_ConcurrentFirstSight() {
	for _, profile := range []domain.OAuthProfile{
		{ExternalID: "race-1"},
		{ExternalID: "race-2", Email: "erin@example.com"},
	} {
		const callers = 6
		ids := make(chan string, callers)
		errs := make(chan error, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				user, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGitHub, profile)
				if err != nil {
					errs <- err
					return
				}
				ids <- user.UserID
			}()
		}
		wg.Wait()
		close(ids)
		close(errs)

		for err := range errs {
			suite.Fail("unexpected link error", err.Error())
		}
		var first string
		for id := range ids {
			if first == "" {
				first = id
			}
			suite.Equal(first, id)
		}
	}
	suite.Equal(2, suite.store.CountOAuthAccounts())
}

// squat plants a user directly in the store, as if it predated the
// registration-time reservation of synthesized identities.
func (suite *OAuthLinkerServiceTestSuite) squat(email, username string) domain.User {
	hash := "unused"
	now := time.Now()
	user := domain.User{
		UserID:       "squatter-" + username,
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
		Role:         domain.RoleUser,
		AuditFields:  domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
	suite.Require().NoError(suite.store.CreateUser(suite.ctx, user))
	return user
}

func (suite *OAuthLinkerServiceTestSuite) TestLinkProfile_SyntheticUsernameTaken() {
	squatter := suite.squat("mallory@example.com", "github_42")

	user, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGitHub, domain.OAuthProfile{ExternalID: "42"})
	suite.Require().NoError(err)

	suite.NotEqual(squatter.UserID, user.UserID)
	suite.True(strings.HasPrefix(user.Username, "github_42_"), user.Username)
	suite.Equal(user.Username+"@oauth.local", user.Email)

	// Later callbacks keep resolving to the same account.
	again, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGitHub, domain.OAuthProfile{ExternalID: "42"})
	suite.Require().NoError(err)
	suite.Equal(user.UserID, again.UserID)
}

func (suite *OAuthLinkerServiceTestSuite) TestLinkProfile_PlaceholderEmailTaken() {
	squatter := suite.squat("github_42@oauth.local", "mallory")

	user, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGitHub, domain.OAuthProfile{ExternalID: "42"})
	suite.Require().NoError(err)

	suite.NotEqual(squatter.UserID, user.UserID)
	suite.NotEqual("github_42@oauth.local", user.Email)
	suite.Equal(1, suite.store.CountOAuthAccounts())
}

func (suite *OAuthLinkerServiceTestSuite) TestRegister_RejectsSyntheticIdentities() {
	cases := []struct{ email, username string }{
		{"mallory@example.com", "github_42"},
		{"mallory@example.com", "Google_1"},
		{"github_42@OAuth.Local", "mallory"},
	}
	for _, tc := range cases {
		_, err := suite.sessions.Register(suite.ctx, tc.email, tc.username, "mallory-password")
		suite.ErrorIs(err, apperrors.ErrValidation, tc.username)
	}

	user, err := suite.service.LinkProfile(suite.ctx, domain.ProviderGitHub, domain.OAuthProfile{ExternalID: "42"})
	suite.Require().NoError(err)
	suite.Equal("github_42", user.Username)
}

func TestOAuthLinkerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OAuthLinkerServiceTestSuite))
}
