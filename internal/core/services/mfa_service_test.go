package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/core/services"
	"github.com/SscSPs/identity_service/internal/repositories/memory"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/stretchr/testify/suite"
)

type MfaServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	totp     *utils.TOTPEngine
	now      time.Time
	service  portssvc.MfaSvcFacade
	sessions portssvc.SessionSvcFacade
	user     *domain.User
}

func (suite *MfaServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.totp = newTestTOTP(suite.T())
	suite.now = time.Now()
	suite.service = services.NewMfaService(suite.store, suite.totp, 8, services.WithMfaClock(func() time.Time { return suite.now }))
	suite.sessions = services.NewSessionService(suite.store, newFastHasher(suite.T()), newTestTokenService(suite.T()), suite.service)

	user, err := suite.sessions.Register(suite.ctx, "bob@example.com", "bob", "bob-password-123")
	suite.Require().NoError(err)
	suite.user = user
}

func (suite *MfaServiceTestSuite) codeAt(secret string, t time.Time) string {
	code, err := suite.totp.GenerateCode(secret, t)
	suite.Require().NoError(err)
	return code
}

// enable enrolls and confirms MFA for the suite user, returning the secret.
func (suite *MfaServiceTestSuite) enable() string {
	enrollment, err := suite.service.Enroll(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.service.ConfirmEnroll(suite.ctx, suite.user.UserID, enrollment.Secret, suite.codeAt(enrollment.Secret, suite.now)))
	return enrollment.Secret
}

func (suite *MfaServiceTestSuite) TestEnroll_DoesNotPersistUntilConfirmed() {
	enrollment, err := suite.service.Enroll(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)

	suite.NotEmpty(enrollment.Secret)
	suite.True(strings.HasPrefix(enrollment.ProvisioningURI, "otpauth://totp/"))
	suite.Len(enrollment.BackupCodes, 8)

	stored, err := suite.store.FindUserByID(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)
	suite.False(stored.MfaEnabled)
	suite.Nil(stored.MfaSecret)
}

func (suite *MfaServiceTestSuite) TestConfirmEnroll_WrongCode() {
	enrollment, err := suite.service.Enroll(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)

	err = suite.service.ConfirmEnroll(suite.ctx, suite.user.UserID, enrollment.Secret, wrongCode(suite.T(), suite.totp, enrollment.Secret, suite.now))
	suite.ErrorIs(err, apperrors.ErrInvalidMfaCode)

	stored, err := suite.store.FindUserByID(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)
	suite.False(stored.MfaEnabled)
}

func (suite *MfaServiceTestSuite) TestConfirmEnroll_EnablesAndBlocksReEnroll() {
	secret := suite.enable()

	stored, err := suite.store.FindUserByID(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)
	suite.True(stored.MfaEnabled)
	suite.Require().NotNil(stored.MfaSecret)
	suite.Equal(secret, *stored.MfaSecret)

	_, err = suite.service.Enroll(suite.ctx, suite.user.UserID)
	suite.ErrorIs(err, apperrors.ErrAlreadyEnabled)
}

func (suite *MfaServiceTestSuite) TestVerify_SkewWindow() {
	secret := suite.enable()
	step := 30 * time.Second

	for _, offset := range []time.Duration{-2 * step, -step, 0, step, 2 * step} {
		ok, err := suite.service.Verify(suite.ctx, suite.user.UserID, suite.codeAt(secret, suite.now.Add(offset)))
		suite.Require().NoError(err)
		suite.True(ok, "offset %s", offset)
	}
	for _, offset := range []time.Duration{-3 * step, 3 * step} {
		ok, err := suite.service.Verify(suite.ctx, suite.user.UserID, suite.codeAt(secret, suite.now.Add(offset)))
		suite.Require().NoError(err)
		suite.False(ok, "offset %s", offset)
	}
}

func (suite *MfaServiceTestSuite) TestVerify_NotEnabled() {
	_, err := suite.service.Verify(suite.ctx, suite.user.UserID, "123456")
	suite.ErrorIs(err, apperrors.ErrMfaNotEnabled)
}

func (suite *MfaServiceTestSuite) TestDisable_RequiresValidCode() {
	secret := suite.enable()

	err := suite.service.Disable(suite.ctx, suite.user.UserID, wrongCode(suite.T(), suite.totp, secret, suite.now))
	suite.ErrorIs(err, apperrors.ErrInvalidMfaCode)

	stored, err := suite.store.FindUserByID(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)
	suite.True(stored.MfaEnabled)
}

func (suite *MfaServiceTestSuite) TestDisable_ClearsSecretAndRevokesSessions() {
	secret := suite.enable()
	session, err := suite.sessions.Login(suite.ctx, "bob", "bob-password-123", suite.codeAt(secret, suite.now))
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Disable(suite.ctx, suite.user.UserID, suite.codeAt(secret, suite.now)))

	stored, err := suite.store.FindUserByID(suite.ctx, suite.user.UserID)
	suite.Require().NoError(err)
	suite.False(stored.MfaEnabled)
	suite.Nil(stored.MfaSecret)

	_, err = suite.sessions.Refresh(suite.ctx, session.RefreshToken)
	suite.ErrorIs(err, apperrors.ErrTokenRevoked)

	_, err = suite.service.Verify(suite.ctx, suite.user.UserID, suite.codeAt(secret, suite.now))
	suite.ErrorIs(err, apperrors.ErrMfaNotEnabled)

	err = suite.service.Disable(suite.ctx, suite.user.UserID, suite.codeAt(secret, suite.now))
	suite.ErrorIs(err, apperrors.ErrMfaNotEnabled)
}

func TestMfaServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MfaServiceTestSuite))
}
