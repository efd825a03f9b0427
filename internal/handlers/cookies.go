package handlers

import (
	"net/http"
	"time"

	"github.com/SscSPs/identity_service/internal/platform/config"
	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookieName = "oauth_state"
	oauthStateCookiePath = "/auth/oauth"
	oauthStateTTL        = 10 * time.Minute
	mfaChallengeCookie   = "oauth_mfa_challenge"
)

// cookieJar writes the cookies the auth endpoints hand out.
type cookieJar struct {
	refreshName string
	refreshPath string
	csrfName    string
	csrfMaxAge  time.Duration
	secure      bool
}

func newCookieJar(cfg *config.Config) cookieJar {
	return cookieJar{
		refreshName: cfg.RefreshTokenCookieName,
		refreshPath: cfg.RefreshTokenCookiePath,
		csrfName:    cfg.CSRFCookieName,
		csrfMaxAge:  cfg.CSRFCookieMaxAge,
		secure:      cfg.CookieSecure,
	}
}

// setRefresh stores the refresh token where page scripts cannot read it.
// The cookie lives exactly as long as the token.
func (j cookieJar) setRefresh(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		j.clearRefresh(c)
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     j.refreshName,
		Value:    token,
		Path:     j.refreshPath,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (j cookieJar) clearRefresh(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     j.refreshName,
		Value:    "",
		Path:     j.refreshPath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (j cookieJar) refresh(c *gin.Context) string {
	v, err := c.Cookie(j.refreshName)
	if err != nil {
		return ""
	}
	return v
}

// setCSRF leaves HttpOnly off so the page can echo the value in the header.
func (j cookieJar) setCSRF(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     j.csrfName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(j.csrfMaxAge.Seconds()),
		HttpOnly: false,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// setOAuthState uses Lax because the callback arrives as a cross-site
// top-level navigation from the provider.
func (j cookieJar) setOAuthState(c *gin.Context, state string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     oauthStateCookiePath,
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j cookieJar) takeOAuthState(c *gin.Context) string {
	v, _ := c.Cookie(oauthStateCookieName)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     oauthStateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

// setMfaChallenge parks an OAuth sign-in that still owes a TOTP code.
func (j cookieJar) setMfaChallenge(c *gin.Context, challenge string, expiresAt time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     mfaChallengeCookie,
		Value:    challenge,
		Path:     oauthStateCookiePath,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (j cookieJar) mfaChallenge(c *gin.Context) string {
	v, err := c.Cookie(mfaChallengeCookie)
	if err != nil {
		return ""
	}
	return v
}

func (j cookieJar) clearMfaChallenge(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     mfaChallengeCookie,
		Value:    "",
		Path:     oauthStateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
