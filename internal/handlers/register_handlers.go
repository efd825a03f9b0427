package handlers

import (
	"github.com/SscSPs/identity_service/cmd/docs"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/middleware"
	"github.com/SscSPs/identity_service/internal/platform/config"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// loginLimiter guards register and login; analytics may be uninitialised.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	loginLimiter *limiter.Limiter,
	analytics *utils.PosthogClientWrapper,
) {
	registerValidators()

	r.GET("/health", health)

	cookies := newCookieJar(cfg)
	csrf := middleware.CSRFGuard(cfg.CSRFCookieName, cfg.CSRFHeaderName)
	authn := middleware.AuthMiddleware(services.Token)

	registerAuthRoutes(r, services, cookies, csrf, authn, middleware.RateLimit(loginLimiter), analytics)
	registerOAuthRoutes(r, services, cookies, csrf, analytics)
	registerMfaRoutes(r, services.Mfa, cookies, csrf, authn)
	registerAdminRoutes(r, services, csrf, authn)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

func registerAuthRoutes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	cookies cookieJar,
	csrf, authn, rateLimit gin.HandlerFunc,
	analytics *utils.PosthogClientWrapper,
) {
	h := newAuthHandler(services.Session, services.User, cookies, analytics)
	csrfHandler := &csrfHandler{cookies: cookies}

	auth := r.Group("/auth")
	auth.GET("/csrf", csrfHandler.issueToken)

	public := auth.Group("", csrf)
	{
		public.POST("/register", rateLimit, h.register)
		public.POST("/login", rateLimit, h.login)
		public.POST("/refresh", h.refresh)
		public.POST("/logout", h.logout)
	}

	private := auth.Group("", authn, csrf)
	{
		private.GET("/me", h.me)
		private.POST("/password", h.setPassword)
	}
}

func registerOAuthRoutes(r *gin.Engine, services *portssvc.ServiceContainer, cookies cookieJar, csrf gin.HandlerFunc, analytics *utils.PosthogClientWrapper) {
	h := &oauthHandler{
		providers:      services.OAuthProviders,
		linker:         services.OAuthLinker,
		sessionService: services.Session,
		cookies:        cookies,
		analytics:      analytics,
	}

	// Top-level navigations from the provider cannot carry the CSRF header;
	// the state cookie protects the callback instead.
	oauth := r.Group("/auth/oauth")
	oauth.GET("/:provider", h.start)
	oauth.GET("/:provider/callback", h.callback)
	oauth.POST("/mfa", csrf, h.completeMfa)
}

func registerMfaRoutes(r *gin.Engine, mfaService portssvc.MfaSvcFacade, cookies cookieJar, csrf, authn gin.HandlerFunc) {
	h := &mfaHandler{mfaService: mfaService, cookies: cookies}

	mfa := r.Group("/auth/mfa", authn, csrf)
	{
		mfa.POST("/setup", h.setup)
		mfa.POST("/enable", h.enable)
		mfa.POST("/verify", h.verify)
		mfa.POST("/disable", h.disable)
	}
}

func registerAdminRoutes(r *gin.Engine, services *portssvc.ServiceContainer, csrf, authn gin.HandlerFunc) {
	h := &adminUserHandler{userService: services.User, sessionService: services.Session}

	admin := r.Group("/admin", authn, middleware.RequireRole(domain.RoleAdmin), csrf)
	users := admin.Group("/users")
	{
		users.GET("", h.listUsers)
		users.POST("/:userID/role", h.setRole)
		users.POST("/:userID/revoke-sessions", h.revokeSessions)
		users.POST("/:userID/disable", h.disableUser)
		users.POST("/:userID/password", h.setPassword)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
