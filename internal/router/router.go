package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"comunidad/internal/cache"
	"comunidad/internal/config"
	"comunidad/internal/guard"
	"comunidad/internal/handler"
	"comunidad/internal/provider"
	"comunidad/internal/ratelimit"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	client *provider.Client,
	cacheClient *cache.Client,
	authHandler *handler.AuthHandler,
	dashboardHandler *handler.DashboardHandler,
	pageHandler *handler.PageHandler,
	apiHandler *handler.APIHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// The route guard intercepts every request before page logic; paths
	// outside its protected/auth sets pass through untouched.
	e.Use(guard.Middleware(client, client, guard.Config{FailOpen: cfg.GuardFailOpen}))

	limited := ratelimit.Middleware(cacheClient, cfg.AuthRateLimit, cfg.AuthRateWindow)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public pages
	e.GET("/", pageHandler.Home)
	e.GET("/privacy-policy", pageHandler.PrivacyPolicy)
	e.GET("/terms-and-conditions", pageHandler.TermsAndConditions)

	// Auth routes (guard redirects authenticated visitors away)
	e.GET("/login", pageHandler.Login)
	e.POST("/login", authHandler.Login, limited)
	e.GET("/register", pageHandler.Register)
	e.POST("/register", authHandler.Register, limited)
	e.GET("/forgot-password", pageHandler.ForgotPassword)
	e.POST("/forgot-password", authHandler.ForgotPassword, limited)
	e.GET("/reset-password", pageHandler.ResetPassword)
	e.POST("/reset-password", authHandler.ResetPassword)
	e.GET("/logout", authHandler.Logout)
	e.POST("/logout", authHandler.Logout)

	// Protected routes (guard requires a live-validated session)
	e.GET("/dashboard", dashboardHandler.Dashboard)
	e.GET("/profile", dashboardHandler.Profile)
	e.GET("/change-password", pageHandler.ChangePassword)
	e.POST("/change-password", authHandler.ChangePassword)

	// Onboarding (reachable without a property record, session checked in
	// the handler)
	e.GET("/onboarding/properties", dashboardHandler.Onboarding)
	e.POST("/onboarding/properties", dashboardHandler.AddProperty)
	e.DELETE("/onboarding/properties/:id", dashboardHandler.DeleteProperty)

	// JSON API: the provider access token is verified locally against the
	// provider project's JWT secret.
	api := e.Group("/api", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.ProviderJWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + guard.AccessTokenCookie,
	}))
	api.GET("/me", apiHandler.Me)
	api.GET("/properties", apiHandler.ListProperties)
	api.POST("/properties", apiHandler.AddProperty)
	api.DELETE("/properties/:id", apiHandler.DeleteProperty)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
