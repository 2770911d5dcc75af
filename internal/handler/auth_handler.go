package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"comunidad/internal/errors"
	"comunidad/internal/guard"
	"comunidad/internal/session"
)

// recoveryCooldown is the minimum interval between recovery emails for the
// same address.
const recoveryCooldown = time.Minute

// RecoveryCache tracks recently sent recovery emails. *cache.Client
// satisfies it; its fail-safe posture means an unavailable backend simply
// disables the cooldown.
type RecoveryCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AuthHandler handles the authentication screens and form submissions. Each
// request gets its own synchronizer seeded from that request's cookies, so
// no auth state is shared across requests.
type AuthHandler struct {
	api        session.IdentityAPI
	appBaseURL string
	recovery   RecoveryCache
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(api session.IdentityAPI, appBaseURL string, recovery RecoveryCache) *AuthHandler {
	return &AuthHandler{api: api, appBaseURL: appBaseURL, recovery: recovery}
}

// LoginRequest represents a login submission.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RegisterRequest represents a registration submission.
type RegisterRequest struct {
	Nombre          string `json:"nombre" form:"nombre" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
	GDPRAccept      bool   `json:"gdpr_accept" form:"gdpr_accept"`
}

// ForgotPasswordRequest represents a recovery-email request.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the emailed recovery flow.
type ResetPasswordRequest struct {
	Token           string `json:"token" form:"token" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

// ChangePasswordRequest changes the password of a logged-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" form:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

// MessageResponse carries a user-facing success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// Login godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 303 {string} string "redirect to /dashboard"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, "a valid email and password are required")
	}

	sync := session.New(h.api, h.appBaseURL)
	defer sync.Close()

	if err := sync.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return mapped(c, err)
	}

	// A successful sign-in lifts any recovery cooldown for the address.
	_ = h.recovery.Delete(c.Request().Context(), recoveryKey(req.Email))

	// Login only returns after the synchronizer commits the new state, so
	// redirecting here cannot race the session becoming visible.
	guard.SetSessionCookies(c, sync.Session())
	return c.Redirect(http.StatusSeeOther, guard.DashboardPath)
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, "name, a valid email and a password of at least 6 characters are required")
	}
	if req.Password != req.ConfirmPassword {
		return validationFailed(c, "passwords do not match")
	}
	if !req.GDPRAccept {
		return validationFailed(c, "the privacy policy must be accepted")
	}

	sync := session.New(h.api, h.appBaseURL)
	defer sync.Close()

	message, err := sync.Register(c.Request().Context(), req.Email, req.Password, req.Nombre)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: message})
}

// Logout godoc
// @Summary Sign out and clear session cookies
// @Tags auth
// @Success 303 {string} string "redirect to /"
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sync := h.resumed(c)
	defer sync.Close()

	// Logout never fails on a missing session, so hitting this twice is
	// harmless.
	_ = sync.Logout(c.Request().Context())
	guard.ClearSessionCookies(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

// ForgotPassword godoc
// @Summary Send a password-recovery email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, "a valid email address is required")
	}

	// Repeated submissions within the cooldown get the same answer without
	// another provider call, so the form cannot be used to spam an inbox.
	key := recoveryKey(req.Email)
	if hit, _ := h.recovery.Get(c.Request().Context(), key); hit != nil {
		return c.JSON(http.StatusOK, MessageResponse{Message: "recovery instructions sent to your email"})
	}

	sync := session.New(h.api, h.appBaseURL)
	defer sync.Close()

	message, err := sync.ResetPassword(c.Request().Context(), req.Email)
	if err != nil {
		return mapped(c, err)
	}
	_ = h.recovery.Set(c.Request().Context(), key, []byte("1"), recoveryCooldown)
	return c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// ResetPassword godoc
// @Summary Complete the emailed password-recovery flow
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Recovery token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, "recovery token and a password of at least 6 characters are required")
	}
	if req.Password != req.ConfirmPassword {
		return validationFailed(c, "passwords do not match")
	}

	sync := session.New(h.api, h.appBaseURL)
	defer sync.Close()

	if err := sync.CompleteReset(c.Request().Context(), req.Token, req.Password); err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "password updated, you can sign in now"})
}

// ChangePassword godoc
// @Summary Change the password of the logged-in user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, "current password and a new password of at least 6 characters are required")
	}
	if req.NewPassword != req.ConfirmPassword {
		return validationFailed(c, "new passwords do not match")
	}

	sync := h.resumed(c)
	defer sync.Close()

	if err := sync.ChangePassword(c.Request().Context(), req.CurrentPassword, req.NewPassword); err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

func recoveryKey(email string) string {
	return "recovery:" + email
}

// resumed builds a synchronizer seeded from the request's session cookies.
func (h *AuthHandler) resumed(c echo.Context) *session.Synchronizer {
	sync := session.New(h.api, h.appBaseURL)
	access, refresh := sessionCookies(c)
	_ = sync.Resume(c.Request().Context(), access, refresh)
	return sync
}

func sessionCookies(c echo.Context) (access, refresh string) {
	if cookie, err := c.Cookie(guard.AccessTokenCookie); err == nil {
		access = cookie.Value
	}
	if cookie, err := c.Cookie(guard.RefreshTokenCookie); err == nil {
		refresh = cookie.Value
	}
	return access, refresh
}

// mapped renders a domain error inline per the error-handling contract: the
// normalized message with its taxonomy code, never an uncaught throw.
func mapped(c echo.Context, err error) error {
	he := errors.MapErrorToHTTP(err)
	return c.JSON(he.StatusCode, he.ToErrorResponse())
}

func validationFailed(c echo.Context, message string) error {
	return mapped(c, errors.ValidationError(message))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: message, Code: "BAD_REQUEST"})
}
