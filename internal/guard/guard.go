// Package guard decides, per request and before any page logic runs,
// whether to pass through or redirect based on the provider-issued session.
package guard

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"comunidad/internal/model"
)

// Destinations and the query marker the login screen may consume.
const (
	LoginPath       = "/login"
	DashboardPath   = "/dashboard"
	OnboardingPath  = "/onboarding/properties"
	RedirectedParam = "redirected"
)

// protectedPrefixes require a valid session.
var protectedPrefixes = []string{"/dashboard", "/profile", "/change-password"}

// authPrefixes are only meaningful to an unauthenticated visitor.
var authPrefixes = []string{"/login", "/register", "/forgot-password", "/reset-password"}

// SessionAPI validates and rotates provider sessions.
type SessionAPI interface {
	GetUser(ctx context.Context, accessToken string) (*model.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error)
}

// PropertyAPI answers the dashboard's property-existence gate.
type PropertyAPI interface {
	CountProperties(ctx context.Context, accessToken, userID string) (int, error)
}

// Config tunes the guard. FailOpen grants dashboard access when the
// property-existence check itself errors; the default denies.
type Config struct {
	FailOpen bool
}

type contextKey string

const (
	userContextKey  = contextKey("guard_user")
	tokenContextKey = contextKey("guard_access_token")
)

// Middleware returns the route guard. Rules run in fixed order, first match
// wins:
//
//  1. derive the user by live validation of the session cookie, refreshing
//     a stale token pair once and forwarding any rotated cookies;
//  2. protected prefix without a user redirects to /login?redirected=true;
//  3. /dashboard additionally requires at least one property record,
//     otherwise redirects to onboarding;
//  4. auth prefix with a user redirects to /dashboard;
//  5. anything else passes through.
//
// Any provider failure during validation counts as "no user" (fail-closed).
func Middleware(sessions SessionAPI, properties PropertyAPI, cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			guarded := matchesPrefix(path, protectedPrefixes) || matchesPrefix(path, authPrefixes)
			if !guarded {
				return next(c)
			}

			user, token := resolveUser(c, sessions)

			if matchesPrefix(path, protectedPrefixes) {
				if user == nil {
					return redirectToLogin(c)
				}
				if strings.HasPrefix(path, DashboardPath) {
					if allow := checkProperties(c, properties, token, user.ID, cfg); !allow {
						return c.Redirect(http.StatusFound, OnboardingPath)
					}
				}
				setIdentity(c, user, token)
				return next(c)
			}

			// Auth prefix: an authenticated visitor has nothing to do here.
			if user != nil {
				return c.Redirect(http.StatusFound, DashboardPath)
			}
			return next(c)
		}
	}
}

// resolveUser validates the access-token cookie against the provider. A
// failed validation falls back to one refresh attempt; rotated cookies are
// written onto the response so the browser stays logged in. Every failure
// resolves to (nil, ""), never to an error.
func resolveUser(c echo.Context, sessions SessionAPI) (*model.User, string) {
	ctx := c.Request().Context()

	if token := cookieValue(c, AccessTokenCookie); token != "" {
		user, err := sessions.GetUser(ctx, token)
		if err == nil {
			return user, token
		}
		log.Printf("guard: session validation failed: %v", err)
	}

	refresh := cookieValue(c, RefreshTokenCookie)
	if refresh == "" {
		return nil, ""
	}

	sess, err := sessions.RefreshSession(ctx, refresh)
	if err != nil {
		log.Printf("guard: session refresh failed: %v", err)
		return nil, ""
	}

	SetSessionCookies(c, sess)
	return sess.User, sess.AccessToken
}

// checkProperties reports whether the dashboard gate admits the user. A
// provider error is logged and resolved by policy, never swallowed into a
// silent allow.
func checkProperties(c echo.Context, properties PropertyAPI, token, userID string, cfg Config) bool {
	count, err := properties.CountProperties(c.Request().Context(), token, userID)
	if err != nil {
		log.Printf("guard: property existence check failed for user %s: %v", userID, err)
		return cfg.FailOpen
	}
	return count > 0
}

func redirectToLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, LoginPath+"?"+RedirectedParam+"=true")
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// setIdentity stashes the validated identity for downstream handlers.
func setIdentity(c echo.Context, user *model.User, token string) {
	c.Set(string(userContextKey), user)
	c.Set(string(tokenContextKey), token)
}

// UserFromContext returns the identity the guard validated, or nil on
// routes the guard did not gate.
func UserFromContext(c echo.Context) *model.User {
	user, _ := c.Get(string(userContextKey)).(*model.User)
	return user
}

// TokenFromContext returns the access token the guard validated.
func TokenFromContext(c echo.Context) string {
	token, _ := c.Get(string(tokenContextKey)).(string)
	return token
}
