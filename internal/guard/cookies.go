package guard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"comunidad/internal/model"
)

// Provider session cookies. The values are provider-issued; this
// application forwards them but never fabricates them.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// refreshTokenMaxAge keeps the refresh cookie around long enough for the
// provider to decide whether it still honors the token.
const refreshTokenMaxAge = 30 * 24 * 60 * 60

// SetSessionCookies writes the session's token pair onto the response so
// the browser's cookie jar stays in sync with the provider.
func SetSessionCookies(c echo.Context, sess *model.Session) {
	c.SetCookie(sessionCookie(AccessTokenCookie, sess.AccessToken, sess.ExpiresIn))
	c.SetCookie(sessionCookie(RefreshTokenCookie, sess.RefreshToken, refreshTokenMaxAge))
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(c echo.Context) {
	c.SetCookie(sessionCookie(AccessTokenCookie, "", -1))
	c.SetCookie(sessionCookie(RefreshTokenCookie, "", -1))
}

func sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// cookieValue reads a request cookie, returning "" when absent.
func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
