package provider

import (
	"context"
	"net/http"
	"net/url"

	"comunidad/internal/model"
)

// SignInWithPassword exchanges credentials for a session via the password
// grant. Invalid credentials and unconfirmed emails come back as their
// sentinel errors.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]string{"email": email, "password": password}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new account with the display name attached as profile
// metadata. The returned user is not authenticated until the confirmation
// email is acted on.
func (c *Client) SignUp(ctx context.Context, email, password, nombre string) (*model.User, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"nombre": nombre},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/signup", "", body)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session behind the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// GetUser validates an access token against the provider and returns the
// user it belongs to. This is a live validation; a stale or forged token
// fails here regardless of what the cookie claims.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshSession rotates an expired session. The returned session carries a
// fresh token pair that must replace the caller's stored credentials.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body)
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SendRecoveryEmail asks the provider to email a password-reset link that
// lands on redirectTo.
func (c *Client) SendRecoveryEmail(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// UpdatePassword sets a new password on the account behind the access
// token. Used by both the change-password flow and reset completion (where
// the token is the recovery token from the emailed link).
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]string{"password": newPassword})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
