package provider

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenExpiry reads the expiry claim out of a provider access token without
// verifying the signature. The result is only used to schedule refreshes;
// authorization always goes through a live GetUser call.
func TokenExpiry(accessToken string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("access token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}
