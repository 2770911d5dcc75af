package model

import "time"

// UserMetadata holds the optional profile data attached at registration.
type UserMetadata struct {
	Nombre string `json:"nombre,omitempty"`
}

// User represents an authenticated user as reported by the identity provider.
// The identifier is provider-owned and opaque to this application.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
}

// DisplayName returns the registration display name, falling back to the email.
func (u *User) DisplayName() string {
	if u.UserMetadata.Nombre != "" {
		return u.UserMetadata.Nombre
	}
	return u.Email
}
