package model

// Session is the credential material issued by the provider after a
// successful login or token refresh. It is mirrored read-only; the provider
// owns its lifecycle.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}
