package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"comunidad/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, "anon-key", 5*time.Second)
}

func TestSignInWithPassword(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedError error
		expectToken   string
	}{
		{
			name:        "successful login",
			status:      http.StatusOK,
			body:        `{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"user":{"id":"u-1","email":"ana@example.com"}}`,
			expectToken: "at-1",
		},
		{
			name:          "invalid credentials normalized",
			status:        http.StatusBadRequest,
			body:          `{"error_description":"Invalid login credentials"}`,
			expectedError: errors.ErrInvalidCredentials,
		},
		{
			name:          "unconfirmed email normalized",
			status:        http.StatusBadRequest,
			body:          `{"error_description":"Email not confirmed"}`,
			expectedError: errors.ErrEmailNotConfirmed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/auth/v1/token", r.URL.Path)
				assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
				assert.Equal(t, "anon-key", r.Header.Get("apikey"))

				var req map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "ana@example.com", req["email"])

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			session, err := client.SignInWithPassword(context.Background(), "ana@example.com", "secret1")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, session)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectToken, session.AccessToken)
				assert.Equal(t, "u-1", session.User.ID)
			}
		})
	}
}

func TestSignUp(t *testing.T) {
	t.Run("attaches display name as metadata", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/signup", r.URL.Path)

			var req map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			data, _ := req["data"].(map[string]any)
			assert.Equal(t, "Ana", data["nombre"])

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"u-1","email":"a@b.com","user_metadata":{"nombre":"Ana"}}`))
		})

		user, err := client.SignUp(context.Background(), "a@b.com", "pw123456", "Ana")
		assert.NoError(t, err)
		assert.Equal(t, "Ana", user.UserMetadata.Nombre)
	})

	t.Run("already registered normalized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"msg":"User already registered"}`))
		})

		_, err := client.SignUp(context.Background(), "a@b.com", "pw123456", "Ana")
		assert.ErrorIs(t, err, errors.ErrAlreadyRegistered)
	})
}

func TestGetUser(t *testing.T) {
	t.Run("passes bearer token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/user", r.URL.Path)
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":"u-1","email":"ana@example.com"}`))
		})

		user, err := client.GetUser(context.Background(), "token-1")
		assert.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
	})

	t.Run("stale token is an opaque provider error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
		})

		_, err := client.GetUser(context.Background(), "stale")
		var provErr *errors.ProviderError
		assert.ErrorAs(t, err, &provErr)
		assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode)
		assert.Equal(t, "invalid JWT", provErr.Message)
	})
}

func TestRefreshSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rt-old", req["refresh_token"])

		_, _ = w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new","user":{"id":"u-1","email":"ana@example.com"}}`))
	})

	session, err := client.RefreshSession(context.Background(), "rt-old")
	assert.NoError(t, err)
	assert.Equal(t, "at-new", session.AccessToken)
	assert.Equal(t, "rt-new", session.RefreshToken)
}

func TestSendRecoveryEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		assert.Equal(t, "https://app.example.com/reset-password", r.URL.Query().Get("redirect_to"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.SendRecoveryEmail(context.Background(), "ana@example.com", "https://app.example.com/reset-password")
	assert.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer recovery-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u-1"}`))
	})

	err := client.UpdatePassword(context.Background(), "recovery-token", "newpass1")
	assert.NoError(t, err)
}
