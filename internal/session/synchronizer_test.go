package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"comunidad/internal/errors"
	"comunidad/internal/model"
)

// MockIdentityAPI is a mock implementation of IdentityAPI.
type MockIdentityAPI struct {
	mock.Mock
}

func (m *MockIdentityAPI) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockIdentityAPI) SignUp(ctx context.Context, email, password, nombre string) (*model.User, error) {
	args := m.Called(ctx, email, password, nombre)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockIdentityAPI) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockIdentityAPI) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockIdentityAPI) RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockIdentityAPI) SendRecoveryEmail(ctx context.Context, email, redirectTo string) error {
	args := m.Called(ctx, email, redirectTo)
	return args.Error(0)
}

func (m *MockIdentityAPI) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	args := m.Called(ctx, accessToken, newPassword)
	return args.Error(0)
}

func testUser() *model.User {
	return &model.User{ID: "u-1", Email: "ana@example.com", UserMetadata: model.UserMetadata{Nombre: "Ana"}}
}

func testSession() *model.Session {
	return &model.Session{AccessToken: "at-1", RefreshToken: "rt-1", ExpiresIn: 3600, User: testUser()}
}

func TestSynchronizer_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockIdentityAPI)
		expectedError error
		expectAuth    bool
	}{
		{
			name:     "successful login commits state before returning",
			email:    "ana@example.com",
			password: "secret1",
			setupMock: func(m *MockIdentityAPI) {
				m.On("SignInWithPassword", mock.Anything, "ana@example.com", "secret1").Return(testSession(), nil)
			},
			expectAuth: true,
		},
		{
			name:     "invalid credentials leave state unauthenticated",
			email:    "bad@x.com",
			password: "wrongpw",
			setupMock: func(m *MockIdentityAPI) {
				m.On("SignInWithPassword", mock.Anything, "bad@x.com", "wrongpw").Return(nil, errors.ErrInvalidCredentials)
			},
			expectedError: errors.ErrInvalidCredentials,
		},
		{
			name:          "malformed email short-circuits before the provider",
			email:         "not-an-email",
			password:      "secret1",
			setupMock:     func(m *MockIdentityAPI) {},
			expectedError: errors.ErrValidation,
		},
		{
			name:          "short password short-circuits before the provider",
			email:         "ana@example.com",
			password:      "pw",
			setupMock:     func(m *MockIdentityAPI) {},
			expectedError: errors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockIdentityAPI)
			tt.setupMock(api)

			sync := New(api, "http://localhost:8080")
			defer sync.Close()

			err := sync.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "u-1", sync.User().ID)
				assert.Equal(t, "at-1", sync.AccessToken())
			}
			assert.Equal(t, tt.expectAuth, sync.IsAuthenticated())
			// The loading flag must never stick on any exit path.
			assert.False(t, sync.IsLoading())

			api.AssertExpectations(t)
		})
	}
}

func TestSynchronizer_Register(t *testing.T) {
	t.Run("success does not grant authenticated state", func(t *testing.T) {
		api := new(MockIdentityAPI)
		api.On("SignUp", mock.Anything, "a@b.com", "pw123456", "Ana").Return(testUser(), nil)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		message, err := sync.Register(context.Background(), "a@b.com", "pw123456", "Ana")
		assert.NoError(t, err)
		assert.NotEmpty(t, message)
		assert.False(t, sync.IsAuthenticated())
		assert.False(t, sync.IsLoading())
		api.AssertExpectations(t)
	})

	t.Run("missing display name is a validation error", func(t *testing.T) {
		api := new(MockIdentityAPI)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		_, err := sync.Register(context.Background(), "a@b.com", "pw123456", "")
		assert.ErrorIs(t, err, errors.ErrValidation)
		api.AssertExpectations(t)
	})
}

func TestSynchronizer_LogoutIsIdempotent(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("SignInWithPassword", mock.Anything, "ana@example.com", "secret1").Return(testSession(), nil)
	api.On("SignOut", mock.Anything, "at-1").Return(nil).Once()

	sync := New(api, "http://localhost:8080")
	defer sync.Close()

	assert.NoError(t, sync.Login(context.Background(), "ana@example.com", "secret1"))

	assert.NoError(t, sync.Logout(context.Background()))
	assert.False(t, sync.IsAuthenticated())

	// Second logout has no session left and must not fail.
	assert.NoError(t, sync.Logout(context.Background()))
	assert.False(t, sync.IsAuthenticated())

	api.AssertExpectations(t)
}

func TestSynchronizer_Resume(t *testing.T) {
	t.Run("valid token seeds authenticated state", func(t *testing.T) {
		api := new(MockIdentityAPI)
		api.On("GetUser", mock.Anything, "at-1").Return(testUser(), nil)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		assert.True(t, sync.IsLoading())
		assert.NoError(t, sync.Resume(context.Background(), "at-1", "rt-1"))
		assert.False(t, sync.IsLoading())
		assert.True(t, sync.IsAuthenticated())
		assert.Equal(t, "u-1", sync.User().ID)
	})

	t.Run("stale token falls back to one refresh", func(t *testing.T) {
		api := new(MockIdentityAPI)
		api.On("GetUser", mock.Anything, "at-stale").Return(nil, errors.NewProviderError(401, "invalid JWT"))
		api.On("RefreshSession", mock.Anything, "rt-1").Return(testSession(), nil)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		assert.NoError(t, sync.Resume(context.Background(), "at-stale", "rt-1"))
		assert.True(t, sync.IsAuthenticated())
		assert.Equal(t, "at-1", sync.AccessToken())
		api.AssertExpectations(t)
	})

	t.Run("no credentials seed unauthenticated state", func(t *testing.T) {
		api := new(MockIdentityAPI)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		assert.NoError(t, sync.Resume(context.Background(), "", ""))
		assert.False(t, sync.IsLoading())
		assert.False(t, sync.IsAuthenticated())
		assert.Nil(t, sync.User())
	})
}

func TestSynchronizer_Subscribe(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("SignInWithPassword", mock.Anything, "ana@example.com", "secret1").Return(testSession(), nil)
	api.On("GetUser", mock.Anything, "at-1").Return(testUser(), nil)
	api.On("SignOut", mock.Anything, "at-1").Return(nil)

	sync := New(api, "http://localhost:8080")
	defer sync.Close()

	var notifications int
	var lastAuth bool
	unsubscribe := sync.Subscribe(func(user *model.User, authenticated bool) {
		notifications++
		lastAuth = authenticated
	})

	assert.NoError(t, sync.Login(context.Background(), "ana@example.com", "secret1"))
	assert.Equal(t, 1, notifications)
	assert.True(t, lastAuth)

	// Redundant application of the same session (the listener firing after
	// an explicit login) must not notify again.
	assert.NoError(t, sync.Resume(context.Background(), "at-1", "rt-1"))
	assert.Equal(t, 1, notifications)

	assert.NoError(t, sync.Logout(context.Background()))
	assert.Equal(t, 2, notifications)
	assert.False(t, lastAuth)

	// After unsubscribing no further updates leak out.
	unsubscribe()
	assert.NoError(t, sync.Login(context.Background(), "ana@example.com", "secret1"))
	assert.Equal(t, 2, notifications)
}

func TestSynchronizer_ResetPassword(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("SendRecoveryEmail", mock.Anything, "ana@example.com", "https://app.example.com/reset-password").Return(nil)

	sync := New(api, "https://app.example.com")
	defer sync.Close()

	message, err := sync.ResetPassword(context.Background(), "ana@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, message)
	api.AssertExpectations(t)
}

func TestSynchronizer_ChangePassword(t *testing.T) {
	t.Run("re-authenticates before updating", func(t *testing.T) {
		api := new(MockIdentityAPI)
		api.On("SignInWithPassword", mock.Anything, "ana@example.com", "secret1").Return(testSession(), nil)
		api.On("SignInWithPassword", mock.Anything, "ana@example.com", "oldpass1").Return(testSession(), nil)
		api.On("UpdatePassword", mock.Anything, "at-1", "newpass1").Return(nil)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		assert.NoError(t, sync.Login(context.Background(), "ana@example.com", "secret1"))
		assert.NoError(t, sync.ChangePassword(context.Background(), "oldpass1", "newpass1"))
		api.AssertExpectations(t)
	})

	t.Run("requires an active session", func(t *testing.T) {
		api := new(MockIdentityAPI)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		err := sync.ChangePassword(context.Background(), "oldpass1", "newpass1")
		assert.ErrorIs(t, err, errors.ErrNoSession)
	})

	t.Run("new password must differ", func(t *testing.T) {
		api := new(MockIdentityAPI)

		sync := New(api, "http://localhost:8080")
		defer sync.Close()

		err := sync.ChangePassword(context.Background(), "samepass", "samepass")
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestSynchronizer_CompleteReset(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("UpdatePassword", mock.Anything, "recovery-token", "newpass1").Return(nil)

	sync := New(api, "http://localhost:8080")
	defer sync.Close()

	assert.NoError(t, sync.CompleteReset(context.Background(), "recovery-token", "newpass1"))

	err := sync.CompleteReset(context.Background(), "", "newpass1")
	assert.ErrorIs(t, err, errors.ErrValidation)
	api.AssertExpectations(t)
}
