// Package session mirrors the provider's authentication state and exposes
// the mutating auth operations. The provider stays the source of truth;
// this package holds an eventually-consistent read-only copy.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"comunidad/internal/errors"
	"comunidad/internal/model"
	"comunidad/internal/provider"
)

const (
	// refreshLeeway is how long before access-token expiry a refresh is
	// attempted.
	refreshLeeway = 30 * time.Second
	// refreshTimeout bounds the background refresh round-trip.
	refreshTimeout = 30 * time.Second
)

// IdentityAPI is the slice of the provider client the synchronizer needs.
type IdentityAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password, nombre string) (*model.User, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*model.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error)
	SendRecoveryEmail(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
}

// ChangeListener receives auth-state changes, including out-of-band ones
// such as background token refreshes.
type ChangeListener func(user *model.User, authenticated bool)

// Synchronizer maintains the observable auth state for one session scope.
// IsLoading reports true until the first session check completes.
type Synchronizer struct {
	api        IdentityAPI
	appBaseURL string

	mu            sync.Mutex
	user          *model.User
	session       *model.Session
	loading       bool
	authenticated bool
	subs          map[int]ChangeListener
	nextSubID     int
	refreshTimer  *time.Timer
	closed        bool
}

var validate = validator.New()

// New creates a Synchronizer. State is not reliable until Resume has run.
func New(api IdentityAPI, appBaseURL string) *Synchronizer {
	return &Synchronizer{
		api:        api,
		appBaseURL: appBaseURL,
		loading:    true,
		subs:       make(map[int]ChangeListener),
	}
}

// Resume seeds state from previously issued credentials (typically read
// from cookies). A failed validation falls back to one refresh attempt;
// anything still failing seeds the unauthenticated state rather than
// propagating, since the loading flag must clear on every path.
func (s *Synchronizer) Resume(ctx context.Context, accessToken, refreshToken string) error {
	defer s.setLoading(false)

	if accessToken == "" && refreshToken == "" {
		s.clearSession()
		return nil
	}

	if accessToken != "" {
		user, err := s.api.GetUser(ctx, accessToken)
		if err == nil {
			s.applySession(&model.Session{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				User:         user,
			})
			return nil
		}
	}

	if refreshToken != "" {
		sess, err := s.api.RefreshSession(ctx, refreshToken)
		if err == nil {
			s.applySession(sess)
			return nil
		}
		s.clearSession()
		return err
	}

	s.clearSession()
	return nil
}

// Login exchanges credentials for a session. On return with a nil error the
// new state is already committed, so callers may navigate immediately.
func (s *Synchronizer) Login(ctx context.Context, email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	sess, err := s.api.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	if sess == nil || sess.AccessToken == "" {
		return errors.NewProviderError(0, "login response carried no session")
	}

	s.applySession(sess)
	return nil
}

// Register signs up a new account with the display name as profile
// metadata. It never grants authenticated state: the account requires email
// confirmation first. The returned message instructs the caller to prompt
// for it.
func (s *Synchronizer) Register(ctx context.Context, email, password, nombre string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	if nombre == "" {
		return "", errors.ValidationError("display name is required")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.api.SignUp(ctx, email, password, nombre)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.user = user
	s.authenticated = false
	s.mu.Unlock()

	return "registration successful; confirm your email before signing in", nil
}

// Logout revokes the session and clears local state. Calling it without an
// active session is a no-op, so repeated calls are safe.
func (s *Synchronizer) Logout(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	s.setLoading(true)
	defer s.setLoading(false)

	if sess != nil {
		if err := s.api.SignOut(ctx, sess.AccessToken); err != nil {
			// Local state clears regardless; the provider session will
			// expire on its own.
			log.Printf("sign-out: %v", err)
		}
	}
	s.clearSession()
	return nil
}

// ResetPassword asks the provider to send a recovery email linking back to
// this application's reset-password screen.
func (s *Synchronizer) ResetPassword(ctx context.Context, email string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := s.api.SendRecoveryEmail(ctx, email, s.appBaseURL+"/reset-password"); err != nil {
		return "", err
	}
	return "recovery instructions sent to your email", nil
}

// ChangePassword verifies the current password by re-authenticating, then
// updates to the new one. Requires an active session.
func (s *Synchronizer) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return errors.ValidationError("current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if newPassword == currentPassword {
		return errors.ValidationError("new password must differ from the current one")
	}

	s.mu.Lock()
	sess := s.session
	user := s.user
	s.mu.Unlock()
	if sess == nil || user == nil {
		return errors.ErrNoSession
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.api.SignInWithPassword(ctx, user.Email, currentPassword); err != nil {
		return err
	}
	return s.api.UpdatePassword(ctx, sess.AccessToken, newPassword)
}

// CompleteReset finishes the emailed recovery flow: the recovery token from
// the reset link authorizes a one-time password update.
func (s *Synchronizer) CompleteReset(ctx context.Context, recoveryToken, newPassword string) error {
	if recoveryToken == "" {
		return errors.ValidationError("recovery token is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	return s.api.UpdatePassword(ctx, recoveryToken, newPassword)
}

// Subscribe registers a listener for auth-state changes and returns its
// disposer. The disposer must be called on teardown so no updates leak into
// a torn-down consumer.
func (s *Synchronizer) Subscribe(fn ChangeListener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close stops the refresh timer and drops all listeners.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	s.subs = make(map[int]ChangeListener)
	s.mu.Unlock()
}

// User returns the mirrored identity, or nil when unauthenticated.
func (s *Synchronizer) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Session returns the mirrored session, or nil.
func (s *Synchronizer) Session() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// IsAuthenticated reports whether a validated session is held.
func (s *Synchronizer) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// IsLoading reports whether a session check or auth operation is in flight.
func (s *Synchronizer) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// setLoading flips the loading flag under the lock.
func (s *Synchronizer) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// AccessToken returns the current access token, or "" when unauthenticated.
func (s *Synchronizer) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

// applySession commits a session. Assignment is idempotent: re-applying the
// token already held (e.g. the listener firing right after an explicit
// login) changes nothing and notifies nobody.
func (s *Synchronizer) applySession(sess *model.Session) {
	s.mu.Lock()
	same := s.authenticated && s.session != nil && s.session.AccessToken == sess.AccessToken
	s.session = sess
	if sess.User != nil {
		s.user = sess.User
	}
	s.authenticated = true
	user := s.user
	listeners := s.listenersLocked(!same)
	s.mu.Unlock()

	s.scheduleRefresh(sess.AccessToken)
	for _, fn := range listeners {
		fn(user, true)
	}
}

// clearSession drops the mirrored session. Idempotent like applySession.
func (s *Synchronizer) clearSession() {
	s.mu.Lock()
	changed := s.authenticated || s.session != nil || s.user != nil
	s.session = nil
	s.user = nil
	s.authenticated = false
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	listeners := s.listenersLocked(changed)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(nil, false)
	}
}

// listenersLocked snapshots the subscriber list when notify is set. Callers
// must hold mu; the returned listeners are invoked without it.
func (s *Synchronizer) listenersLocked(notify bool) []ChangeListener {
	if !notify {
		return nil
	}
	listeners := make([]ChangeListener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	return listeners
}

// scheduleRefresh arms a timer to rotate the session shortly before the
// access token expires. Tokens whose expiry cannot be read are left to fail
// on the next live validation instead.
func (s *Synchronizer) scheduleRefresh(accessToken string) {
	expiry, err := provider.TokenExpiry(accessToken)
	if err != nil {
		return
	}
	delay := time.Until(expiry) - refreshLeeway
	if delay < time.Second {
		delay = time.Second
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	s.refreshTimer = time.AfterFunc(delay, s.refresh)
}

// refresh is the timer callback: rotate the session, or clear state if the
// provider no longer honors the refresh token.
func (s *Synchronizer) refresh() {
	s.mu.Lock()
	sess := s.session
	closed := s.closed
	s.mu.Unlock()
	if closed || sess == nil || sess.RefreshToken == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	next, err := s.api.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		log.Printf("session refresh: %v", err)
		s.clearSession()
		return
	}
	s.applySession(next)
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return errors.ValidationError("a valid email address is required")
	}
	return nil
}

func validatePassword(password string) error {
	if err := validate.Var(password, "required,min=6"); err != nil {
		return errors.ValidationError("password must be at least 6 characters")
	}
	return nil
}
