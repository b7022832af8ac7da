package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/taskmaster-app/taskmaster-go/internal/api"
	"github.com/taskmaster-app/taskmaster-go/internal/models"
	"github.com/taskmaster-app/taskmaster-go/internal/validation"
)

// Store is the single source of truth for who is logged in. It owns the
// in-memory session, mirrors it to durable storage, serves the bearer
// token to the API client, and tears the session down whenever any API
// call comes back 401.
type Store struct {
	mu      sync.Mutex
	client  *api.Client
	storage Storage
	log     *zap.Logger

	token string
	user  *models.User

	// tracks the optional background refresh started by Restore
	refreshWG sync.WaitGroup
}

// Result is what every public session operation returns. Failures are
// values, never panics, so callers can render the message inline.
type Result struct {
	OK      bool
	Message string
}

func failure(err error, fallback string) Result {
	return Result{OK: false, Message: api.ErrorMessage(err, fallback)}
}

// NewStore creates the session store and registers it with the API
// client as both the token source and the 401 teardown hook.
func NewStore(client *api.Client, storage Storage, log *zap.Logger) *Store {
	s := &Store{
		client:  client,
		storage: storage,
		log:     log,
	}
	client.SetTokenSource(s)
	client.SetUnauthorizedHook(s.clear)
	return s
}

// Token implements oauth2.TokenSource so the API client can pull the
// current bearer token on every request.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil, api.ErrNoToken
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

// Restore loads the persisted session on startup. The read is
// synchronous and optimistic: a cached token and user become the live
// session immediately. When the cached record looks stale (neither
// admin nor active) a background refresh re-fetches the user; if the
// token turns out to be dead the session is cleared. Restore itself
// never waits on the network.
func (s *Store) Restore() bool {
	token, user, err := s.storage.Read()
	if err != nil {
		s.log.Warn("failed_to_read_stored_session", zap.Error(err))
		return false
	}
	if token == "" || user == nil {
		return false
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	s.log.Debug("session_restored", zap.String("username", user.Username))

	if !user.IsAdmin && !user.IsActive {
		s.refreshWG.Add(1)
		go func() {
			defer s.refreshWG.Done()
			s.RefreshUser(context.Background())
		}()
	}
	return true
}

// RefreshUser re-fetches the current user record and overwrites both
// the in-memory and durable copies. A failure means the token no longer
// works, so the whole session is cleared.
func (s *Store) RefreshUser(ctx context.Context) Result {
	user, err := s.client.Me(ctx)
	if err != nil {
		s.log.Debug("session_refresh_failed", zap.Error(err))
		s.clear()
		return failure(err, "Session expired")
	}

	s.mu.Lock()
	s.user = user
	token := s.token
	s.mu.Unlock()

	if token == "" {
		// a 401 teardown raced the refresh; stay logged out
		return Result{OK: false, Message: "Session expired"}
	}
	if err := s.storage.Write(token, user); err != nil {
		s.log.Warn("failed_to_persist_session", zap.Error(err))
	}
	return Result{OK: true}
}

// Login exchanges credentials for a token, fetches the user record, and
// persists both together. On any failure nothing is persisted and the
// session stays logged out.
func (s *Store) Login(ctx context.Context, identifier, password string) Result {
	tok, err := s.client.Login(ctx, identifier, password)
	if err != nil {
		return failure(err, "Login failed")
	}

	// Hold the token in memory so the user fetch below is authenticated,
	// but keep storage untouched until the whole exchange succeeds.
	s.mu.Lock()
	s.token = tok.AccessToken
	s.mu.Unlock()

	user, err := s.client.Me(ctx)
	if err != nil {
		s.mu.Lock()
		s.token = ""
		s.user = nil
		s.mu.Unlock()
		return failure(err, "Login failed")
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	if err := s.storage.Write(tok.AccessToken, user); err != nil {
		s.log.Warn("failed_to_persist_session", zap.Error(err))
	}

	s.log.Debug("logged_in", zap.String("username", user.Username))
	return Result{OK: true}
}

// Register submits a new account. Validation failures are caught before
// any network call. Registration never authenticates; the caller directs
// the user to email verification.
func (s *Store) Register(ctx context.Context, form validation.RegistrationForm) Result {
	if err := validation.CheckRegistration(form); err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	req := models.RegisterRequest{
		Username: validation.SanitizeText(form.Username),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	}
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return failure(err, "Registration failed")
	}

	message := resp.Message
	if message == "" {
		message = "Registration successful. Please verify your email."
	}
	return Result{OK: true, Message: message}
}

// VerifyEmail submits a verification token. It does not touch the
// session either way.
func (s *Store) VerifyEmail(ctx context.Context, token string) Result {
	resp, err := s.client.VerifyEmail(ctx, token)
	if err != nil {
		return failure(err, "Email verification failed")
	}
	message := resp.Message
	if message == "" {
		message = "Email verified. You can now log in."
	}
	return Result{OK: true, Message: message}
}

// Logout clears the in-memory session and durable storage. Logging out
// while already logged out is a no-op.
func (s *Store) Logout() {
	s.clear()
	s.log.Debug("logged_out")
}

// clear is the unconditional session teardown, shared by Logout and the
// 401 hook. It must stay idempotent: repeated 401s arrive after the
// session is already gone.
func (s *Store) clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.storage.Clear(); err != nil {
		s.log.Warn("failed_to_clear_stored_session", zap.Error(err))
	}
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (s *Store) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// TokenExpiry reports when the bearer token expires, decoded from its
// claims without signature verification. Verification is the server's
// job; the client only reads the expiry for display.
func (s *Store) TokenExpiry() (time.Time, bool) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return time.Time{}, false
	}

	parsed, err := jwt.Parse([]byte(token), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return time.Time{}, false
	}
	exp := parsed.Expiration()
	if exp.IsZero() {
		return time.Time{}, false
	}
	return exp, true
}
