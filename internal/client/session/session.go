// Package session maintains the client's authentication state: a durable
// token store, a state machine deriving the logged-in user from that
// token, and the login, logout, and register operations that move it.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/akovalenko/sessionauth/internal/client/api"
	"github.com/akovalenko/sessionauth/internal/models"
)

// State is the client's belief about whether a user is authenticated.
// StateInitializing is distinct from StateUnauthenticated so consumers
// can tell "still restoring" apart from "logged out".
type State int

const (
	// StateInitializing means Restore has not completed yet.
	StateInitializing State = iota
	// StateUnauthenticated means no user is logged in.
	StateUnauthenticated
	// StateAuthenticated means a user is logged in and CurrentUser is
	// the server's canonical record for the stored token.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ResultKind classifies the outcome of a session operation.
type ResultKind int

const (
	// ResultOK means the operation succeeded.
	ResultOK ResultKind = iota
	// ResultRejected means the server answered with a non-success
	// status; Message carries the server's error message verbatim.
	ResultRejected
	// ResultTransport means the server could not be reached or the
	// exchange failed below the protocol level.
	ResultTransport
)

// Result is the outcome of a session operation. Expected failures are
// values, never panics: callers can distinguish "rejected by server"
// from "server unreachable" without unwrapping errors.
type Result struct {
	Kind    ResultKind
	Message string
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Kind == ResultOK }

// resultFrom converts an API error into a failure Result.
func resultFrom(err error) Result {
	var rej *api.RejectedError
	if errors.As(err, &rej) {
		return Result{Kind: ResultRejected, Message: rej.Message}
	}
	return Result{Kind: ResultTransport, Message: err.Error()}
}

// API is the server contract the session depends on.
type API interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, username, password string) (string, error)
	// Register creates a new account. No session is established.
	Register(ctx context.Context, reg models.Registration) error
	// Me returns the user the token belongs to.
	Me(ctx context.Context, token string) (*models.User, error)
}

// Navigator receives the navigation outcomes of session operations.
// It abstracts the routing mechanism: the session only announces where
// the user should land next.
type Navigator interface {
	// ToProfile is triggered after a successful login.
	ToProfile()
	// ToLanding is triggered after logout.
	ToLanding()
	// ToSuccess is triggered after a successful registration.
	ToSuccess()
}

// Session is the single authoritative session state handle. It is
// injected into whichever component needs it rather than looked up
// ambiently, which keeps consumers testable with fake stores.
//
// All state transitions (Restore, Login, Logout, Register) are
// serialized through one mutex: at most one session transition is in
// flight at a time, and overlapping attempts queue rather than race.
type Session struct {
	api   API
	store TokenStore
	nav   Navigator
	log   *zap.Logger

	mu    sync.Mutex
	state State
	user  *models.User
}

// New constructs a Session in StateInitializing. Call Restore to derive
// the real state from the token store. log may be nil.
func New(apiClient API, store TokenStore, nav Navigator, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		api:   apiClient,
		store: store,
		nav:   nav,
		log:   log,
		state: StateInitializing,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns the authenticated user, or nil when the state is
// not StateAuthenticated.
func (s *Session) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Restore derives the session state from the token store, exactly once
// per session lifetime in the usual flow. With no stored token it settles
// on StateUnauthenticated without touching the network. With a stored
// token it validates it against the server; any failure — transport
// error, non-success status, or malformed response — discards the token
// and settles on StateUnauthenticated. Fail-safe: a token that cannot be
// verified is treated as invalid. The resulting state is returned;
// restoration failures are never surfaced as errors.
func (s *Session) Restore(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.store.Load()
	if !ok {
		s.state = StateUnauthenticated
		s.user = nil
		return s.state
	}

	user, err := s.api.Me(ctx, tok)
	if err != nil {
		s.log.Info("discarding token that failed validation", zap.Error(err))
		_ = s.store.Clear()
		s.state = StateUnauthenticated
		s.user = nil
		return s.state
	}

	s.state = StateAuthenticated
	s.user = user
	return s.state
}

// Login exchanges the credentials for a token and establishes the
// session. On success the token is durably stored, then the canonical
// user record is fetched with it, then profile navigation is triggered —
// strictly in that order, so a consumer reading CurrentUser right after
// navigation sees a non-nil value. On a server rejection the session
// state is unchanged and the Result carries the server's message.
// If the user fetch fails after the token was issued, the token is
// discarded and the session settles on StateUnauthenticated.
func (s *Session) Login(ctx context.Context, username, password string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.api.Login(ctx, username, password)
	if err != nil {
		return resultFrom(err)
	}

	if err := s.store.Save(tok); err != nil {
		return Result{Kind: ResultTransport, Message: "persist token: " + err.Error()}
	}

	user, err := s.api.Me(ctx, tok)
	if err != nil {
		_ = s.store.Clear()
		s.state = StateUnauthenticated
		s.user = nil
		return resultFrom(err)
	}

	s.state = StateAuthenticated
	s.user = user
	s.nav.ToProfile()
	return Result{Kind: ResultOK}
}

// Logout clears the stored token, downgrades to StateUnauthenticated,
// and triggers landing navigation. Local-only: no network call is made,
// so logout succeeds even when the server is unreachable. Idempotent.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return err
	}
	s.state = StateUnauthenticated
	s.user = nil
	s.nav.ToLanding()
	return nil
}

// Register submits the registration payload. Registration does not imply
// login: on success no session is established and success navigation is
// triggered. On rejection the Result carries the server's message and
// nothing else changes.
func (s *Session) Register(ctx context.Context, reg models.Registration) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.api.Register(ctx, reg); err != nil {
		return resultFrom(err)
	}
	s.nav.ToSuccess()
	return Result{Kind: ResultOK}
}
