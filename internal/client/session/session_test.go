package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/akovalenko/sessionauth/internal/client/api"
	"github.com/akovalenko/sessionauth/internal/models"
)

// fakeAPI implements API with per-call functions and call counters.
type fakeAPI struct {
	loginFunc    func(ctx context.Context, username, password string) (string, error)
	registerFunc func(ctx context.Context, reg models.Registration) error
	meFunc       func(ctx context.Context, token string) (*models.User, error)

	loginCalls    int
	registerCalls int
	meCalls       int
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (string, error) {
	f.loginCalls++
	return f.loginFunc(ctx, username, password)
}

func (f *fakeAPI) Register(ctx context.Context, reg models.Registration) error {
	f.registerCalls++
	return f.registerFunc(ctx, reg)
}

func (f *fakeAPI) Me(ctx context.Context, token string) (*models.User, error) {
	f.meCalls++
	return f.meFunc(ctx, token)
}

// fakeNavigator counts navigation outcomes.
type fakeNavigator struct {
	profile, landing, success int
}

func (n *fakeNavigator) ToProfile() { n.profile++ }
func (n *fakeNavigator) ToLanding() { n.landing++ }
func (n *fakeNavigator) ToSuccess() { n.success++ }

func newTestSession(t *testing.T, apiClient API) (*Session, *FileStore, *fakeNavigator) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	nav := &fakeNavigator{}
	return New(apiClient, store, nav, nil), store, nav
}

func TestRestore_ValidToken(t *testing.T) {
	apiClient := &fakeAPI{
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			if token != "T1" {
				t.Errorf("Me received token %q; want %q", token, "T1")
			}
			return &models.User{ID: "id-1", Username: "alice"}, nil
		},
	}
	sess, store, _ := newTestSession(t, apiClient)
	if err := store.Save("T1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	state := sess.Restore(context.Background())

	if state != StateAuthenticated {
		t.Fatalf("state = %v; want authenticated", state)
	}
	if u := sess.CurrentUser(); u == nil || u.Username != "alice" {
		t.Errorf("CurrentUser = %+v; want alice", u)
	}
}

func TestRestore_NoToken(t *testing.T) {
	apiClient := &fakeAPI{
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			t.Fatal("no network call may happen with empty storage")
			return nil, nil
		},
	}
	sess, _, _ := newTestSession(t, apiClient)

	state := sess.Restore(context.Background())

	if state != StateUnauthenticated {
		t.Fatalf("state = %v; want unauthenticated", state)
	}
	if apiClient.meCalls != 0 {
		t.Errorf("expected zero network calls, got %d", apiClient.meCalls)
	}
	if sess.CurrentUser() != nil {
		t.Error("CurrentUser must be nil when unauthenticated")
	}
}

func TestRestore_InvalidTokenCleanup(t *testing.T) {
	apiClient := &fakeAPI{
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			return nil, &api.RejectedError{StatusCode: http.StatusUnauthorized}
		},
	}
	sess, store, _ := newTestSession(t, apiClient)
	if err := store.Save("stale"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	state := sess.Restore(context.Background())

	if state != StateUnauthenticated {
		t.Fatalf("state = %v; want unauthenticated", state)
	}
	if _, ok := store.Load(); ok {
		t.Error("rejected token must be removed from storage")
	}
}

func TestRestore_TransportFailure(t *testing.T) {
	// A network failure during restoration is treated identically to an
	// explicit rejection: fail-safe, logged out.
	apiClient := &fakeAPI{
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	sess, store, _ := newTestSession(t, apiClient)
	if err := store.Save("T1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if state := sess.Restore(context.Background()); state != StateUnauthenticated {
		t.Fatalf("state = %v; want unauthenticated", state)
	}
	if _, ok := store.Load(); ok {
		t.Error("unverifiable token must be removed from storage")
	}
}

func TestLogin_Success(t *testing.T) {
	apiClient := &fakeAPI{
		loginFunc: func(ctx context.Context, username, password string) (string, error) {
			if username != "alice" || password != "pw" {
				t.Errorf("Login received (%q, %q); want (alice, pw)", username, password)
			}
			return "T1", nil
		},
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			// The token must already be durably stored before the user
			// fetch happens.
			if token != "T1" {
				t.Errorf("Me received token %q; want %q", token, "T1")
			}
			return &models.User{ID: "id-1", Username: "alice"}, nil
		},
	}
	sess, store, nav := newTestSession(t, apiClient)
	sess.Restore(context.Background())

	res := sess.Login(context.Background(), "alice", "pw")

	if !res.OK() {
		t.Fatalf("Login result = %+v; want OK", res)
	}
	if tok, ok := store.Load(); !ok || tok != "T1" {
		t.Errorf("stored token = %q, %v; want T1", tok, ok)
	}
	if sess.State() != StateAuthenticated {
		t.Errorf("state = %v; want authenticated", sess.State())
	}
	if u := sess.CurrentUser(); u == nil || u.Username != "alice" {
		t.Errorf("CurrentUser = %+v; want alice", u)
	}
	if nav.profile != 1 {
		t.Errorf("profile navigation triggered %d times; want exactly once", nav.profile)
	}
}

func TestLogin_StoreBeforeFetchBeforeNavigate(t *testing.T) {
	// The three steps of a successful login are not reorderable:
	// token persisted, then user fetched, then navigation.
	var order []string
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	apiClient := &fakeAPI{
		loginFunc: func(ctx context.Context, username, password string) (string, error) {
			return "T1", nil
		},
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			if _, ok := store.Load(); ok {
				order = append(order, "fetch-after-store")
			} else {
				order = append(order, "fetch-before-store")
			}
			return &models.User{Username: "alice"}, nil
		},
	}
	nav := &orderNavigator{order: &order}
	sess := New(apiClient, store, nav, nil)
	sess.Restore(context.Background())

	if res := sess.Login(context.Background(), "alice", "pw"); !res.OK() {
		t.Fatalf("Login result = %+v; want OK", res)
	}
	if len(order) != 2 || order[0] != "fetch-after-store" || order[1] != "navigate" {
		t.Errorf("unexpected operation order: %v", order)
	}
}

type orderNavigator struct{ order *[]string }

func (n *orderNavigator) ToProfile() { *n.order = append(*n.order, "navigate") }
func (n *orderNavigator) ToLanding() {}
func (n *orderNavigator) ToSuccess() {}

func TestLogin_Rejected(t *testing.T) {
	apiClient := &fakeAPI{
		loginFunc: func(ctx context.Context, username, password string) (string, error) {
			return "", &api.RejectedError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
		},
	}
	sess, store, nav := newTestSession(t, apiClient)
	sess.Restore(context.Background())

	res := sess.Login(context.Background(), "alice", "wrong")

	if res.Kind != ResultRejected {
		t.Fatalf("result kind = %v; want rejected", res.Kind)
	}
	if res.Message != "Invalid credentials" {
		t.Errorf("message = %q; want server message verbatim", res.Message)
	}
	if _, ok := store.Load(); ok {
		t.Error("storage must be untouched on a rejected login")
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v; want unauthenticated", sess.State())
	}
	if nav.profile != 0 {
		t.Errorf("no navigation may happen on a failed login, got %d", nav.profile)
	}
}

func TestLogin_Transport(t *testing.T) {
	apiClient := &fakeAPI{
		loginFunc: func(ctx context.Context, username, password string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	sess, _, _ := newTestSession(t, apiClient)
	sess.Restore(context.Background())

	res := sess.Login(context.Background(), "alice", "pw")

	// A transport failure is distinguishable from a server rejection.
	if res.Kind != ResultTransport {
		t.Fatalf("result kind = %v; want transport", res.Kind)
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v; want unauthenticated", sess.State())
	}
}

func TestLogin_UserFetchFails(t *testing.T) {
	// A token was issued but the user fetch failed: the token is
	// discarded rather than trusted unverified.
	apiClient := &fakeAPI{
		loginFunc: func(ctx context.Context, username, password string) (string, error) {
			return "T1", nil
		},
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			return nil, errors.New("connection reset")
		},
	}
	sess, store, nav := newTestSession(t, apiClient)
	sess.Restore(context.Background())

	res := sess.Login(context.Background(), "alice", "pw")

	if res.OK() {
		t.Fatal("login must not succeed without a resolved user")
	}
	if _, ok := store.Load(); ok {
		t.Error("token must be discarded when the user fetch fails")
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v; want unauthenticated", sess.State())
	}
	if nav.profile != 0 {
		t.Error("no navigation may happen without a resolved user")
	}
}

func TestLogout(t *testing.T) {
	apiClient := &fakeAPI{
		meFunc: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{Username: "alice"}, nil
		},
	}
	sess, store, nav := newTestSession(t, apiClient)
	if err := store.Save("T1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	sess.Restore(context.Background())
	meCallsBefore := apiClient.meCalls

	if err := sess.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if _, ok := store.Load(); ok {
		t.Error("storage must be cleared on logout")
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v; want unauthenticated", sess.State())
	}
	if nav.landing != 1 {
		t.Errorf("landing navigation triggered %d times; want exactly once", nav.landing)
	}
	if apiClient.meCalls != meCallsBefore {
		t.Error("logout must not make network calls")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	sess, store, _ := newTestSession(t, &fakeAPI{})
	if err := store.Save("T1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if err := sess.Logout(); err != nil {
		t.Fatalf("first Logout returned error: %v", err)
	}
	if err := sess.Logout(); err != nil {
		t.Fatalf("second Logout returned error: %v", err)
	}

	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v; want unauthenticated", sess.State())
	}
	if _, ok := store.Load(); ok {
		t.Error("storage must remain cleared")
	}
}

func TestRegister_Success(t *testing.T) {
	var gotReg models.Registration
	apiClient := &fakeAPI{
		registerFunc: func(ctx context.Context, reg models.Registration) error {
			gotReg = reg
			return nil
		},
	}
	sess, _, nav := newTestSession(t, apiClient)
	sess.Restore(context.Background())

	reg := models.Registration{Username: "bob", FirstName: "Bob", LastName: "Roe", Password: "pw"}
	res := sess.Register(context.Background(), reg)

	if !res.OK() {
		t.Fatalf("Register result = %+v; want OK", res)
	}
	if gotReg != reg {
		t.Errorf("payload not passed through unmodified: %+v", gotReg)
	}
	// Registration does not imply login.
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v; want unauthenticated", sess.State())
	}
	if nav.success != 1 {
		t.Errorf("success navigation triggered %d times; want exactly once", nav.success)
	}
}

func TestRegister_FailurePassthrough(t *testing.T) {
	apiClient := &fakeAPI{
		registerFunc: func(ctx context.Context, reg models.Registration) error {
			return &api.RejectedError{StatusCode: http.StatusConflict, Message: "Username already taken"}
		},
	}
	sess, _, nav := newTestSession(t, apiClient)
	sess.Restore(context.Background())

	res := sess.Register(context.Background(), models.Registration{Username: "bob", Password: "pw"})

	if res.Kind != ResultRejected {
		t.Fatalf("result kind = %v; want rejected", res.Kind)
	}
	if res.Message != "Username already taken" {
		t.Errorf("message = %q; want server message verbatim", res.Message)
	}
	if nav.success != 0 || nav.profile != 0 || nav.landing != 0 {
		t.Error("no navigation may happen on a failed registration")
	}
}

// TestRoundTrip exercises login followed by a fresh session restoration
// (simulating a restart) through the real API client against a stub
// server: the same user comes back without re-submitting credentials.
func TestRoundTrip(t *testing.T) {
	var loginRequests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			loginRequests++
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "T1"})
		case "/user/me":
			if r.Header.Get("Authorization") != "Bearer T1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]*models.User{
				"user": {ID: "id-1", Username: "alice"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	storePath := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(storePath)
	apiClient := api.New(srv.URL)

	sess := New(apiClient, store, &fakeNavigator{}, nil)
	sess.Restore(context.Background())
	if res := sess.Login(context.Background(), "alice", "pw"); !res.OK() {
		t.Fatalf("Login result = %+v; want OK", res)
	}
	first := sess.CurrentUser()

	// Fresh session over the same durable store.
	restarted := New(apiClient, NewFileStore(storePath), &fakeNavigator{}, nil)
	if state := restarted.Restore(context.Background()); state != StateAuthenticated {
		t.Fatalf("restored state = %v; want authenticated", state)
	}
	second := restarted.CurrentUser()

	if second == nil || second.Username != first.Username {
		t.Errorf("restored user = %+v; want %+v", second, first)
	}
	if loginRequests != 1 {
		t.Errorf("credentials submitted %d times; want once", loginRequests)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateInitializing, "initializing"},
		{StateUnauthenticated, "unauthenticated"},
		{StateAuthenticated, "authenticated"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q; want %q", tt.state, got, tt.want)
		}
	}
}
