package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/cli/auth"
	"github.com/coursehub/coursehub/internal/cli/client"
	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/notify"
)

// fakeAPI records calls and returns canned responses
type fakeAPI struct {
	mu sync.Mutex

	loginResp   *client.LoginResponse
	loginErr    error
	registerErr error
	logoutErr   error
	currentUser *client.User
	currentErr  error
	currentWait chan struct{}

	loginPaths    []string
	registerPaths []string
	logoutCalls   int
	currentCalls  atomic.Int32
}

func (f *fakeAPI) Login(ctx context.Context, path string, creds client.LoginRequest) (*client.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginPaths = append(f.loginPaths, path)
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Register(ctx context.Context, path string, req client.RegisterRequest) (*client.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerPaths = append(f.registerPaths, path)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &client.Ack{Message: "ok"}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*client.User, error) {
	f.currentCalls.Add(1)
	if f.currentWait != nil {
		select {
		case <-f.currentWait:
		case <-ctx.Done():
			return nil, &client.APIError{Kind: client.KindTransport, Op: "current user", Err: ctx.Err()}
		}
	}
	return f.currentUser, f.currentErr
}

type fixture struct {
	api      *fakeAPI
	tokens   *auth.Scoped
	session  *Session
	notifier *notify.Recorder
	manager  *Manager
}

func newFixture(mode config.RegisterMode) *fixture {
	api := &fakeAPI{
		loginResp: &client.LoginResponse{
			Token: "tok-ann",
			User:  &client.User{ID: 1, Username: "ann", Role: "student"},
		},
		currentUser: &client.User{ID: 1, Username: "ann", Role: "student"},
	}
	tokens := auth.Bind(auth.NewMemory(), "test", zerolog.Nop())
	sess := New(tokens, zerolog.Nop())
	rec := &notify.Recorder{}
	return &fixture{
		api:      api,
		tokens:   tokens,
		session:  sess,
		notifier: rec,
		manager:  NewManager(sess, api, rec, Options{RegisterMode: mode, Logger: zerolog.Nop()}),
	}
}

func (f *fixture) assertEmpty(t *testing.T) {
	t.Helper()
	_, hasUser := f.session.Current()
	assert.False(t, hasUser, "user should be absent")
	assert.False(t, f.session.HasToken(), "token should be absent")
}

func TestLogin_StudentSuccessResetsForm(t *testing.T) {
	f := newFixture(config.RegisterManual)
	form := &AuthForm{Username: "ann", Password: "secret", Role: RoleStudent}

	require.NoError(t, f.manager.Login(context.Background(), form))

	user, ok := f.session.Current()
	require.True(t, ok)
	assert.Equal(t, "ann", user.Username)

	tok, ok := f.tokens.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-ann", tok)

	assert.Equal(t, AuthForm{}, *form)
	assert.True(t, form.IsZero())
	assert.Equal(t, []string{"/student/login/"}, f.api.loginPaths)

	last, _ := f.notifier.Last()
	assert.Equal(t, notify.LevelSuccess, last.Level)
}

func TestLogin_TeacherUsesTeacherEndpoint(t *testing.T) {
	f := newFixture(config.RegisterManual)
	form := &AuthForm{Username: "bob", Password: "secret", Role: RoleTeacher}

	require.NoError(t, f.manager.Login(context.Background(), form))
	assert.Equal(t, []string{"/teacher/login/"}, f.api.loginPaths)
}

func TestLogin_MissingRoleIsLocalFailure(t *testing.T) {
	f := newFixture(config.RegisterManual)
	form := &AuthForm{Username: "ann", Password: "secret"}

	err := f.manager.Login(context.Background(), form)
	require.Error(t, err)

	assert.Equal(t, client.KindValidation, client.KindOf(err))
	assert.True(t, errors.Is(err, client.ErrValidation))
	assert.Empty(t, f.api.loginPaths, "no network call without a role")
	assert.Equal(t, "ann", form.Username, "form is kept on failure")

	last, _ := f.notifier.Last()
	assert.Equal(t, notify.LevelWarning, last.Level)
	f.assertEmpty(t)
}

func TestLogin_MissingPasswordIsLocalFailure(t *testing.T) {
	f := newFixture(config.RegisterManual)

	err := f.manager.Login(context.Background(), &AuthForm{Username: "ann", Role: RoleStudent})
	require.Error(t, err)
	assert.Equal(t, client.KindValidation, client.KindOf(err))
	assert.Contains(t, err.Error(), "password is required")
	assert.Empty(t, f.api.loginPaths)
}

func TestLogin_BackendRejection(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "with payload",
			err:     &client.APIError{Kind: client.KindUnauthorized, Status: 401, Op: "login", Message: "wrong username or password"},
			wantMsg: "wrong username or password",
		},
		{
			name:    "without payload",
			err:     &client.APIError{Kind: client.KindRejected, Status: 500, Op: "login"},
			wantMsg: "Login failed",
		},
		{
			name:    "transport",
			err:     &client.APIError{Kind: client.KindTransport, Op: "login", Err: errors.New("connection refused")},
			wantMsg: "Login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(config.RegisterManual)
			f.api.loginErr = tt.err
			f.api.loginResp = nil

			err := f.manager.Login(context.Background(), &AuthForm{Username: "ann", Password: "x", Role: RoleStudent})
			require.Error(t, err)

			last, _ := f.notifier.Last()
			assert.Equal(t, notify.Message{Level: notify.LevelError, Text: tt.wantMsg}, last)
			f.assertEmpty(t)
		})
	}
}

func TestLogin_ResponseWithoutUser(t *testing.T) {
	f := newFixture(config.RegisterManual)
	f.api.loginResp = &client.LoginResponse{Token: "tok"}

	err := f.manager.Login(context.Background(), &AuthForm{Username: "ann", Password: "x", Role: RoleStudent})
	require.Error(t, err)
	f.assertEmpty(t)
}

func TestRegister_Manual(t *testing.T) {
	f := newFixture(config.RegisterManual)
	form := &AuthForm{Username: "ann", Password: "secret", Email: "ann@uni.edu", Role: RoleStudent}

	require.NoError(t, f.manager.Register(context.Background(), form))

	assert.Equal(t, []string{"/student/register/"}, f.api.registerPaths)
	assert.Empty(t, f.api.loginPaths)
	assert.True(t, form.IsZero())
	f.assertEmpty(t)

	last, _ := f.notifier.Last()
	assert.Equal(t, "Registered, please log in", last.Text)
}

func TestRegister_AutoLogin(t *testing.T) {
	f := newFixture(config.RegisterAuto)
	form := &AuthForm{Username: "ann", Password: "secret", Email: "ann@uni.edu", Role: RoleTeacher}

	require.NoError(t, f.manager.Register(context.Background(), form))

	assert.Equal(t, []string{"/teacher/register/"}, f.api.registerPaths)
	assert.Equal(t, []string{"/teacher/login/"}, f.api.loginPaths)
	assert.True(t, form.IsZero())

	_, ok := f.session.Current()
	assert.True(t, ok)
	assert.True(t, f.session.HasToken())
}

func TestRegister_AutoLoginFailureKeepsForm(t *testing.T) {
	f := newFixture(config.RegisterAuto)
	f.api.loginResp = nil
	f.api.loginErr = &client.APIError{Kind: client.KindRejected, Status: 500, Op: "login"}
	form := &AuthForm{Username: "ann", Password: "secret", Email: "ann@uni.edu", Role: RoleStudent}

	require.Error(t, f.manager.Register(context.Background(), form))
	assert.Equal(t, "ann", form.Username)
	f.assertEmpty(t)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		form    AuthForm
		wantErr string
	}{
		{"no role", AuthForm{Username: "a", Password: "b", Email: "a@b.io"}, "role is required"},
		{"no email", AuthForm{Username: "a", Password: "b", Role: RoleStudent}, "email is required"},
		{"bad email", AuthForm{Username: "a", Password: "b", Email: "nope", Role: RoleStudent}, "email must be a valid email address"},
		{"no username", AuthForm{Password: "b", Email: "a@b.io", Role: RoleTeacher}, "username is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(config.RegisterManual)
			form := tt.form

			err := f.manager.Register(context.Background(), &form)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, client.KindValidation, client.KindOf(err))
			assert.Empty(t, f.api.registerPaths)
		})
	}
}

func TestRegister_BackendError(t *testing.T) {
	f := newFixture(config.RegisterManual)
	f.api.registerErr = &client.APIError{Kind: client.KindRejected, Status: 400, Op: "register", Message: "username already exists"}
	form := &AuthForm{Username: "ann", Password: "secret", Email: "ann@uni.edu", Role: RoleStudent}

	require.Error(t, f.manager.Register(context.Background(), form))

	last, _ := f.notifier.Last()
	assert.Equal(t, notify.Message{Level: notify.LevelError, Text: "username already exists"}, last)
	assert.Equal(t, "ann", form.Username)
}

func TestLogout_AlwaysClearsSession(t *testing.T) {
	outcomes := []error{
		nil,
		&client.APIError{Kind: client.KindTransport, Op: "logout", Err: errors.New("connection refused")},
		&client.APIError{Kind: client.KindRejected, Status: 500, Op: "logout"},
		&client.APIError{Kind: client.KindUnauthorized, Status: 401, Op: "logout"},
	}

	for _, outcome := range outcomes {
		f := newFixture(config.RegisterManual)
		f.api.logoutErr = outcome

		require.NoError(t, f.manager.Login(context.Background(), &AuthForm{Username: "ann", Password: "x", Role: RoleStudent}))
		f.manager.Logout(context.Background())

		assert.Equal(t, 1, f.api.logoutCalls)
		f.assertEmpty(t)
	}
}

func TestRestore_NoTokenNoNetwork(t *testing.T) {
	f := newFixture(config.RegisterManual)

	assert.False(t, f.manager.Restore(context.Background()))
	assert.Zero(t, f.api.currentCalls.Load())
}

func TestRestore_ValidToken(t *testing.T) {
	f := newFixture(config.RegisterManual)
	require.NoError(t, f.tokens.Set("persisted"))

	assert.True(t, f.manager.Restore(context.Background()))

	user, ok := f.session.Current()
	require.True(t, ok)
	assert.Equal(t, "ann", user.Username)

	tok, _ := f.tokens.Token()
	assert.Equal(t, "persisted", tok)
}

func TestRestore_InvalidTokenClearsOnce(t *testing.T) {
	f := newFixture(config.RegisterManual)
	f.api.currentUser = nil
	f.api.currentErr = &client.APIError{Kind: client.KindUnauthorized, Status: 401, Op: "current user"}
	require.NoError(t, f.tokens.Set("expired"))

	assert.False(t, f.manager.Restore(context.Background()))
	f.assertEmpty(t)
	assert.Equal(t, int32(1), f.api.currentCalls.Load())

	// a repeat call finds no token and stays off the network
	assert.False(t, f.manager.Restore(context.Background()))
	assert.Equal(t, int32(1), f.api.currentCalls.Load())
	assert.Empty(t, f.notifier.Messages(), "restore never surfaces errors")
}

func TestRestore_ConcurrentCallsShareOneRequest(t *testing.T) {
	f := newFixture(config.RegisterManual)
	f.api.currentWait = make(chan struct{})
	require.NoError(t, f.tokens.Set("persisted"))

	const callers = 8
	results := make(chan bool, callers)
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			started.Done()
			results <- f.manager.Restore(context.Background())
		}()
	}
	started.Wait()

	// give every goroutine time to join the in-flight call before releasing it
	require.Eventually(t, func() bool { return f.api.currentCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.api.currentWait)

	for i := 0; i < callers; i++ {
		assert.True(t, <-results)
	}
	assert.Equal(t, int32(1), f.api.currentCalls.Load())
}

func TestRestore_CancelledCallerKeepsToken(t *testing.T) {
	f := newFixture(config.RegisterManual)
	f.api.currentWait = make(chan struct{})
	require.NoError(t, f.tokens.Set("persisted"))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan bool, 1)
	go func() { first <- f.manager.Restore(ctx) }()
	require.Eventually(t, func() bool { return f.api.currentCalls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan bool, 1)
	go func() { second <- f.manager.Restore(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.False(t, <-first, "cancelled caller stops waiting")
	assert.True(t, f.session.HasToken(), "cancellation must not clear the token")

	close(f.api.currentWait)
	assert.True(t, <-second)
	assert.True(t, f.session.HasToken())

	user, ok := f.session.Current()
	require.True(t, ok)
	assert.Equal(t, "ann", user.Username)
	assert.Empty(t, f.notifier.Messages())
}

// TestUnauthorizedResponseCollapsesSession runs the real client and interceptor
// against a backend that rejects every request after login.
func TestUnauthorizedResponseCollapsesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/student/login/" {
			w.Write([]byte(`{"token": "tok", "user": {"id": 1, "username": "ann", "role": "student"}}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "token expired"}`))
	}))
	defer srv.Close()

	tokens := auth.Bind(auth.NewMemory(), "test", zerolog.Nop())
	sess := New(tokens, zerolog.Nop())
	api := client.New(srv.URL+"/api", sess, client.Options{Logger: zerolog.Nop()})
	m := NewManager(sess, api, nil, Options{Logger: zerolog.Nop()})

	require.NoError(t, m.Login(context.Background(), &AuthForm{Username: "ann", Password: "x", Role: RoleStudent}))
	_, ok := sess.Current()
	require.True(t, ok)

	_, err := api.ListAvailableCourses(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)

	_, ok = sess.Current()
	assert.False(t, ok)
	assert.False(t, sess.HasToken())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleStudent, ParseRole("Student"))
	assert.Equal(t, RoleTeacher, ParseRole(" teacher "))
	assert.Equal(t, RoleNone, ParseRole("admin"))
	assert.False(t, RoleNone.Valid())
	assert.Equal(t, "teacher", RoleTeacher.String())

	for _, r := range Roles() {
		e, ok := r.Endpoints()
		require.True(t, ok)
		assert.Contains(t, e.Login, r.String())
		assert.Contains(t, e.Register, r.String())
	}
}
