package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/session"
)

// fakeSession is a scripted SessionState
type fakeSession struct {
	token        bool
	user         bool
	restoreOK    bool
	restoreCalls int
}

func (f *fakeSession) HasToken() bool { return f.token }

func (f *fakeSession) Current() (session.User, bool) {
	if !f.user {
		return session.User{}, false
	}
	return session.User{ID: 1, Username: "ann"}, true
}

func (f *fakeSession) Restore(ctx context.Context) bool {
	f.restoreCalls++
	if !f.token {
		return false
	}
	if f.restoreOK {
		f.user = true
	} else {
		f.token = false
	}
	return f.restoreOK
}

func TestEvaluate_DecisionTable(t *testing.T) {
	tests := []struct {
		name         string
		requiresAuth bool
		token        bool
		user         bool
		restoreOK    bool
		want         Decision
		wantRestore  int
	}{
		{"private, no token", true, false, false, false, RedirectLogin, 0},
		{"private, no token, stale user", true, false, true, false, RedirectLogin, 0},
		{"private, token only, restore fails", true, true, false, false, RedirectLogin, 1},
		{"private, token only, restore succeeds", true, true, false, true, Proceed, 1},
		{"private, authenticated", true, true, true, false, Proceed, 0},
		{"public, authenticated", false, true, true, false, RedirectHome, 0},
		{"public, token only", false, true, false, false, Proceed, 0},
		{"public, anonymous", false, false, false, false, Proceed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{token: tt.token, user: tt.user, restoreOK: tt.restoreOK}

			got := Evaluate(context.Background(), tt.requiresAuth, s)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRestore, s.restoreCalls)
		})
	}
}

func TestEvaluate_NeverProceedsWithoutToken(t *testing.T) {
	for _, user := range []bool{false, true} {
		for _, restoreOK := range []bool{false, true} {
			s := &fakeSession{token: false, user: user, restoreOK: restoreOK}
			assert.Equal(t, RedirectLogin, Evaluate(context.Background(), true, s))
		}
	}
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, Anonymous, StateOf(&fakeSession{}))
	assert.Equal(t, TokenOnly, StateOf(&fakeSession{token: true}))
	assert.Equal(t, Authenticated, StateOf(&fakeSession{token: true, user: true}))
	assert.Equal(t, "token-only", TokenOnly.String())
}

func TestRouter_Navigate(t *testing.T) {
	routes := append(DefaultRoutes(), Route{Name: "courses", RequiresAuth: true})

	t.Run("anonymous to private lands on login", func(t *testing.T) {
		r, err := NewRouter(&fakeSession{}, routes...)
		require.NoError(t, err)

		route, decision, err := r.Navigate(context.Background(), "courses")
		require.NoError(t, err)
		assert.Equal(t, LoginRoute, route.Name)
		assert.Equal(t, RedirectLogin, decision)
	})

	t.Run("authenticated to login lands on home", func(t *testing.T) {
		r, err := NewRouter(&fakeSession{token: true, user: true}, routes...)
		require.NoError(t, err)

		route, decision, err := r.Navigate(context.Background(), LoginRoute)
		require.NoError(t, err)
		assert.Equal(t, HomeRoute, route.Name)
		assert.Equal(t, RedirectHome, decision)
	})

	t.Run("token only restores then proceeds", func(t *testing.T) {
		s := &fakeSession{token: true, restoreOK: true}
		r, err := NewRouter(s, routes...)
		require.NoError(t, err)

		route, decision, err := r.Navigate(context.Background(), "courses")
		require.NoError(t, err)
		assert.Equal(t, "courses", route.Name)
		assert.Equal(t, Proceed, decision)
		assert.Equal(t, Authenticated, StateOf(s))
	})

	t.Run("unknown route", func(t *testing.T) {
		r, err := NewRouter(&fakeSession{}, routes...)
		require.NoError(t, err)

		_, _, err = r.Navigate(context.Background(), "nowhere")
		assert.Error(t, err)
	})
}

func TestNewRouter_Validation(t *testing.T) {
	_, err := NewRouter(&fakeSession{}, Route{Name: HomeRoute, RequiresAuth: true})
	assert.ErrorContains(t, err, `no "login" route`)

	_, err = NewRouter(&fakeSession{}, append(DefaultRoutes(), Route{Name: LoginRoute})...)
	assert.ErrorContains(t, err, "duplicate route")
}
