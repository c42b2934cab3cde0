package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/coursehub/coursehub/internal/cli/client"
	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/notify"
)

// ErrRoleRequired is returned when login or register is attempted without a role
var ErrRoleRequired = errors.New("role is required")

// API is the subset of the backend the session manager talks to
type API interface {
	Login(ctx context.Context, path string, creds client.LoginRequest) (*client.LoginResponse, error)
	Register(ctx context.Context, path string, req client.RegisterRequest) (*client.Ack, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*client.User, error)
}

// Options configures a Manager
type Options struct {
	RegisterMode config.RegisterMode
	Logger       zerolog.Logger
}

// Manager implements login, register, logout and restore on top of a Session
type Manager struct {
	session  *Session
	api      API
	notifier notify.Notifier
	mode     config.RegisterMode
	logger   zerolog.Logger

	restores singleflight.Group
}

// NewManager creates a session manager
func NewManager(sess *Session, api API, notifier notify.Notifier, opts Options) *Manager {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if opts.RegisterMode == "" {
		opts.RegisterMode = config.RegisterManual
	}
	return &Manager{
		session:  sess,
		api:      api,
		notifier: notifier,
		mode:     opts.RegisterMode,
		logger:   opts.Logger,
	}
}

// Session returns the session this manager operates on
func (m *Manager) Session() *Session {
	return m.session
}

// HasToken reports whether a token is persisted
func (m *Manager) HasToken() bool {
	return m.session.HasToken()
}

// Current returns the authenticated user, if any
func (m *Manager) Current() (User, bool) {
	return m.session.Current()
}

// RegisterMode returns the configured post-registration behaviour
func (m *Manager) RegisterMode() config.RegisterMode {
	return m.mode
}

// Login authenticates with the role-specific endpoint. On success the token is
// persisted, the user stored and the form reset. On failure the backend's
// message is shown and the session is left empty.
func (m *Manager) Login(ctx context.Context, form *AuthForm) error {
	endpoints, ok := form.Role.Endpoints()
	if !ok {
		m.notifier.Warning("Please select whether you are logging in as a student or a teacher")
		return client.NewValidationError("login", ErrRoleRequired.Error())
	}

	if err := validateLogin(form); err != nil {
		m.notifier.Warning(err.Error())
		return client.NewValidationError("login", err.Error())
	}

	resp, err := m.api.Login(ctx, endpoints.Login, client.LoginRequest{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		m.logger.Debug().Err(err).Str("role", form.Role.String()).Msg("Login rejected")
		m.notifier.Error(client.Message(err, "Login failed"))
		return err
	}

	if resp.User == nil {
		m.session.Invalidate()
		m.notifier.Error("Login failed")
		return &client.APIError{Kind: client.KindTransport, Op: "login", Err: errors.New("response has no user")}
	}

	m.session.establish(resp.Token, resp.User)
	m.logger.Info().Int("user_id", resp.User.ID).Str("role", resp.User.Role).Msg("Logged in")
	m.notifier.Success("Logged in")

	form.Reset()
	return nil
}

// Register creates an account with the role-specific endpoint. In manual mode
// the user is asked to log in afterwards; in auto mode the same credentials
// are used to log in immediately.
func (m *Manager) Register(ctx context.Context, form *AuthForm) error {
	endpoints, ok := form.Role.Endpoints()
	if !ok {
		m.notifier.Warning("Please select whether you are registering as a student or a teacher")
		return client.NewValidationError("register", ErrRoleRequired.Error())
	}

	if err := validateRegister(form); err != nil {
		m.notifier.Warning(err.Error())
		return client.NewValidationError("register", err.Error())
	}

	if _, err := m.api.Register(ctx, endpoints.Register, client.RegisterRequest{
		Username: form.Username,
		Password: form.Password,
		Email:    form.Email,
	}); err != nil {
		m.logger.Debug().Err(err).Str("role", form.Role.String()).Msg("Registration rejected")
		m.notifier.Error(client.Message(err, "Registration failed"))
		return err
	}

	if m.mode == config.RegisterAuto {
		m.notifier.Success("Registered")
		creds := *form
		if err := m.Login(ctx, &creds); err != nil {
			return err
		}
		form.Reset()
		return nil
	}

	m.notifier.Success("Registered, please log in")
	form.Reset()
	return nil
}

// Logout tells the backend the session ended and always clears the local
// session. A failed backend call is logged and otherwise ignored.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.logger.Debug().Err(err).Msg("Backend logout failed, clearing local session anyway")
	}
	m.session.Invalidate()
	m.notifier.Success("Logged out")
}

// Restore rebuilds the in-memory user from the persisted token. It returns
// false without any network call when no token is stored, and false after
// clearing the token when the backend rejects it. It never fails otherwise.
// Concurrent calls share a single "who am I" request. The shared request is
// not cancelled with ctx; a caller whose ctx ends stops waiting and gets false
// while the token stays in place for everyone else.
func (m *Manager) Restore(ctx context.Context) bool {
	if !m.session.HasToken() {
		return false
	}

	ch := m.restores.DoChan("restore", func() (any, error) {
		user, err := m.api.CurrentUser(context.WithoutCancel(ctx))
		if err != nil {
			m.logger.Debug().Err(err).Msg("Session restore failed")
			m.session.Invalidate()
			return false, nil
		}
		m.session.establish("", user)
		return true, nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		m.logger.Debug().Err(ctx.Err()).Msg("Session restore abandoned")
		return false
	}
}
