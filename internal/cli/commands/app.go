package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub/internal/cli/auth"
	"github.com/coursehub/coursehub/internal/cli/client"
	cliconfig "github.com/coursehub/coursehub/internal/cli/config"
	"github.com/coursehub/coursehub/internal/cli/serverselect"
	"github.com/coursehub/coursehub/internal/cli/userconfig"
	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/guard"
	"github.com/coursehub/coursehub/internal/logger"
	"github.com/coursehub/coursehub/internal/notify"
	"github.com/coursehub/coursehub/internal/session"
)

// routeAnnotation names the guard route a command navigates to. Commands
// without it bypass the guard.
const routeAnnotation = "route"

// Private routes, in addition to guard.HomeRoute
const (
	routeWhoami    = "whoami"
	routeCourses   = "courses"
	routeMyCourses = "my-courses"
	routeEnroll    = "enroll"
	routeDrop      = "drop"
	routeTeach     = "teach"
)

// ErrLoginRequired is returned when the guard redirects a command to login
var ErrLoginRequired = errors.New("not logged in, run 'coursehub login' first")

// fallbackAlias keys the token store when no coursehub.json is found
const fallbackAlias = "default"

// Deps are the process-level collaborators every command shares
type Deps struct {
	Tokens   auth.TokenStore
	Prompter Prompter
	Out      io.Writer
	Err      io.Writer
	NoColor  bool
	Version  string
}

// Flags are the persistent root flags
type Flags struct {
	Server  string
	Verbose bool
}

// app is the per-invocation wiring: one session over one server
type app struct {
	deps     *Deps
	server   cliconfig.Server
	logger   zerolog.Logger
	notifier notify.Notifier
	session  *session.Session
	manager  *session.Manager
	api      *client.Client
	router   *guard.Router

	// redirected is set when the guard sent a public command home
	redirected bool
}

type appKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

func routeTable() []guard.Route {
	routes := guard.DefaultRoutes()
	for _, name := range []string{routeWhoami, routeCourses, routeMyCourses, routeEnroll, routeDrop, routeTeach} {
		routes = append(routes, guard.Route{Name: name, RequiresAuth: true})
	}
	return routes
}

// resolveServer picks the server from coursehub.json, or the environment API
// base when there is no project file
func resolveServer(alias string, cfg *config.Config, warn io.Writer) (cliconfig.Server, *cliconfig.Config, error) {
	project, err := cliconfig.LoadFromCurrentDir()
	if errors.Is(err, cliconfig.ErrNotFound) {
		if alias != "" {
			return cliconfig.Server{}, nil, fmt.Errorf("--server %q given but %s not found", alias, cliconfig.ConfigFileName)
		}
		return cliconfig.Server{Alias: fallbackAlias, URL: cfg.Client.APIBase}, nil, nil
	}
	if err != nil {
		return cliconfig.Server{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	server, err := serverselect.ResolveServer(project, alias, warn)
	if err != nil {
		return cliconfig.Server{}, nil, err
	}
	return *server, project, nil
}

func registerMode(cfg *config.Config, project *cliconfig.Config) (config.RegisterMode, error) {
	if os.Getenv("COURSEHUB_REGISTER_MODE") != "" || project == nil || project.RegisterMode == "" {
		return cfg.Client.RegisterMode, nil
	}
	return config.ParseRegisterMode(project.RegisterMode)
}

// newApp loads configuration and wires the session stack for one server
func newApp(deps *Deps, flags *Flags) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if flags.Verbose {
		level = "debug"
	}
	log := logger.Init(level, cfg.Logging.Format, deps.Err)

	server, project, err := resolveServer(flags.Server, cfg, deps.Err)
	if err != nil {
		return nil, err
	}

	mode, err := registerMode(cfg, project)
	if err != nil {
		return nil, err
	}

	log = log.With().Str("server", server.Alias).Logger()
	notifier := notify.NewConsole(deps.Out, deps.NoColor)

	sess := session.New(auth.Bind(deps.Tokens, server.Alias, log), log)
	api := client.New(server.URL, sess, client.Options{
		Timeout:   cfg.Client.Timeout,
		UserAgent: "coursehub-cli/" + deps.Version,
		Logger:    log,
	})
	manager := session.NewManager(sess, api, notifier, session.Options{
		RegisterMode: mode,
		Logger:       log,
	})

	router, err := guard.NewRouter(manager, routeTable()...)
	if err != nil {
		return nil, err
	}

	return &app{
		deps:     deps,
		server:   server,
		logger:   log,
		notifier: notifier,
		session:  sess,
		manager:  manager,
		api:      api,
		router:   router,
	}, nil
}

// Bootstrap wires the app into the command context and runs the guard for
// the command's route. It is the root command's PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, deps *Deps, flags *Flags) error {
	route, guarded := cmd.Annotations[routeAnnotation]
	if !guarded && !needsApp(cmd) {
		return nil
	}

	a, err := newApp(deps, flags)
	if err != nil {
		return err
	}
	cmd.SetContext(withApp(cmd.Context(), a))

	if !guarded {
		return nil
	}

	target, decision, err := a.router.Navigate(cmd.Context(), route)
	if err != nil {
		return err
	}
	a.logger.Debug().Str("route", route).Str("decision", decision.String()).Str("target", target.Name).Msg("Guard evaluated")

	switch decision {
	case guard.RedirectLogin:
		return ErrLoginRequired
	case guard.RedirectHome:
		a.redirected = true
		user, _ := a.manager.Current()
		a.notifier.Warning(fmt.Sprintf("Already logged in as %s (%s), run 'coursehub logout' first", user.Username, user.Role))
	}
	return nil
}

// needsApp marks unguarded commands that still talk to a server
func needsApp(cmd *cobra.Command) bool {
	return cmd.Annotations["app"] == "true"
}

// requireRole rejects commands meant for the other role before any request
func (a *app) requireRole(role session.Role) error {
	user, ok := a.manager.Current()
	if !ok {
		return ErrLoginRequired
	}
	if session.ParseRole(user.Role) != role {
		return fmt.Errorf("this command is only available to %ss", role)
	}
	return nil
}

// lastRole is the role of the previous login on this server, RoleNone if unknown
func (a *app) lastRole() session.Role {
	role, err := userconfig.LastRole(a.server.Alias)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Failed to read remembered role")
		return session.RoleNone
	}
	return session.ParseRole(role)
}

// rememberRole stores the role of a successful login. Failure only costs the
// prompt ordering next time, so it is logged and ignored.
func (a *app) rememberRole(role string) {
	if err := userconfig.RememberRole(a.server.Alias, role); err != nil {
		a.logger.Debug().Err(err).Msg("Failed to remember role")
	}
}

// courses returns a course store; with yes set, confirmations are skipped
func (a *app) courses(yes bool) *courses.Store {
	var confirm courses.Confirmer = a.deps.Prompter
	if yes {
		confirm = courses.AlwaysConfirm
	}
	return courses.NewStore(a.api, a.notifier, confirm, a.logger)
}
