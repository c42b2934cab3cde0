package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub/internal/guard"
	"github.com/coursehub/coursehub/internal/session"
)

type authFlags struct {
	username string
	password string
	email    string
	role     string
}

// NewLoginCmd creates the login command
func NewLoginCmd(deps *Deps) *cobra.Command {
	var f authFlags

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Log in as a student or teacher",
		Annotations: map[string]string{routeAnnotation: guard.LoginRoute},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if a.redirected {
				return nil
			}

			form, err := fillAuthForm(deps, &f, false, a.lastRole())
			if err != nil {
				return err
			}

			if err := a.manager.Login(cmd.Context(), form); err != nil {
				return reported(err)
			}

			user, _ := a.manager.Current()
			a.rememberRole(user.Role)
			fmt.Fprintf(deps.Out, "  User: %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&f.password, "password", "", "Password (or set COURSEHUB_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&f.role, "role", "", "student or teacher (will prompt if not provided)")

	return cmd
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(deps *Deps) *cobra.Command {
	var f authFlags

	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create a student or teacher account",
		Annotations: map[string]string{routeAnnotation: guard.RegisterRoute},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if a.redirected {
				return nil
			}

			form, err := fillAuthForm(deps, &f, true, a.lastRole())
			if err != nil {
				return err
			}

			if err := a.manager.Register(cmd.Context(), form); err != nil {
				return reported(err)
			}
			if user, ok := a.manager.Current(); ok {
				a.rememberRole(user.Role)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.password, "password", "", "Password (or set COURSEHUB_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&f.role, "role", "", "student or teacher (will prompt if not provided)")

	return cmd
}

// fillAuthForm builds the form from flags, prompting for anything missing.
// An unknown --role is left as RoleNone so the manager reports it.
func fillAuthForm(deps *Deps, f *authFlags, register bool, lastRole session.Role) (*session.AuthForm, error) {
	form := &session.AuthForm{
		Username: f.username,
		Password: f.password,
		Email:    f.email,
		Role:     session.ParseRole(f.role),
	}

	if f.role == "" {
		roles := rolesFirst(lastRole)
		labels := make([]string, len(roles))
		for i, r := range roles {
			labels[i] = r.String()
		}
		idx, err := deps.Prompter.Select("I am a", labels)
		if err != nil {
			return nil, err
		}
		form.Role = roles[idx]
	}

	var err error
	if form.Username == "" {
		if form.Username, err = deps.Prompter.Input("Username"); err != nil {
			return nil, err
		}
	}
	if register && form.Email == "" {
		if form.Email, err = deps.Prompter.Input("Email"); err != nil {
			return nil, err
		}
	}
	if form.Password == "" {
		form.Password = os.Getenv("COURSEHUB_PASSWORD")
	}
	if form.Password == "" {
		if form.Password, err = deps.Prompter.Password("Password"); err != nil {
			return nil, err
		}
	}

	return form, nil
}

// rolesFirst lists the roles with last moved to the front
func rolesFirst(last session.Role) []session.Role {
	roles := session.Roles()
	for i, r := range roles {
		if r == last && i > 0 {
			copy(roles[1:i+1], roles[:i])
			roles[0] = last
			break
		}
	}
	return roles
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Log out and forget the stored token",
		Annotations: map[string]string{"app": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appFrom(cmd).manager.Logout(cmd.Context())
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the logged in user",
		Annotations: map[string]string{routeAnnotation: routeWhoami},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			user, _ := a.manager.Current()

			fmt.Fprintf(deps.Out, "Logged in to %s (%s)\n", a.server.Alias, a.server.URL)
			fmt.Fprintf(deps.Out, "  User:  %s\n", user.Username)
			fmt.Fprintf(deps.Out, "  Email: %s\n", user.Email)
			fmt.Fprintf(deps.Out, "  Role:  %s\n", user.Role)
			return nil
		},
	}
}
