package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub/internal/cli/auth"
	"github.com/coursehub/coursehub/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree over deps
func NewRootCmd(deps *commands.Deps) *cobra.Command {
	var flags commands.Flags

	rootCmd := &cobra.Command{
		Use:   "coursehub",
		Short: "coursehub - course enrollment from the terminal",
		Long: `coursehub CLI - Browse, enroll in and teach courses.

Students list courses, enroll and drop. Teachers create courses and see who
is enrolled. The login token is kept in the OS keychain per server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.Bootstrap(cmd, deps, &flags)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.Server, "server", "", "Server alias from coursehub.json")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(deps.Out, "coursehub version %s\n", deps.Version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(deps))
	rootCmd.AddCommand(commands.NewRegisterCmd(deps))
	rootCmd.AddCommand(commands.NewLogoutCmd(deps))
	rootCmd.AddCommand(commands.NewWhoamiCmd(deps))
	rootCmd.AddCommand(commands.NewCoursesCmd(deps))
	rootCmd.AddCommand(commands.NewMyCoursesCmd(deps))
	rootCmd.AddCommand(commands.NewEnrollCmd(deps))
	rootCmd.AddCommand(commands.NewDropCmd(deps))
	rootCmd.AddCommand(commands.NewTeachCmd(deps))
	rootCmd.AddCommand(commands.NewSelectServerCmd(deps))

	rootCmd.SetOut(deps.Out)
	rootCmd.SetErr(deps.Err)

	return rootCmd
}

// Execute runs the root command against the terminal and the OS keychain
func Execute() error {
	deps := &commands.Deps{
		Tokens:   auth.Default,
		Prompter: commands.TerminalPrompter{Out: os.Stdout},
		Out:      os.Stdout,
		Err:      os.Stderr,
		NoColor:  os.Getenv("NO_COLOR") != "",
		Version:  version,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(deps).ExecuteContext(ctx); err != nil {
		if !commands.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}
