package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub/internal/cli/config"
	"github.com/coursehub/coursehub/internal/cli/serverselect"
	"github.com/coursehub/coursehub/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ coursehub select-server                            # Interactive selection
  $ coursehub select-server http://localhost:8000/api  # Select by URL
  $ coursehub select-server staging                    # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(deps, urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(deps *Deps, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		server, err = serverselect.GetServerByURLOrAlias(cfg, urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.Alias); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(deps.Out, "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
