package commands

import (
	"fmt"

	"github.com/catalogfi/aucty/rpcclient"
	"github.com/spf13/cobra"
)

// Status asks a running daemon for its version and journal counts.
func Status(env *Env) *cobra.Command {
	var (
		server   string
		protocol string
	)

	var cmd = &cobra.Command{
		Use:   "status",
		Short: "Query a running daemon",
		RunE: func(c *cobra.Command, args []string) error {
			if server == "" {
				server = fmt.Sprintf("localhost:%d", env.Config.Daemon.Port)
			}
			client := rpcclient.NewClient(env.Config.Daemon.Username, env.Config.Daemon.Password, protocol, server)
			status, err := client.Status(c.Context())
			if err != nil {
				return fmt.Errorf("daemon at %s: %w", server, err)
			}
			return printJSON(c.OutOrStdout(), status)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Daemon address (default: localhost:$AUCTY_DAEMON_PORT)")
	cmd.Flags().StringVar(&protocol, "protocol", "http", "Daemon protocol")
	return cmd
}
