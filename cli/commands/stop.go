package commands

import (
	"github.com/catalogfi/aucty/pkg/config"
	"github.com/catalogfi/aucty/pkg/process"
	"github.com/spf13/cobra"
)

// Stop signals a daemon started with serve.
func Stop(env *Env) *cobra.Command {
	var pidPath string

	var cmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop a running daemon",
		RunE: func(c *cobra.Command, args []string) error {
			pid, err := process.NewPidFile(pidPath).Stop()
			if err != nil {
				return err
			}
			success.Fprintf(c.ErrOrStderr(), "stopped daemon, pid %d\n", pid)
			return nil
		},
	}

	cmd.Flags().StringVar(&pidPath, "pid-file", config.DefaultPidPath(), "Pid file written by serve")
	return cmd
}
