package commands

import (
	"net"
	"strconv"

	jsonrpc "github.com/catalogfi/aucty/daemon/rpc"
	"github.com/catalogfi/aucty/daemon/types"
	"github.com/catalogfi/aucty/pkg/config"
	"github.com/catalogfi/aucty/pkg/logger"
	"github.com/catalogfi/aucty/pkg/process"
	"github.com/spf13/cobra"
)

func Serve(env *Env) *cobra.Command {
	var (
		logFile string
		pidPath string
		host    string
		port    int
		program string
	)

	var cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve auction state over JSON-RPC",
		RunE: func(c *cobra.Command, args []string) error {
			client, err := env.Client(program)
			if err != nil {
				return err
			}
			log := env.Logger
			if logFile != "" {
				if log, err = logger.NewFile(logFile, env.Config.App.LogLevel); err != nil {
					return err
				}
				if log, err = logger.WithSentry(log, env.Config.App.Sentry); err != nil {
					return err
				}
				defer log.Sync()
			}
			if host == "" {
				host = env.Config.Daemon.Host
			}
			if port == 0 {
				port = env.Config.Daemon.Port
			}

			rpc, err := jsonrpc.NewRpcServer(env.Config.Daemon.Username, env.Config.Daemon.Password, types.CoreConfig{
				Escrow:  client,
				Storage: env.Store,
				Logger:  log,
				Version: env.Version,
			})
			if err != nil {
				return err
			}
			if pidPath != "" {
				pidFile := process.NewPidFile(pidPath)
				if err := pidFile.Write(); err != nil {
					return err
				}
				defer pidFile.Remove()
			}
			addr := net.JoinHostPort(host, strconv.Itoa(port))
			notice.Fprintf(c.ErrOrStderr(), "serving on %v\n", addr)
			return rpc.Run(c.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", config.DefaultLogPath(), "Write logs to this file, empty for stderr")
	cmd.Flags().StringVar(&pidPath, "pid-file", config.DefaultPidPath(), "Record the daemon pid in this file, empty to skip")
	cmd.Flags().StringVar(&host, "host", "", "Address to listen on (default: $AUCTY_DAEMON_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default: $AUCTY_DAEMON_PORT)")
	cmd.Flags().StringVar(&program, "program", "", "Auction program id (default: $AUCTY_PROGRAM_ID)")
	return cmd
}
