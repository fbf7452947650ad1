package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/catalogfi/aucty/cli/commands"
	"github.com/catalogfi/aucty/pkg/config"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/catalogfi/aucty/pkg/logger"
	"github.com/catalogfi/aucty/pkg/store"
	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Root assembles the command tree around env.
func Root(env *commands.Env) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "aucty",
		Short: "AUCTY - escrow backed token swap auctions",
		Run: func(c *cobra.Command, args []string) {
			c.HelpFunc()(c, args)
		},
		Version:           env.Version,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.AddCommand(commands.Init(env))
	cmd.AddCommand(commands.Take(env))
	cmd.AddCommand(commands.Show(env))
	cmd.AddCommand(commands.List(env))
	cmd.AddCommand(commands.Serve(env))
	cmd.AddCommand(commands.Status(env))
	cmd.AddCommand(commands.Stop(env))
	return cmd
}

func Run(ctx context.Context, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Sentry)
	if err != nil {
		return err
	}
	defer log.Sync()

	str, err := OpenStore(cfg)
	if err != nil {
		return err
	}

	gateway := ledger.NewRPCGateway(cfg.LedgerOptions(), log)
	defer gateway.Close()

	env := &commands.Env{
		Config:  cfg,
		Logger:  log,
		Gateway: gateway,
		Store:   str,
		Version: version,
	}
	return Root(env).ExecuteContext(ctx)
}

// OpenStore opens the journal, redis when configured and sqlite otherwise.
func OpenStore(cfg config.Config) (store.Store, error) {
	if cfg.Store.Redis != "" {
		return store.NewRedisStore(cfg.Store.Redis)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Store.DB), 0755); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(cfg.Store.DB), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return store.NewStore(db)
}
