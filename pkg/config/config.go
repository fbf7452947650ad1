package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var HomeDir string

func init() {
	var err error
	HomeDir, err = os.UserHomeDir()
	if err != nil {
		log.Fatal("failed to get $HOME value")
	}
}

func DefaultDirectory() string {
	return filepath.Join(HomeDir, ".aucty")
}

func DefaultStorePath() string {
	return filepath.Join(HomeDir, ".aucty", "data.db")
}

func DefaultLogPath() string {
	return filepath.Join(HomeDir, ".aucty", "logs", "daemon.log")
}

func DefaultPidPath() string {
	return filepath.Join(HomeDir, ".aucty", "daemon.pid")
}

type Config struct {
	Ledger struct {
		Endpoint        string        `env:"AUCTY_RPC_URL" envDefault:"http://127.0.0.1:8899"`
		Commitment      string        `env:"AUCTY_COMMITMENT" envDefault:"confirmed"`
		ConfirmTimeout  time.Duration `env:"AUCTY_CONFIRM_TIMEOUT" envDefault:"30s"`
		PollInterval    time.Duration `env:"AUCTY_POLL_INTERVAL" envDefault:"250ms"`
		MaxPollInterval time.Duration `env:"AUCTY_MAX_POLL_INTERVAL" envDefault:"2s"`
	}
	ProgramID solana.PublicKey `env:"AUCTY_PROGRAM_ID"`
	Store     struct {
		DB    string `env:"AUCTY_DB"`
		Redis string `env:"AUCTY_REDIS_URL"`
	}
	Daemon struct {
		Host     string `env:"AUCTY_DAEMON_HOST" envDefault:"127.0.0.1"`
		Port     int    `env:"AUCTY_DAEMON_PORT" envDefault:"8090"`
		Username string `env:"AUCTY_DAEMON_USER" envDefault:"admin"`
		Password string `env:"AUCTY_DAEMON_PASSWORD"`
	}
	App struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
		Sentry   string `env:"SENTRY_DSN"`
	}
}

func Load() (Config, error) {
	var c Config
	if err := env.ParseWithFuncs(&c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(solana.PublicKey{}): func(v string) (interface{}, error) {
			return solana.PublicKeyFromBase58(v)
		},
	}); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	switch rpc.CommitmentType(c.Ledger.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return Config{}, fmt.Errorf("unknown commitment %q", c.Ledger.Commitment)
	}
	if c.Store.DB == "" {
		c.Store.DB = DefaultStorePath()
	}
	return c, nil
}

func (c Config) ConfirmPolicy() ledger.ConfirmPolicy {
	return ledger.ConfirmPolicy{
		Timeout:     c.Ledger.ConfirmTimeout,
		Interval:    c.Ledger.PollInterval,
		MaxInterval: c.Ledger.MaxPollInterval,
	}
}

func (c Config) LedgerOptions() ledger.Options {
	return ledger.OptionsLocalnet().
		WithEndpoint(c.Ledger.Endpoint).
		WithCommitment(rpc.CommitmentType(c.Ledger.Commitment)).
		WithConfirmPolicy(c.ConfirmPolicy())
}

// EscrowOptions returns the escrow options for programID, or the configured program when it is zero.
func (c Config) EscrowOptions(programID solana.PublicKey) escrow.Options {
	if programID.IsZero() {
		programID = c.ProgramID
	}
	return escrow.NewOptions(programID).WithConfirmPolicy(c.ConfirmPolicy())
}
