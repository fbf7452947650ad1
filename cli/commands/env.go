package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/catalogfi/aucty/pkg/config"
	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/catalogfi/aucty/pkg/store"
	"github.com/catalogfi/aucty/pkg/util"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Env is what the commands share: configuration, the ledger and the local journal.
type Env struct {
	Config  config.Config
	Logger  *zap.Logger
	Gateway ledger.Gateway
	Store   store.Store
	Version string
}

// Client returns an escrow client for program, or for the configured program when program is empty.
func (env *Env) Client(program string) (escrow.Client, error) {
	var programID solana.PublicKey
	if program != "" {
		var err error
		if programID, err = util.ParsePublicKey(program); err != nil {
			return nil, err
		}
	}
	opts := env.Config.EscrowOptions(programID)
	if opts.ProgramID.IsZero() {
		return nil, fmt.Errorf("no program id, set --program or AUCTY_PROGRAM_ID")
	}
	return escrow.NewClient(opts, env.Gateway, env.Logger), nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var (
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	notice  = color.New(color.FgYellow)
)
