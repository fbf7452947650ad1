package escrow

import (
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/gagliardetto/solana-go"
)

type Options struct {
	ProgramID solana.PublicKey
	Confirm   ledger.ConfirmPolicy
}

func NewOptions(programID solana.PublicKey) Options {
	return Options{
		ProgramID: programID,
		Confirm:   ledger.DefaultConfirmPolicy(),
	}
}

func (opts Options) WithProgramID(programID solana.PublicKey) Options {
	opts.ProgramID = programID
	return opts
}

func (opts Options) WithConfirmPolicy(policy ledger.ConfirmPolicy) Options {
	opts.Confirm = policy
	return opts
}
