package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Account is the raw state of a ledger account.
type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Gateway is the narrow view of the ledger the escrow flows need.
type Gateway interface {
	// Account returns the account at addr, or ErrAccountNotFound.
	Account(ctx context.Context, addr solana.PublicKey) (Account, error)

	// MinimumBalance returns the lamports an account of the given data size needs to be rent exempt.
	MinimumBalance(ctx context.Context, size uint64) (uint64, error)

	// SubmitAtomic executes the instructions as one transaction, in order, and waits until it is confirmed.
	// Either every instruction takes effect or none does. The first signer pays the fee. A transaction the
	// ledger refuses fails with a *RejectionError.
	SubmitAtomic(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error)
}
