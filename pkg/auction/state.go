package auction

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type State uint8

const (
	Uninitialized State = iota
	Initialized
	Settled
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, state := range []State{Uninitialized, Initialized, Settled} {
		if state.String() == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown auction state %q", text)
}

// StateOf derives the lifecycle state from the auction record and whether its escrow holding account still
// exists on the ledger. Take closes the escrow account, which is what marks an auction as settled.
func StateOf(acc Account, escrowOpen bool) State {
	switch {
	case !acc.IsInitialized:
		return Uninitialized
	case escrowOpen:
		return Initialized
	default:
		return Settled
	}
}

// Init is the Uninitialized -> Initialized transition.
func (s State) Init() (State, error) {
	switch s {
	case Uninitialized:
		return Initialized, nil
	case Settled:
		return s, ErrSettled
	default:
		return s, ErrAlreadyInitialized
	}
}

// Take is the Initialized -> Settled transition.
func (s State) Take() (State, error) {
	switch s {
	case Initialized:
		return Settled, nil
	case Settled:
		return s, ErrSettled
	default:
		return s, ErrNotInitialized
	}
}

// Terms are the quantities an initializer commits to when opening an auction.
type Terms struct {
	EscrowAmount uint64
	BidAmount    uint64
}

func (t Terms) Validate() error {
	if t.EscrowAmount == 0 {
		return fmt.Errorf("%w: escrow amount must be positive", ErrInvalidInput)
	}
	if t.BidAmount == 0 {
		return fmt.Errorf("%w: bid amount must be positive", ErrInvalidInput)
	}
	return nil
}

// Record returns the auction record the program writes once the Init transition lands.
func (t Terms) Record(initializer, escrow, receiving solana.PublicKey) Account {
	return Account{
		IsInitialized:               true,
		Initializer:                 initializer,
		TempTokenAccount:            escrow,
		InitializerReceivingAccount: receiving,
		BidAmount:                   t.BidAmount,
	}
}
