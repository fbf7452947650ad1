package escrow

import (
	"errors"
	"fmt"
)

var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Phase is the step of a flow an error happened in.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseResolve  Phase = "resolve"
	PhaseAllocate Phase = "allocate"
	PhaseInit     Phase = "init"
	PhaseSettle   Phase = "settle"
	PhaseConfirm  Phase = "confirm"
)

// PhaseError tags an error with the phase it happened in. Errors from PhaseInit and PhaseSettle on have
// reached the ledger, everything before them has not.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (err *PhaseError) Error() string {
	return fmt.Sprintf("%v: %v", err.Phase, err.Err)
}

func (err *PhaseError) Unwrap() error {
	return err.Err
}

func failed(phase Phase, err error) error {
	return &PhaseError{Phase: phase, Err: err}
}

// PhaseOf returns the phase err happened in, or an empty Phase.
func PhaseOf(err error) Phase {
	var phaseErr *PhaseError
	if errors.As(err, &phaseErr) {
		return phaseErr.Phase
	}
	return ""
}
