package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrRejected            = errors.New("rejected by ledger")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)

// RejectionError is returned when the ledger refuses a transaction. Reason is what the ledger reported,
// kept verbatim.
type RejectionError struct {
	Reason string
}

func Reject(reason string) error {
	return &RejectionError{Reason: reason}
}

func (err *RejectionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRejected, err.Reason)
}

func (err *RejectionError) Unwrap() error {
	return ErrRejected
}
