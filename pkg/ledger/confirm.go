package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/avast/retry-go"
	"github.com/gagliardetto/solana-go"
)

// errNotReady marks a poll that should be retried.
var errNotReady = errors.New("not ready")

// Poll calls check until it returns nil, a non retryable error, or the policy runs out. Errors wrapping
// ErrAccountNotFound or returned by NotReady are retried. Running out of time or attempts is reported as
// ErrConfirmationTimeout together with the last error seen. A cancelled ctx is returned as is.
func Poll(ctx context.Context, policy ConfirmPolicy, check func(ctx context.Context) error) error {
	pollCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	var last error
	err := retry.Do(
		func() error {
			last = check(pollCtx)
			if last == nil {
				return nil
			}
			if errors.Is(last, errNotReady) || errors.Is(last, ErrAccountNotFound) {
				return last
			}
			return retry.Unrecoverable(last)
		},
		retry.Context(pollCtx),
		retry.Attempts(policy.attempts()),
		retry.Delay(policy.Interval),
		retry.MaxDelay(policy.MaxInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case pollCtx.Err() != nil, errors.Is(err, errNotReady), errors.Is(err, ErrAccountNotFound):
		if last == nil || errors.Is(last, context.DeadlineExceeded) {
			return ErrConfirmationTimeout
		}
		return fmt.Errorf("%w: %v", ErrConfirmationTimeout, last)
	default:
		return last
	}
}

// NotReady wraps a reason for Poll to try again.
func NotReady(reason string) error {
	return fmt.Errorf("%w: %v", errNotReady, reason)
}

// AwaitAccount polls the gateway until the account at addr exists and ready accepts it. ready may return
// NotReady to keep polling, any other error stops the poll.
func AwaitAccount(ctx context.Context, gateway Gateway, addr solana.PublicKey, policy ConfirmPolicy, ready func(Account) error) (Account, error) {
	var account Account
	err := Poll(ctx, policy, func(ctx context.Context) error {
		acc, err := gateway.Account(ctx, addr)
		if err != nil {
			return err
		}
		if ready != nil {
			if err := ready(acc); err != nil {
				return err
			}
		}
		account = acc
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return account, nil
}
