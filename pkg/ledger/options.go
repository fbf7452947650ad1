package ledger

import (
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// ConfirmPolicy bounds how long a caller polls for new state to become visible. The delay between polls
// starts at Interval and doubles up to MaxInterval.
type ConfirmPolicy struct {
	Timeout     time.Duration
	Interval    time.Duration
	MaxInterval time.Duration
}

func DefaultConfirmPolicy() ConfirmPolicy {
	return ConfirmPolicy{
		Timeout:     30 * time.Second,
		Interval:    250 * time.Millisecond,
		MaxInterval: 2 * time.Second,
	}
}

func (policy ConfirmPolicy) attempts() uint {
	if policy.Interval <= 0 {
		return 1
	}
	return uint(policy.Timeout/policy.Interval) + 1
}

type Options struct {
	Endpoint   string
	Commitment rpc.CommitmentType
	Confirm    ConfirmPolicy
}

func OptionsLocalnet() Options {
	return Options{
		Endpoint:   rpc.LocalNet_RPC,
		Commitment: rpc.CommitmentConfirmed,
		Confirm:    DefaultConfirmPolicy(),
	}
}

func OptionsDevnet() Options {
	return Options{
		Endpoint:   rpc.DevNet_RPC,
		Commitment: rpc.CommitmentConfirmed,
		Confirm:    DefaultConfirmPolicy(),
	}
}

func OptionsMainnet() Options {
	return Options{
		Endpoint:   rpc.MainNetBeta_RPC,
		Commitment: rpc.CommitmentFinalized,
		Confirm: ConfirmPolicy{
			Timeout:     90 * time.Second,
			Interval:    500 * time.Millisecond,
			MaxInterval: 4 * time.Second,
		},
	}
}

func (opts Options) WithEndpoint(endpoint string) Options {
	opts.Endpoint = endpoint
	return opts
}

func (opts Options) WithCommitment(commitment rpc.CommitmentType) Options {
	opts.Commitment = commitment
	return opts
}

func (opts Options) WithConfirmPolicy(policy ConfirmPolicy) Options {
	opts.Confirm = policy
	return opts
}
