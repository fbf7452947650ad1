package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// RPCGateway is a Gateway backed by a solana JSON-RPC node.
type RPCGateway struct {
	logger *zap.Logger
	opts   Options
	client *rpc.Client
}

func NewRPCGateway(opts Options, logger *zap.Logger) *RPCGateway {
	return &RPCGateway{
		logger: logger.With(zap.String("endpoint", opts.Endpoint)),
		opts:   opts,
		client: rpc.New(opts.Endpoint),
	}
}

func (gw *RPCGateway) Options() Options {
	return gw.opts
}

func (gw *RPCGateway) Account(ctx context.Context, addr solana.PublicKey) (Account, error) {
	res, err := gw.client.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: gw.opts.Commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return Account{}, fmt.Errorf("%w: %v", ErrAccountNotFound, addr)
		}
		return Account{}, fmt.Errorf("failed to get account %v: %w", addr, err)
	}
	if res == nil || res.Value == nil {
		return Account{}, fmt.Errorf("%w: %v", ErrAccountNotFound, addr)
	}
	account := Account{
		Address:  addr,
		Owner:    res.Value.Owner,
		Lamports: res.Value.Lamports,
	}
	if res.Value.Data != nil {
		account.Data = res.Value.Data.GetBinary()
	}
	return account, nil
}

func (gw *RPCGateway) MinimumBalance(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := gw.client.GetMinimumBalanceForRentExemption(ctx, size, gw.opts.Commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get minimum balance for %d bytes: %w", size, err)
	}
	return lamports, nil
}

func (gw *RPCGateway) SubmitAtomic(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error) {
	sig, err := gw.submit(ctx, instructions, signers)
	observeSubmission(err)
	return sig, err
}

func (gw *RPCGateway) submit(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error) {
	if len(signers) == 0 {
		return solana.Signature{}, errors.New("at least one signer is required")
	}
	blockhash, err := gw.client.GetLatestBlockhash(ctx, gw.opts.Commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(instructions, blockhash.Value.Blockhash, solana.TransactionPayer(signers[0].PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := gw.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: gw.opts.Commitment,
	})
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) && refused(rpcErr) {
			return solana.Signature{}, Reject(rejectionReason(rpcErr))
		}
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	gw.logger.Debug("submitted transaction", zap.String("signature", sig.String()), zap.Int("instructions", len(instructions)))

	start := time.Now()
	if err := gw.confirm(ctx, sig); err != nil {
		return sig, err
	}
	confirmationTime.Observe(time.Since(start).Seconds())
	gw.logger.Info("confirmed transaction", zap.String("signature", sig.String()), zap.Duration("took", time.Since(start)))
	return sig, nil
}

func (gw *RPCGateway) confirm(ctx context.Context, sig solana.Signature) error {
	return Poll(ctx, gw.opts.Confirm, func(ctx context.Context) error {
		res, err := gw.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			// Transient node errors are retried until the policy runs out.
			return NotReady(err.Error())
		}
		if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
			return NotReady("signature not found")
		}
		status := res.Value[0]
		if status.Err != nil {
			return Reject(fmt.Sprintf("%v", status.Err))
		}
		if !reached(status.ConfirmationStatus, gw.opts.Commitment) {
			return NotReady(fmt.Sprintf("signature is %v", status.ConfirmationStatus))
		}
		return nil
	})
}

func (gw *RPCGateway) Close() error {
	return gw.client.Close()
}

func reached(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	switch commitment {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	default:
		return status != ""
	}
}

// JSON-RPC codes for transactions the node has looked at and refused. Anything else, such as an
// unhealthy or rate limited node, says nothing about the transaction.
const (
	codeSignatureVerificationFailure = -32003
	codePreflightFailure             = -32002
)

func refused(err *jsonrpc.RPCError) bool {
	return err.Code == codePreflightFailure || err.Code == codeSignatureVerificationFailure
}

func rejectionReason(err *jsonrpc.RPCError) string {
	if data, ok := err.Data.(map[string]interface{}); ok {
		if logs, ok := data["logs"].([]interface{}); ok && len(logs) > 0 {
			return fmt.Sprintf("%v (%v)", err.Message, logs[len(logs)-1])
		}
	}
	return err.Message
}

func isRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrConfirmationTimeout)
}
