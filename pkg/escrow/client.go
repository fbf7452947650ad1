package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"
)

type Client interface {

	// Initialize locks the escrow amount in a fresh holding account owned by the program authority and
	// records the auction. It returns once the auction record is visible as initialized. Errors from
	// PhaseInit and PhaseConfirm come with the submitted, unconfirmed view of the auction.
	Initialize(ctx context.Context, req InitRequest) (Auction, error)

	// Take settles an initialized auction. The ledger decides between concurrent takes, the loser gets
	// ledger.ErrRejected. A PhaseSettle error comes with the signature when the gateway produced one.
	Take(ctx context.Context, req TakeRequest) (solana.Signature, error)

	// Inspect reads the auction at addr and the balance of its escrow holding account.
	Inspect(ctx context.Context, addr solana.PublicKey) (Auction, error)

	// Options returns the options the client was created with.
	Options() Options
}

type client struct {
	options     Options
	gateway     ledger.Gateway
	logger      *zap.Logger
	authorities *auction.AuthorityCache
}

func NewClient(options Options, gateway ledger.Gateway, logger *zap.Logger) Client {
	return &client{
		options:     options,
		gateway:     gateway,
		logger:      logger.With(zap.String("program", options.ProgramID.String())),
		authorities: auction.NewAuthorityCache(),
	}
}

func (client *client) Options() Options {
	return client.options
}

func (client *client) Initialize(ctx context.Context, req InitRequest) (Auction, error) {
	if err := client.validateProgram(); err != nil {
		return Auction{}, failed(PhaseValidate, err)
	}
	if err := req.Validate(); err != nil {
		return Auction{}, failed(PhaseValidate, err)
	}
	initializer := req.Initializer.PublicKey()
	logger := client.logger.With(zap.String("initializer", initializer.String()))

	// Make sure the source holds enough of a real token, and find out which one.
	source, err := client.gateway.Account(ctx, req.Source)
	if err != nil {
		return Auction{}, failed(PhaseResolve, err)
	}
	sourceToken, err := ledger.ParseTokenAccount(source)
	if err != nil {
		return Auction{}, failed(PhaseResolve, fmt.Errorf("%w: %v", auction.ErrInvalidInput, err))
	}
	if !sourceToken.Owner.Equals(initializer) {
		return Auction{}, failed(PhaseResolve, fmt.Errorf("%w: source account is owned by %v", auction.ErrInvalidInput, sourceToken.Owner))
	}
	if sourceToken.Amount < req.EscrowAmount {
		return Auction{}, failed(PhaseResolve, fmt.Errorf("%w: source holds %d, need %d", ErrInsufficientFunds, sourceToken.Amount, req.EscrowAmount))
	}

	escrowRent, err := client.gateway.MinimumBalance(ctx, ledger.TokenAccountSize)
	if err != nil {
		return Auction{}, failed(PhaseAllocate, err)
	}
	auctionRent, err := client.gateway.MinimumBalance(ctx, auction.AccountSize)
	if err != nil {
		return Auction{}, failed(PhaseAllocate, err)
	}
	payer, err := client.gateway.Account(ctx, initializer)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return Auction{}, failed(PhaseAllocate, err)
	}
	if payer.Lamports < escrowRent+auctionRent {
		return Auction{}, failed(PhaseAllocate, fmt.Errorf("%w: rent needs %d lamports, initializer has %d", ErrInsufficientFunds, escrowRent+auctionRent, payer.Lamports))
	}
	escrowKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Auction{}, failed(PhaseAllocate, err)
	}
	auctionKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Auction{}, failed(PhaseAllocate, err)
	}
	escrow, auctionAddr := escrowKey.PublicKey(), auctionKey.PublicKey()
	logger = logger.With(zap.String("auction", auctionAddr.String()), zap.String("escrow", escrow.String()))

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(escrowRent, ledger.TokenAccountSize, solana.TokenProgramID, initializer, escrow).Build(),
		token.NewInitializeAccountInstruction(escrow, sourceToken.Mint, initializer, solana.SysVarRentPubkey).Build(),
		token.NewTransferInstruction(req.EscrowAmount, req.Source, escrow, initializer, nil).Build(),
		system.NewCreateAccountInstruction(auctionRent, auction.AccountSize, client.options.ProgramID, initializer, auctionAddr).Build(),
		auction.NewInitInstruction(client.options.ProgramID, auction.InitKeys{
			Initializer:      initializer,
			TempTokenAccount: escrow,
			ReceivingAccount: req.Receiving,
			AuctionAccount:   auctionAddr,
		}, req.BidAmount),
	}

	// Last point the caller can back out. Once submitted the flow runs to completion.
	if err := ctx.Err(); err != nil {
		return Auction{}, failed(PhaseInit, err)
	}
	ctx = context.WithoutCancel(ctx)

	// Once submitted the bundle may land even when this call fails, so errors from here on carry the
	// addresses the caller needs to look the auction up again.
	pending := Auction{
		Address:      auctionAddr,
		Initializer:  initializer,
		Escrow:       escrow,
		Receiving:    req.Receiving,
		BidAmount:    req.BidAmount,
		EscrowAmount: req.EscrowAmount,
	}
	logger.Info("initializing auction", zap.Uint64("amount", req.EscrowAmount), zap.Uint64("bid", req.BidAmount))
	sig, err := client.gateway.SubmitAtomic(ctx, instructions, []solana.PrivateKey{req.Initializer, escrowKey, auctionKey})
	if !sig.IsZero() {
		pending.Signature = sig.String()
	}
	if err != nil {
		logger.Error("failed to initialize auction", zap.String("signature", pending.Signature), zap.Error(err))
		return pending, failed(PhaseInit, fmt.Errorf("auction %v: %w", auctionAddr, err))
	}

	var record auction.Account
	if _, err := ledger.AwaitAccount(ctx, client.gateway, auctionAddr, client.options.Confirm, func(account ledger.Account) error {
		decoded, err := auction.Decode(account.Data)
		if err != nil {
			return err
		}
		if !decoded.IsInitialized {
			return ledger.NotReady("auction is not initialized")
		}
		record = decoded
		return nil
	}); err != nil {
		logger.Error("failed to confirm auction", zap.String("signature", pending.Signature), zap.Error(err))
		return pending, failed(PhaseConfirm, fmt.Errorf("auction %v: %w", auctionAddr, err))
	}
	logger.Info("auction initialized", zap.String("signature", sig.String()))

	result := view(auctionAddr, record)
	result.EscrowAmount = req.EscrowAmount
	result.State = auction.Initialized
	result.Signature = sig.String()
	return result, nil
}

func (client *client) Take(ctx context.Context, req TakeRequest) (solana.Signature, error) {
	if err := client.validateProgram(); err != nil {
		return solana.Signature{}, failed(PhaseValidate, err)
	}
	if err := req.Validate(); err != nil {
		return solana.Signature{}, failed(PhaseValidate, err)
	}
	taker := req.Taker.PublicKey()
	logger := client.logger.With(zap.String("taker", taker.String()), zap.String("auction", req.Auction.String()))

	record, err := client.record(ctx, req.Auction)
	if err != nil {
		return solana.Signature{}, failed(PhaseResolve, err)
	}
	if _, err := auction.StateOf(record, true).Take(); err != nil {
		return solana.Signature{}, failed(PhaseResolve, err)
	}
	authority, err := client.authorities.Get(client.options.ProgramID)
	if err != nil {
		return solana.Signature{}, failed(PhaseResolve, err)
	}

	instruction := auction.NewTakeInstruction(client.options.ProgramID, auction.TakeKeys{
		Taker:                       taker,
		TakerPayingAccount:          req.Paying,
		TakerReceivingAccount:       req.Receiving,
		TempTokenAccount:            record.TempTokenAccount,
		Initializer:                 record.Initializer,
		InitializerReceivingAccount: record.InitializerReceivingAccount,
		AuctionAccount:              req.Auction,
		Authority:                   authority.Address,
	}, req.ExpectedAmount)

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, failed(PhaseSettle, err)
	}
	ctx = context.WithoutCancel(ctx)

	logger.Info("taking auction", zap.Uint64("expected", req.ExpectedAmount), zap.Uint64("bid", record.BidAmount))
	sig, err := client.gateway.SubmitAtomic(ctx, []solana.Instruction{instruction}, []solana.PrivateKey{req.Taker})
	if err != nil {
		logger.Error("failed to take auction", zap.String("signature", sig.String()), zap.Error(err))
		return sig, failed(PhaseSettle, err)
	}
	logger.Info("auction taken", zap.String("signature", sig.String()))
	return sig, nil
}

func (client *client) Inspect(ctx context.Context, addr solana.PublicKey) (Auction, error) {
	if addr.IsZero() {
		return Auction{}, failed(PhaseValidate, fmt.Errorf("%w: missing auction account", auction.ErrInvalidInput))
	}
	record, err := client.record(ctx, addr)
	if err != nil {
		return Auction{}, failed(PhaseResolve, err)
	}
	result := view(addr, record)
	if !record.IsInitialized {
		result.State = auction.Uninitialized
		return result, nil
	}

	escrow, err := client.gateway.Account(ctx, record.TempTokenAccount)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		result.State = auction.StateOf(record, false)
		return result, nil
	case err != nil:
		return Auction{}, failed(PhaseResolve, err)
	}
	escrowToken, err := ledger.ParseTokenAccount(escrow)
	if err != nil {
		return Auction{}, failed(PhaseResolve, fmt.Errorf("%w: escrow: %v", auction.ErrMalformedAccountData, err))
	}
	result.EscrowAmount = escrowToken.Amount
	result.State = auction.StateOf(record, true)
	return result, nil
}

// record reads and decodes the auction record at addr.
func (client *client) record(ctx context.Context, addr solana.PublicKey) (auction.Account, error) {
	account, err := client.gateway.Account(ctx, addr)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return auction.Account{}, fmt.Errorf("%w: %w", ErrAuctionNotFound, err)
		}
		return auction.Account{}, err
	}
	if !account.Owner.Equals(client.options.ProgramID) {
		return auction.Account{}, fmt.Errorf("%w: %v is owned by %v", auction.ErrMalformedAccountData, addr, account.Owner)
	}
	return auction.Decode(account.Data)
}

func (client *client) validateProgram() error {
	if client.options.ProgramID.IsZero() {
		return fmt.Errorf("%w: missing program id", auction.ErrInvalidInput)
	}
	return nil
}
