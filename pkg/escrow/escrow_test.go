package escrow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/catalogfi/aucty/pkg/mock"
	"github.com/gagliardetto/solana-go"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// party is a funded user holding one account for each side of the swap.
type party struct {
	key  solana.PrivateKey
	x, y solana.PublicKey
}

var _ = Describe("Escrow flows", func() {
	var (
		ctx       context.Context
		programID solana.PublicKey
		l         *mock.Ledger
		client    escrow.Client
		mintX     solana.PublicKey
		mintY     solana.PublicKey
		alice     party
	)

	policy := ledger.ConfirmPolicy{
		Timeout:     time.Second,
		Interval:    5 * time.Millisecond,
		MaxInterval: 20 * time.Millisecond,
	}

	newParty := func(x, y uint64) party {
		key := solana.NewWallet().PrivateKey
		l.Fund(key.PublicKey(), 1e9)
		return party{
			key: key,
			x:   l.NewTokenAccount(mintX, key.PublicKey(), x),
			y:   l.NewTokenAccount(mintY, key.PublicKey(), y),
		}
	}

	initialize := func(amount, bid uint64) escrow.Auction {
		result, err := client.Initialize(ctx, escrow.InitRequest{
			Initializer:  alice.key,
			Source:       alice.x,
			EscrowAmount: amount,
			Receiving:    alice.y,
			BidAmount:    bid,
		})
		Expect(err).Should(BeNil())
		return result
	}

	take := func(taker party, addr solana.PublicKey, expected uint64) (solana.Signature, error) {
		return client.Take(ctx, escrow.TakeRequest{
			Taker:          taker.key,
			Auction:        addr,
			Receiving:      taker.x,
			Paying:         taker.y,
			ExpectedAmount: expected,
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		programID = solana.NewWallet().PublicKey()
		l = mock.NewLedger(programID)
		client = escrow.NewClient(escrow.NewOptions(programID).WithConfirmPolicy(policy), l, zap.NewNop())
		mintX, mintY = l.NewMint(), l.NewMint()
		alice = newParty(5000, 0)
	})

	Context("initializing an auction", func() {
		It("should lock the escrow amount and record the bid", func() {
			result := initialize(1000, 50)
			Expect(result.IsInitialized).Should(BeTrue())
			Expect(result.BidAmount).Should(Equal(uint64(50)))
			Expect(result.Initializer).Should(Equal(alice.key.PublicKey()))
			Expect(result.Receiving).Should(Equal(alice.y))
			Expect(result.State).Should(Equal(auction.Initialized))
			Expect(result.Signature).ShouldNot(BeEmpty())

			Expect(l.TokenBalance(result.Escrow)).Should(Equal(uint64(1000)))
			Expect(l.TokenBalance(alice.x)).Should(Equal(uint64(4000)))

			By("handing the escrow account to the program authority")
			authority, err := auction.DeriveAuthority(programID)
			Expect(err).Should(BeNil())
			account, err := l.Account(ctx, result.Escrow)
			Expect(err).Should(BeNil())
			escrowToken, err := ledger.ParseTokenAccount(account)
			Expect(err).Should(BeNil())
			Expect(escrowToken.Owner).Should(Equal(authority.Address))
			Expect(escrowToken.Mint).Should(Equal(mintX))

			By("reading it back")
			inspected, err := client.Inspect(ctx, result.Address)
			Expect(err).Should(BeNil())
			Expect(inspected.State).Should(Equal(auction.Initialized))
			Expect(inspected.EscrowAmount).Should(Equal(uint64(1000)))
			Expect(inspected.Escrow).Should(Equal(result.Escrow))
		})

		It("should wait for the auction to become visible", func() {
			l.WithVisibilityLag(3)
			result := initialize(1000, 50)
			Expect(result.IsInitialized).Should(BeTrue())
		})

		It("should time out when the auction never shows up", func() {
			l.FuncSubmitAtomic = func(context.Context, []solana.Instruction, []solana.PrivateKey) (solana.Signature, error) {
				return solana.Signature{}, nil
			}
			client = escrow.NewClient(escrow.NewOptions(programID).WithConfirmPolicy(ledger.ConfirmPolicy{
				Timeout:     50 * time.Millisecond,
				Interval:    5 * time.Millisecond,
				MaxInterval: 10 * time.Millisecond,
			}), l, zap.NewNop())
			_, err := client.Initialize(ctx, escrow.InitRequest{
				Initializer:  alice.key,
				Source:       alice.x,
				EscrowAmount: 1000,
				Receiving:    alice.y,
				BidAmount:    50,
			})
			Expect(errors.Is(err, ledger.ErrConfirmationTimeout)).Should(BeTrue())
			Expect(escrow.PhaseOf(err)).Should(Equal(escrow.PhaseConfirm))
		})

		It("should hand back the submitted auction when confirmation is lost", func() {
			l.WithLostConfirmations()
			result, err := client.Initialize(ctx, escrow.InitRequest{
				Initializer:  alice.key,
				Source:       alice.x,
				EscrowAmount: 1000,
				Receiving:    alice.y,
				BidAmount:    50,
			})
			Expect(errors.Is(err, ledger.ErrConfirmationTimeout)).Should(BeTrue())
			Expect(escrow.PhaseOf(err)).Should(Equal(escrow.PhaseInit))
			Expect(result.Address.IsZero()).Should(BeFalse())
			Expect(err.Error()).Should(ContainSubstring(result.Address.String()))
			Expect(result.Signature).ShouldNot(BeEmpty())
			Expect(result.Initializer).Should(Equal(alice.key.PublicKey()))
			Expect(result.Receiving).Should(Equal(alice.y))
			Expect(result.BidAmount).Should(Equal(uint64(50)))
			Expect(result.IsInitialized).Should(BeFalse())

			By("finding the auction with the returned addresses")
			Expect(l.Exists(result.Address)).Should(BeTrue())
			Expect(l.TokenBalance(result.Escrow)).Should(Equal(uint64(1000)))
			inspected, err := client.Inspect(ctx, result.Address)
			Expect(err).Should(BeNil())
			Expect(inspected.State).Should(Equal(auction.Initialized))
		})

		It("should hand back the submitted auction when it is not visible in time", func() {
			l.WithVisibilityLag(1 << 20)
			client = escrow.NewClient(escrow.NewOptions(programID).WithConfirmPolicy(ledger.ConfirmPolicy{
				Timeout:     50 * time.Millisecond,
				Interval:    5 * time.Millisecond,
				MaxInterval: 10 * time.Millisecond,
			}), l, zap.NewNop())
			result, err := client.Initialize(ctx, escrow.InitRequest{
				Initializer:  alice.key,
				Source:       alice.x,
				EscrowAmount: 1000,
				Receiving:    alice.y,
				BidAmount:    50,
			})
			Expect(errors.Is(err, ledger.ErrConfirmationTimeout)).Should(BeTrue())
			Expect(escrow.PhaseOf(err)).Should(Equal(escrow.PhaseConfirm))
			Expect(err.Error()).Should(ContainSubstring(result.Address.String()))
			Expect(result.Escrow.IsZero()).Should(BeFalse())
			Expect(result.Signature).ShouldNot(BeEmpty())
			Expect(l.Exists(result.Address)).Should(BeTrue())
		})

		It("should reject invalid input without touching the ledger", func() {
			var submitted atomic.Int32
			l.FuncSubmitAtomic = func(context.Context, []solana.Instruction, []solana.PrivateKey) (solana.Signature, error) {
				submitted.Add(1)
				return solana.Signature{}, nil
			}
			requests := []escrow.InitRequest{
				{Initializer: alice.key, Source: alice.x, EscrowAmount: 0, Receiving: alice.y, BidAmount: 50},
				{Initializer: alice.key, Source: alice.x, EscrowAmount: 1000, Receiving: alice.y, BidAmount: 0},
				{Initializer: nil, Source: alice.x, EscrowAmount: 1000, Receiving: alice.y, BidAmount: 50},
				{Initializer: alice.key, EscrowAmount: 1000, Receiving: alice.y, BidAmount: 50},
			}
			for _, req := range requests {
				_, err := client.Initialize(ctx, req)
				Expect(errors.Is(err, auction.ErrInvalidInput)).Should(BeTrue())
				Expect(escrow.PhaseOf(err)).Should(Equal(escrow.PhaseValidate))
			}
			Expect(submitted.Load()).Should(BeZero())
		})

		It("should refuse to escrow more than the source holds", func() {
			_, err := client.Initialize(ctx, escrow.InitRequest{
				Initializer:  alice.key,
				Source:       alice.x,
				EscrowAmount: 5001,
				Receiving:    alice.y,
				BidAmount:    50,
			})
			Expect(errors.Is(err, escrow.ErrInsufficientFunds)).Should(BeTrue())
			Expect(l.TokenBalance(alice.x)).Should(Equal(uint64(5000)))
		})

		It("should not submit once the caller has given up", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := client.Initialize(cancelled, escrow.InitRequest{
				Initializer:  alice.key,
				Source:       alice.x,
				EscrowAmount: 1000,
				Receiving:    alice.y,
				BidAmount:    50,
			})
			Expect(errors.Is(err, context.Canceled)).Should(BeTrue())
			Expect(l.TokenBalance(alice.x)).Should(Equal(uint64(5000)))
		})
	})

	Context("taking an auction", func() {
		var (
			bob    party
			opened escrow.Auction
		)

		BeforeEach(func() {
			bob = newParty(0, 500)
			opened = initialize(1000, 50)
		})

		It("should swap the escrow for the bid exactly once", func() {
			_, err := take(bob, opened.Address, 1000)
			Expect(err).Should(BeNil())
			Expect(l.TokenBalance(bob.x)).Should(Equal(uint64(1000)))
			Expect(l.TokenBalance(bob.y)).Should(Equal(uint64(450)))
			Expect(l.TokenBalance(alice.y)).Should(Equal(uint64(50)))
			Expect(l.Exists(opened.Escrow)).Should(BeFalse())
			Expect(l.CloseCount()).Should(Equal(1))

			inspected, err := client.Inspect(ctx, opened.Address)
			Expect(err).Should(BeNil())
			Expect(inspected.State).Should(Equal(auction.Settled))

			By("rejecting a second take")
			_, err = take(bob, opened.Address, 1000)
			Expect(errors.Is(err, ledger.ErrRejected)).Should(BeTrue())
			Expect(escrow.PhaseOf(err)).Should(Equal(escrow.PhaseSettle))
			Expect(l.TokenBalance(bob.y)).Should(Equal(uint64(450)))
			Expect(l.CloseCount()).Should(Equal(1))
		})

		It("should keep the signature of a take that was not confirmed", func() {
			l.WithLostConfirmations()
			sig, err := take(bob, opened.Address, 1000)
			Expect(errors.Is(err, ledger.ErrConfirmationTimeout)).Should(BeTrue())
			Expect(escrow.PhaseOf(err)).Should(Equal(escrow.PhaseSettle))
			Expect(sig.IsZero()).Should(BeFalse())

			inspected, err := client.Inspect(ctx, opened.Address)
			Expect(err).Should(BeNil())
			Expect(inspected.State).Should(Equal(auction.Settled))
		})

		It("should be rejected when the expected amount does not match", func() {
			_, err := take(bob, opened.Address, 999)
			Expect(errors.Is(err, ledger.ErrRejected)).Should(BeTrue())

			var rejection *ledger.RejectionError
			Expect(errors.As(err, &rejection)).Should(BeTrue())
			Expect(rejection.Reason).Should(ContainSubstring("ExpectedAmountMismatch"))

			inspected, err := client.Inspect(ctx, opened.Address)
			Expect(err).Should(BeNil())
			Expect(inspected.State).Should(Equal(auction.Initialized))
			Expect(inspected.EscrowAmount).Should(Equal(uint64(1000)))
			Expect(l.TokenBalance(bob.y)).Should(Equal(uint64(500)))
		})

		It("should let exactly one of two concurrent takers win", func() {
			carol := newParty(0, 500)
			errs := make([]error, 2)
			wg := conc.NewWaitGroup()
			for i, taker := range []party{bob, carol} {
				i, taker := i, taker
				wg.Go(func() {
					_, errs[i] = take(taker, opened.Address, 1000)
				})
			}
			wg.Wait()

			succeeded, rejected := 0, 0
			for _, err := range errs {
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, ledger.ErrRejected):
					rejected++
				}
			}
			Expect(succeeded).Should(Equal(1))
			Expect(rejected).Should(Equal(1))
			Expect(l.CloseCount()).Should(Equal(1))
			bobX, err := l.TokenBalance(bob.x)
			Expect(err).Should(BeNil())
			carolX, err := l.TokenBalance(carol.x)
			Expect(err).Should(BeNil())
			Expect(bobX + carolX).Should(Equal(uint64(1000)))
		})

		It("should report unknown auctions", func() {
			_, err := take(bob, solana.NewWallet().PublicKey(), 1000)
			Expect(errors.Is(err, escrow.ErrAuctionNotFound)).Should(BeTrue())
			Expect(errors.Is(err, ledger.ErrAccountNotFound)).Should(BeTrue())
			Expect(escrow.PhaseOf(err)).Should(Equal(escrow.PhaseResolve))
		})

		It("should refuse records it cannot decode", func() {
			addr := solana.NewWallet().PublicKey()
			l.SetAccount(ledger.Account{Address: addr, Owner: programID, Lamports: mock.RentExempt(50), Data: make([]byte, 50)})
			_, err := take(bob, addr, 1000)
			Expect(errors.Is(err, auction.ErrMalformedAccountData)).Should(BeTrue())

			data := auction.Encode(auction.Account{IsInitialized: true, BidAmount: 50})
			data[0] = 7
			l.SetAccount(ledger.Account{Address: addr, Owner: programID, Lamports: mock.RentExempt(auction.AccountSize), Data: data})
			_, err = client.Inspect(ctx, addr)
			Expect(errors.Is(err, auction.ErrMalformedAccountData)).Should(BeTrue())
		})

		It("should refuse auctions that were never initialized", func() {
			addr := solana.NewWallet().PublicKey()
			l.SetAccount(ledger.Account{Address: addr, Owner: programID, Lamports: mock.RentExempt(auction.AccountSize), Data: make([]byte, auction.AccountSize)})
			_, err := take(bob, addr, 1000)
			Expect(errors.Is(err, auction.ErrNotInitialized)).Should(BeTrue())

			inspected, err := client.Inspect(ctx, addr)
			Expect(err).Should(BeNil())
			Expect(inspected.State).Should(Equal(auction.Uninitialized))
		})

		It("should reject a zero expected amount locally", func() {
			_, err := take(bob, opened.Address, 0)
			Expect(errors.Is(err, auction.ErrInvalidInput)).Should(BeTrue())
			Expect(l.Exists(opened.Escrow)).Should(BeTrue())
		})
	})
})
