package escrow

import (
	"fmt"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/gagliardetto/solana-go"
)

// InitRequest opens an auction: EscrowAmount of the token held in Source is locked until a taker pays
// BidAmount into Receiving.
type InitRequest struct {
	Initializer  solana.PrivateKey
	Source       solana.PublicKey
	EscrowAmount uint64
	Receiving    solana.PublicKey
	BidAmount    uint64
}

func (req InitRequest) Validate() error {
	if err := validKey(req.Initializer, "initializer"); err != nil {
		return err
	}
	if req.Source.IsZero() {
		return fmt.Errorf("%w: missing source account", auction.ErrInvalidInput)
	}
	if req.Receiving.IsZero() {
		return fmt.Errorf("%w: missing receiving account", auction.ErrInvalidInput)
	}
	return req.Terms().Validate()
}

func (req InitRequest) Terms() auction.Terms {
	return auction.Terms{
		EscrowAmount: req.EscrowAmount,
		BidAmount:    req.BidAmount,
	}
}

// TakeRequest settles an auction. Paying holds the token the initializer asked for, Receiving gets the
// escrowed token. ExpectedAmount must match the escrowed amount exactly.
type TakeRequest struct {
	Taker          solana.PrivateKey
	Auction        solana.PublicKey
	Receiving      solana.PublicKey
	Paying         solana.PublicKey
	ExpectedAmount uint64
}

func (req TakeRequest) Validate() error {
	if err := validKey(req.Taker, "taker"); err != nil {
		return err
	}
	switch {
	case req.Auction.IsZero():
		return fmt.Errorf("%w: missing auction account", auction.ErrInvalidInput)
	case req.Receiving.IsZero():
		return fmt.Errorf("%w: missing receiving account", auction.ErrInvalidInput)
	case req.Paying.IsZero():
		return fmt.Errorf("%w: missing paying account", auction.ErrInvalidInput)
	case req.ExpectedAmount == 0:
		return fmt.Errorf("%w: expected amount must be positive", auction.ErrInvalidInput)
	}
	return nil
}

func validKey(key solana.PrivateKey, name string) error {
	if len(key) != 64 {
		return fmt.Errorf("%w: %v secret must be 64 bytes, got %d", auction.ErrInvalidInput, name, len(key))
	}
	return nil
}

// Auction is the client's view of an auction.
type Auction struct {
	Address       solana.PublicKey `json:"auctionAddress"`
	IsInitialized bool             `json:"isInitialized"`
	Initializer   solana.PublicKey `json:"initializerAddress"`
	Escrow        solana.PublicKey `json:"escrowAddress"`
	Receiving     solana.PublicKey `json:"receivingAddress"`
	BidAmount     uint64           `json:"bidAmount"`
	EscrowAmount  uint64           `json:"escrowAmount"`
	State         auction.State    `json:"state"`
	Signature     string           `json:"signature,omitempty"`
}

func view(addr solana.PublicKey, record auction.Account) Auction {
	return Auction{
		Address:       addr,
		IsInitialized: record.IsInitialized,
		Initializer:   record.Initializer,
		Escrow:        record.TempTokenAccount,
		Receiving:     record.InitializerReceivingAccount,
		BidAmount:     record.BidAmount,
	}
}
