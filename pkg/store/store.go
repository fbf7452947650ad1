package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/catalogfi/aucty/pkg/ledger"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("auction not found in journal")

type Status uint

// dont change sequence of status fields, they are persisted
const (
	Unknown Status = iota
	Initialized
	FailedToTake
	Settled
	Unconfirmed
)

var statusNames = []string{"unknown", "initialized", "failedToTake", "settled", "unconfirmed"}

func (status Status) String() string {
	if int(status) < len(statusNames) {
		return statusNames[status]
	}
	return fmt.Sprintf("status(%d)", uint(status))
}

// ParseStatus is the inverse of Status.String. The empty string is Unknown.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return Unknown, nil
	}
	for i, name := range statusNames {
		if strings.EqualFold(name, s) {
			return Status(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown status %q", s)
}

type Role uint

const (
	RoleUnknown Role = iota
	RoleInitializer
	RoleTaker
)

// Auction is a journal entry for an auction this user opened or took.
type Auction struct {
	gorm.Model

	Address      string `gorm:"uniqueIndex"`
	Role         Role
	Initializer  string
	Escrow       string
	Receiving    string
	EscrowAmount uint64
	BidAmount    uint64
	Status       Status
	Error        string

	InitSignature string
	TakeSignature string
}

type Store interface {
	// PutAuction records an auction the user initialized. The status is Initialized unless the caller
	// marked it Unconfirmed.
	PutAuction(auction Auction) error

	// PutTake records the outcome of a take. A nil err marks the auction settled, a confirmation
	// timeout marks it unconfirmed and keeps the signature for a later lookup.
	PutTake(address, signature string, err error) error

	// AuctionByAddress returns ErrNotFound for auctions not in the journal.
	AuctionByAddress(address string) (Auction, error)

	// Auctions lists journaled auctions with the given status, or all of them for Unknown.
	Auctions(status Status) ([]Auction, error)
}

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&Auction{}); err != nil {
		return nil, err
	}

	// Set max connections
	sqlDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDb.SetMaxIdleConns(5)
	sqlDb.SetMaxOpenConns(5)
	sqlDb.SetConnMaxIdleTime(10 * time.Minute)
	return &store{db: db}, nil
}

func (store *store) PutAuction(auction Auction) error {
	auction.Role = RoleInitializer
	auction.Status = initStatus(auction.Status)
	return store.db.Create(&auction).Error
}

func (store *store) PutTake(address, signature string, err error) error {
	var auction Auction
	if err := store.db.Where(Auction{Address: address}).Attrs(Auction{Role: RoleTaker}).FirstOrCreate(&auction).Error; err != nil {
		return err
	}
	status, reason := takeOutcome(err)
	return store.db.Model(&auction).Updates(map[string]interface{}{
		"status":         status,
		"error":          reason,
		"take_signature": signature,
	}).Error
}

func (store *store) AuctionByAddress(address string) (Auction, error) {
	var auction Auction
	if err := store.db.Where("address = ?", address).First(&auction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Auction{}, fmt.Errorf("%w: %v", ErrNotFound, address)
		}
		return Auction{}, err
	}
	return auction, nil
}

func (store *store) Auctions(status Status) ([]Auction, error) {
	var auctions []Auction
	tx := store.db.Order("id")
	if status != Unknown {
		tx = tx.Where("status = ?", status)
	}
	if err := tx.Find(&auctions).Error; err != nil {
		return nil, err
	}
	return auctions, nil
}

func initStatus(status Status) Status {
	if status == Unconfirmed {
		return Unconfirmed
	}
	return Initialized
}

func takeOutcome(err error) (Status, string) {
	switch {
	case err == nil:
		return Settled, ""
	case errors.Is(err, ledger.ErrConfirmationTimeout):
		return Unconfirmed, err.Error()
	default:
		return FailedToTake, err.Error()
	}
}
