package types

import (
	"errors"

	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/store"
	"go.uber.org/zap"
)

var ErrInvalidParams = errors.New("invalid params")

type CoreConfig struct {
	Escrow  escrow.Client
	Storage store.Store
	Logger  *zap.Logger
	Version string
}

type RequestAuction struct {
	Address string `json:"address" binding:"required"`
}

type RequestListAuctions struct {
	Status string `json:"status"`
}

type ResponseAuction struct {
	Auction escrow.Auction `json:"auction"`
	Journal *store.Auction `json:"journal,omitempty"`
}

type ResponseStatus struct {
	Version   string         `json:"version"`
	ProgramID string         `json:"programId"`
	Auctions  map[string]int `json:"auctions"`
}
