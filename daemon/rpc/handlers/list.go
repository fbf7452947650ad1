package handlers

import (
	"errors"
	"fmt"

	"github.com/catalogfi/aucty/daemon/types"
	"github.com/catalogfi/aucty/pkg/store"
)

func List(cfg types.CoreConfig, params types.RequestListAuctions) ([]store.Auction, error) {
	if cfg.Storage == nil {
		return nil, errors.New("journal is not configured")
	}
	status, err := store.ParseStatus(params.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidParams, err)
	}
	return cfg.Storage.Auctions(status)
}

func Status(cfg types.CoreConfig) (types.ResponseStatus, error) {
	resp := types.ResponseStatus{
		Version:   cfg.Version,
		ProgramID: cfg.Escrow.Options().ProgramID.String(),
		Auctions:  map[string]int{},
	}
	if cfg.Storage == nil {
		return resp, nil
	}
	auctions, err := cfg.Storage.Auctions(store.Unknown)
	if err != nil {
		return types.ResponseStatus{}, err
	}
	for _, auction := range auctions {
		resp.Auctions[auction.Status.String()]++
	}
	return resp, nil
}
