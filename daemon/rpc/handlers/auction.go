package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/catalogfi/aucty/daemon/types"
	"github.com/catalogfi/aucty/pkg/store"
	"github.com/catalogfi/aucty/pkg/util"
	"go.uber.org/zap"
)

func GetAuction(ctx context.Context, cfg types.CoreConfig, params types.RequestAuction) (types.ResponseAuction, error) {
	addr, err := util.ParsePublicKey(params.Address)
	if err != nil {
		return types.ResponseAuction{}, fmt.Errorf("%w: %v", types.ErrInvalidParams, err)
	}
	auction, err := cfg.Escrow.Inspect(ctx, addr)
	if err != nil {
		return types.ResponseAuction{}, err
	}

	resp := types.ResponseAuction{Auction: auction}
	if cfg.Storage != nil {
		entry, err := cfg.Storage.AuctionByAddress(addr.String())
		switch {
		case err == nil:
			resp.Journal = &entry
		case !errors.Is(err, store.ErrNotFound):
			cfg.Logger.Warn("failed to read journal", zap.String("auction", addr.String()), zap.Error(err))
		}
	}
	return resp, nil
}
