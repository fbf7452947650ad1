package methods

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/catalogfi/aucty/daemon/rpc/handlers"
	"github.com/catalogfi/aucty/daemon/types"
)

type Method interface {
	Name() string
	Query(ctx context.Context, cfg *types.CoreConfig, params json.RawMessage) (json.RawMessage, error)
}

func decode(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidParams, err)
	}
	return nil
}

type getAuction struct{}

func GetAuction() Method {
	return &getAuction{}
}

func (a *getAuction) Name() string {
	return "getAuction"
}

func (a *getAuction) Query(ctx context.Context, cfg *types.CoreConfig, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestAuction
	if err := decode(params, &req); err != nil {
		return nil, err
	}

	auction, err := handlers.GetAuction(ctx, *cfg, req)
	if err != nil {
		return nil, err
	}

	return json.Marshal(auction)
}

type listAuctions struct{}

func ListAuctions() Method {
	return &listAuctions{}
}

func (a *listAuctions) Name() string {
	return "listAuctions"
}

func (a *listAuctions) Query(ctx context.Context, cfg *types.CoreConfig, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestListAuctions
	if err := decode(params, &req); err != nil {
		return nil, err
	}

	auctions, err := handlers.List(*cfg, req)
	if err != nil {
		return nil, err
	}

	return json.Marshal(auctions)
}

type status struct{}

func Status() Method {
	return &status{}
}

func (a *status) Name() string {
	return "status"
}

func (a *status) Query(ctx context.Context, cfg *types.CoreConfig, params json.RawMessage) (json.RawMessage, error) {
	resp, err := handlers.Status(*cfg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}
