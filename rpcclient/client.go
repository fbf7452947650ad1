package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	jsonrpc "github.com/catalogfi/aucty/daemon/rpc"
	"github.com/catalogfi/aucty/daemon/types"
	"github.com/catalogfi/aucty/pkg/store"
)

// Error is a JSON-RPC error returned by the daemon.
type Error struct {
	Code    int
	Message string
	Data    string
}

func (err *Error) Error() string {
	if err.Data == "" {
		return fmt.Sprintf("rpc error %d: %s", err.Code, err.Message)
	}
	return fmt.Sprintf("rpc error %d: %s: %s", err.Code, err.Message, err.Data)
}

type Client interface {
	GetAuction(ctx context.Context, address string) (types.ResponseAuction, error)
	ListAuctions(ctx context.Context, status string) ([]store.Auction, error)
	Status(ctx context.Context) (types.ResponseStatus, error)
}

type client struct {
	User      string
	Pass      string
	Protocol  string
	RPCServer string
	http      *http.Client
}

func NewClient(userName string, password string, protocol string, rpcServer string) Client {
	return &client{
		User:      userName,
		Pass:      password,
		Protocol:  protocol,
		RPCServer: rpcServer,
		http:      http.DefaultClient,
	}
}

// SendPostRequest sends the marshalled JSON-RPC command using HTTP-POST mode and decodes the result into out.
func (c *client) SendPostRequest(ctx context.Context, method string, params interface{}, out interface{}) error {
	jsonData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	payload := jsonrpc.Request{
		Version: "2.0",
		ID:      1,
		Method:  method,
		Params:  json.RawMessage(jsonData),
	}
	marshalledJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := c.Protocol + "://" + c.RPCServer
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(marshalledJSON))
	if err != nil {
		return err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.SetBasicAuth(c.User, c.Pass)

	httpResponse, err := c.http.Do(httpRequest)
	if err != nil {
		return err
	}
	respBytes, err := io.ReadAll(httpResponse.Body)
	httpResponse.Body.Close()
	if err != nil {
		return fmt.Errorf("error reading json reply: %w", err)
	}

	// Errors from the handler still carry a JSON-RPC body, anything else is reported with the HTTP status.
	var resp jsonrpc.Response
	if err := json.Unmarshal(respBytes, &resp); err != nil || (resp.Error == nil && resp.Result == nil) {
		if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
			return fmt.Errorf("%d %s", httpResponse.StatusCode, http.StatusText(httpResponse.StatusCode))
		}
		if err != nil {
			return err
		}
	}
	if resp.Error != nil {
		return &Error{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
	}
	return json.Unmarshal(resp.Result, out)
}

func (c *client) GetAuction(ctx context.Context, address string) (types.ResponseAuction, error) {
	var resp types.ResponseAuction
	err := c.SendPostRequest(ctx, "getAuction", types.RequestAuction{Address: address}, &resp)
	return resp, err
}

func (c *client) ListAuctions(ctx context.Context, status string) ([]store.Auction, error) {
	var auctions []store.Auction
	err := c.SendPostRequest(ctx, "listAuctions", types.RequestListAuctions{Status: status}, &auctions)
	return auctions, err
}

func (c *client) Status(ctx context.Context) (types.ResponseStatus, error) {
	var resp types.ResponseStatus
	err := c.SendPostRequest(ctx, "status", struct{}{}, &resp)
	return resp, err
}
