package jsonrpc

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/catalogfi/aucty/daemon/rpc/methods"
	"github.com/catalogfi/aucty/daemon/types"
	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RPC interface {
	AddCommand(cmd methods.Method)
	HandleJSONRPC(ctx *gin.Context)
	Handler() http.Handler
	Run(ctx context.Context, addr string) error
}

type rpc struct {
	commands   map[string]methods.Method
	coreConfig types.CoreConfig
	authsha    [sha256.Size]byte
}

// Request defines a JSON-RPC 2.0 request object.
type Request struct {
	Version string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response defines a JSON-RPC 2.0 response object.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error defines a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Error codes
const (
	ErrorCodeParseError        = -32700
	ErrorMessageParseError     = "Parse error"
	ErrorCodeInvalidRequest    = -32600
	ErrorMessageInvalidRequest = "Invalid Request"
	ErrorCodeMethodNotFound    = -32601
	ErrorMessageMethodNotFound = "Method not found"
	ErrorCodeInvalidParams     = -32602
	ErrorMessageInvalidParams  = "Invalid params"
	ErrorCodeInternalError     = -32603
	ErrorMessageInternalError  = "Internal error"
)

func NewResponse(id interface{}, result json.RawMessage, err *Error) Response {
	return Response{
		Version: "2.0",
		ID:      id,
		Result:  result,
		Error:   err,
	}
}

func NewError(code int, message string, data string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewRpcServer(username, password string, core types.CoreConfig) (RPC, error) {
	if username == "" || password == "" {
		return nil, errors.New("rpc username and password must be specified")
	}
	if core.Logger == nil {
		core.Logger = zap.NewNop()
	}

	login := username + ":" + password
	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(login))

	r := &rpc{
		commands:   make(map[string]methods.Method),
		authsha:    sha256.Sum256([]byte(auth)),
		coreConfig: core,
	}
	r.AddCommand(methods.GetAuction())
	r.AddCommand(methods.ListAuctions())
	r.AddCommand(methods.Status())
	return r, nil
}

func (r *rpc) AddCommand(cmd methods.Method) {
	r.commands[cmd.Name()] = cmd
}

func (r *rpc) HandleJSONRPC(ctx *gin.Context) {
	req := Request{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, NewResponse(req.ID, nil, NewError(ErrorCodeParseError, ErrorMessageParseError, err.Error())))
		return
	}
	if req.Version != "2.0" || req.Method == "" {
		ctx.JSON(http.StatusBadRequest, NewResponse(req.ID, nil, NewError(ErrorCodeInvalidRequest, ErrorMessageInvalidRequest, "")))
		return
	}

	cmd, ok := r.commands[req.Method]
	if !ok {
		ctx.JSON(http.StatusNotFound, NewResponse(req.ID, nil, NewError(ErrorCodeMethodNotFound, ErrorMessageMethodNotFound, req.Method)))
		return
	}

	result, err := cmd.Query(ctx.Request.Context(), &r.coreConfig, req.Params)
	if err != nil {
		r.coreConfig.Logger.Debug("rpc call failed", zap.String("method", req.Method), zap.Error(err))
		switch {
		case errors.Is(err, types.ErrInvalidParams), errors.Is(err, auction.ErrInvalidInput):
			ctx.JSON(http.StatusBadRequest, NewResponse(req.ID, nil, NewError(ErrorCodeInvalidParams, ErrorMessageInvalidParams, err.Error())))
		case errors.Is(err, escrow.ErrAuctionNotFound), errors.Is(err, store.ErrNotFound):
			ctx.JSON(http.StatusNotFound, NewResponse(req.ID, nil, NewError(ErrorCodeInternalError, ErrorMessageInternalError, err.Error())))
		default:
			ctx.JSON(http.StatusInternalServerError, NewResponse(req.ID, nil, NewError(ErrorCodeInternalError, ErrorMessageInternalError, err.Error())))
		}
		return
	}

	ctx.JSON(http.StatusOK, NewResponse(req.ID, result, nil))
}

func (r *rpc) authenticateUser(ctx *gin.Context) {
	authhdr := ctx.GetHeader("Authorization")
	if len(authhdr) <= 0 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized Invalid credentials"})
		return
	}
	authsha := sha256.Sum256([]byte(authhdr))
	cmp := subtle.ConstantTimeCompare(authsha[:], r.authsha[:])
	if cmp != 1 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized Invalid credentials"})
		return
	}
}

func (r *rpc) Handler() http.Handler {
	s := gin.Default()
	s.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := s.Group("/")
	authRoutes.Use(r.authenticateUser)
	authRoutes.POST("/", r.HandleJSONRPC)
	return s
}

// Run serves until ctx is done, then shuts the server down.
func (r *rpc) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: r.Handler(),
	}
	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()
	r.coreConfig.Logger.Info("rpc server started", zap.String("addr", addr))

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
