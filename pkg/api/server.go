package api

import (
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
	"github.com/haejoon/godex/pkg/core/exchange"
	"github.com/haejoon/godex/pkg/core/token"
	"github.com/haejoon/godex/pkg/crypto"
)

// Server is the read side served to the front-end store: REST queries over
// the ledgers plus a WebSocket stream of every audit event. Mutating
// endpoints carry a signature; the recovered address is the caller identity
// handed to the core.
type Server struct {
	x      *exchange.Exchange
	tok    *token.Token
	log    *events.Log
	hub    *events.Hub
	router *mux.Router
	ws     *wsHub
	logger *zap.SugaredLogger
}

// NewServer wires the API over the exchange, token ledger, audit log and
// event hub.
func NewServer(x *exchange.Exchange, tok *token.Token, log *events.Log, hub *events.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		x:      x,
		tok:    tok,
		log:    log,
		hub:    hub,
		router: mux.NewRouter(),
		ws:     newWSHub(logger.Sugar()),
		logger: logger.Sugar(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Ledger reads
	api.HandleFunc("/token", s.handleGetToken).Methods("GET")
	api.HandleFunc("/balances/{token}/{owner}", s.handleGetBalance).Methods("GET")

	// Order book reads
	api.HandleFunc("/orders", s.handleGetOrders).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}", s.handleGetOrder).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	// Signed mutations
	api.HandleFunc("/deposits", s.handleDeposit).Methods("POST")
	api.HandleFunc("/withdrawals", s.handleWithdraw).Methods("POST")
	api.HandleFunc("/orders", s.handleMakeOrder).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}/fill", s.handleFillOrder).Methods("POST")

	// Event stream
	s.router.HandleFunc("/ws", s.ws.handleUpgrade)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full HTTP handler with CORS applied. Exposed for
// tests and custom servers.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves HTTP on addr and begins streaming audit events to WebSocket
// clients. Blocks until the listener fails.
func (s *Server) Start(addr string) error {
	go s.ws.run()
	go s.pumpEvents()

	s.logger.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Close disconnects every WebSocket client and stops the fan-out loop.
// The event pump exits when the hub it subscribes to is closed.
func (s *Server) Close() {
	s.ws.stop()
}

// pumpEvents forwards every audit event to connected WebSocket clients.
func (s *Server) pumpEvents() {
	ch, cancel := s.hub.Subscribe()
	defer cancel()
	for e := range ch {
		msg, err := json.Marshal(WSEvent{Type: e.Kind(), Data: e})
		if err != nil {
			s.logger.Errorw("ws_marshal", "kind", e.Kind(), "err", err)
			continue
		}
		s.ws.broadcast(msg)
	}
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, TokenInfo{
		Address:     s.tok.Address().Hex(),
		Name:        s.tok.Name(),
		Symbol:      s.tok.Symbol(),
		Decimals:    s.tok.Decimals(),
		TotalSupply: s.tok.TotalSupply().String(),
	})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asset, ok := parseAddr(vars["token"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid token address", vars["token"])
		return
	}
	owner, ok := parseAddr(vars["owner"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid owner address", vars["owner"])
		return
	}

	respondJSON(w, BalanceInfo{
		Token:  asset.Hex(),
		Owner:  owner.Hex(),
		Amount: s.x.BalanceOf(asset, owner).String(),
	})
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	open := s.x.OpenOrders()
	out := make([]OrderInfo, len(open))
	for i, o := range open {
		out[i] = s.orderInfo(o)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id", mux.Vars(r)["id"])
		return
	}
	o, err := s.x.Orders(id)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}
	respondJSON(w, s.orderInfo(o))
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	var out []TradeInfo
	for _, e := range s.log.ByKind("Trade") {
		t := e.(events.Trade)
		out = append(out, TradeInfo{
			OrderID:    t.ID,
			Maker:      t.User.Hex(),
			Taker:      t.UserFill.Hex(),
			TokenGet:   t.TokenGet.Hex(),
			AmountGet:  t.AmountGet.String(),
			TokenGive:  t.TokenGive.Hex(),
			AmountGive: t.AmountGive.String(),
			Timestamp:  t.Timestamp,
		})
	}
	if out == nil {
		out = []TradeInfo{}
	}
	respondJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Signed Mutation Handlers
// ==============================

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	caller, payload, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req DepositRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid amount", req.Amount)
		return
	}

	var err error
	if asset, isToken := tokenArg(req.Token); isToken {
		err = s.x.DepositToken(caller, asset, amount)
	} else {
		err = s.x.DepositEther(caller, amount)
	}
	if err != nil {
		s.respondCoreError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, payload, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req WithdrawRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid amount", req.Amount)
		return
	}

	var err error
	if asset, isToken := tokenArg(req.Token); isToken {
		err = s.x.WithdrawToken(caller, asset, amount)
	} else {
		err = s.x.WithdrawEther(caller, amount)
	}
	if err != nil {
		s.respondCoreError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleMakeOrder(w http.ResponseWriter, r *http.Request) {
	caller, payload, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req MakeOrderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	tokenGet, ok := parseAddr(req.TokenGet)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tokenGet", req.TokenGet)
		return
	}
	tokenGive, ok := parseAddr(req.TokenGive)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tokenGive", req.TokenGive)
		return
	}
	amountGet, ok := parseAmount(req.AmountGet)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid amountGet", req.AmountGet)
		return
	}
	amountGive, ok := parseAmount(req.AmountGive)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid amountGive", req.AmountGive)
		return
	}

	id, err := s.x.MakeOrder(caller, tokenGet, amountGet, tokenGive, amountGive)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}
	respondJSON(w, OrderAck{ID: id})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.handleOrderAction(w, r, s.x.CancelOrder)
}

func (s *Server) handleFillOrder(w http.ResponseWriter, r *http.Request) {
	s.handleOrderAction(w, r, s.x.FillOrder)
}

func (s *Server) handleOrderAction(w http.ResponseWriter, r *http.Request, action func(common.Address, uint64) error) {
	caller, payload, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req OrderIDRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	pathID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || pathID != req.ID {
		respondError(w, http.StatusBadRequest, "order id mismatch", mux.Vars(r)["id"])
		return
	}
	if err := action(caller, req.ID); err != nil {
		s.respondCoreError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"})
}

// authenticate reads a SignedRequest and recovers the caller identity from
// the signature over the raw payload bytes.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (common.Address, []byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read body", err.Error())
		return common.Address{}, nil, false
	}
	var req SignedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return common.Address{}, nil, false
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid signature encoding", err.Error())
		return common.Address{}, nil, false
	}
	caller, err := crypto.RecoverAddress(req.Payload, sig)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "signature recovery failed", err.Error())
		return common.Address{}, nil, false
	}
	return caller, req.Payload, true
}

func (s *Server) orderInfo(o exchange.Order) OrderInfo {
	return OrderInfo{
		ID:         o.ID,
		User:       o.User.Hex(),
		TokenGet:   o.TokenGet.Hex(),
		AmountGet:  o.AmountGet.String(),
		TokenGive:  o.TokenGive.Hex(),
		AmountGive: o.AmountGive.String(),
		Timestamp:  o.Timestamp,
		Filled:     s.x.OrderFilled(o.ID),
		Cancelled:  s.x.OrderCancelled(o.ID),
	}
}

// respondCoreError maps the ledger failure taxonomy onto HTTP statuses.
func (s *Server) respondCoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidOrderID):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrOrderAlreadyFilled),
		errors.Is(err, core.ErrOrderAlreadyCancelled),
		errors.Is(err, core.ErrOrderNotOpen):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrAllowanceExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidAsset),
		errors.Is(err, core.ErrInvalidRecipient),
		errors.Is(err, core.ErrUnsupportedOperation):
		status = http.StatusBadRequest
	}
	respondError(w, status, errKind(err), err.Error())
}

// errKind returns the sentinel's message so clients can switch on it.
func errKind(err error) string {
	for _, sentinel := range []error{
		core.ErrInsufficientBalance, core.ErrAllowanceExceeded,
		core.ErrInvalidRecipient, core.ErrInvalidAsset, core.ErrInvalidOrderID,
		core.ErrUnauthorized, core.ErrOrderAlreadyFilled,
		core.ErrOrderAlreadyCancelled, core.ErrOrderNotOpen,
		core.ErrUnsupportedOperation,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

// ==============================
// Helpers
// ==============================

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg, Detail: detail})
}

func parseAddr(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// parseAmount parses a non-negative base-10 integer in the smallest unit.
func parseAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// tokenArg interprets an optional token field: empty or the zero address
// means the settlement asset.
func tokenArg(s string) (common.Address, bool) {
	if s == "" {
		return common.Address{}, false
	}
	addr := common.HexToAddress(s)
	if addr == core.EtherAddress {
		return common.Address{}, false
	}
	return addr, true
}
