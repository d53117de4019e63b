package api

import "encoding/json"

// API request/response types. Amounts travel as decimal strings in the
// smallest unit (10^-18); JSON numbers cannot carry 18-decimal fixed point.

// ==============================
// REST Response Types
// ==============================

// TokenInfo describes the asset ledger.
type TokenInfo struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"totalSupply"`
}

// BalanceInfo is one custodied (asset, owner) entry.
type BalanceInfo struct {
	Token  string `json:"token"` // zero address = ether
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

// OrderInfo is an order record plus its lifecycle flags.
type OrderInfo struct {
	ID         uint64 `json:"id"`
	User       string `json:"user"`
	TokenGet   string `json:"tokenGet"`
	AmountGet  string `json:"amountGet"`
	TokenGive  string `json:"tokenGive"`
	AmountGive string `json:"amountGive"`
	Timestamp  int64  `json:"timestamp"`
	Filled     bool   `json:"filled"`
	Cancelled  bool   `json:"cancelled"`
}

// TradeInfo is one executed fill, reconstructed from the audit log.
type TradeInfo struct {
	OrderID    uint64 `json:"orderId"`
	Maker      string `json:"maker"`
	Taker      string `json:"taker"`
	TokenGet   string `json:"tokenGet"`
	AmountGet  string `json:"amountGet"`
	TokenGive  string `json:"tokenGive"`
	AmountGive string `json:"amountGive"`
	Timestamp  int64  `json:"timestamp"`
}

// OrderAck acknowledges order creation with the assigned identifier.
type OrderAck struct {
	ID uint64 `json:"id"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ==============================
// Mutating Requests
// ==============================

// SignedRequest wraps a mutating payload: Signature is a 65-byte hex
// signature over the exact Payload bytes (Keccak256-hashed before signing).
// The recovered address is the caller identity for the operation.
type SignedRequest struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"` // 0x-prefixed hex
}

// DepositRequest / WithdrawRequest. An empty or zero Token means the
// settlement asset.
type DepositRequest struct {
	Token  string `json:"token,omitempty"`
	Amount string `json:"amount"`
}

type WithdrawRequest struct {
	Token  string `json:"token,omitempty"`
	Amount string `json:"amount"`
}

type MakeOrderRequest struct {
	TokenGet   string `json:"tokenGet"`
	AmountGet  string `json:"amountGet"`
	TokenGive  string `json:"tokenGive"`
	AmountGive string `json:"amountGive"`
}

type OrderIDRequest struct {
	ID uint64 `json:"id"`
}

// ==============================
// WebSocket Messages
// ==============================

// WSEvent is the envelope for every audit event streamed to subscribers.
type WSEvent struct {
	Type string      `json:"type"` // event kind: Transfer, Deposit, Trade, ...
	Data interface{} `json:"data"`
}
