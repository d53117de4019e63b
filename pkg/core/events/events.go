package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is one immutable audit-log entry. Every state-mutating ledger call
// emits exactly one (plus the underlying asset-ledger Transfer where a
// custody move happens). Fields are snapshots: amounts are copies, never
// aliases of live ledger state.
type Event interface {
	Kind() string
}

// Transfer records a balance move inside the asset ledger.
type Transfer struct {
	Token  common.Address // asset ledger the move happened in
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// Approval records an allowance being set (overwritten, not accumulated).
type Approval struct {
	Token   common.Address
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

// Deposit records funds entering exchange custody.
// Balance is the resulting custodied balance for (Token, User).
type Deposit struct {
	Token   common.Address // EtherAddress for the settlement asset
	User    common.Address
	Amount  *big.Int
	Balance *big.Int
}

// Withdraw records funds leaving exchange custody.
// Balance is the resulting custodied balance for (Token, User).
type Withdraw struct {
	Token   common.Address
	User    common.Address
	Amount  *big.Int
	Balance *big.Int
}

// Order records a new open order with its assigned identifier.
type Order struct {
	ID         uint64
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	Timestamp  int64 // unix seconds
}

// Cancel records an open order being cancelled by its owner.
type Cancel struct {
	ID         uint64
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	Timestamp  int64
}

// Trade records the single atomic fill of an order.
// User is the maker, UserFill the taker.
type Trade struct {
	ID         uint64
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	UserFill   common.Address
	Timestamp  int64
}

func (Transfer) Kind() string { return "Transfer" }
func (Approval) Kind() string { return "Approval" }
func (Deposit) Kind() string  { return "Deposit" }
func (Withdraw) Kind() string { return "Withdraw" }
func (Order) Kind() string    { return "Order" }
func (Cancel) Kind() string   { return "Cancel" }
func (Trade) Kind() string    { return "Trade" }

// Recorder receives every emitted event. Implementations must not block:
// the ledgers call Record while holding their write lock.
type Recorder interface {
	Record(Event)
}

// Nop discards everything. Useful default so ledgers never nil-check.
type Nop struct{}

func (Nop) Record(Event) {}

// Tee fans one event out to several recorders in order.
type Tee []Recorder

func (t Tee) Record(e Event) {
	for _, r := range t {
		r.Record(e)
	}
}
