package exchange

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
)

// Order is one order-book entry. The get-leg is what the owner wants to
// receive, the give-leg what they offer. Orders are never deleted; lifecycle
// state lives in the exchange's filled/cancelled side tables so the full
// history stays auditable.
type Order struct {
	ID         uint64
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	Timestamp  int64 // unix seconds at creation
}

// copy returns a deep copy safe to hand outside the lock.
func (o *Order) copy() Order {
	return Order{
		ID:         o.ID,
		User:       o.User,
		TokenGet:   o.TokenGet,
		AmountGet:  core.CopyAmount(o.AmountGet),
		TokenGive:  o.TokenGive,
		AmountGive: core.CopyAmount(o.AmountGive),
		Timestamp:  o.Timestamp,
	}
}

// MakeOrder places a new open order and returns its identifier. Balances are
// deliberately not checked here: availability is re-validated at fill time,
// so an order may reference funds not yet (or no longer) in custody.
func (x *Exchange) MakeOrder(user, tokenGet common.Address, amountGet *big.Int, tokenGive common.Address, amountGive *big.Int) (uint64, error) {
	if err := validAmount(amountGet); err != nil {
		return 0, err
	}
	if err := validAmount(amountGive); err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.orderCount++
	o := &Order{
		ID:         x.orderCount,
		User:       user,
		TokenGet:   tokenGet,
		AmountGet:  core.CopyAmount(amountGet),
		TokenGive:  tokenGive,
		AmountGive: core.CopyAmount(amountGive),
		Timestamp:  x.clock.Now().Unix(),
	}
	x.orders[o.ID] = o

	x.rec.Record(events.Order{
		ID:         o.ID,
		User:       o.User,
		TokenGet:   o.TokenGet,
		AmountGet:  core.CopyAmount(o.AmountGet),
		TokenGive:  o.TokenGive,
		AmountGive: core.CopyAmount(o.AmountGive),
		Timestamp:  o.Timestamp,
	})
	x.log.Debugw("order placed", "id", o.ID, "user", user.Hex())
	return o.ID, nil
}

// CancelOrder marks an open order cancelled. Only the owner may cancel, and
// only while the order is still open; a second cancel fails rather than
// silently succeeding.
func (x *Exchange) CancelOrder(user common.Address, id uint64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	o, ok := x.orders[id]
	if !ok {
		return fmt.Errorf("%w: %d (have %d orders)", core.ErrInvalidOrderID, id, x.orderCount)
	}
	if o.User != user {
		return fmt.Errorf("%w: order %d belongs to %s", core.ErrUnauthorized, id, o.User.Hex())
	}
	if x.filled[id] || x.cancelled[id] {
		return fmt.Errorf("%w: order %d", core.ErrOrderNotOpen, id)
	}

	x.cancelled[id] = true
	x.rec.Record(events.Cancel{
		ID:         o.ID,
		User:       o.User,
		TokenGet:   o.TokenGet,
		AmountGet:  core.CopyAmount(o.AmountGet),
		TokenGive:  o.TokenGive,
		AmountGive: core.CopyAmount(o.AmountGive),
		Timestamp:  x.clock.Now().Unix(),
	})
	x.log.Debugw("order cancelled", "id", id, "user", user.Hex())
	return nil
}

// Orders returns a copy of the order record for id.
func (x *Exchange) Orders(id uint64) (Order, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	o, ok := x.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: %d (have %d orders)", core.ErrInvalidOrderID, id, x.orderCount)
	}
	return o.copy(), nil
}

// OrderCount returns the identifier of the most recently created order.
func (x *Exchange) OrderCount() uint64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.orderCount
}

// OrderFilled reports whether id has been filled.
func (x *Exchange) OrderFilled(id uint64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.filled[id]
}

// OrderCancelled reports whether id has been cancelled.
func (x *Exchange) OrderCancelled(id uint64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.cancelled[id]
}

// OpenOrders returns every order that is neither filled nor cancelled,
// ordered by identifier.
func (x *Exchange) OpenOrders() []Order {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []Order
	for id, o := range x.orders {
		if x.filled[id] || x.cancelled[id] {
			continue
		}
		out = append(out, o.copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
