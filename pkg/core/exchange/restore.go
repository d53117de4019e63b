package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
)

// Apply replays one journaled event against the book and custody state
// without re-emitting it. Restart recovery applies the journal in order to a
// freshly constructed exchange; the fee percent must match the one the
// journal was written under, since Trade events record amounts but not the
// fee taken.
func (x *Exchange) Apply(e events.Event) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	switch ev := e.(type) {
	case events.Deposit:
		x.setBalance(ev.Token, ev.User, ev.Balance)

	case events.Withdraw:
		x.setBalance(ev.Token, ev.User, ev.Balance)

	case events.Order:
		x.orders[ev.ID] = &Order{
			ID:         ev.ID,
			User:       ev.User,
			TokenGet:   ev.TokenGet,
			AmountGet:  core.CopyAmount(ev.AmountGet),
			TokenGive:  ev.TokenGive,
			AmountGive: core.CopyAmount(ev.AmountGive),
			Timestamp:  ev.Timestamp,
		}
		if ev.ID > x.orderCount {
			x.orderCount = ev.ID
		}

	case events.Cancel:
		x.cancelled[ev.ID] = true

	case events.Trade:
		fee := new(big.Int).Div(new(big.Int).Mul(ev.AmountGet, big.NewInt(x.feePercent)), hundred)
		cost := new(big.Int).Add(ev.AmountGet, fee)

		d := x.newDraft()
		ok := d.debit(ev.TokenGet, ev.UserFill, cost)
		d.credit(ev.TokenGet, ev.User, ev.AmountGet)
		d.credit(ev.TokenGet, x.feeAccount, fee)
		ok = d.debit(ev.TokenGive, ev.User, ev.AmountGive) && ok
		d.credit(ev.TokenGive, ev.UserFill, ev.AmountGive)
		if !ok {
			return fmt.Errorf("replay trade %d: settlement debits below zero", ev.ID)
		}
		d.commit()
		x.filled[ev.ID] = true
	}
	return nil
}

// setBalance overwrites the custody entry for (asset, owner). Callers hold
// the write lock.
func (x *Exchange) setBalance(asset, owner common.Address, v *big.Int) {
	owners, ok := x.balances[asset]
	if !ok {
		owners = make(map[common.Address]*big.Int)
		x.balances[asset] = owners
	}
	owners[owner] = core.CopyAmount(v)
}
