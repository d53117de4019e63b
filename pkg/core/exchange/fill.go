package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
)

var hundred = big.NewInt(100)

// draft is a copy-on-read view of the custody table. Settlement moves are
// applied to the draft in order; nothing touches live balances until commit.
// When taker == maker or both legs share an asset, several moves land on the
// same (asset, owner) entry, and each move must see the effect of the ones
// before it.
type draft struct {
	x    *Exchange
	vals map[acct]*big.Int
}

type acct struct {
	asset common.Address
	owner common.Address
}

func (x *Exchange) newDraft() *draft {
	return &draft{x: x, vals: make(map[acct]*big.Int)}
}

func (d *draft) at(asset, owner common.Address) *big.Int {
	k := acct{asset, owner}
	v, ok := d.vals[k]
	if !ok {
		v = core.CopyAmount(d.x.balance(asset, owner))
		d.vals[k] = v
	}
	return v
}

func (d *draft) credit(asset, owner common.Address, amount *big.Int) {
	v := d.at(asset, owner)
	v.Add(v, amount)
}

// debit reports false, leaving the draft value untouched, when the entry
// cannot cover amount.
func (d *draft) debit(asset, owner common.Address, amount *big.Int) bool {
	v := d.at(asset, owner)
	if v.Cmp(amount) < 0 {
		return false
	}
	v.Sub(v, amount)
	return true
}

// commit writes every touched entry back to the live table. Callers hold the
// write lock.
func (d *draft) commit() {
	for k, v := range d.vals {
		owners, ok := d.x.balances[k.asset]
		if !ok {
			owners = make(map[common.Address]*big.Int)
			d.x.balances[k.asset] = owners
		}
		owners[k.owner] = v
	}
}

// FillOrder executes order id against the taker, atomically:
//
//	taker  -(amountGet + fee) tokenGet    maker +amountGet tokenGet
//	maker  -amountGive        tokenGive   taker +amountGive tokenGive
//	fee account +fee tokenGet
//
// fee = amountGet * feePercent / 100, truncating, charged to the taker in
// the get-leg asset. The five moves run in that order against a draft of the
// custody table; if any debit cannot be covered the fill fails and the live
// ledger is untouched. Taker == maker is not prohibited.
func (x *Exchange) FillOrder(taker common.Address, id uint64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	o, ok := x.orders[id]
	if !ok {
		return fmt.Errorf("%w: %d (have %d orders)", core.ErrInvalidOrderID, id, x.orderCount)
	}
	if x.filled[id] {
		return fmt.Errorf("%w: order %d", core.ErrOrderAlreadyFilled, id)
	}
	if x.cancelled[id] {
		return fmt.Errorf("%w: order %d", core.ErrOrderAlreadyCancelled, id)
	}

	fee := new(big.Int).Div(new(big.Int).Mul(o.AmountGet, big.NewInt(x.feePercent)), hundred)
	cost := new(big.Int).Add(o.AmountGet, fee)

	d := x.newDraft()
	if !d.debit(o.TokenGet, taker, cost) {
		return fmt.Errorf("%w: taker %s has %s of %s available, fill needs %s (incl. fee %s)",
			core.ErrInsufficientBalance, taker.Hex(), d.at(o.TokenGet, taker), o.TokenGet.Hex(), cost, fee)
	}
	d.credit(o.TokenGet, o.User, o.AmountGet)
	d.credit(o.TokenGet, x.feeAccount, fee)
	// The maker's funding was trusted at creation time; the give-leg debit
	// re-validates it against the draft, which already reflects the taker's
	// payment when the legs alias.
	if !d.debit(o.TokenGive, o.User, o.AmountGive) {
		return fmt.Errorf("%w: maker %s has %s of %s available, order %d gives %s",
			core.ErrInsufficientBalance, o.User.Hex(), d.at(o.TokenGive, o.User), o.TokenGive.Hex(), id, o.AmountGive)
	}
	d.credit(o.TokenGive, taker, o.AmountGive)

	d.commit()
	x.filled[id] = true

	x.rec.Record(events.Trade{
		ID:         o.ID,
		User:       o.User,
		TokenGet:   o.TokenGet,
		AmountGet:  core.CopyAmount(o.AmountGet),
		TokenGive:  o.TokenGive,
		AmountGive: core.CopyAmount(o.AmountGive),
		UserFill:   taker,
		Timestamp:  x.clock.Now().Unix(),
	})
	x.log.Debugw("order filled", "id", id, "maker", o.User.Hex(), "taker", taker.Hex(), "fee", fee.String())
	return nil
}
