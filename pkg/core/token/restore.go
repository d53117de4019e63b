package token

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
)

// Apply replays one journaled event against the ledger state without
// re-emitting it. Restart recovery constructs a fresh ledger (full supply at
// the deployer, as at first boot) and applies the journal in order; events
// for other assets or other ledgers are ignored.
//
// The journal does not record which moves were delegated, so a replayed
// Transfer consumes the recipient's allowance from the sender when one
// exists. Custody pulls are the only delegated moves this system issues and
// they always pay the spender, so the rule reconstructs allowances exactly
// for journals this node wrote.
func (t *Token) Apply(e events.Event) error {
	switch ev := e.(type) {
	case events.Transfer:
		if ev.Token != t.addr {
			return nil
		}
		t.mu.Lock()
		defer t.mu.Unlock()

		if err := t.move(ev.From, ev.To, ev.Amount); err != nil {
			return fmt.Errorf("replay transfer %s -> %s: %w", ev.From.Hex(), ev.To.Hex(), err)
		}
		if a := t.allowances[ev.From][ev.To]; a != nil && a.Cmp(ev.Amount) >= 0 {
			t.allowances[ev.From][ev.To] = new(big.Int).Sub(a, ev.Amount)
		}

	case events.Approval:
		if ev.Token != t.addr {
			return nil
		}
		t.mu.Lock()
		defer t.mu.Unlock()

		spenders, ok := t.allowances[ev.Owner]
		if !ok {
			spenders = make(map[common.Address]*big.Int)
			t.allowances[ev.Owner] = spenders
		}
		spenders[ev.Spender] = core.CopyAmount(ev.Amount)
	}
	return nil
}
