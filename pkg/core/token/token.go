// Package token implements the asset ledger: a fixed-supply fungible token
// with balance tracking and delegated transfers via allowances.
//
// The whole supply is minted to the deployer at construction; there is no
// mint or burn afterwards, so the sum of all balances equals the total supply
// at every point in time.
package token

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
)

// Token is one asset ledger. All mutating calls are serialized by the mutex
// and run to completion; a failed call leaves no partial state behind.
type Token struct {
	mu sync.RWMutex

	addr        common.Address // asset identifier, never the ether sentinel
	name        string
	symbol      string
	totalSupply *big.Int

	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int // owner -> spender -> amount

	rec events.Recorder
}

// New creates a ledger at address addr with the full supply assigned to
// deployer. Supply is in the smallest unit (already scaled by 10^18).
func New(addr common.Address, name, symbol string, supply *big.Int, deployer common.Address, rec events.Recorder) (*Token, error) {
	if addr == core.EtherAddress {
		return nil, fmt.Errorf("%w: token address is the ether sentinel", core.ErrInvalidAsset)
	}
	if deployer == (common.Address{}) {
		return nil, fmt.Errorf("%w: deployer is the null identity", core.ErrInvalidRecipient)
	}
	if supply == nil || supply.Sign() < 0 {
		return nil, fmt.Errorf("invalid supply: %v", supply)
	}
	if rec == nil {
		rec = events.Nop{}
	}

	t := &Token{
		addr:        addr,
		name:        name,
		symbol:      symbol,
		totalSupply: core.CopyAmount(supply),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		rec:         rec,
	}
	t.balances[deployer] = core.CopyAmount(supply)
	return t, nil
}

// Address returns the ledger's asset identifier.
func (t *Token) Address() common.Address { return t.addr }

func (t *Token) Name() string    { return t.name }
func (t *Token) Symbol() string  { return t.symbol }
func (t *Token) Decimals() uint8 { return core.Decimals }

// TotalSupply returns the fixed supply in the smallest unit.
func (t *Token) TotalSupply() *big.Int {
	return core.CopyAmount(t.totalSupply)
}

// BalanceOf returns owner's balance, zero for unseen owners.
func (t *Token) BalanceOf(owner common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return core.CopyAmount(t.balances[owner])
}

// Allowance returns what spender may still move on owner's behalf.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return core.CopyAmount(t.allowances[owner][spender])
}

// Transfer moves amount from `from` (the caller) to `to`.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return fmt.Errorf("%w: transfer to the null identity", core.ErrInvalidRecipient)
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.rec.Record(events.Transfer{
		Token:  t.addr,
		From:   from,
		To:     to,
		Amount: core.CopyAmount(amount),
	})
	return nil
}

// Approve sets (overwrites) spender's allowance for owner's funds.
// A second approval replaces the first; allowances never accumulate.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	if spender == (common.Address{}) {
		return fmt.Errorf("%w: approve the null identity", core.ErrInvalidRecipient)
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*big.Int)
		t.allowances[owner] = spenders
	}
	spenders[spender] = core.CopyAmount(amount)

	t.rec.Record(events.Approval{
		Token:   t.addr,
		Owner:   owner,
		Spender: spender,
		Amount:  core.CopyAmount(amount),
	})
	return nil
}

// TransferFrom moves amount from `from` to `to` on behalf of spender,
// consuming exactly amount from spender's allowance. Balance is checked
// before allowance, matching the ledger's historical require order.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return fmt.Errorf("%w: transfer to the null identity", core.ErrInvalidRecipient)
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.balanceLocked(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, need %s",
			core.ErrInsufficientBalance, from.Hex(), t.balanceLocked(from), amount)
	}
	allowed := t.allowances[from][spender]
	if allowed == nil || allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: spender %s allowed %s, need %s",
			core.ErrAllowanceExceeded, spender.Hex(), core.CopyAmount(allowed), amount)
	}

	t.allowances[from][spender] = new(big.Int).Sub(allowed, amount)
	if err := t.move(from, to, amount); err != nil {
		return err
	}

	t.rec.Record(events.Transfer{
		Token:  t.addr,
		From:   from,
		To:     to,
		Amount: core.CopyAmount(amount),
	})
	return nil
}

// Validate checks ledger invariants: no negative entry and conservation of
// the total supply across all balances.
func (t *Token) Validate() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sum := new(big.Int)
	for owner, bal := range t.balances {
		if bal.Sign() < 0 {
			return fmt.Errorf("negative balance for %s: %s", owner.Hex(), bal)
		}
		sum.Add(sum, bal)
	}
	if sum.Cmp(t.totalSupply) != 0 {
		return fmt.Errorf("supply not conserved: balances sum to %s, supply is %s", sum, t.totalSupply)
	}
	return nil
}

// move debits from and credits to. Callers hold the write lock.
func (t *Token) move(from, to common.Address, amount *big.Int) error {
	bal := t.balanceLocked(from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, need %s",
			core.ErrInsufficientBalance, from.Hex(), bal, amount)
	}
	t.balances[from] = new(big.Int).Sub(bal, amount)
	t.balances[to] = new(big.Int).Add(t.balanceLocked(to), amount)
	return nil
}

func (t *Token) balanceLocked(owner common.Address) *big.Int {
	if b, ok := t.balances[owner]; ok {
		return b
	}
	return new(big.Int)
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid amount: %v", amount)
	}
	return nil
}
