// Package exchange implements the custodial side of the venue: per (asset,
// owner) balance accounting for deposited ether and tokens, an append-only
// order book, and atomic order settlement with a fee split.
//
// Execution model: every mutating call runs to completion under one write
// lock, so calls are totally ordered and no caller ever observes a torn
// state. A failed call commits nothing.
package exchange

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
	"github.com/haejoon/godex/pkg/util"
)

// AssetLedger is the slice of the token ledger the exchange needs to move
// tokens in and out of custody. The exchange never touches token state
// directly; custody moves go through these two calls.
type AssetLedger interface {
	Address() common.Address
	Transfer(from, to common.Address, amount *big.Int) error
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
}

// SettlementBridge delivers native settlement-asset withdrawals back to the
// user. The in-process default accepts everything.
type SettlementBridge interface {
	Send(to common.Address, amount *big.Int) error
}

type nopBridge struct{}

func (nopBridge) Send(common.Address, *big.Int) error { return nil }

// Config carries the construction-time parameters. FeeAccount and FeePercent
// are fixed for the exchange's lifetime.
type Config struct {
	Address    common.Address // the exchange's own identity in asset ledgers
	FeeAccount common.Address
	FeePercent int64 // percentage of every fill's get-leg, 0..100
	Clock      util.Clock
	Recorder   events.Recorder
	Bridge     SettlementBridge
	Logger     *zap.Logger
}

// Exchange custodies balances and runs the order book. See package doc for
// the execution model.
type Exchange struct {
	mu sync.RWMutex

	addr       common.Address
	feeAccount common.Address
	feePercent int64

	ledgers  map[common.Address]AssetLedger
	balances map[common.Address]map[common.Address]*big.Int // asset -> owner -> amount

	orders     map[uint64]*Order
	orderCount uint64
	filled     map[uint64]bool
	cancelled  map[uint64]bool

	clock  util.Clock
	rec    events.Recorder
	bridge SettlementBridge
	log    *zap.SugaredLogger
}

// New builds an exchange. The fee account and fee percent cannot change
// afterwards.
func New(cfg Config) (*Exchange, error) {
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: exchange address is the null identity", core.ErrInvalidRecipient)
	}
	if cfg.FeePercent < 0 || cfg.FeePercent > 100 {
		return nil, fmt.Errorf("fee percent out of range: %d", cfg.FeePercent)
	}
	if cfg.Clock == nil {
		cfg.Clock = util.RealClock{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = events.Nop{}
	}
	if cfg.Bridge == nil {
		cfg.Bridge = nopBridge{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Exchange{
		addr:       cfg.Address,
		feeAccount: cfg.FeeAccount,
		feePercent: cfg.FeePercent,
		ledgers:    make(map[common.Address]AssetLedger),
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		orders:     make(map[uint64]*Order),
		filled:     make(map[uint64]bool),
		cancelled:  make(map[uint64]bool),
		clock:      cfg.Clock,
		rec:        cfg.Recorder,
		bridge:     cfg.Bridge,
		log:        cfg.Logger.Sugar(),
	}, nil
}

// Address returns the exchange's custody identity.
func (x *Exchange) Address() common.Address { return x.addr }

// FeeAccount returns the identity credited with every fill's fee.
func (x *Exchange) FeeAccount() common.Address { return x.feeAccount }

// FeePercent returns the fixed fee percentage.
func (x *Exchange) FeePercent() int64 { return x.feePercent }

// RegisterToken makes an asset ledger depositable. The sentinel address and
// duplicate registrations are rejected.
func (x *Exchange) RegisterToken(l AssetLedger) error {
	addr := l.Address()
	if addr == core.EtherAddress {
		return fmt.Errorf("%w: cannot register the ether sentinel", core.ErrInvalidAsset)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.ledgers[addr]; ok {
		return fmt.Errorf("%w: token %s already registered", core.ErrInvalidAsset, addr.Hex())
	}
	x.ledgers[addr] = l
	return nil
}

// DepositEther credits user's custodied settlement-asset balance.
func (x *Exchange) DepositEther(user common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	bal := x.credit(core.EtherAddress, user, amount)
	x.rec.Record(events.Deposit{
		Token:   core.EtherAddress,
		User:    user,
		Amount:  core.CopyAmount(amount),
		Balance: bal,
	})
	x.log.Debugw("deposit", "asset", "ether", "user", user.Hex(), "amount", amount.String())
	return nil
}

// WithdrawEther debits user's custodied settlement-asset balance and hands
// the amount to the settlement bridge.
func (x *Exchange) WithdrawEther(user common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.balance(core.EtherAddress, user).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s custodies %s ether, need %s",
			core.ErrInsufficientBalance, user.Hex(), x.balance(core.EtherAddress, user), amount)
	}
	if err := x.bridge.Send(user, core.CopyAmount(amount)); err != nil {
		return fmt.Errorf("settlement transfer: %w", err)
	}

	bal := x.debit(core.EtherAddress, user, amount)
	x.rec.Record(events.Withdraw{
		Token:   core.EtherAddress,
		User:    user,
		Amount:  core.CopyAmount(amount),
		Balance: bal,
	})
	x.log.Debugw("withdraw", "asset", "ether", "user", user.Hex(), "amount", amount.String())
	return nil
}

// DepositToken pulls amount from user's asset-ledger balance into custody.
// The user must have approved the exchange beforehand; ledger failures
// (insufficient balance, allowance exceeded) propagate untouched.
func (x *Exchange) DepositToken(user, asset common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ledger, err := x.ledger(asset)
	if err != nil {
		return err
	}
	if err := ledger.TransferFrom(x.addr, user, x.addr, amount); err != nil {
		return err
	}

	bal := x.credit(asset, user, amount)
	x.rec.Record(events.Deposit{
		Token:   asset,
		User:    user,
		Amount:  core.CopyAmount(amount),
		Balance: bal,
	})
	x.log.Debugw("deposit", "asset", asset.Hex(), "user", user.Hex(), "amount", amount.String())
	return nil
}

// WithdrawToken pushes amount out of custody back to user's asset-ledger
// balance.
func (x *Exchange) WithdrawToken(user, asset common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ledger, err := x.ledger(asset)
	if err != nil {
		return err
	}
	if x.balance(asset, user).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s custodies %s of %s, need %s",
			core.ErrInsufficientBalance, user.Hex(), x.balance(asset, user), asset.Hex(), amount)
	}
	if err := ledger.Transfer(x.addr, user, amount); err != nil {
		return err
	}

	bal := x.debit(asset, user, amount)
	x.rec.Record(events.Withdraw{
		Token:   asset,
		User:    user,
		Amount:  core.CopyAmount(amount),
		Balance: bal,
	})
	x.log.Debugw("withdraw", "asset", asset.Hex(), "user", user.Hex(), "amount", amount.String())
	return nil
}

// BalanceOf returns the custodied balance for (asset, owner); zero for any
// unseen key.
func (x *Exchange) BalanceOf(asset, owner common.Address) *big.Int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return core.CopyAmount(x.balance(asset, owner))
}

// Receive handles a bare value transfer with no call data: an implicit
// ether deposit.
func (x *Exchange) Receive(user common.Address, value *big.Int) error {
	return x.DepositEther(user, value)
}

// Fallback handles an invocation that matched no entry point. Bare value is
// treated as an implicit deposit; anything carrying call data is rejected
// and credits nothing.
func (x *Exchange) Fallback(user common.Address, data []byte, value *big.Int) error {
	if len(data) > 0 {
		return fmt.Errorf("%w: unrecognized call data (%d bytes)", core.ErrUnsupportedOperation, len(data))
	}
	return x.DepositEther(user, value)
}

// ledger resolves an asset id to its registered ledger. Callers hold the lock.
func (x *Exchange) ledger(asset common.Address) (AssetLedger, error) {
	if asset == core.EtherAddress {
		return nil, fmt.Errorf("%w: ether must use the dedicated entry point", core.ErrInvalidAsset)
	}
	l, ok := x.ledgers[asset]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token %s", core.ErrInvalidAsset, asset.Hex())
	}
	return l, nil
}

// balance returns the live entry for (asset, owner). Callers hold the lock
// and must not hand the result outside without copying.
func (x *Exchange) balance(asset, owner common.Address) *big.Int {
	if owners, ok := x.balances[asset]; ok {
		if b, ok := owners[owner]; ok {
			return b
		}
	}
	return new(big.Int)
}

// credit adds amount to (asset, owner) and returns a copy of the new balance.
func (x *Exchange) credit(asset, owner common.Address, amount *big.Int) *big.Int {
	owners, ok := x.balances[asset]
	if !ok {
		owners = make(map[common.Address]*big.Int)
		x.balances[asset] = owners
	}
	owners[owner] = new(big.Int).Add(x.balance(asset, owner), amount)
	return core.CopyAmount(owners[owner])
}

// debit subtracts amount from (asset, owner) and returns a copy of the new
// balance. Callers must have checked sufficiency; going below zero is a
// programming error, not a ledger state.
func (x *Exchange) debit(asset, owner common.Address, amount *big.Int) *big.Int {
	next := new(big.Int).Sub(x.balance(asset, owner), amount)
	if next.Sign() < 0 {
		panic(fmt.Sprintf("exchange: debit below zero for (%s, %s)", asset.Hex(), owner.Hex()))
	}
	owners, ok := x.balances[asset]
	if !ok {
		owners = make(map[common.Address]*big.Int)
		x.balances[asset] = owners
	}
	owners[owner] = next
	return core.CopyAmount(next)
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid amount: %v", amount)
	}
	return nil
}
