package exchange

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
	"github.com/haejoon/godex/pkg/core/token"
	"github.com/haejoon/godex/pkg/util"
)

var (
	tokenAddr    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	exchangeAddr = common.HexToAddress("0x0000000000000000000000000000000000000002")
	deployer     = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	feeAccount   = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	user1        = common.HexToAddress("0x1100000000000000000000000000000000000000")
	user2        = common.HexToAddress("0x2200000000000000000000000000000000000000")
)

type fixture struct {
	x     *Exchange
	tok   *token.Token
	log   *events.Log
	clock *util.FakeClock
}

// newFixture mirrors the canonical deployment: a fresh token with the full
// supply at the deployer, 100 tokens handed to user1, and an exchange with a
// 10% fee.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := events.NewLog()
	clock := util.NewFakeClock(time.Unix(1_700_000_000, 0))

	tok, err := token.New(tokenAddr, "Haejoon Coin", "HJC", core.Tokens(1_000_000), deployer, log)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	x, err := New(Config{
		Address:    exchangeAddr,
		FeeAccount: feeAccount,
		FeePercent: 10,
		Clock:      clock,
		Recorder:   log,
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if err := x.RegisterToken(tok); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := tok.Transfer(deployer, user1, core.Tokens(100)); err != nil {
		t.Fatalf("seed user1: %v", err)
	}
	return &fixture{x: x, tok: tok, log: log, clock: clock}
}

func TestDeploymentParams(t *testing.T) {
	f := newFixture(t)

	if f.x.FeeAccount() != feeAccount {
		t.Errorf("fee account = %s", f.x.FeeAccount().Hex())
	}
	if f.x.FeePercent() != 10 {
		t.Errorf("fee percent = %d", f.x.FeePercent())
	}
}

func TestDepositEther(t *testing.T) {
	f := newFixture(t)

	if err := f.x.DepositEther(user1, core.Ether(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := f.x.BalanceOf(core.EtherAddress, user1); got.Cmp(core.Ether(1)) != 0 {
		t.Errorf("custodied ether = %s, want 1 ether", got)
	}

	evs := f.log.ByKind("Deposit")
	if len(evs) != 1 {
		t.Fatalf("deposit events = %d, want 1", len(evs))
	}
	ev := evs[0].(events.Deposit)
	if ev.Token != core.EtherAddress || ev.User != user1 {
		t.Errorf("unexpected Deposit event: %+v", ev)
	}
	if ev.Amount.Cmp(core.Ether(1)) != 0 || ev.Balance.Cmp(core.Ether(1)) != 0 {
		t.Errorf("Deposit amounts: amount=%s balance=%s", ev.Amount, ev.Balance)
	}
}

func TestWithdrawEther(t *testing.T) {
	f := newFixture(t)
	mustDepositEther(t, f, user1, core.Ether(1))

	if err := f.x.WithdrawEther(user1, core.Ether(1)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := f.x.BalanceOf(core.EtherAddress, user1); got.Sign() != 0 {
		t.Errorf("custodied ether = %s, want 0", got)
	}

	evs := f.log.ByKind("Withdraw")
	if len(evs) != 1 {
		t.Fatalf("withdraw events = %d, want 1", len(evs))
	}
	ev := evs[0].(events.Withdraw)
	if ev.Token != core.EtherAddress || ev.User != user1 || ev.Balance.Sign() != 0 {
		t.Errorf("unexpected Withdraw event: %+v", ev)
	}
}

func TestWithdrawEtherInsufficient(t *testing.T) {
	f := newFixture(t)
	mustDepositEther(t, f, user1, core.Ether(1))

	err := f.x.WithdrawEther(user1, core.Ether(100))
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
	if got := f.x.BalanceOf(core.EtherAddress, user1); got.Cmp(core.Ether(1)) != 0 {
		t.Errorf("failed withdraw mutated balance: %s", got)
	}
}

func TestDepositToken(t *testing.T) {
	f := newFixture(t)

	if err := f.tok.Approve(user1, exchangeAddr, core.Tokens(10)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.x.DepositToken(user1, tokenAddr, core.Tokens(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Custody moved in the asset ledger and is tracked in the exchange.
	if got := f.tok.BalanceOf(exchangeAddr); got.Cmp(core.Tokens(10)) != 0 {
		t.Errorf("exchange token balance = %s, want 10", got)
	}
	if got := f.x.BalanceOf(tokenAddr, user1); got.Cmp(core.Tokens(10)) != 0 {
		t.Errorf("custodied tokens = %s, want 10", got)
	}
}

func TestDepositTokenFailures(t *testing.T) {
	f := newFixture(t)

	// Ether must use its dedicated entry point.
	err := f.x.DepositToken(user1, core.EtherAddress, core.Tokens(10))
	if !errors.Is(err, core.ErrInvalidAsset) {
		t.Errorf("sentinel deposit err = %v, want ErrInvalidAsset", err)
	}

	// No approval: the ledger's failure propagates untouched.
	err = f.x.DepositToken(user1, tokenAddr, core.Tokens(10))
	if !errors.Is(err, core.ErrAllowanceExceeded) {
		t.Errorf("unapproved deposit err = %v, want ErrAllowanceExceeded", err)
	}

	// Approved but unfunded.
	if err := f.tok.Approve(user2, exchangeAddr, core.Tokens(10)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	err = f.x.DepositToken(user2, tokenAddr, core.Tokens(10))
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Errorf("unfunded deposit err = %v, want ErrInsufficientBalance", err)
	}
	if got := f.x.BalanceOf(tokenAddr, user2); got.Sign() != 0 {
		t.Errorf("failed deposit credited custody: %s", got)
	}
}

func TestWithdrawToken(t *testing.T) {
	f := newFixture(t)
	mustDepositToken(t, f, user1, core.Tokens(10))

	if err := f.x.WithdrawToken(user1, tokenAddr, core.Tokens(10)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := f.x.BalanceOf(tokenAddr, user1); got.Sign() != 0 {
		t.Errorf("custodied tokens = %s, want 0", got)
	}
	if got := f.tok.BalanceOf(user1); got.Cmp(core.Tokens(100)) != 0 {
		t.Errorf("user1 ledger balance = %s, want 100 back", got)
	}
}

func TestWithdrawTokenFailures(t *testing.T) {
	f := newFixture(t)
	mustDepositToken(t, f, user1, core.Tokens(10))

	err := f.x.WithdrawToken(user1, core.EtherAddress, core.Tokens(1))
	if !errors.Is(err, core.ErrInvalidAsset) {
		t.Errorf("sentinel withdraw err = %v, want ErrInvalidAsset", err)
	}
	err = f.x.WithdrawToken(user1, tokenAddr, core.Tokens(100))
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestBalanceOfUnseenKeyIsZero(t *testing.T) {
	f := newFixture(t)

	if got := f.x.BalanceOf(tokenAddr, user2); got.Sign() != 0 {
		t.Errorf("unseen balance = %s, want 0", got)
	}
}

func TestFallback(t *testing.T) {
	f := newFixture(t)

	// Bare value: implicit ether deposit.
	if err := f.x.Receive(user1, core.Ether(1)); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if got := f.x.BalanceOf(core.EtherAddress, user1); got.Cmp(core.Ether(1)) != 0 {
		t.Errorf("implicit deposit balance = %s", got)
	}

	// Value with unrecognized call data: rejected, nothing credited.
	err := f.x.Fallback(user1, []byte{0xde, 0xad}, core.Ether(1))
	if !errors.Is(err, core.ErrUnsupportedOperation) {
		t.Errorf("err = %v, want ErrUnsupportedOperation", err)
	}
	if got := f.x.BalanceOf(core.EtherAddress, user1); got.Cmp(core.Ether(1)) != 0 {
		t.Errorf("rejected call credited balance: %s", got)
	}
}

func TestMakeOrder(t *testing.T) {
	f := newFixture(t)

	id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	if id != 1 {
		t.Errorf("first order id = %d, want 1", id)
	}
	if f.x.OrderCount() != 1 {
		t.Errorf("order count = %d, want 1", f.x.OrderCount())
	}

	o, err := f.x.Orders(id)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if o.User != user1 || o.TokenGet != tokenAddr || o.TokenGive != core.EtherAddress {
		t.Errorf("unexpected order: %+v", o)
	}
	if o.AmountGet.Cmp(core.Tokens(1)) != 0 || o.AmountGive.Cmp(core.Ether(1)) != 0 {
		t.Errorf("order amounts: get=%s give=%s", o.AmountGet, o.AmountGive)
	}
	if o.Timestamp != f.clock.Now().Unix() {
		t.Errorf("timestamp = %d, want %d", o.Timestamp, f.clock.Now().Unix())
	}

	evs := f.log.ByKind("Order")
	if len(evs) != 1 {
		t.Fatalf("order events = %d, want 1", len(evs))
	}
	ev := evs[0].(events.Order)
	if ev.ID != 1 || ev.User != user1 || ev.AmountGet.Cmp(core.Tokens(1)) != 0 {
		t.Errorf("unexpected Order event: %+v", ev)
	}
}

func TestMakeOrderNeedsNoBalance(t *testing.T) {
	f := newFixture(t)

	// user2 holds nothing anywhere; the order is still accepted.
	id, err := f.x.MakeOrder(user2, tokenAddr, core.Tokens(5), core.EtherAddress, core.Ether(5))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d", id)
	}
}

func TestSequentialOrderIDs(t *testing.T) {
	f := newFixture(t)

	for want := uint64(1); want <= 5; want++ {
		id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
		if err != nil {
			t.Fatalf("makeOrder #%d: %v", want, err)
		}
		if id != want {
			t.Errorf("order id = %d, want %d", id, want)
		}
	}
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	id := mustMakeOrder(t, f, user1)

	if err := f.x.CancelOrder(user1, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !f.x.OrderCancelled(id) {
		t.Error("order not marked cancelled")
	}
	if len(f.log.ByKind("Cancel")) != 1 {
		t.Errorf("cancel events = %d, want 1", len(f.log.ByKind("Cancel")))
	}

	// A second cancel fails rather than silently succeeding.
	err := f.x.CancelOrder(user1, id)
	if !errors.Is(err, core.ErrOrderNotOpen) {
		t.Errorf("second cancel err = %v, want ErrOrderNotOpen", err)
	}
}

func TestCancelOrderFailures(t *testing.T) {
	f := newFixture(t)
	id := mustMakeOrder(t, f, user1)

	err := f.x.CancelOrder(user2, id)
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("foreign cancel err = %v, want ErrUnauthorized", err)
	}
	err = f.x.CancelOrder(user1, 99999)
	if !errors.Is(err, core.ErrInvalidOrderID) {
		t.Errorf("unknown id err = %v, want ErrInvalidOrderID", err)
	}
}

// TestFillOrderFeeScenario is the canonical trade: user1 deposits 1 ether
// and asks 1 token for it, user2 deposits 2 tokens and fills. With a 10%
// fee the taker pays 1.1 tokens; the fee account keeps 0.1.
func TestFillOrderFeeScenario(t *testing.T) {
	f := newFixture(t)

	mustDepositEther(t, f, user1, core.Ether(1))
	seedTokens(t, f, user2, core.Tokens(2))
	mustDepositToken(t, f, user2, core.Tokens(2))

	id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	if err := f.x.FillOrder(user2, id); err != nil {
		t.Fatalf("fillOrder: %v", err)
	}

	tenth := new(big.Int).Div(core.Tokens(1), big.NewInt(10)) // 0.1 token

	checks := []struct {
		name  string
		asset common.Address
		owner common.Address
		want  *big.Int
	}{
		{"maker received tokens", tokenAddr, user1, core.Tokens(1)},
		{"maker ether spent", core.EtherAddress, user1, big.NewInt(0)},
		{"taker received ether", core.EtherAddress, user2, core.Ether(1)},
		{"taker tokens after fee", tokenAddr, user2, new(big.Int).Mul(tenth, big.NewInt(9))},
		{"fee account", tokenAddr, feeAccount, tenth},
	}
	for _, c := range checks {
		if got := f.x.BalanceOf(c.asset, c.owner); got.Cmp(c.want) != 0 {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}

	if !f.x.OrderFilled(id) {
		t.Error("order not marked filled")
	}
	trades := f.log.ByKind("Trade")
	if len(trades) != 1 {
		t.Fatalf("trade events = %d, want 1", len(trades))
	}
	tr := trades[0].(events.Trade)
	if tr.ID != id || tr.User != user1 || tr.UserFill != user2 {
		t.Errorf("unexpected Trade event: %+v", tr)
	}
	if tr.AmountGet.Cmp(core.Tokens(1)) != 0 || tr.AmountGive.Cmp(core.Ether(1)) != 0 {
		t.Errorf("Trade legs: get=%s give=%s", tr.AmountGet, tr.AmountGive)
	}
}

func TestFillOrderTwice(t *testing.T) {
	f := newFixture(t)
	id := fillableOrder(t, f)

	if err := f.x.FillOrder(user2, id); err != nil {
		t.Fatalf("first fill: %v", err)
	}
	err := f.x.FillOrder(user2, id)
	if !errors.Is(err, core.ErrOrderAlreadyFilled) {
		t.Errorf("second fill err = %v, want ErrOrderAlreadyFilled", err)
	}
	if got := len(f.log.ByKind("Trade")); got != 1 {
		t.Errorf("trade events = %d, want 1", got)
	}
}

func TestFillCancelledOrder(t *testing.T) {
	f := newFixture(t)
	id := fillableOrder(t, f)

	if err := f.x.CancelOrder(user1, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	err := f.x.FillOrder(user2, id)
	if !errors.Is(err, core.ErrOrderAlreadyCancelled) {
		t.Errorf("err = %v, want ErrOrderAlreadyCancelled", err)
	}
}

func TestFillInvalidOrderID(t *testing.T) {
	f := newFixture(t)
	mustMakeOrder(t, f, user1)

	err := f.x.FillOrder(user2, 99999)
	if !errors.Is(err, core.ErrInvalidOrderID) {
		t.Errorf("err = %v, want ErrInvalidOrderID", err)
	}
	err = f.x.FillOrder(user2, 0)
	if !errors.Is(err, core.ErrInvalidOrderID) {
		t.Errorf("id 0 err = %v, want ErrInvalidOrderID", err)
	}
}

func TestFillOrderTakerInsufficient(t *testing.T) {
	f := newFixture(t)
	mustDepositEther(t, f, user1, core.Ether(1))
	id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}

	// user2 custodies nothing; the 1.1-token debit must be rejected, not
	// underflow.
	err = f.x.FillOrder(user2, id)
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
	if f.x.OrderFilled(id) {
		t.Error("failed fill marked order filled")
	}
	if got := f.x.BalanceOf(core.EtherAddress, user1); got.Cmp(core.Ether(1)) != 0 {
		t.Errorf("failed fill touched maker balance: %s", got)
	}
}

func TestFillOrderMakerInsufficient(t *testing.T) {
	f := newFixture(t)
	seedTokens(t, f, user2, core.Tokens(2))
	mustDepositToken(t, f, user2, core.Tokens(2))

	// user1 places the order without ever depositing the give-leg.
	id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	err = f.x.FillOrder(user2, id)
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
	// The taker's balances survived the aborted fill intact.
	if got := f.x.BalanceOf(tokenAddr, user2); got.Cmp(core.Tokens(2)) != 0 {
		t.Errorf("taker balance after aborted fill = %s, want 2 tokens", got)
	}
}

func TestSelfFill(t *testing.T) {
	f := newFixture(t)
	mustDepositEther(t, f, user1, core.Ether(1))
	seedTokens(t, f, user1, core.Tokens(2))
	mustDepositToken(t, f, user1, core.Tokens(2))

	id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	// Taker == maker is not prohibited; the fee still moves.
	if err := f.x.FillOrder(user1, id); err != nil {
		t.Fatalf("self fill: %v", err)
	}
	tenth := new(big.Int).Div(core.Tokens(1), big.NewInt(10))
	if got := f.x.BalanceOf(tokenAddr, feeAccount); got.Cmp(tenth) != 0 {
		t.Errorf("fee account = %s, want 0.1 token", got)
	}
}

func TestSelfFillSameAssetUnderflowRejected(t *testing.T) {
	f := newFixture(t)
	seedTokens(t, f, user1, core.Tokens(20))
	mustDepositToken(t, f, user1, core.Tokens(20))

	// Both legs are the token and taker == maker, so every move lands on
	// the same custody entry. The running balance goes 20 -11 +10 = 19
	// before the 20-token give-leg debit, which must abort the whole fill.
	id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(10), tokenAddr, core.Tokens(20))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	err = f.x.FillOrder(user1, id)
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if got := f.x.BalanceOf(tokenAddr, user1); got.Cmp(core.Tokens(20)) != 0 {
		t.Errorf("aborted fill mutated user balance: %s, want 20 tokens", got)
	}
	if got := f.x.BalanceOf(tokenAddr, feeAccount); got.Sign() != 0 {
		t.Errorf("aborted fill credited the fee account: %s", got)
	}
	if f.x.OrderFilled(id) {
		t.Error("aborted fill marked order filled")
	}
	if err := f.x.CancelOrder(user1, id); err != nil {
		t.Errorf("order no longer open after aborted fill: %v", err)
	}
}

func TestSelfFillSameAssetSettles(t *testing.T) {
	f := newFixture(t)
	seedTokens(t, f, user1, core.Tokens(20))
	mustDepositToken(t, f, user1, core.Tokens(20))

	// Same aliasing as above, but every step stays covered:
	// 20 -11 +10 -5 +5 = 19, with 1 token of fee peeled off.
	id, err := f.x.MakeOrder(user1, tokenAddr, core.Tokens(10), tokenAddr, core.Tokens(5))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	if err := f.x.FillOrder(user1, id); err != nil {
		t.Fatalf("self fill: %v", err)
	}
	if got := f.x.BalanceOf(tokenAddr, user1); got.Cmp(core.Tokens(19)) != 0 {
		t.Errorf("user balance = %s, want 19 tokens", got)
	}
	if got := f.x.BalanceOf(tokenAddr, feeAccount); got.Cmp(core.Tokens(1)) != 0 {
		t.Errorf("fee account = %s, want 1 token", got)
	}
	if !f.x.OrderFilled(id) {
		t.Error("order not marked filled")
	}
}

func TestOpenOrders(t *testing.T) {
	f := newFixture(t)
	id1 := mustMakeOrder(t, f, user1)
	id2 := mustMakeOrder(t, f, user1)
	id3 := mustMakeOrder(t, f, user1)

	if err := f.x.CancelOrder(user1, id2); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	open := f.x.OpenOrders()
	if len(open) != 2 {
		t.Fatalf("open orders = %d, want 2", len(open))
	}
	if open[0].ID != id1 || open[1].ID != id3 {
		t.Errorf("open ids = %d,%d want %d,%d", open[0].ID, open[1].ID, id1, id3)
	}
}

func TestApplyRebuildsOrderBook(t *testing.T) {
	f := newFixture(t)
	id1 := mustMakeOrder(t, f, user1)
	id2 := mustMakeOrder(t, f, user1)
	if err := f.x.CancelOrder(user1, id2); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	fresh, err := New(Config{Address: exchangeAddr, FeeAccount: feeAccount, FeePercent: 10})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	for _, e := range f.log.All() {
		if err := fresh.Apply(e); err != nil {
			t.Fatalf("apply %s: %v", e.Kind(), err)
		}
	}

	open := fresh.OpenOrders()
	if len(open) != 1 || open[0].ID != id1 {
		t.Fatalf("open orders after replay = %v, want just %d", open, id1)
	}
	if !fresh.OrderCancelled(id2) {
		t.Error("cancel not replayed")
	}
	// Identifier assignment picks up where the journal left off.
	next, err := fresh.MakeOrder(user1, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	if next != id2+1 {
		t.Errorf("next order id = %d, want %d", next, id2+1)
	}
}

// ==============================
// helpers
// ==============================

func mustDepositEther(t *testing.T, f *fixture, user common.Address, amount *big.Int) {
	t.Helper()
	if err := f.x.DepositEther(user, amount); err != nil {
		t.Fatalf("deposit ether: %v", err)
	}
}

// seedTokens moves tokens from the deployer to user in the asset ledger.
func seedTokens(t *testing.T, f *fixture, user common.Address, amount *big.Int) {
	t.Helper()
	if err := f.tok.Transfer(deployer, user, amount); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
}

func mustDepositToken(t *testing.T, f *fixture, user common.Address, amount *big.Int) {
	t.Helper()
	if err := f.tok.Approve(user, exchangeAddr, amount); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.x.DepositToken(user, tokenAddr, amount); err != nil {
		t.Fatalf("deposit token: %v", err)
	}
}

func mustMakeOrder(t *testing.T, f *fixture, user common.Address) uint64 {
	t.Helper()
	id, err := f.x.MakeOrder(user, tokenAddr, core.Tokens(1), core.EtherAddress, core.Ether(1))
	if err != nil {
		t.Fatalf("makeOrder: %v", err)
	}
	return id
}

// fillableOrder sets up the canonical scenario and returns the order id.
func fillableOrder(t *testing.T, f *fixture) uint64 {
	t.Helper()
	mustDepositEther(t, f, user1, core.Ether(1))
	seedTokens(t, f, user2, core.Tokens(2))
	mustDepositToken(t, f, user2, core.Tokens(2))
	return mustMakeOrder(t, f, user1)
}
