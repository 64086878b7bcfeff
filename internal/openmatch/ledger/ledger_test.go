package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

func dec(n int64) types.Decimal { return decimal.NewFromInt(n) }

func TestDepositWithdrawRoundTrip(t *testing.T) {
	l := New()
	u := types.NewUserId()

	if err := l.Deposit(u, "USDT", dec(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := l.Withdraw(u, "USDT", dec(100)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	bal := l.Balance(u, "USDT")
	if !bal.Available.IsZero() || !bal.Frozen.IsZero() {
		t.Fatalf("expected zero balance after deposit+withdraw, got %+v", bal)
	}
}

func TestFreezeUnfreezeRestoresAvailable(t *testing.T) {
	l := New()
	u := types.NewUserId()
	l.Deposit(u, "BTC", dec(2))

	before := l.Balance(u, "BTC").Available

	if err := l.Freeze(u, "BTC", dec(1)); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if err := l.Unfreeze(u, "BTC", dec(1)); err != nil {
		t.Fatalf("unfreeze: %v", err)
	}

	after := l.Balance(u, "BTC").Available
	if !before.Equal(after) {
		t.Fatalf("available not restored: before=%s after=%s", before, after)
	}
}

func TestFreezeInsufficientBalance(t *testing.T) {
	l := New()
	u := types.NewUserId()
	l.Deposit(u, "BTC", dec(1))

	if err := l.Freeze(u, "BTC", dec(2)); err == nil {
		t.Fatal("expected InsufficientBalance error")
	} else if err.Code != types.ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %d", err.Code)
	}

	bal := l.Balance(u, "BTC")
	if !bal.Available.Equal(dec(1)) {
		t.Fatalf("balance must be unchanged on failed freeze, got %+v", bal)
	}
}

func TestSettleTradeExactOneToOne(t *testing.T) {
	l := New()
	alice := types.NewUserId()
	bob := types.NewUserId()
	market := types.MarketPair{Base: "BTC", Quote: "USDT"}

	l.Deposit(alice, "USDT", dec(100000))
	l.Freeze(alice, "USDT", dec(50000))
	l.Deposit(bob, "BTC", dec(2))
	l.Freeze(bob, "BTC", dec(1))

	trade := &types.Trade{
		Market:      market,
		TakerUserId: alice,
		MakerUserId: bob,
		Price:       dec(50000),
		Quantity:    dec(1),
		QuoteAmount: dec(50000),
		TakerSide:   types.Buy,
		ExecutedAt:  time.Now(),
	}

	if err := l.SettleTrade(trade); err != nil {
		t.Fatalf("settle: %v", err)
	}

	aliceBTC := l.Balance(alice, "BTC")
	aliceUSDT := l.Balance(alice, "USDT")
	bobUSDT := l.Balance(bob, "USDT")
	bobBTC := l.Balance(bob, "BTC")

	if !aliceBTC.Available.Equal(dec(1)) {
		t.Errorf("alice.BTC.available = %s, want 1", aliceBTC.Available)
	}
	if !aliceUSDT.Frozen.IsZero() {
		t.Errorf("alice.USDT.frozen = %s, want 0", aliceUSDT.Frozen)
	}
	if !aliceUSDT.Available.Equal(dec(50000)) {
		t.Errorf("alice.USDT.available = %s, want 50000", aliceUSDT.Available)
	}
	if !bobUSDT.Available.Equal(dec(50000)) {
		t.Errorf("bob.USDT.available = %s, want 50000", bobUSDT.Available)
	}
	if !bobBTC.Available.Equal(dec(1)) {
		t.Errorf("bob.BTC.available = %s, want 1", bobBTC.Available)
	}
	if !bobBTC.Frozen.IsZero() {
		t.Errorf("bob.BTC.frozen = %s, want 0", bobBTC.Frozen)
	}
}

func TestSettleTradeInsufficientFrozenLeavesUnchanged(t *testing.T) {
	l := New()
	alice := types.NewUserId()
	bob := types.NewUserId()
	market := types.MarketPair{Base: "BTC", Quote: "USDT"}

	l.Deposit(bob, "BTC", dec(1))
	l.Freeze(bob, "BTC", dec(1))
	// Alice never froze any USDT.

	trade := &types.Trade{
		Market:      market,
		TakerUserId: alice,
		MakerUserId: bob,
		Price:       dec(50000),
		Quantity:    dec(1),
		QuoteAmount: dec(50000),
		TakerSide:   types.Buy,
	}

	if err := l.SettleTrade(trade); err == nil {
		t.Fatal("expected InsufficientFrozen")
	}

	bobBTC := l.Balance(bob, "BTC")
	if !bobBTC.Frozen.Equal(dec(1)) {
		t.Fatalf("bob.BTC.frozen must be unchanged, got %s", bobBTC.Frozen)
	}
}
