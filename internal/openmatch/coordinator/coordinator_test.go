package coordinator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

func dec(n int64) types.Decimal { return decimal.NewFromInt(n) }

func newTestShard() *Shard {
	market := types.MarketPair{Base: "BTC", Quote: "USDT"}
	return NewShard(types.NodeId{1}, market, DefaultConfig())
}

func limitOrder(market types.MarketPair, side types.Side, price, qty int64, user types.UserId) *types.Order {
	p := dec(price)
	q := dec(qty)
	return &types.Order{
		Id:           types.NewOrderId(),
		UserId:       user,
		Market:       market,
		Side:         side,
		Type:         types.Limit,
		Price:        &p,
		Quantity:     q,
		RemainingQty: q,
	}
}

// TestEndToEndExactOneToOne reproduces scenario 1 from the testable
// properties: Alice deposits 100000 USDT and freezes 50000 via her order's
// SpendRight, Bob deposits 2 BTC and freezes 1; after match+settle Alice
// holds 1 BTC and her USDT freeze is released into the trade, Bob holds
// his 50000 USDT and his BTC freeze is gone.
func TestEndToEndExactOneToOne(t *testing.T) {
	s := newTestShard()
	market := s.market
	alice := types.NewUserId()
	bob := types.NewUserId()

	if err := s.Deposit(alice, "USDT", dec(100000)); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if err := s.Deposit(bob, "BTC", dec(2)); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}

	buyOrder := limitOrder(market, types.Buy, 50000, 1, alice)
	sellOrder := limitOrder(market, types.Sell, 50000, 1, bob)

	if _, err := s.SubmitOrder(buyOrder, nil, 0); err != nil {
		t.Fatalf("submit buy: %v", err)
	}
	if _, err := s.SubmitOrder(sellOrder, nil, 1); err != nil {
		t.Fatalf("submit sell: %v", err)
	}

	s.AdvancePhase(types.PhaseSeal)
	batch, err := s.SealEpoch()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	s.AdvancePhase(types.PhaseMatch)
	bundle := s.RunMatch(batch)
	if len(bundle.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(bundle.Trades))
	}

	s.AdvancePhase(types.PhaseFinalize)
	settled, failures := s.ApplyBundle(bundle)
	if settled != 1 || len(failures) != 0 {
		t.Fatalf("expected 1 settled, 0 failures; got %d settled, failures=%v", settled, failures)
	}

	aliceBTC := s.Ledger.Balance(alice, "BTC")
	aliceUSDT := s.Ledger.Balance(alice, "USDT")
	bobUSDT := s.Ledger.Balance(bob, "USDT")
	bobBTC := s.Ledger.Balance(bob, "BTC")

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
	if !bobBTC.Available.Equal(dec(1)) || !bobBTC.Frozen.IsZero() {
		t.Errorf("bob.BTC = %+v, want available=1 frozen=0", bobBTC)
	}

	for _, o := range []*types.Order{buyOrder, sellOrder} {
		sr := s.SpendRights.Get(o.SrId)
		if sr == nil || sr.State != types.SRSpent {
			t.Errorf("fully-filled order's SR must be Spent after settlement, got %+v", sr)
		}
	}

	if err := s.VerifySupply(); err != nil {
		t.Fatalf("supply conservation must hold after settlement: %v", err)
	}
}

// TestDoubleSettleRejected reproduces scenario 6: re-applying the same
// bundle a second time must report the trade as a failure and leave
// balances unchanged.
func TestDoubleSettleRejected(t *testing.T) {
	s := newTestShard()
	market := s.market
	alice := types.NewUserId()
	bob := types.NewUserId()

	s.Deposit(alice, "USDT", dec(100000))
	s.Deposit(bob, "BTC", dec(2))
	s.SubmitOrder(limitOrder(market, types.Buy, 50000, 1, alice), nil, 0)
	s.SubmitOrder(limitOrder(market, types.Sell, 50000, 1, bob), nil, 1)

	s.AdvancePhase(types.PhaseSeal)
	batch, _ := s.SealEpoch()
	s.AdvancePhase(types.PhaseMatch)
	bundle := s.RunMatch(batch)

	s.AdvancePhase(types.PhaseFinalize)
	s.ApplyBundle(bundle)
	beforeAlice := s.Ledger.Balance(alice, "BTC")

	settled, failures := s.ApplyBundle(bundle)
	if settled != 0 || len(failures) != 1 {
		t.Fatalf("expected the re-applied bundle to fail every trade, got settled=%d failures=%v", settled, failures)
	}
	for _, err := range failures {
		if err.Code != types.ErrTradeAlreadySettled {
			t.Fatalf("expected TradeAlreadySettled, got code %d", err.Code)
		}
	}
	afterAlice := s.Ledger.Balance(alice, "BTC")
	if !beforeAlice.Available.Equal(afterAlice.Available) {
		t.Fatal("balances must be unchanged by a rejected double-settle")
	}
}

func TestWithdrawBlockedDuringMatch(t *testing.T) {
	s := newTestShard()
	alice := types.NewUserId()
	s.Deposit(alice, "USDT", dec(100))

	s.AdvancePhase(types.PhaseMatch)
	if err := s.Withdraw(alice, "USDT", dec(10)); err == nil {
		t.Fatal("withdrawals must be blocked during Match")
	}
}
