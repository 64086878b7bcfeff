package clearing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

func limitOrder(side types.Side, price, qty int64) *types.Order {
	p := decimal.NewFromInt(price)
	q := decimal.NewFromInt(qty)
	return &types.Order{Side: side, Type: types.Limit, Price: &p, Quantity: q, RemainingQty: q}
}

func TestSolveExactCross(t *testing.T) {
	buys := []*types.Order{limitOrder(types.Buy, 50000, 1)}
	sells := []*types.Order{limitOrder(types.Sell, 50000, 1)}

	r := Solve(buys, sells)
	if r == nil {
		t.Fatal("expected a clearing result")
	}
	if !r.Price.Equal(decimal.NewFromInt(50000)) || !r.Volume.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("got price=%s volume=%s", r.Price, r.Volume)
	}
}

func TestSolveNoCrossing(t *testing.T) {
	buys := []*types.Order{limitOrder(types.Buy, 90, 1)}
	sells := []*types.Order{limitOrder(types.Sell, 110, 1)}

	if r := Solve(buys, sells); r != nil {
		t.Fatalf("expected no crossing, got %+v", r)
	}
}

func TestSolveEmptySide(t *testing.T) {
	buys := []*types.Order{limitOrder(types.Buy, 100, 1)}
	if r := Solve(buys, nil); r != nil {
		t.Fatalf("expected nil with empty sell side, got %+v", r)
	}
}

func TestSolveTieBreak(t *testing.T) {
	buys := []*types.Order{
		limitOrder(types.Buy, 20, 50),
		limitOrder(types.Buy, 10, 50),
	}
	sells := []*types.Order{
		limitOrder(types.Sell, 15, 60),
		limitOrder(types.Sell, 25, 40),
	}

	r := Solve(buys, sells)
	if r == nil {
		t.Fatal("expected a clearing result")
	}
	if !r.Price.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("tie-break must prefer the higher price among equal matchable/imbalance candidates, got %s", r.Price)
	}
}

func TestSolveMarketBuyExcludedFromCandidates(t *testing.T) {
	buys := []*types.Order{{Side: types.Buy, Type: types.Market, Quantity: decimal.NewFromInt(1), RemainingQty: decimal.NewFromInt(1)}}
	sells := []*types.Order{limitOrder(types.Sell, 100, 1)}

	r := Solve(buys, sells)
	if r == nil {
		t.Fatal("a market buy must still cross against a resting limit sell")
	}
	if !r.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("candidate price must come from the limit side, got %s", r.Price)
	}
}
