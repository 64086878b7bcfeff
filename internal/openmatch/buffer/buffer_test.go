package buffer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

func limitOrder(side types.Side, price int64, qty int64, seq uint64) *types.Order {
	p := decimal.NewFromInt(price)
	q := decimal.NewFromInt(qty)
	return &types.Order{
		Id:           types.NewOrderId(),
		Side:         side,
		Type:         types.Limit,
		Price:        &p,
		Quantity:     q,
		RemainingQty: q,
	}
}

func TestSealSortsBuyBeforeSellThenByPrice(t *testing.T) {
	b := New(types.EpochId(1), 100, types.NodeId{1})

	b.Push(limitOrder(types.Sell, 110, 1, 0))
	b.Push(limitOrder(types.Buy, 100, 1, 0))
	b.Push(limitOrder(types.Buy, 105, 1, 0))
	b.Push(limitOrder(types.Sell, 108, 1, 0))

	batch, err := b.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	want := []struct {
		side  types.Side
		price int64
	}{
		{types.Buy, 105},
		{types.Buy, 100},
		{types.Sell, 108},
		{types.Sell, 110},
	}
	if len(batch.Orders) != len(want) {
		t.Fatalf("expected %d orders, got %d", len(want), len(batch.Orders))
	}
	for i, w := range want {
		o := batch.Orders[i]
		if o.Side != w.side || !o.EffectivePrice().Equal(decimal.NewFromInt(w.price)) {
			t.Errorf("position %d: got side=%v price=%s, want side=%v price=%d", i, o.Side, o.EffectivePrice(), w.side, w.price)
		}
	}
}

func TestSealIsDeterministic(t *testing.T) {
	mk := func() *Buffer {
		b := New(types.EpochId(7), 100, types.NodeId{1})
		o1 := limitOrder(types.Buy, 100, 1, 0)
		o2 := limitOrder(types.Sell, 100, 1, 0)
		// Force identical IDs/sequence across both buffers for a true
		// apples-to-apples hash comparison.
		o1.Id, o2.Id = types.OrderId{1}, types.OrderId{2}
		b.Push(o1)
		b.Push(o2)
		return b
	}

	b1, b2 := mk(), mk()
	batch1, _ := b1.Seal()
	batch2, _ := b2.Seal()

	if batch1.BatchHash != batch2.BatchHash {
		t.Fatal("same order set must yield the same batch_hash")
	}
}

func TestSealRejectsSecondCall(t *testing.T) {
	b := New(types.EpochId(1), 100, types.NodeId{1})
	b.Push(limitOrder(types.Buy, 100, 1, 0))
	if _, err := b.Seal(); err != nil {
		t.Fatalf("first seal: %v", err)
	}
	if _, err := b.Seal(); err == nil {
		t.Fatal("second seal must fail with BufferAlreadySealed")
	}
}

func TestPushRejectsAfterSeal(t *testing.T) {
	b := New(types.EpochId(1), 100, types.NodeId{1})
	b.Seal()
	if err := b.Push(limitOrder(types.Buy, 100, 1, 0)); err == nil {
		t.Fatal("push after seal must fail")
	}
}

func TestPushRejectsWhenFull(t *testing.T) {
	b := New(types.EpochId(1), 1, types.NodeId{1})
	if err := b.Push(limitOrder(types.Buy, 100, 1, 0)); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if err := b.Push(limitOrder(types.Buy, 100, 1, 0)); err == nil {
		t.Fatal("push beyond capacity must fail with BufferFull")
	}
}

func TestTakeOrdersRequiresSeal(t *testing.T) {
	b := New(types.EpochId(1), 100, types.NodeId{1})
	b.Push(limitOrder(types.Buy, 100, 1, 0))

	if _, _, err := b.TakeOrders(); err == nil {
		t.Fatal("take_orders before seal must fail")
	}

	batch, err := b.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	orders, hash, takeErr := b.TakeOrders()
	if takeErr != nil {
		t.Fatalf("take_orders after seal: %v", takeErr)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if hash != batch.BatchHash {
		t.Fatal("take_orders must yield the committed batch hash")
	}
}

func TestEmptyBatchHasNonZeroInputHash(t *testing.T) {
	b := New(types.EpochId(1), 100, types.NodeId{1})
	batch, err := b.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	var zero [32]byte
	if batch.BatchHash == zero {
		t.Fatal("empty batch must still hash the prefix + length bytes")
	}
}
