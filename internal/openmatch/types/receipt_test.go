package types

import "testing"

func TestReceiptRingOverwritesOldest(t *testing.T) {
	r := NewReceiptRing(2)
	r.Push(Receipt{Type: ReceiptFreeze, Asset: "USDT"})
	r.Push(Receipt{Type: ReceiptUnfreeze, Asset: "BTC"})
	r.Push(Receipt{Type: ReceiptSettle, Asset: "ETH"}) // overwrites the freeze entry

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 retained receipts, got %d", len(snap))
	}
	if snap[0].Asset != "BTC" || snap[1].Asset != "ETH" {
		t.Fatalf("expected oldest-to-newest [BTC, ETH], got [%s, %s]", snap[0].Asset, snap[1].Asset)
	}
}

func TestReceiptRingBelowCapacityPreservesOrder(t *testing.T) {
	r := NewReceiptRing(5)
	r.Push(Receipt{Type: ReceiptFreeze, Asset: "USDT"})
	r.Push(Receipt{Type: ReceiptSettle, Asset: "BTC"})

	snap := r.Snapshot()
	if len(snap) != 2 || r.Len() != 2 {
		t.Fatalf("expected 2 retained receipts, got %d (Len=%d)", len(snap), r.Len())
	}
	if snap[0].Asset != "USDT" || snap[1].Asset != "BTC" {
		t.Fatalf("expected insertion order preserved, got [%s, %s]", snap[0].Asset, snap[1].Asset)
	}
}
