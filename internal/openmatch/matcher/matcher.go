// Package matcher implements the batch matcher (C7) and result hasher (C8):
// a pure function from a SealedBatch to a TradeBundle, running the uniform
// clearing-price auction with self-trade prevention and deterministic
// trade IDs, then committing a result hash and trade root over the output.
package matcher

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"sort"
	"time"

	"github.com/uhyunpark/openmatch/internal/openmatch/clearing"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// Match runs the full auction pipeline over a sealed batch. It is a pure
// function: no clocks, no randomness, no iteration over hash-randomized
// containers -- every enumeration here uses the canonical orderings
// established by the sort below (ExecutedAt is the one caller-supplied
// timestamp, purely for record-keeping, and never participates in any
// hash or ordering decision).
func Match(batch *types.SealedBatch, matcherNode types.NodeId, now time.Time) *types.TradeBundle {
	buys, sells, remainingCandidates := partition(batch.Orders)

	sort.SliceStable(buys, func(i, j int) bool {
		return lessBuy(buys[i], buys[j])
	})
	sort.SliceStable(sells, func(i, j int) bool {
		return lessSell(sells[i], sells[j])
	})

	bundle := &types.TradeBundle{
		EpochId:   batch.EpochId,
		InputHash: batch.BatchHash,
	}

	result := clearing.Solve(buys, sells)
	bundle.ClearingPrice = result

	if result != nil {
		cp := result.Price
		sellIdx := 0
		var fillSequence uint64

		for _, buy := range buys {
			if buy.RemainingQty.IsZero() {
				continue
			}
			if buy.EffectivePrice().LessThan(cp) {
				break
			}
			for sellIdx < len(sells) && buy.RemainingQty.IsPositive() {
				sell := sells[sellIdx]
				if sell.EffectivePrice().GreaterThan(cp) {
					break
				}
				if sell.RemainingQty.IsZero() {
					sellIdx++
					continue
				}
				if buy.UserId == sell.UserId {
					// Self-trade prevention: skip the pair deterministically;
					// both orders stay unfilled at this attempt.
					sellIdx++
					continue
				}

				fill := minDecimal(buy.RemainingQty, sell.RemainingQty)
				quote := types.SaturatingMul(cp, fill)

				trade := &types.Trade{
					Id:           types.DeterministicTradeId(batch.EpochId, fillSequence),
					EpochId:      batch.EpochId,
					Market:       buy.Market,
					TakerOrderId: buy.Id,
					TakerUserId:  buy.UserId,
					MakerOrderId: sell.Id,
					MakerUserId:  sell.UserId,
					Price:        cp,
					Quantity:     fill,
					QuoteAmount:  quote,
					TakerSide:    types.Buy,
					MatcherNode:  matcherNode,
					ExecutedAt:   now,
				}
				fillSequence++
				bundle.Trades = append(bundle.Trades, trade)

				buy.RemainingQty = buy.RemainingQty.Sub(fill)
				sell.RemainingQty = sell.RemainingQty.Sub(fill)
				if sell.RemainingQty.IsZero() {
					sellIdx++
				}
			}
		}
	}

	for _, o := range remainingCandidates {
		if o.RemainingQty.IsPositive() {
			bundle.RemainingOrders = append(bundle.RemainingOrders, o)
		}
	}

	bundle.ResultHash = computeResultHash(batch.EpochId, bundle.Trades)
	bundle.TradeRoot = computeTradeRoot(bundle.Trades)

	return bundle
}

// partition splits the sealed batch into buys/sells (excluding Cancel
// orders) and also returns the full non-Cancel order set for the
// remaining-orders computation. Each order is copied, so fill accounting
// works on the matcher's own orders and never mutates the sealed batch.
func partition(orders []*types.Order) (buys, sells, nonCancel []*types.Order) {
	for _, orig := range orders {
		if orig.Type == types.Cancel {
			continue
		}
		cp := *orig
		o := &cp
		nonCancel = append(nonCancel, o)
		if o.Side == types.Buy {
			buys = append(buys, o)
		} else {
			sells = append(sells, o)
		}
	}
	return
}

func lessBuy(a, b *types.Order) bool {
	pa, pb := a.EffectivePrice(), b.EffectivePrice()
	if !pa.Equal(pb) {
		return pa.GreaterThan(pb)
	}
	return a.Sequence < b.Sequence
}

func lessSell(a, b *types.Order) bool {
	pa, pb := a.EffectivePrice(), b.EffectivePrice()
	if !pa.Equal(pb) {
		return pa.LessThan(pb)
	}
	return a.Sequence < b.Sequence
}

func minDecimal(a, b types.Decimal) types.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// computeResultHash implements:
//
//	SHA-256("openmatch:result:v1:" || u64_le(epoch_id) || u64_le(#trades) ||
//	  concat for each trade of: trade_id(16) || decimal_str(price) ||
//	  decimal_str(quantity) || taker_order_id(16) || maker_order_id(16))
func computeResultHash(epochId types.EpochId, trades []*types.Trade) [32]byte {
	h := sha256.New()
	h.Write([]byte(types.ResultHashPrefix))
	writeUint64LE(h, uint64(epochId))
	writeUint64LE(h, uint64(len(trades)))
	for _, t := range trades {
		h.Write(t.Id.Bytes())
		h.Write([]byte(types.CanonicalString(t.Price)))
		h.Write([]byte(types.CanonicalString(t.Quantity)))
		h.Write(t.TakerOrderId.Bytes())
		h.Write(t.MakerOrderId.Bytes())
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// computeTradeRoot implements:
//
//	SHA-256("openmatch:trade_root:v2:" || u64_le(#trades) ||
//	  concat for each trade of: trade_id || u64_le(epoch_id) ||
//	  taker_order_id || maker_order_id || taker_user_id || maker_user_id ||
//	  decimal_str(price) || decimal_str(quantity) || decimal_str(quote_amount))
func computeTradeRoot(trades []*types.Trade) [32]byte {
	h := sha256.New()
	h.Write([]byte(types.TradeRootPrefix))
	writeUint64LE(h, uint64(len(trades)))
	for _, t := range trades {
		h.Write(t.Id.Bytes())
		writeUint64LE(h, uint64(t.EpochId))
		h.Write(t.TakerOrderId.Bytes())
		h.Write(t.MakerOrderId.Bytes())
		h.Write(t.TakerUserId.Bytes())
		h.Write(t.MakerUserId.Bytes())
		h.Write([]byte(types.CanonicalString(t.Price)))
		h.Write([]byte(types.CanonicalString(t.Quantity)))
		h.Write([]byte(types.CanonicalString(t.QuoteAmount)))
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func writeUint64LE(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}
