// Package buffer implements the per-epoch pending order buffer and its
// one-shot sealer (C4, C5): collect orders, assign sequence numbers, and on
// seal produce a canonically-sorted, hash-committed SealedBatch.
package buffer

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"sort"
	"sync"
	"time"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// Buffer is a per-epoch container: an ordered list of orders plus a
// monotonic sequence counter, a one-shot sealed flag, the batch_id, and
// (post-seal) the committed batch hash.
type Buffer struct {
	mu              sync.Mutex
	epochId         types.EpochId
	maxOrders       int
	orders          []*types.Order
	sequenceCounter uint64
	sealed          bool
	batchHash       [32]byte
	sealerNode      types.NodeId
}

func New(epochId types.EpochId, maxOrders int, sealerNode types.NodeId) *Buffer {
	return &Buffer{
		epochId:    epochId,
		maxOrders:  maxOrders,
		sealerNode: sealerNode,
	}
}

// Push rejects if the buffer is already sealed or full, otherwise assigns
// order.Sequence and order.EpochId and appends.
func (b *Buffer) Push(o *types.Order) *types.Error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return types.New(types.ErrBufferAlreadySealed, "pending buffer already sealed")
	}
	if len(b.orders) >= b.maxOrders {
		return types.New(types.ErrBufferFull, "pending buffer at capacity")
	}

	o.Sequence = b.sequenceCounter
	b.sequenceCounter++
	epochId := b.epochId
	o.EpochId = &epochId
	b.orders = append(b.orders, o)
	return nil
}

// Len reports the number of orders currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

// Seal performs the canonical sort and computes the batch hash. One-shot:
// a second call returns BufferAlreadySealed.
//
// Sort order: (1) side, Buy before Sell; (2) price priority -- Buys
// descending by effective price, Sells ascending; (3) sequence ascending.
func (b *Buffer) Seal() (*types.SealedBatch, *types.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return nil, types.New(types.ErrBufferAlreadySealed, "pending buffer already sealed")
	}

	sort.SliceStable(b.orders, func(i, j int) bool {
		oi, oj := b.orders[i], b.orders[j]
		if oi.Side != oj.Side {
			return oi.Side == types.Buy
		}
		pi, pj := oi.EffectivePrice(), oj.EffectivePrice()
		if !pi.Equal(pj) {
			if oi.Side == types.Buy {
				return pi.GreaterThan(pj)
			}
			return pi.LessThan(pj)
		}
		return oi.Sequence < oj.Sequence
	})

	b.batchHash = computeBatchHash(b.epochId, b.orders)
	b.sealed = true

	return &types.SealedBatch{
		EpochId:    b.epochId,
		Orders:     b.orders,
		BatchHash:  b.batchHash,
		SealerNode: b.sealerNode,
		SealedAt:   time.Now(),
	}, nil
}

// TakeOrders consumes the sealed buffer, yielding (orders, batch_hash).
// Rejects if the buffer has not been sealed yet.
func (b *Buffer) TakeOrders() ([]*types.Order, [32]byte, *types.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sealed {
		return nil, [32]byte{}, types.New(types.ErrWrongEpochPhase, "buffer has not been sealed")
	}
	orders := b.orders
	b.orders = nil
	return orders, b.batchHash, nil
}

// computeBatchHash is the domain-separated commitment over the sealed set:
//
//	SHA-256("openmatch:batch:v1:" || u64_le(epoch_id) || u64_le(len) ||
//	  concat for each order of: order_id(16) || u64_le(sequence) ||
//	  decimal_str(effective_price) || decimal_str(remaining_qty) || side_byte)
func computeBatchHash(epochId types.EpochId, orders []*types.Order) [32]byte {
	h := sha256.New()
	h.Write([]byte(types.BatchHashPrefix))
	writeUint64LE(h, uint64(epochId))
	writeUint64LE(h, uint64(len(orders)))
	for _, o := range orders {
		h.Write(o.Id.Bytes())
		writeUint64LE(h, o.Sequence)
		h.Write([]byte(types.CanonicalString(o.EffectivePrice())))
		h.Write([]byte(types.CanonicalString(o.RemainingQty)))
		h.Write([]byte{o.Side.SideByte()})
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
