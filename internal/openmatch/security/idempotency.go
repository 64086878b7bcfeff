// Package security implements six layered defenses for the matching core:
// idempotency guard, nonce tracker, supply conservation, order rate
// limiter, price sanity checker and withdraw lock. Each is an independent,
// composable guard rather than a branch of one monolithic validator.
package security

import (
	"container/list"
	"sync"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// IdempotencyGuard is a bounded set of settled TradeIds with
// insertion-ordered eviction. Eviction is pure "oldest first" with no
// access-order promotion on read, which rules out a recency-based LRU
// like hashicorp/golang-lru for this particular guard: a replayed
// duplicate lookup must not extend its victim's lifetime.
type IdempotencyGuard struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	index   map[types.TradeId]*list.Element
}

func NewIdempotencyGuard(maxSize int) *IdempotencyGuard {
	if maxSize <= 0 {
		panic("openmatch: idempotency guard max_size must be positive")
	}
	return &IdempotencyGuard{
		maxSize: maxSize,
		order:   list.New(),
		index:   make(map[types.TradeId]*list.Element),
	}
}

// MarkSettled returns TradeAlreadySettled if id is already recorded; else
// inserts it, evicting the oldest entry first if the guard is at capacity.
func (g *IdempotencyGuard) MarkSettled(id types.TradeId) *types.Error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.index[id]; ok {
		return types.New(types.ErrTradeAlreadySettled, "trade already settled").WithField("trade_id", id.String())
	}

	if g.order.Len() >= g.maxSize {
		oldest := g.order.Front()
		if oldest != nil {
			g.order.Remove(oldest)
			delete(g.index, oldest.Value.(types.TradeId))
		}
	}

	elem := g.order.PushBack(id)
	g.index[id] = elem
	return nil
}

func (g *IdempotencyGuard) IsSettled(id types.TradeId) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.index[id]
	return ok
}

func (g *IdempotencyGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.order.Len()
}
