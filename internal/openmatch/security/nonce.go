package security

import (
	"sync"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// NonceTracker holds, per NodeId, the set of nonces already observed, with
// a per-node cap. Cleared at epoch boundaries by convention (ClearAll or
// ClearNode), not by any time-based expiry.
type NonceTracker struct {
	mu         sync.Mutex
	maxPerNode int
	used       map[types.NodeId]map[uint64]struct{}
}

func NewNonceTracker(maxPerNode int) *NonceTracker {
	return &NonceTracker{
		maxPerNode: maxPerNode,
		used:       make(map[types.NodeId]map[uint64]struct{}),
	}
}

// CheckAndRecord returns NonceReplay if (node, nonce) was already seen,
// RateLimitExceeded if the node is at its nonce cap, else records it.
func (t *NonceTracker) CheckAndRecord(node types.NodeId, nonce uint64) *types.Error {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.used[node]
	if !ok {
		set = make(map[uint64]struct{})
		t.used[node] = set
	}
	if _, seen := set[nonce]; seen {
		return types.New(types.ErrNonceReplay, "nonce already used for this node").
			WithField("node", node.String()).WithField("nonce", nonce)
	}
	if len(set) >= t.maxPerNode {
		return types.New(types.ErrRateLimitExceeded, "node has exhausted its nonce budget for this window")
	}
	set[nonce] = struct{}{}
	return nil
}

func (t *NonceTracker) ClearNode(node types.NodeId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.used, node)
}

func (t *NonceTracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used = make(map[types.NodeId]map[uint64]struct{})
}

func (t *NonceTracker) TotalNonces() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, set := range t.used {
		total += len(set)
	}
	return total
}
