package security

import (
	"sync"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// OrderRateLimiter enforces a per-user sliding window of submission
// timestamps (milliseconds) plus a per-epoch counter.
type OrderRateLimiter struct {
	mu           sync.Mutex
	windowMs     int64
	maxPerWindow int
	maxPerEpoch  int
	windows      map[types.UserId][]int64
	epochCounts  map[types.UserId]int
}

func NewOrderRateLimiter(windowMs int64, maxPerWindow, maxPerEpoch int) *OrderRateLimiter {
	return &OrderRateLimiter{
		windowMs:     windowMs,
		maxPerWindow: maxPerWindow,
		maxPerEpoch:  maxPerEpoch,
		windows:      make(map[types.UserId][]int64),
		epochCounts:  make(map[types.UserId]int),
	}
}

// CheckAndRecord applies the epoch cap first, then prunes the sliding
// window and applies the per-window cap, then records nowMs.
func (r *OrderRateLimiter) CheckAndRecord(user types.UserId, nowMs int64) *types.Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.epochCounts[user] >= r.maxPerEpoch {
		return types.New(types.ErrOrderFloodDetected, "user exceeded per-epoch order cap").
			WithField("count", r.epochCounts[user])
	}

	cutoff := nowMs - r.windowMs
	if cutoff < 0 {
		cutoff = 0
	}
	window := r.windows[user]
	pruned := window[:0]
	for _, ts := range window {
		if ts >= cutoff {
			pruned = append(pruned, ts)
		}
	}

	if len(pruned) >= r.maxPerWindow {
		r.windows[user] = pruned
		return types.New(types.ErrRateLimitExceeded, "user exceeded per-window order rate")
	}

	pruned = append(pruned, nowMs)
	r.windows[user] = pruned
	r.epochCounts[user]++
	return nil
}

// ResetEpoch clears both the sliding windows and the per-epoch counters.
// The coordinator calls it whenever the shard advances into Collect.
func (r *OrderRateLimiter) ResetEpoch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = make(map[types.UserId][]int64)
	r.epochCounts = make(map[types.UserId]int)
}
