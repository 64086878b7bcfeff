// Package spendright implements the SpendRight store (C3): minting,
// state-machine transitions, lookup and lifecycle of single-use escrow
// tokens backed by the balance ledger's freeze/unfreeze.
package spendright

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/uhyunpark/openmatch/internal/openmatch/ledger"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// Store owns every SpendRight a node has minted. The freeze and the SR
// insertion it wraps must appear atomic to observers: Store holds its own
// mutex across both so a concurrent reader never sees a frozen balance
// without a matching Active SR, or vice versa.
//
// Active SRs live in `rights`, looked up by id with no eviction; only
// terminal (Spent/Released) entries are subject to bounded retention.
// When SetTerminalRetention configures a cap, a terminal SR is moved out
// of `rights` into a recency-ordered LRU instead of an insertion-ordered
// one: unlike the idempotency guard's pure FIFO contract, an operator
// re-querying a recently-settled SR for an audit should not lose it to
// eviction just because many older SRs also went terminal meanwhile,
// which is exactly the access-order promotion golang-lru provides and a
// hand-rolled FIFO does not.
type Store struct {
	mu        sync.RWMutex
	ledger    *ledger.Ledger
	rights    map[types.SpendRightId]*types.SpendRight
	retention *lru.Cache[types.SpendRightId, *types.SpendRight]
	nonce     uint64
	expiry    time.Duration
	nodeId    types.NodeId
	now       func() time.Time
}

// SetTerminalRetention bounds how many terminal (Spent/Released) SRs the
// store keeps reachable via Get once they leave the Active state. size<=0
// leaves retention unbounded (the default).
func (s *Store) SetTerminalRetention(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size <= 0 {
		s.retention = nil
		return
	}
	cache, err := lru.New[types.SpendRightId, *types.SpendRight](size)
	if err != nil {
		panic("openmatch: invalid spend-right retention size")
	}
	s.retention = cache
}

func New(l *ledger.Ledger, nodeId types.NodeId, expiry time.Duration) *Store {
	return &Store{
		ledger: l,
		rights: make(map[types.SpendRightId]*types.SpendRight),
		expiry: expiry,
		nodeId: nodeId,
		now:    time.Now,
	}
}

// Mint freezes `amount` of `asset` for `user`, then inserts a fresh SR in
// the Active state. If the freeze fails the SR is never created.
func (s *Store) Mint(orderId types.OrderId, user types.UserId, asset types.Asset, amount types.Decimal, epochId types.EpochId) (*types.SpendRight, *types.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Freeze(user, asset, amount); err != nil {
		return nil, err
	}

	s.nonce++
	now := s.now()
	sr := &types.SpendRight{
		Id:         types.NewSpendRightId(),
		OrderId:    orderId,
		UserId:     user,
		Asset:      asset,
		Amount:     amount,
		IssuerNode: s.nodeId,
		State:      types.SRActive,
		Nonce:      s.nonce,
		EpochId:    epochId,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.expiry),
	}
	s.rights[sr.Id] = sr
	return sr, nil
}

// Release requires the SR to exist and be Active; unfreezes its escrow and
// transitions it to Released.
func (s *Store) Release(id types.SpendRightId) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.rights[id]
	if !ok || sr.State != types.SRActive {
		return types.New(types.ErrInvalidSpendRight, "spend right not found or not active")
	}
	if err := s.ledger.Unfreeze(sr.UserId, sr.Asset, sr.Amount); err != nil {
		return err
	}
	sr.State = types.SRReleased
	s.retire(sr)
	return nil
}

// MarkSpent requires Active; transitions to Spent without touching
// balances (settlement does that separately).
func (s *Store) MarkSpent(id types.SpendRightId) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.rights[id]
	if !ok || sr.State != types.SRActive {
		return types.New(types.ErrInvalidSpendRight, "spend right not found or not active")
	}
	sr.State = types.SRSpent
	s.retire(sr)
	return nil
}

// retire moves a newly-terminal SR out of the unbounded map into the
// bounded retention cache, if one is configured. Callers hold s.mu.
func (s *Store) retire(sr *types.SpendRight) {
	if s.retention == nil {
		return
	}
	delete(s.rights, sr.Id)
	s.retention.Add(sr.Id, sr)
}

// Get returns a copy of the SR, or nil if unknown. A terminal SR evicted
// from the retention cache is indistinguishable from one never minted;
// both read as nil.
func (s *Store) Get(id types.SpendRightId) *types.SpendRight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sr, ok := s.rights[id]; ok {
		cp := *sr
		return &cp
	}
	if s.retention != nil {
		if sr, ok := s.retention.Get(id); ok {
			cp := *sr
			return &cp
		}
	}
	return nil
}

func (s *Store) IsActive(id types.SpendRightId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.rights[id]
	return ok && sr.State == types.SRActive
}
