// Package coordinator implements the epoch coordinator facade: it composes
// the balance ledger, SpendRight store, pending buffer/sealer, clearing
// solver, matcher and every security guard behind a small operation set,
// and owns the per-shard op counter.
package coordinator

import (
	"sync"
	"time"

	"github.com/uhyunpark/openmatch/internal/openmatch/buffer"
	"github.com/uhyunpark/openmatch/internal/openmatch/ledger"
	"github.com/uhyunpark/openmatch/internal/openmatch/matcher"
	"github.com/uhyunpark/openmatch/internal/openmatch/security"
	"github.com/uhyunpark/openmatch/internal/openmatch/spendright"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// Config carries the engine's recognized options.
type Config struct {
	MaxOrdersPerBatch      int
	MaxDeviationMultiplier int64
	OrderRateWindowMs      int64
	MaxOrdersPerWindow     int
	MaxOrdersPerUserEpoch  int
	NonceCapPerNode        int
	IdempotencyCacheSize   int
	SpendRightExpiry       time.Duration
	SpendRightRetention    int
	ReceiptRingSize        int
}

func DefaultConfig() Config {
	return Config{
		MaxOrdersPerBatch:      types.DefaultMaxOrdersPerBatch,
		MaxDeviationMultiplier: types.DefaultMaxDeviationMultiplier,
		OrderRateWindowMs:      types.DefaultOrderRateWindow.Milliseconds(),
		MaxOrdersPerWindow:     types.DefaultMaxOrdersPerWindow,
		MaxOrdersPerUserEpoch:  types.DefaultMaxOrdersPerEpoch,
		NonceCapPerNode:        types.DefaultNonceCapPerNode,
		IdempotencyCacheSize:   types.DefaultIdempotencyCacheSize,
		SpendRightExpiry:       types.DefaultSpendRightExpiry,
		SpendRightRetention:    types.DefaultSpendRightRetention,
		ReceiptRingSize:        types.DefaultReceiptRingSize,
	}
}

// Shard is one market's single-threaded logical executor: every mutating
// call takes the shard mutex, so all state mutation within a market is
// serialized. It owns the ledger, the SR store, the pending buffer and
// every guard.
type Shard struct {
	mu     sync.Mutex
	nodeId types.NodeId
	market types.MarketPair
	cfg    Config

	Ledger       *ledger.Ledger
	SpendRights  *spendright.Store
	Idempotency  *security.IdempotencyGuard
	Nonces       *security.NonceTracker
	Supply       *security.SupplyConservation
	RateLimiter  *security.OrderRateLimiter
	PriceSanity  *security.PriceSanityChecker
	WithdrawLock *security.WithdrawLock

	phase     types.EpochPhase
	epochId   types.EpochId
	buf       *buffer.Buffer
	sealed    *types.SealedBatch
	orderSRs  map[types.OrderId]types.SpendRightId
	opCounter uint64
	receipts  *types.ReceiptRing
}

func NewShard(nodeId types.NodeId, market types.MarketPair, cfg Config) *Shard {
	l := ledger.New()
	sr := spendright.New(l, nodeId, cfg.SpendRightExpiry)
	sr.SetTerminalRetention(cfg.SpendRightRetention)
	s := &Shard{
		nodeId:       nodeId,
		market:       market,
		cfg:          cfg,
		Ledger:       l,
		SpendRights:  sr,
		Idempotency:  security.NewIdempotencyGuard(cfg.IdempotencyCacheSize),
		Nonces:       security.NewNonceTracker(cfg.NonceCapPerNode),
		Supply:       security.NewSupplyConservation(),
		RateLimiter:  security.NewOrderRateLimiter(cfg.OrderRateWindowMs, cfg.MaxOrdersPerWindow, cfg.MaxOrdersPerUserEpoch),
		PriceSanity:  security.NewPriceSanityChecker(cfg.MaxDeviationMultiplier),
		WithdrawLock: security.NewWithdrawLock(),
		phase:        types.PhaseCollect,
		epochId:      types.EpochId(0),
		buf:          buffer.New(types.EpochId(0), cfg.MaxOrdersPerBatch, nodeId),
		orderSRs:     make(map[types.OrderId]types.SpendRightId),
		receipts:     types.NewReceiptRing(cfg.ReceiptRingSize),
	}
	return s
}

func (s *Shard) countOp() {
	s.opCounter++
}

func (s *Shard) OpCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opCounter
}

// Deposit credits available balance and records it against the supply
// tracker. Agnostic to phase.
func (s *Shard) Deposit(user types.UserId, asset types.Asset, amount types.Decimal) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	if err := s.Ledger.Deposit(user, asset, amount); err != nil {
		return err
	}
	s.Supply.RecordDeposit(asset, amount)
	return nil
}

// Withdraw is gated by the withdraw lock and records the supply-side
// reduction.
func (s *Shard) Withdraw(user types.UserId, asset types.Asset, amount types.Decimal) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	if err := s.WithdrawLock.CheckWithdraw(); err != nil {
		return err
	}
	if err := s.Ledger.Withdraw(user, asset, amount); err != nil {
		return err
	}
	s.Supply.RecordWithdrawal(asset, amount)
	return nil
}

// Freeze/Unfreeze are agnostic to phase (they back SR minting/release).
func (s *Shard) Freeze(user types.UserId, asset types.Asset, amount types.Decimal) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	return s.Ledger.Freeze(user, asset, amount)
}

func (s *Shard) Unfreeze(user types.UserId, asset types.Asset, amount types.Decimal) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	return s.Ledger.Unfreeze(user, asset, amount)
}

// SubmitOrder validates the order against the security guards, mints its
// SpendRight against the supplied freeze proof, and enqueues it into the
// current epoch's pending buffer.
func (s *Shard) SubmitOrder(order *types.Order, proof *types.FreezeProof, nowMs int64) (types.OrderId, *types.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()

	if err := order.Validate(); err != nil {
		return types.OrderId{}, err
	}
	if err := s.PriceSanity.CheckPrice(order.Market, order.EffectivePrice()); err != nil {
		return types.OrderId{}, err
	}
	if err := s.RateLimiter.CheckAndRecord(order.UserId, nowMs); err != nil {
		return types.OrderId{}, err
	}

	fundingAsset, fundingAmount := fundingFor(order)
	if proof != nil && !proof.Covers(order.UserId, fundingAsset, fundingAmount, time.Now()) {
		return types.OrderId{}, types.New(types.ErrInvalidOrderSpendRight, "freeze proof does not cover this order")
	}

	sr, err := s.SpendRights.Mint(order.Id, order.UserId, fundingAsset, fundingAmount, s.epochId)
	if err != nil {
		return types.OrderId{}, err
	}
	if err := s.Nonces.CheckAndRecord(sr.IssuerNode, sr.Nonce); err != nil {
		s.SpendRights.Release(sr.Id)
		return types.OrderId{}, err
	}
	order.SrId = sr.Id
	order.Status = types.Active

	if err := s.buf.Push(order); err != nil {
		s.SpendRights.Release(sr.Id)
		return types.OrderId{}, err
	}
	s.orderSRs[order.Id] = sr.Id
	s.receipts.Push(types.Receipt{Type: types.ReceiptFreeze, UserId: order.UserId, Asset: fundingAsset, Amount: fundingAmount, RecordedAt: time.Now()})
	return order.Id, nil
}

// fundingFor determines which asset/amount an order's SpendRight must
// cover: a limit buy locks price * quantity of quote; a market buy locks
// order.Quantity units of quote (the quantity is taken as the quote amount
// to spend); a sell locks base quantity.
func fundingFor(o *types.Order) (types.Asset, types.Decimal) {
	if o.Side == types.Buy {
		if o.Type == types.Limit {
			return o.Market.Quote, o.Price.Mul(o.Quantity)
		}
		return o.Market.Quote, o.Quantity
	}
	return o.Market.Base, o.Quantity
}

// CancelOrder releases the order's SpendRight. The order itself is removed
// from consideration by the matcher only if it has not yet been sealed;
// once sealed, cancellation must be expressed as a zero-fill outcome
// (remaining_qty unchanged) rather than a removal, since the buffer is
// immutable post-seal.
func (s *Shard) CancelOrder(order *types.Order) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	if err := s.SpendRights.Release(order.SrId); err != nil {
		return err
	}
	order.Status = types.Cancelled
	delete(s.orderSRs, order.Id)
	s.receipts.Push(types.Receipt{Type: types.ReceiptRelease, UserId: order.UserId, RecordedAt: time.Now()})
	return nil
}

// AdvancePhase transitions the epoch phase, updating the withdraw lock.
func (s *Shard) AdvancePhase(phase types.EpochPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	s.phase = phase
	s.WithdrawLock.SetPhase(phase)
	if phase == types.PhaseCollect {
		s.RateLimiter.ResetEpoch()
		s.Nonces.ClearAll()
	}
}

// SealEpoch seals the current buffer and returns the SealedBatch, which
// carries the batch hash and the sealed orders. The sealed batch is retained until NewEpoch so a caller that sealed in a
// separate request can still hand it to RunMatch.
func (s *Shard) SealEpoch() (*types.SealedBatch, *types.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	batch, err := s.buf.Seal()
	if err != nil {
		return nil, err
	}
	s.sealed = batch
	return batch, nil
}

// LastSealed returns the current epoch's sealed batch, or nil if the epoch
// has not been sealed yet.
func (s *Shard) LastSealed() *types.SealedBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// RunMatch runs the pure matcher over a sealed batch. It deliberately does
// not hold the shard lock across the call: the matcher takes no shared
// state and never suspends.
func (s *Shard) RunMatch(batch *types.SealedBatch) *types.TradeBundle {
	s.mu.Lock()
	node := s.nodeId
	s.countOp()
	s.mu.Unlock()
	return matcher.Match(batch, node, time.Now())
}

// ApplyBundle idempotency-gates every trade, then settles it against the
// ledger. Settlement failures are recorded but do not halt the bundle;
// they are logged by the caller via the returned per-trade errors.
func (s *Shard) ApplyBundle(bundle *types.TradeBundle) (settled int, failures map[types.TradeId]*types.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()

	failures = make(map[types.TradeId]*types.Error)
	for _, t := range bundle.Trades {
		if err := s.Idempotency.MarkSettled(t.Id); err != nil {
			failures[t.Id] = err
			continue
		}
		if err := s.Ledger.SettleTrade(t); err != nil {
			failures[t.Id] = err
			continue
		}
		s.receipts.Push(types.Receipt{Type: types.ReceiptSettle, TradeId: &t.Id, UserId: t.TakerUserId, Asset: t.Market.Quote, Amount: t.QuoteAmount, RecordedAt: time.Now()})
		settled++
	}

	// A fully-filled order's SpendRight is consumed by settlement: mark it
	// Spent. Partially-filled orders stay in RemainingOrders and their SRs
	// stay Active against the residual frozen funds.
	remaining := make(map[types.OrderId]struct{}, len(bundle.RemainingOrders))
	for _, o := range bundle.RemainingOrders {
		remaining[o.Id] = struct{}{}
	}
	for _, t := range bundle.Trades {
		if _, failed := failures[t.Id]; failed {
			continue
		}
		for _, orderId := range [2]types.OrderId{t.TakerOrderId, t.MakerOrderId} {
			if _, live := remaining[orderId]; live {
				continue
			}
			if srId, ok := s.orderSRs[orderId]; ok {
				s.SpendRights.MarkSpent(srId)
				delete(s.orderSRs, orderId)
			}
		}
	}

	return settled, failures
}

// VerifySupply checks the ledger's current per-asset totals against the
// recorded deposit/withdrawal history. A mismatch is fatal at the shard
// level; the caller must halt rather than continue silently.
func (s *Shard) VerifySupply() *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	return s.Supply.Verify(s.Ledger.AssetTotals())
}

// NewEpoch resets the pending buffer for the next epoch, bumping epochId.
func (s *Shard) NewEpoch() types.EpochId {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countOp()
	s.epochId = s.epochId.Next()
	s.buf = buffer.New(s.epochId, s.cfg.MaxOrdersPerBatch, s.nodeId)
	s.sealed = nil
	// Orders do not carry across epochs; whatever SRs are still Active
	// belong to unfilled remainders, and sweeping those is the ingress
	// layer's call (it still holds the orders and can Release them).
	s.orderSRs = make(map[types.OrderId]types.SpendRightId)
	return s.epochId
}

// Receipts returns a copy of the audit trail ring's current contents,
// oldest first. Once the ring fills, older receipts are silently
// overwritten -- this is a bounded debugging aid, not a durable log.
func (s *Shard) Receipts() []types.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipts.Snapshot()
}
