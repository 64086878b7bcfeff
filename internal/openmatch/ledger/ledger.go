// Package ledger implements the per-(user,asset) available/frozen balance
// accounting (C2): atomic deposit, withdraw, freeze, unfreeze and
// settle_trade, with auto-creation of balances on first reference.
package ledger

import (
	"sync"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

type key struct {
	user  types.UserId
	asset types.Asset
}

// Ledger owns every BalanceEntry in a shard: a single RWMutex guarding a
// map, with every mutator taking the write lock and every reader taking
// the read lock.
type Ledger struct {
	mu       sync.RWMutex
	balances map[key]*types.BalanceEntry
}

func New() *Ledger {
	return &Ledger{balances: make(map[key]*types.BalanceEntry)}
}

func (l *Ledger) entry(u types.UserId, a types.Asset) *types.BalanceEntry {
	k := key{u, a}
	e, ok := l.balances[k]
	if !ok {
		zero := types.ZeroBalance()
		e = &zero
		l.balances[k] = e
	}
	return e
}

// Balance returns a copy of the current (user, asset) balance, creating
// nothing: unseen coordinates read as zero.
func (l *Ledger) Balance(u types.UserId, a types.Asset) types.BalanceEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.balances[key{u, a}]; ok {
		return *e
	}
	return types.ZeroBalance()
}

// AssetTotals sums available+frozen across every user, per asset. A
// settled trade moves value between users and leaves these totals intact.
func (l *Ledger) AssetTotals() map[types.Asset]types.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	totals := make(map[types.Asset]types.Decimal)
	for k, e := range l.balances {
		totals[k.asset] = totals[k.asset].Add(e.Total())
	}
	return totals
}

// Deposit requires x > 0; available += x.
func (l *Ledger) Deposit(u types.UserId, a types.Asset, x types.Decimal) *types.Error {
	if !x.IsPositive() {
		return types.New(types.ErrInvalidOrder, "deposit amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(u, a)
	e.Available = e.Available.Add(x)
	return nil
}

// Withdraw requires x > 0 and available >= x; available -= x.
func (l *Ledger) Withdraw(u types.UserId, a types.Asset, x types.Decimal) *types.Error {
	if !x.IsPositive() {
		return types.New(types.ErrInvalidOrder, "withdraw amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(u, a)
	if e.Available.LessThan(x) {
		return types.New(types.ErrInsufficientBalance, "insufficient available balance").
			WithField("needed", x).WithField("available", e.Available)
	}
	e.Available = e.Available.Sub(x)
	return nil
}

// Freeze requires x > 0 and available >= x; available -= x, frozen += x.
func (l *Ledger) Freeze(u types.UserId, a types.Asset, x types.Decimal) *types.Error {
	if !x.IsPositive() {
		return types.New(types.ErrInvalidOrder, "freeze amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(u, a)
	if e.Available.LessThan(x) {
		return types.New(types.ErrInsufficientBalance, "insufficient available balance to freeze").
			WithField("needed", x).WithField("available", e.Available)
	}
	e.Available = e.Available.Sub(x)
	e.Frozen = e.Frozen.Add(x)
	return nil
}

// Unfreeze requires x > 0 and frozen >= x; reverses Freeze.
func (l *Ledger) Unfreeze(u types.UserId, a types.Asset, x types.Decimal) *types.Error {
	if !x.IsPositive() {
		return types.New(types.ErrInvalidOrder, "unfreeze amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(u, a)
	if e.Frozen.LessThan(x) {
		return types.New(types.ErrInsufficientFrozen, "insufficient frozen balance to unfreeze").
			WithField("needed", x).WithField("frozen", e.Frozen)
	}
	e.Frozen = e.Frozen.Sub(x)
	e.Available = e.Available.Add(x)
	return nil
}

// SettleTrade applies the two-sided transfer a trade implies. Counterparty
// determination: taker_side=Buy => (buyer=taker, seller=maker), else
// swapped. Both transfers are validated before either is applied, so a
// failure leaves all four subaccounts unchanged.
func (l *Ledger) SettleTrade(t *types.Trade) *types.Error {
	buyerId, sellerId := t.TakerUserId, t.MakerUserId
	if !t.TakerIsBuyer() {
		buyerId, sellerId = t.MakerUserId, t.TakerUserId
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	buyerQuote := l.entry(buyerId, t.Market.Quote)
	sellerBase := l.entry(sellerId, t.Market.Base)

	if buyerQuote.Frozen.LessThan(t.QuoteAmount) {
		return types.New(types.ErrInsufficientFrozen, "buyer has insufficient frozen quote to settle").
			WithField("needed", t.QuoteAmount).WithField("frozen", buyerQuote.Frozen)
	}
	if sellerBase.Frozen.LessThan(t.Quantity) {
		return types.New(types.ErrInsufficientFrozen, "seller has insufficient frozen base to settle").
			WithField("needed", t.Quantity).WithField("frozen", sellerBase.Frozen)
	}

	buyerBase := l.entry(buyerId, t.Market.Base)
	sellerQuote := l.entry(sellerId, t.Market.Quote)

	buyerQuote.Frozen = buyerQuote.Frozen.Sub(t.QuoteAmount)
	buyerBase.Available = buyerBase.Available.Add(t.Quantity)

	sellerBase.Frozen = sellerBase.Frozen.Sub(t.Quantity)
	sellerQuote.Available = sellerQuote.Available.Add(t.QuoteAmount)

	return nil
}
