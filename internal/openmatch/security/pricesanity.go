package security

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// PriceSanityChecker tracks a last-reference price per market and rejects
// submissions that deviate beyond maxDeviation. The first order for a
// market, with no reference set yet, always passes.
type PriceSanityChecker struct {
	mu           sync.Mutex
	reference    map[types.MarketPair]types.Decimal
	maxDeviation types.Decimal
}

func NewPriceSanityChecker(maxDeviationMultiplier int64) *PriceSanityChecker {
	return &PriceSanityChecker{
		reference:    make(map[types.MarketPair]types.Decimal),
		maxDeviation: decimal.NewFromInt(maxDeviationMultiplier),
	}
}

// UpdateReference records price as the new reference for market, but only
// when price is positive.
func (c *PriceSanityChecker) UpdateReference(market types.MarketPair, price types.Decimal) {
	if !price.IsPositive() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reference[market] = price
}

// CheckPrice rejects SuspiciousPrice when price <= 0. The market-order
// +Infinity sentinel is allowed through as a pass, since it never enters
// the hashed candidate set and represents "trade at whatever the clearing
// price turns out to be", not a submitted limit.
func (c *PriceSanityChecker) CheckPrice(market types.MarketPair, price types.Decimal) *types.Error {
	if price.Equal(types.Infinity) {
		return nil
	}
	if !price.IsPositive() {
		return types.New(types.ErrSuspiciousPrice, "price must be positive")
	}

	c.mu.Lock()
	ref, ok := c.reference[market]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	lower := ref.Div(c.maxDeviation)
	upper := ref.Mul(c.maxDeviation)
	if price.LessThan(lower) || price.GreaterThan(upper) {
		return types.Newf(types.ErrSuspiciousPrice, "price %s outside [%s, %s] band around reference %s", price, lower, upper, ref).
			WithField("reference", ref).WithField("price", price)
	}
	return nil
}
