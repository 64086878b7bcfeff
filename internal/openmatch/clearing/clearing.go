// Package clearing implements the uniform-price auction solver: enumerate
// every limit price as a candidate, tally demand and supply at each, and
// pick the candidate that maximizes matchable volume.
package clearing

import (
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// Solve computes the uniform clearing price over buys and sells. Each
// order contributes its EffectivePrice() and RemainingQty. Returns nil if
// either side is empty, the candidate set is empty, or the best candidate
// matches zero volume.
func Solve(buys, sells []*types.Order) *types.ClearingResult {
	if len(buys) == 0 || len(sells) == 0 {
		return nil
	}

	candidates := candidatePrices(buys, sells)
	if len(candidates) == 0 {
		return nil
	}

	var best *types.ClearingResult
	var bestImbalance types.Decimal

	for _, p := range candidates {
		demand := sumWhere(buys, func(eff types.Decimal) bool { return eff.GreaterThanOrEqual(p) })
		supply := sumWhere(sells, func(eff types.Decimal) bool { return eff.LessThanOrEqual(p) })
		matchable := minDecimal(demand, supply)
		imbalance := demand.Sub(supply).Abs()

		if best == nil || isBetterCandidate(matchable, imbalance, p, best.Volume, bestImbalance, best.Price) {
			best = &types.ClearingResult{Price: p, Volume: matchable, Demand: demand, Supply: supply}
			bestImbalance = imbalance
		}
	}

	if best == nil || !best.Volume.IsPositive() {
		return nil
	}
	return best
}

// isBetterCandidate implements the tie-break: maximize matchable volume;
// among ties, prefer the smaller |demand-supply|, then the higher price.
func isBetterCandidate(matchable, imbalance, price, bestMatchable, bestImbalance, bestPrice types.Decimal) bool {
	if !matchable.Equal(bestMatchable) {
		return matchable.GreaterThan(bestMatchable)
	}
	if !imbalance.Equal(bestImbalance) {
		return imbalance.LessThan(bestImbalance)
	}
	return price.GreaterThan(bestPrice)
}

// candidatePrices collects the finite set of distinct limit prices across
// both sides. Market orders contribute only their sentinel effective price
// (+Infinity for buys, 0 for sells): they count toward demand/supply at
// every candidate but never become candidates themselves.
func candidatePrices(buys, sells []*types.Order) []types.Decimal {
	seen := make(map[string]types.Decimal)
	add := func(o *types.Order) {
		if o.Type != types.Limit {
			return
		}
		eff := o.EffectivePrice()
		seen[eff.String()] = eff
	}
	for _, o := range buys {
		add(o)
	}
	for _, o := range sells {
		add(o)
	}
	out := make([]types.Decimal, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	return out
}

func sumWhere(orders []*types.Order, include func(types.Decimal) bool) types.Decimal {
	sum := types.Zero
	for _, o := range orders {
		if include(o.EffectivePrice()) {
			sum = sum.Add(o.RemainingQty)
		}
	}
	return sum
}

func minDecimal(a, b types.Decimal) types.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
