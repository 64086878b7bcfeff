package security

import (
	"sort"
	"sync"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// SupplyConservation tracks per-asset running totals of deposits and
// withdrawals. Settlement never touches these totals directly -- it is a
// balance-preserving transfer between two users and must leave the
// identity intact by construction.
type SupplyConservation struct {
	mu          sync.Mutex
	deposits    map[types.Asset]types.Decimal
	withdrawals map[types.Asset]types.Decimal
}

func NewSupplyConservation() *SupplyConservation {
	return &SupplyConservation{
		deposits:    make(map[types.Asset]types.Decimal),
		withdrawals: make(map[types.Asset]types.Decimal),
	}
}

func (s *SupplyConservation) RecordDeposit(asset types.Asset, amount types.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits[asset] = s.deposits[asset].Add(amount)
}

func (s *SupplyConservation) RecordWithdrawal(asset types.Asset, amount types.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals[asset] = s.withdrawals[asset].Add(amount)
}

// ExpectedSupply returns deposits - withdrawals for one asset.
func (s *SupplyConservation) ExpectedSupply(asset types.Asset) types.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deposits[asset].Sub(s.withdrawals[asset])
}

// TrackedAssets returns every asset symbol observed on either side, sorted
// so callers that iterate it never leak map order into anything hashed.
func (s *SupplyConservation) TrackedAssets() []types.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[types.Asset]struct{})
	for a := range s.deposits {
		seen[a] = struct{}{}
	}
	for a := range s.withdrawals {
		seen[a] = struct{}{}
	}
	assets := make([]types.Asset, 0, len(seen))
	for a := range seen {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets
}

// Verify checks, for every asset present in actualTotals, that
// expected == actual. Returns a single aggregate error naming the first
// mismatch found (in sorted asset order, for determinism).
func (s *SupplyConservation) Verify(actualTotals map[types.Asset]types.Decimal) *types.Error {
	assets := make([]types.Asset, 0, len(actualTotals))
	for a := range actualTotals {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	for _, asset := range assets {
		expected := s.ExpectedSupply(asset)
		actual := actualTotals[asset]
		if !expected.Equal(actual) {
			return types.Newf(types.ErrSupplyInvariantViolation,
				"asset %s: expected supply %s, observed %s", asset, expected, actual).
				WithField("asset", asset).
				WithField("expected", expected).
				WithField("actual", actual).
				WithField("diff", actual.Sub(expected))
		}
	}
	return nil
}
