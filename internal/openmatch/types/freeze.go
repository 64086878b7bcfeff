package types

import "time"

// FreezeProof is the lightweight pre-mint attestation carried alongside an
// order on submission. It is consumed, not persisted: the coordinator's
// SubmitOrder checks it against the order's declared funding before the
// SpendRight mint and then discards it. Ingress is responsible for having
// verified the proof's signature before it ever reaches submit_order; the
// core only re-checks the fields it needs to mint against.
type FreezeProof struct {
	UserId    UserId
	Asset     Asset
	Amount    Decimal
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Covers reports whether the proof funds at least `amount` of `asset` for
// `user`, and has not expired as of `now`.
func (f *FreezeProof) Covers(user UserId, asset Asset, amount Decimal, now time.Time) bool {
	if f == nil {
		return false
	}
	if f.UserId != user || f.Asset != asset {
		return false
	}
	if now.After(f.ExpiresAt) {
		return false
	}
	return f.Amount.GreaterThanOrEqual(amount)
}
