package types

import "github.com/shopspring/decimal"

// Decimal is the fixed-precision rational used throughout the core. We pin
// decimal.Decimal (arbitrary-precision mantissa + exponent) rather than a
// scaled int64, since every hash in this package is computed over the
// canonical decimal string rather than over raw bits.
type Decimal = decimal.Decimal

// DecimalScale is the number of fractional digits the canonical string
// representation is rounded to before it ever enters a hash or a balance
// mutation. 8 gives satoshi-level precision for crypto amounts.
const DecimalScale = 8

// Infinity is the sentinel effective price assigned to market buy orders.
// It is deliberately a finite, enormous Decimal (10^30) rather than an IEEE
// infinity: Decimal has no native infinity and the clearing solver only
// needs a value that compares greater than any real market price while
// still supporting ordinary arithmetic.
var Infinity = decimal.New(1, 30)

// DecimalMax is the saturation ceiling for the matcher's quote-amount
// computation, the single place in the core where overflow saturates
// instead of erroring. Chosen comfortably below Infinity so a saturated
// quote_amount is never confused with the price sentinel.
var DecimalMax = decimal.New(1, 24)

// Zero is the canonical zero Decimal, exported for readability at call sites.
var Zero = decimal.Zero

// CanonicalString renders d as the canonical decimal string fed into every
// domain-separated hash in this package: fixed to DecimalScale fractional
// digits, trailing zeros trimmed, no scientific notation, and integers
// rendered without a trailing ".0" fractional part.
func CanonicalString(d Decimal) string {
	return d.Round(DecimalScale).String()
}

// SaturatingMul multiplies a and b, clamping the result to DecimalMax when
// the product would exceed it. This is the one place in the core where
// saturating (rather than checked) arithmetic is permitted.
func SaturatingMul(a, b Decimal) Decimal {
	product := a.Mul(b)
	if product.GreaterThan(DecimalMax) {
		return DecimalMax
	}
	return product
}
