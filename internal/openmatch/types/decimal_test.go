package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestCanonicalStringConformance pins the exact Decimal -> string mapping
// every hash preimage in the core depends on. If any of these vectors
// changes, batch_hash/result_hash/trade_root change with it, so treat a
// failure here as a wire-format break, not a cosmetic one.
func TestCanonicalStringConformance(t *testing.T) {
	vectors := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"-0", "0"},
		{"50000", "50000"},
		{"50000.0", "50000"},
		{"1.50000000", "1.5"},
		{"2.10", "2.1"},
		{"123.456", "123.456"},
		{"0.00000001", "0.00000001"},
		// Beyond 8 fractional digits the value is rounded half away from
		// zero before serialization.
		{"0.000000004", "0"},
		{"0.000000005", "0.00000001"},
		{"-1.230", "-1.23"},
		{"1000000000000000000000000", "1000000000000000000000000"},
	}

	for _, v := range vectors {
		d, err := decimal.NewFromString(v.in)
		if err != nil {
			t.Fatalf("parse %q: %v", v.in, err)
		}
		if got := CanonicalString(d); got != v.want {
			t.Errorf("CanonicalString(%q) = %q, want %q", v.in, got, v.want)
		}
	}
}

func TestCanonicalStringNeverScientific(t *testing.T) {
	for _, d := range []Decimal{Infinity, DecimalMax} {
		s := CanonicalString(d)
		for i := 0; i < len(s); i++ {
			if s[i] == 'e' || s[i] == 'E' {
				t.Fatalf("canonical string %q uses scientific notation", s)
			}
		}
	}
}

func TestSaturatingMul(t *testing.T) {
	two := decimal.NewFromInt(2)

	if got := SaturatingMul(DecimalMax, two); !got.Equal(DecimalMax) {
		t.Fatalf("overflow must saturate at DecimalMax, got %s", got)
	}
	if got := SaturatingMul(two, two); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("in-range product must be exact, got %s", got)
	}
	if SaturatingMul(DecimalMax, two).IsNegative() {
		t.Fatal("saturated quote_amount must stay non-negative")
	}
}
