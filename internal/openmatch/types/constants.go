package types

import "time"

// Domain-separation prefixes. Wire-exact; changing any of these changes
// every hash commitment the core produces.
const (
	BatchHashPrefix  = "openmatch:batch:v1:"
	ResultHashPrefix = "openmatch:result:v1:"
	TradeRootPrefix  = "openmatch:trade_root:v2:"
	SRSigningPrefix  = "openmatch:sr:v1:"
)

// Defaults for the recognized configuration options. These are overridden
// by params.Config; they exist here so every package that needs a sane
// standalone default (tests, the coordinator's zero value) has one without
// importing params.
const (
	DefaultMaxOrdersPerBatch      = 100_000
	DefaultMaxDeviationMultiplier = 10
	DefaultOrderRateWindow        = 1_000 * time.Millisecond
	DefaultMaxOrdersPerWindow     = 50
	DefaultMaxOrdersPerEpoch      = 10_000
	DefaultNonceCapPerNode        = 100_000
	DefaultIdempotencyCacheSize   = 1_000_000
	DefaultSpendRightExpiry       = 10 * time.Minute
	// DefaultSpendRightRetention bounds how many terminal SRs the store
	// keeps reachable via Get before the oldest-unvisited one is evicted.
	DefaultSpendRightRetention = 500_000
	// DefaultReceiptRingSize bounds the facade's audit-trail ring: the
	// oldest receipt is overwritten once the ring fills, rather than
	// growing the slice without limit.
	DefaultReceiptRingSize = 100_000
)
