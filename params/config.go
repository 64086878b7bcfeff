// Package params carries the node's recognized configuration options: a
// struct literal of sane defaults, optionally overridden by a .env file
// and then by process environment variables.
package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/uhyunpark/openmatch/internal/openmatch/coordinator"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// EpochPhaseDurations controls how long the node's epoch loop dwells in
// each phase of the Collect/Seal/Match/Finalize cycle before advancing.
type EpochPhaseDurations struct {
	Collect  time.Duration
	Seal     time.Duration
	Match    time.Duration
	Finalize time.Duration
}

// Node carries node-identity and transport settings.
type Node struct {
	ListenAddr string
	LogFile    string
	SeedHex    string // hex-encoded 32-byte Ed25519 seed; empty generates a fresh key at startup
}

// Config is the full recognized configuration surface for one matching
// shard plus its glue layer.
type Config struct {
	Market      coordinator.Config
	EpochPhases EpochPhaseDurations
	Node        Node
}

// Default returns the engine's literal defaults: 100,000 orders per
// batch, a 10x max deviation multiplier, and the coordinator's own
// DefaultConfig for everything else.
func Default() Config {
	return Config{
		Market: coordinator.DefaultConfig(),
		EpochPhases: EpochPhaseDurations{
			Collect:  2 * time.Second,
			Seal:     200 * time.Millisecond,
			Match:    200 * time.Millisecond,
			Finalize: 100 * time.Millisecond,
		},
		Node: Node{
			ListenAddr: ":8080",
			LogFile:    "data/node.log",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and then
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("OM_MAX_ORDERS_PER_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.MaxOrdersPerBatch = n
		}
	}
	if v := os.Getenv("OM_MAX_DEVIATION_MULTIPLIER"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.MaxDeviationMultiplier = n
		}
	}
	if v := os.Getenv("OM_ORDER_RATE_WINDOW_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.OrderRateWindowMs = n
		}
	}
	if v := os.Getenv("OM_MAX_ORDERS_PER_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.MaxOrdersPerWindow = n
		}
	}
	if v := os.Getenv("OM_MAX_ORDERS_PER_USER_EPOCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.MaxOrdersPerUserEpoch = n
		}
	}
	if v := os.Getenv("OM_NONCE_CAP_PER_NODE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.NonceCapPerNode = n
		}
	}
	if v := os.Getenv("OM_IDEMPOTENCY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.IdempotencyCacheSize = n
		}
	}
	if v := os.Getenv("OM_SR_EXPIRY_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.SpendRightExpiry = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("OM_SR_RETENTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.SpendRightRetention = n
		}
	}
	if v := os.Getenv("OM_RECEIPT_RING_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.ReceiptRingSize = n
		}
	}
	if v := os.Getenv("OM_EPOCH_COLLECT_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.EpochPhases.Collect = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("OM_LISTEN_ADDR"); v != "" {
		cfg.Node.ListenAddr = v
	}
	if v := os.Getenv("OM_LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}
	if v := os.Getenv("OM_NODE_SEED_HEX"); v != "" {
		cfg.Node.SeedHex = v
	}

	return cfg
}

// MarketPairFromSymbol splits a "BASE/QUOTE" symbol into a MarketPair,
// defaulting to BTC/USDT when unset -- the node's sole market at startup.
func MarketPairFromSymbol(symbol string) types.MarketPair {
	if symbol == "" {
		return types.MarketPair{Base: "BTC", Quote: "USDT"}
	}
	for i := range symbol {
		if symbol[i] == '/' {
			return types.MarketPair{Base: symbol[:i], Quote: symbol[i+1:]}
		}
	}
	return types.MarketPair{Base: symbol, Quote: "USDT"}
}
