package types

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// OrderId, UserId, TradeId and SpendRightId are 128-bit time-ordered
// identifiers, monotonic within a node. UUIDv7 embeds a millisecond
// timestamp in its high bits, which is exactly the "time-ordered unique
// identifier" the data model calls for.

type OrderId uuid.UUID
type UserId uuid.UUID
type TradeId uuid.UUID
type SpendRightId uuid.UUID

func NewOrderId() OrderId           { return OrderId(mustV7()) }
func NewUserId() UserId             { return UserId(mustV7()) }
func NewSpendRightId() SpendRightId { return SpendRightId(mustV7()) }

func mustV7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the process's entropy source is broken;
		// there is no sane recovery path for the matching core.
		panic(fmt.Errorf("openmatch: uuid v7 generation failed: %w", err))
	}
	return id
}

func (o OrderId) String() string      { return uuid.UUID(o).String() }
func (u UserId) String() string       { return uuid.UUID(u).String() }
func (t TradeId) String() string      { return uuid.UUID(t).String() }
func (s SpendRightId) String() string { return uuid.UUID(s).String() }

func (o OrderId) Bytes() []byte { id := uuid.UUID(o); return id[:] }
func (u UserId) Bytes() []byte  { id := uuid.UUID(u); return id[:] }
func (t TradeId) Bytes() []byte { id := uuid.UUID(t); return id[:] }
func (s SpendRightId) Bytes() []byte {
	id := uuid.UUID(s)
	return id[:]
}

// tradeIdPrefix domain-separates deterministic trade identifiers from every
// other hash commitment in the core.
const tradeIdPrefix = "openmatch:trade_id:v2:"

// DeterministicTradeId derives a TradeId from (epoch_id, fill_sequence)
// alone, so every node matching the same sealed batch assigns the same
// trade IDs without coordination. Only the first 16 bytes of the digest
// are kept, matching TradeId's 128-bit width.
func DeterministicTradeId(epochID EpochId, fillSequence uint64) TradeId {
	h := sha256.New()
	h.Write([]byte(tradeIdPrefix))
	writeUint64LE(h, uint64(epochID))
	writeUint64LE(h, fillSequence)
	sum := h.Sum(nil)
	var id uuid.UUID
	copy(id[:], sum[:16])
	return TradeId(id)
}

func writeUint64LE(w io.Writer, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}

// NodeId is a 32-byte Ed25519 public key identifying a matching node.
type NodeId [32]byte

func NodeIdFromPublicKey(pub []byte) (NodeId, error) {
	var n NodeId
	if len(pub) != len(n) {
		return n, fmt.Errorf("openmatch: node public key must be %d bytes, got %d", len(n), len(pub))
	}
	copy(n[:], pub)
	return n, nil
}

func (n NodeId) Bytes() []byte { return n[:] }

// Short renders the first 4 bytes as hex, the human-readable node
// identifier used in logs.
func (n NodeId) Short() string { return hex.EncodeToString(n[:4]) }

func (n NodeId) String() string { return "node:" + hex.EncodeToString(n[:8]) }

// EpochId is a monotonic, unsigned 64-bit epoch counter.
type EpochId uint64

func (e EpochId) Next() EpochId { return e + 1 }

// MarketPair names a base/quote asset pair, e.g. BTC/USDT.
type MarketPair struct {
	Base  string
	Quote string
}

func (m MarketPair) Symbol() string { return m.Base + "/" + m.Quote }

// Asset is an interned string symbol; equality is case-sensitive exact match.
type Asset = string
