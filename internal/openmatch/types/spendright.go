package types

import (
	"bytes"
	"crypto/sha256"
	"time"
)

type SpendRightState uint8

const (
	SRActive SpendRightState = iota
	SRSpent
	SRReleased
)

func (s SpendRightState) String() string {
	switch s {
	case SRActive:
		return "active"
	case SRSpent:
		return "spent"
	default:
		return "released"
	}
}

// SpendRight is the single-use token attesting that funds are frozen and
// spendable exactly once. Transitions are monotonic: Active -> Spent or
// Active -> Released; every other transition is rejected by the store.
type SpendRight struct {
	Id         SpendRightId
	OrderId    OrderId
	UserId     UserId
	Asset      Asset
	Amount     Decimal
	IssuerNode NodeId
	State      SpendRightState
	Signature  []byte
	Nonce      uint64
	EpochId    EpochId
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SigningPayload builds the canonical byte string an issuer node signs
// (Ed25519) to attest a SpendRight:
//
//	"openmatch:sr:v1:" || sr_id || order_id || user_id || asset ||
//	decimal_str(amount) || u64_le(nonce) || u64_le(epoch_id)
func (sr *SpendRight) SigningPayload() []byte {
	var buf bytes.Buffer
	buf.WriteString(SRSigningPrefix)
	buf.Write(sr.Id.Bytes())
	buf.Write(sr.OrderId.Bytes())
	buf.Write(sr.UserId.Bytes())
	buf.WriteString(sr.Asset)
	buf.WriteString(CanonicalString(sr.Amount))
	writeUint64LE(&buf, sr.Nonce)
	writeUint64LE(&buf, uint64(sr.EpochId))
	return buf.Bytes()
}

// Sha256Sum is a small helper used by callers that want the digest rather
// than the raw preimage (e.g. for logging a short fingerprint).
func Sha256Sum(b []byte) [32]byte {
	return sha256.Sum256(b)
}
