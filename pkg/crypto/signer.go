// Package crypto provides the Ed25519 node-identity signer used to attest
// SpendRights and BatchDigests over the canonical payloads defined by the
// matching core (see internal/openmatch/types). The wire format is raw
// Ed25519 over flat byte strings, not secp256k1/EIP-712 typed data, so this
// package wraps the standard library's crypto/ed25519 directly rather than
// an Ethereum-style curve.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// Signer manages an Ed25519 key pair for a single matching node. The public
// key doubles as the node's 32-byte NodeId.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// GenerateKey creates a new random Ed25519 key pair.
func GenerateKey() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return &Signer{priv: priv, pub: pub}, nil
}

// FromSeed rebuilds a Signer from a 32-byte seed, the way an operator
// provisions a node's identity from a config secret.
func FromSeed(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("crypto: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// NodeId returns the node identity this signer attests with.
func (s *Signer) NodeId() types.NodeId {
	id, _ := types.NodeIdFromPublicKey(s.pub)
	return id
}

// Sign signs an arbitrary canonical payload. Ed25519 hashes internally, so
// callers pass the raw preimage rather than a pre-hashed digest.
func (s *Signer) Sign(payload []byte) []byte {
	return ed25519.Sign(s.priv, payload)
}

// Verify checks a signature against a node's public key.
func Verify(node types.NodeId, payload, signature []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(node.Bytes()), payload, signature)
}

// SignSpendRight signs an SR's canonical payload and writes the result
// into sr.Signature, matching the issuer flow: mint, then attest.
func (s *Signer) SignSpendRight(sr *types.SpendRight) {
	sr.Signature = s.Sign(sr.SigningPayload())
}

// SignBatchDigest builds and signs the cross-node comparison artifact for a
// sealed batch.
func (s *Signer) SignBatchDigest(batch *types.SealedBatch) types.BatchDigest {
	digest := types.BatchDigest{
		EpochId:    batch.EpochId,
		BatchHash:  batch.BatchHash,
		OrderCount: len(batch.Orders),
		SignerNode: s.NodeId(),
	}
	digest.Signature = s.Sign(digestPayload(digest))
	return digest
}

// VerifyBatchDigest checks a BatchDigest's signature against its embedded
// signer node.
func VerifyBatchDigest(digest types.BatchDigest) bool {
	return Verify(digest.SignerNode, digestPayload(digest), digest.Signature)
}

// digestPayload is the canonical preimage a node signs over a BatchDigest:
// "openmatch:digest:v1:" || u64_le(epoch_id) || batch_hash || u64_le(#orders).
func digestPayload(d types.BatchDigest) []byte {
	buf := make([]byte, 0, len(digestPrefix)+8+32+8)
	buf = append(buf, digestPrefix...)
	buf = appendUint64LE(buf, uint64(d.EpochId))
	buf = append(buf, d.BatchHash[:]...)
	buf = appendUint64LE(buf, uint64(d.OrderCount))
	return buf
}

const digestPrefix = "openmatch:digest:v1:"

func appendUint64LE(buf []byte, v uint64) []byte {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], v)
	return append(buf, n[:]...)
}

// Fingerprint returns a short, log-safe blake2b-256 digest of an arbitrary
// payload (a signature, a signing preimage) so operators can correlate log
// lines without ever printing the raw secret material.
func Fingerprint(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return fmt.Sprintf("%x", sum[:8])
}
