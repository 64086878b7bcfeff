package crypto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

func TestSignAndVerifySpendRight(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	sr := &types.SpendRight{
		Id:         types.NewSpendRightId(),
		OrderId:    types.NewOrderId(),
		UserId:     types.NewUserId(),
		Asset:      "USDT",
		Amount:     decimal.NewFromInt(100),
		IssuerNode: signer.NodeId(),
		Nonce:      1,
		EpochId:    types.EpochId(7),
		CreatedAt:  time.Now(),
	}
	signer.SignSpendRight(sr)

	if len(sr.Signature) == 0 {
		t.Fatal("expected a non-empty signature")
	}
	if !Verify(signer.NodeId(), sr.SigningPayload(), sr.Signature) {
		t.Fatal("signature did not verify against the signer's own node id")
	}

	// Tampering with any signed field must invalidate the signature.
	sr.Nonce++
	if Verify(signer.NodeId(), sr.SigningPayload(), sr.Signature) {
		t.Fatal("signature verified after payload was mutated")
	}
}

func TestSignAndVerifyBatchDigest(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	batch := &types.SealedBatch{
		EpochId:    types.EpochId(42),
		BatchHash:  types.Sha256Sum([]byte("example sealed batch")),
		SealerNode: signer.NodeId(),
		SealedAt:   time.Now(),
	}

	digest := signer.SignBatchDigest(batch)
	if !VerifyBatchDigest(digest) {
		t.Fatal("batch digest signature did not verify")
	}

	digest.OrderCount++
	if VerifyBatchDigest(digest) {
		t.Fatal("batch digest verified after order count was tampered with")
	}

	digest.OrderCount--
	digest.EpochId++
	if VerifyBatchDigest(digest) {
		t.Fatal("batch digest verified after epoch id was tampered with")
	}
}

func TestFingerprintIsStableAndShort(t *testing.T) {
	payload := []byte("some signature bytes")
	a := Fingerprint(payload)
	b := Fingerprint(payload)
	if a != b {
		t.Fatalf("fingerprint not stable: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("fingerprint length = %d, want 16 hex chars", len(a))
	}
}
