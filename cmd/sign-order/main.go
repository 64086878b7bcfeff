// sign-order is an operator utility that demonstrates the full SpendRight
// signing flow an ingress layer performs before calling submit_order: mint
// an SR, sign its canonical payload with a node's Ed25519 identity, and
// print the result as JSON for manual inspection. The /api/v1/orders
// endpoint does not accept these fields; the node mints its own SR there.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
	"github.com/uhyunpark/openmatch/pkg/crypto"
)

func main() {
	fmt.Println("Generating node identity (Ed25519)...")
	signer, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Node ID: %s\n\n", signer.NodeId())

	userId := types.NewUserId()
	orderId := types.NewOrderId()
	amount := decimal.NewFromInt(50000)

	sr := &types.SpendRight{
		Id:         types.NewSpendRightId(),
		OrderId:    orderId,
		UserId:     userId,
		Asset:      "USDT",
		Amount:     amount,
		IssuerNode: signer.NodeId(),
		State:      types.SRActive,
		Nonce:      1,
		EpochId:    types.EpochId(0),
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(types.DefaultSpendRightExpiry),
	}
	signer.SignSpendRight(sr)

	fmt.Println("SpendRight:")
	fmt.Printf("  Id:          %s\n", sr.Id)
	fmt.Printf("  Order:       %s\n", sr.OrderId)
	fmt.Printf("  User:        %s\n", sr.UserId)
	fmt.Printf("  Asset:       %s\n", sr.Asset)
	fmt.Printf("  Amount:      %s\n", types.CanonicalString(sr.Amount))
	fmt.Printf("  Signature:   %x\n", sr.Signature)
	fmt.Printf("  Fingerprint: %s\n\n", crypto.Fingerprint(sr.Signature))

	fmt.Println("Verifying signature...")
	if !crypto.Verify(signer.NodeId(), sr.SigningPayload(), sr.Signature) {
		fmt.Println("signature INVALID")
		os.Exit(1)
	}
	fmt.Println("signature VALID")

	proof := types.FreezeProof{
		UserId:    userId,
		Asset:     sr.Asset,
		Amount:    sr.Amount,
		IssuedAt:  sr.CreatedAt,
		ExpiresAt: sr.ExpiresAt,
	}

	out, err := json.MarshalIndent(struct {
		NodeId      string             `json:"nodeId"`
		SpendRight  *types.SpendRight  `json:"spendRight"`
		FreezeProof *types.FreezeProof `json:"freezeProof"`
	}{
		NodeId:      signer.NodeId().String(),
		SpendRight:  sr,
		FreezeProof: &proof,
	}, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nSigned SpendRight and freeze proof:")
	fmt.Println(string(out))
}
