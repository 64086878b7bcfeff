package main

import (
	"context"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/openmatch/internal/openmatch/coordinator"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
	"github.com/uhyunpark/openmatch/params"
	"github.com/uhyunpark/openmatch/pkg/api"
	"github.com/uhyunpark/openmatch/pkg/crypto"
	"github.com/uhyunpark/openmatch/pkg/util"
)

func main() {
	// Load config from .env file and environment variables.
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	logFile := os.Getenv("OM_LOG_FILE")
	if logFile == "" {
		logFile = cfg.Node.LogFile
	}

	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Node identity ----
	signer, err := nodeSigner(cfg.Node.SeedHex)
	if err != nil {
		sugar.Fatalw("signer_init_failed", "err", err)
	}
	sugar.Infow("node_identity", "node_id", signer.NodeId().String())

	// ---- Matching shard: single market, single-threaded executor ----
	market := params.MarketPairFromSymbol(os.Getenv("OM_MARKET"))
	shard := coordinator.NewShard(signer.NodeId(), market, cfg.Market)
	sugar.Infow("shard_initialized", "market", market.Symbol(), "max_orders_per_batch", cfg.Market.MaxOrdersPerBatch)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API server ----
	apiAddr := os.Getenv("OM_LISTEN_ADDR")
	if apiAddr == "" {
		apiAddr = cfg.Node.ListenAddr
	}
	apiServer := api.NewServer(shard, market, signer, sugar)
	go func() {
		if err := apiServer.Start(apiAddr); err != nil && ctx.Err() == nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("node_starting", "market", market.Symbol(), "listen_addr", apiAddr)

	runEpochLoop(ctx, shard, signer, cfg.EpochPhases, sugar)
}

// runEpochLoop drives the Collect -> Seal -> Match -> Finalize cycle on a
// wall-clock cadence. The core's own phase machine only reacts to whatever
// AdvancePhase/SealEpoch/RunMatch/ApplyBundle calls this loop makes, same
// as an external API-driven caller would.
func runEpochLoop(ctx context.Context, shard *coordinator.Shard, signer *crypto.Signer, phases params.EpochPhaseDurations, sugar *zap.SugaredLogger) {
	clock := util.RealClock{}
	for {
		if ctx.Err() != nil {
			return
		}

		shard.AdvancePhase(types.PhaseCollect)
		if !sleepCtx(ctx, clock, phases.Collect) {
			return
		}

		shard.AdvancePhase(types.PhaseSeal)
		batch, err := shard.SealEpoch()
		if err != nil {
			sugar.Warnw("seal_failed", "reason", err.Reason)
			shard.NewEpoch()
			continue
		}
		digest := signer.SignBatchDigest(batch)
		sugar.Infow("epoch_sealed",
			"epoch_id", uint64(batch.EpochId),
			"order_count", len(batch.Orders),
			"batch_hash", hex.EncodeToString(batch.BatchHash[:]),
			"digest_sig", crypto.Fingerprint(digest.Signature))
		if !sleepCtx(ctx, clock, phases.Seal) {
			return
		}

		shard.AdvancePhase(types.PhaseMatch)
		bundle := shard.RunMatch(batch)
		settled, failures := shard.ApplyBundle(bundle)
		sugar.Infow("epoch_matched",
			"epoch_id", uint64(bundle.EpochId),
			"trades", len(bundle.Trades),
			"settled", settled,
			"failed", len(failures),
			"result_hash", hex.EncodeToString(bundle.ResultHash[:]),
			"trade_root", hex.EncodeToString(bundle.TradeRoot[:]))
		for id, ferr := range failures {
			sugar.Errorw("settlement_failed", "trade_id", id.String(), "reason", ferr.Reason)
		}
		if !sleepCtx(ctx, clock, phases.Match) {
			return
		}

		shard.AdvancePhase(types.PhaseFinalize)
		if err := shard.VerifySupply(); err != nil {
			// Silent continuation after a conservation break is forbidden:
			// halt the shard and surface the fault.
			sugar.Fatalw("supply_invariant_violation", "reason", err.Reason, "fields", err.Fields)
		}
		if !sleepCtx(ctx, clock, phases.Finalize) {
			return
		}

		shard.NewEpoch()
	}
}

func sleepCtx(ctx context.Context, clock util.Clock, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(d):
		return true
	}
}

func nodeSigner(seedHex string) (*crypto.Signer, error) {
	if seedHex == "" {
		return crypto.GenerateKey()
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	return crypto.FromSeed(seed)
}
