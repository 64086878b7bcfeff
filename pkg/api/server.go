// Package api is the thin REST/WebSocket ingress and egress glue in front
// of the epoch coordinator facade. It carries no matching or settlement
// logic of its own: every handler parses its request, calls straight into
// a *coordinator.Shard method, and translates the typed result (or
// *types.Error) back into JSON.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/openmatch/internal/openmatch/coordinator"
	"github.com/uhyunpark/openmatch/internal/openmatch/types"
	omcrypto "github.com/uhyunpark/openmatch/pkg/crypto"
)

// Server wraps one market shard with HTTP/WebSocket ingress.
type Server struct {
	shard  *coordinator.Shard
	market types.MarketPair
	signer *omcrypto.Signer
	log    *zap.SugaredLogger
	router *mux.Router
	hub    *Hub
}

// NewServer builds the router for a single shard. The signer only supplies
// the OriginNode of submitted orders; it may be nil, in which case
// OriginNode is left zero.
func NewServer(shard *coordinator.Shard, market types.MarketPair, signer *omcrypto.Signer, logger *zap.SugaredLogger) *Server {
	s := &Server{
		shard:  shard,
		market: market,
		signer: signer,
		log:    logger,
		router: mux.NewRouter(),
		hub:    NewHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/deposit", s.handleDeposit).Methods("POST")
	v1.HandleFunc("/withdraw", s.handleWithdraw).Methods("POST")
	v1.HandleFunc("/balances/{userId}/{asset}", s.handleGetBalance).Methods("GET")

	v1.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	v1.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	v1.HandleFunc("/epoch/phase", s.handleAdvancePhase).Methods("POST")
	v1.HandleFunc("/epoch/seal", s.handleSealEpoch).Methods("POST")
	v1.HandleFunc("/epoch/match", s.handleRunMatch).Methods("POST")
	v1.HandleFunc("/epoch/verify-supply", s.handleVerifySupply).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and serves HTTP.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ---- REST handlers -----------------------------------------------------

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	userId, amount, ok := s.parseUserAndAmount(w, req.UserId, req.Amount)
	if !ok {
		return
	}
	if err := s.shard.Deposit(userId, req.Asset, amount); err != nil {
		s.respondErr(w, err)
		return
	}
	s.log.Infow("deposit", "user", req.UserId, "asset", req.Asset, "amount", req.Amount)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	userId, amount, ok := s.parseUserAndAmount(w, req.UserId, req.Amount)
	if !ok {
		return
	}
	if err := s.shard.Withdraw(userId, req.Asset, amount); err != nil {
		s.respondErr(w, err)
		return
	}
	s.log.Infow("withdraw", "user", req.UserId, "asset", req.Asset, "amount", req.Amount)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userId, err := uuid.Parse(vars["userId"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Code: int(types.ErrInvalidOrder), Error: "invalid_user_id", Message: err.Error()})
		return
	}
	bal := s.shard.Ledger.Balance(types.UserId(userId), vars["asset"])
	respondJSON(w, http.StatusOK, BalanceResponse{
		UserId:    vars["userId"],
		Asset:     vars["asset"],
		Available: types.CanonicalString(bal.Available),
		Frozen:    types.CanonicalString(bal.Frozen),
	})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	userId, err := uuid.Parse(req.UserId)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, SubmitOrderResponse{Status: "rejected", Message: "invalid userId"})
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, SubmitOrderResponse{Status: "rejected", Message: "invalid quantity"})
		return
	}

	order := &types.Order{
		Id:           types.NewOrderId(),
		UserId:       types.UserId(userId),
		Market:       s.market,
		Quantity:     quantity,
		RemainingQty: quantity,
		Status:       types.PendingEscrow,
		CreatedAt:    time.Now(),
	}
	if s.signer != nil {
		order.OriginNode = s.signer.NodeId()
	}

	switch req.Side {
	case "buy":
		order.Side = types.Buy
	case "sell":
		order.Side = types.Sell
	default:
		respondJSON(w, http.StatusBadRequest, SubmitOrderResponse{Status: "rejected", Message: "side must be buy or sell"})
		return
	}

	switch req.Type {
	case "", "limit":
		order.Type = types.Limit
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, SubmitOrderResponse{Status: "rejected", Message: "limit orders require a price"})
			return
		}
		order.Price = &price
	case "market":
		order.Type = types.Market
	default:
		respondJSON(w, http.StatusBadRequest, SubmitOrderResponse{Status: "rejected", Message: "type must be limit or market"})
		return
	}

	orderId, omErr := s.shard.SubmitOrder(order, nil, time.Now().UnixMilli())
	if omErr != nil {
		s.log.Warnw("order_rejected", "user", req.UserId, "code", omErr.Code, "reason", omErr.Reason)
		respondJSON(w, http.StatusUnprocessableEntity, SubmitOrderResponse{Status: "rejected", Code: int(omErr.Code), Message: omErr.Reason})
		return
	}

	respondJSON(w, http.StatusOK, SubmitOrderResponse{Status: "submitted", OrderId: orderId.String()})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	_ = req
	respondJSON(w, http.StatusNotImplemented, ErrorResponse{
		Code:    int(types.ErrInternal),
		Error:   "not_implemented",
		Message: "cancel requires the pre-seal order object; route through the ingress layer that still holds it",
	})
}

func (s *Server) handleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	var req AdvancePhaseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	phase, ok := parsePhase(req.Phase)
	if !ok {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Code: int(types.ErrWrongEpochPhase), Error: "invalid_phase", Message: "phase must be one of collect/seal/match/finalize"})
		return
	}
	s.shard.AdvancePhase(phase)
	s.hub.BroadcastToChannel("epoch", WSMessage{Type: "epoch", Data: EpochUpdate{Type: "epoch", Phase: phase.String()}})
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "phase": phase.String()})
}

func (s *Server) handleSealEpoch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.shard.SealEpoch()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.log.Infow("epoch_sealed", "epoch_id", uint64(batch.EpochId), "order_count", len(batch.Orders))
	respondJSON(w, http.StatusOK, SealEpochResponse{
		EpochId:    uint64(batch.EpochId),
		BatchHash:  fmt.Sprintf("%x", batch.BatchHash),
		OrderCount: len(batch.Orders),
	})
}

func (s *Server) handleRunMatch(w http.ResponseWriter, r *http.Request) {
	// A preceding POST /epoch/seal already sealed this epoch; otherwise
	// seal now so match always runs over a committed input.
	batch := s.shard.LastSealed()
	if batch == nil {
		var omErr *types.Error
		batch, omErr = s.shard.SealEpoch()
		if omErr != nil {
			s.respondErr(w, omErr)
			return
		}
	}
	bundle := s.shard.RunMatch(batch)
	settled, failures := s.shard.ApplyBundle(bundle)

	trades := make([]TradeInfo, len(bundle.Trades))
	for i, t := range bundle.Trades {
		trades[i] = TradeInfo{
			Id:           t.Id.String(),
			EpochId:      uint64(t.EpochId),
			Price:        types.CanonicalString(t.Price),
			Quantity:     types.CanonicalString(t.Quantity),
			QuoteAmount:  types.CanonicalString(t.QuoteAmount),
			TakerOrderId: t.TakerOrderId.String(),
			MakerOrderId: t.MakerOrderId.String(),
			TakerSide:    t.TakerSide.String(),
		}
		s.hub.BroadcastToChannel("trades", WSMessage{Type: "trade", Data: trades[i]})
	}

	resp := MatchResultResponse{
		EpochId:    uint64(bundle.EpochId),
		Trades:     trades,
		ResultHash: fmt.Sprintf("%x", bundle.ResultHash),
		TradeRoot:  fmt.Sprintf("%x", bundle.TradeRoot),
		Settled:    settled,
		Failed:     len(failures),
	}
	if bundle.ClearingPrice != nil {
		resp.ClearingPrice = types.CanonicalString(bundle.ClearingPrice.Price)
	}
	s.log.Infow("epoch_matched", "epoch_id", resp.EpochId, "trades", len(trades), "settled", settled, "failed", len(failures))
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifySupply(w http.ResponseWriter, r *http.Request) {
	if err := s.shard.VerifySupply(); err != nil {
		s.log.Errorw("supply_invariant_violation", "reason", err.Reason, "fields", err.Fields)
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- helpers ------------------------------------------------------------

// parseUserAndAmount sits at the deposit/withdraw ingestion boundary:
// malformed input here never reaches the ledger, so the caller only needs
// the single-sentence reason, but operators debugging a flood of bad
// requests need the call chain -- errors.Wrap carries that stack without
// it ever crossing the wire.
func (s *Server) parseUserAndAmount(w http.ResponseWriter, userIdStr, amountStr string) (types.UserId, types.Decimal, bool) {
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		s.log.Debugw("ingress_parse_failed", "field", "userId", "err", fmt.Sprintf("%+v", errors.Wrap(err, "parse user id")))
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Code: int(types.ErrInvalidOrder), Error: "invalid_user_id", Message: err.Error()})
		return types.UserId{}, types.Decimal{}, false
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		s.log.Debugw("ingress_parse_failed", "field", "amount", "err", fmt.Sprintf("%+v", errors.Wrap(err, "parse amount")))
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Code: int(types.ErrInvalidOrder), Error: "invalid_amount", Message: err.Error()})
		return types.UserId{}, types.Decimal{}, false
	}
	return types.UserId(userId), amount, true
}

func (s *Server) respondErr(w http.ResponseWriter, err *types.Error) {
	status := http.StatusUnprocessableEntity
	if err.Code >= 900 {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, ErrorResponse{Code: int(err.Code), Error: fmt.Sprintf("OM_ERR_%d", err.Code), Message: err.Reason})
}

func parsePhase(s string) (types.EpochPhase, bool) {
	switch s {
	case "collect":
		return types.PhaseCollect, true
	case "seal":
		return types.PhaseSeal, true
	case "match":
		return types.PhaseMatch, true
	case "finalize":
		return types.PhaseFinalize, true
	default:
		return 0, false
	}
}

// decodeJSON is the outermost ingestion boundary: every handler's first
// call. Wrapping here means a malformed-body incident report carries the
// decode call chain even though the client only ever sees the reason.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		wrapped := errors.Wrap(err, "decode request body")
		s.log.Debugw("ingress_decode_failed", "err", fmt.Sprintf("%+v", wrapped))
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Code: int(types.ErrSerialization), Error: "invalid_request_body", Message: err.Error()})
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
