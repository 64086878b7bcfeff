package api

// Request/response DTOs for the REST ingress/egress glue. None of these
// carry matching or settlement logic -- they only translate between JSON
// over the wire and the coordinator.Shard facade's typed arguments.

// DepositRequest is the payload for POST /api/v1/deposit.
type DepositRequest struct {
	UserId string `json:"userId"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"` // canonical decimal string
}

// WithdrawRequest is the payload for POST /api/v1/withdraw.
type WithdrawRequest struct {
	UserId string `json:"userId"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// BalanceResponse reports one (user, asset) coordinate's current entry.
type BalanceResponse struct {
	UserId    string `json:"userId"`
	Asset     string `json:"asset"`
	Available string `json:"available"`
	Frozen    string `json:"frozen"`
}

// SubmitOrderRequest is the payload for POST /api/v1/orders. It carries no
// freeze proof: the shard mints the order's SpendRight itself, freezing the
// funding amount out of the user's available balance.
type SubmitOrderRequest struct {
	UserId   string `json:"userId"`
	Side     string `json:"side"` // "buy" | "sell"
	Type     string `json:"type"` // "limit" (default when empty) | "market"
	Price    string `json:"price,omitempty"`
	Quantity string `json:"quantity"`
}

// SubmitOrderResponse is the response from order submission.
type SubmitOrderResponse struct {
	Status  string `json:"status"` // "submitted" | "rejected"
	OrderId string `json:"orderId,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel.
type CancelOrderRequest struct {
	OrderId string `json:"orderId"`
}

// AdvancePhaseRequest drives the epoch phase machine externally. The real
// wall-clock pacing loop lives in cmd/node; this endpoint exists for
// manual/administrative phase control and tests.
type AdvancePhaseRequest struct {
	Phase string `json:"phase"` // "collect" | "seal" | "match" | "finalize"
}

// SealEpochResponse mirrors seal_epoch()'s (batch_hash, #orders) return.
type SealEpochResponse struct {
	EpochId    uint64 `json:"epochId"`
	BatchHash  string `json:"batchHash"`
	OrderCount int    `json:"orderCount"`
}

// TradeInfo is one settled or attempted trade, surfaced over REST/WS.
type TradeInfo struct {
	Id           string `json:"id"`
	EpochId      uint64 `json:"epochId"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	QuoteAmount  string `json:"quoteAmount"`
	TakerOrderId string `json:"takerOrderId"`
	MakerOrderId string `json:"makerOrderId"`
	TakerSide    string `json:"takerSide"`
}

// MatchResultResponse is the REST projection of a TradeBundle.
type MatchResultResponse struct {
	EpochId       uint64      `json:"epochId"`
	Trades        []TradeInfo `json:"trades"`
	ResultHash    string      `json:"resultHash"`
	TradeRoot     string      `json:"tradeRoot"`
	ClearingPrice string      `json:"clearingPrice,omitempty"`
	Settled       int         `json:"settled"`
	Failed        int         `json:"failed"`
}

// ErrorResponse is returned for every rejected request, carrying the
// stable OM_ERR_### code alongside a single-sentence reason.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WSMessage is the base structure for all WebSocket broadcast messages.
type WSMessage struct {
	Type string      `json:"type"` // "trade" | "epoch"
	Data interface{} `json:"data"`
}

// WSSubscribeRequest is sent by a client to subscribe to channels.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}

// EpochUpdate is broadcast on the "epoch" channel when a phase change is
// made through POST /api/v1/epoch/phase. Phase changes made by the node's
// own epoch loop are not broadcast, and EpochId is not filled in.
type EpochUpdate struct {
	Type    string `json:"type"` // "epoch"
	EpochId uint64 `json:"epochId"`
	Phase   string `json:"phase"`
}
