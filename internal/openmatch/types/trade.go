package types

import "time"

// Trade records one fill produced by the matcher. Price is always the
// epoch's uniform clearing price; QuoteAmount = price * quantity, with
// saturating multiplication.
type Trade struct {
	Id           TradeId
	EpochId      EpochId
	Market       MarketPair
	TakerOrderId OrderId
	TakerUserId  UserId
	MakerOrderId OrderId
	MakerUserId  UserId
	Price        Decimal
	Quantity     Decimal
	QuoteAmount  Decimal
	TakerSide    Side
	MatcherNode  NodeId
	ExecutedAt   time.Time
}

// TakerIsBuyer reports whether the taker side of the trade is the buyer,
// which determines settlement direction in the ledger.
func (t *Trade) TakerIsBuyer() bool { return t.TakerSide == Buy }
