package types

import "time"

type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// SideByte is the single byte used in the batch-hash preimage: 0x00 for
// Buy, 0x01 for Sell.
func (s Side) SideByte() byte {
	if s == Buy {
		return 0x00
	}
	return 0x01
}

type OrderType uint8

const (
	Limit OrderType = iota
	Market
	Cancel
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	default:
		return "cancel"
	}
}

type OrderStatus uint8

const (
	PendingEscrow OrderStatus = iota
	Active
	PartiallyFilled
	Filled
	Cancelled
)

func (s OrderStatus) String() string {
	switch s {
	case PendingEscrow:
		return "pending_escrow"
	case Active:
		return "active"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is the unit the pending buffer collects, the sealer sorts, and the
// matcher consumes. Price is nil for Market orders and non-nil (and > 0)
// for Limit orders; Cancel carries neither a meaningful price nor quantity.
type Order struct {
	Id           OrderId
	UserId       UserId
	Market       MarketPair
	Side         Side
	Type         OrderType
	Price        *Decimal
	Quantity     Decimal
	RemainingQty Decimal
	SrId         SpendRightId
	EpochId      *EpochId
	OriginNode   NodeId
	Sequence     uint64
	Status       OrderStatus
	CreatedAt    time.Time
}

// EffectivePrice maps an order to the sole comparable price used by sorting
// and the clearing solver: Limit orders use their own price; a Market buy
// is assigned the +Infinity sentinel (always crosses); a Market sell or a
// Cancel is assigned 0 (always crosses from below, and Cancel never enters
// the buys/sells partition in the first place).
func (o *Order) EffectivePrice() Decimal {
	switch o.Type {
	case Limit:
		if o.Price == nil {
			return Zero
		}
		return *o.Price
	case Market:
		if o.Side == Buy {
			return Infinity
		}
		return Zero
	default: // Cancel
		return Zero
	}
}

// Validate enforces the structural invariants: 0 <= remaining <= quantity;
// Limit implies a positive price; Market implies no price.
func (o *Order) Validate() *Error {
	if o.RemainingQty.IsNegative() || o.RemainingQty.GreaterThan(o.Quantity) {
		return New(ErrInvalidOrderQuantity, "remaining_qty must satisfy 0 <= remaining_qty <= quantity")
	}
	switch o.Type {
	case Limit:
		if o.Price == nil || !o.Price.IsPositive() {
			return New(ErrInvalidOrderPrice, "limit orders require a positive price")
		}
	case Market:
		if o.Price != nil {
			return New(ErrInvalidOrderPrice, "market orders must not carry a price")
		}
	}
	return nil
}
