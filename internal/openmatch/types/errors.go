package types

import "fmt"

// Code is a stable OM_ERR_### taxonomy code. Codes are grouped by subsystem:
// orders 1xx, balances 2xx, SRs 3xx, epochs 4xx, matching 5xx, settlement
// 6xx, network 7xx, security 8xx, internal 9xx.
type Code int

const (
	ErrInvalidOrder Code = 100 + iota
	ErrInvalidOrderPrice
	ErrInvalidOrderQuantity
	ErrInvalidOrderAsset
	ErrInvalidOrderSpendRight
)

const (
	ErrInsufficientBalance Code = 200
	ErrInsufficientFrozen  Code = 201
)

const (
	ErrInvalidSpendRight          Code = 300
	ErrSpendRightExpired          Code = 301
	ErrSpendRightSignatureInvalid Code = 302
	ErrSpendRightNonceReused      Code = 303
)

const (
	ErrWrongEpochPhase     Code = 400
	ErrEpochTimeout        Code = 401
	ErrBufferAlreadySealed Code = 402
	ErrBufferFull          Code = 403
)

const (
	ErrMatchingFailed       Code = 500
	ErrDeterminismViolation Code = 501
	ErrSelfTradeBlocked     Code = 502
)

const (
	ErrSettlementFailed           Code = 600
	ErrOnChainRejected            Code = 601
	ErrTradeAlreadySettled        Code = 602
	ErrWithdrawLockedDuringSettle Code = 603
)

const (
	ErrNetwork       Code = 700
	ErrSerialization Code = 701
	ErrIO            Code = 702
)

const (
	ErrRateLimitExceeded        Code = 800
	ErrSupplyInvariantViolation Code = 801
	ErrNonceReplay              Code = 802
	ErrOrderFloodDetected       Code = 803
	ErrSuspiciousPrice          Code = 804
)

const (
	ErrInternal Code = 900
)

// Error is the single structured error type returned across every core
// interface. Reason is a single-sentence, user-visible explanation; Fields
// carries structured context (needed/available, diff, etc.) for logging.
type Error struct {
	Code   Code
	Reason string
	Fields map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("OM_ERR_%d: %s", e.Code, e.Reason)
}

func New(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}

func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// Is supports errors.Is matching purely on Code, so callers can write
// errors.Is(err, types.New(types.ErrInsufficientBalance, "")) style checks.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
