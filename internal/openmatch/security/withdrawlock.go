package security

import (
	"sync"

	"github.com/uhyunpark/openmatch/internal/openmatch/types"
)

// WithdrawLock gates withdrawals by the current epoch phase: permitted
// during Collect and Seal, blocked during Match and Finalize, plus an
// emergency override that blocks unconditionally. Funds referenced by a
// bundle mid-settlement must not be withdrawable out from under it.
type WithdrawLock struct {
	mu        sync.Mutex
	phase     types.EpochPhase
	emergency bool
}

func NewWithdrawLock() *WithdrawLock {
	return &WithdrawLock{phase: types.PhaseCollect}
}

func (w *WithdrawLock) SetPhase(phase types.EpochPhase) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.phase = phase
}

func (w *WithdrawLock) SetEmergencyLock(locked bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emergency = locked
}

func (w *WithdrawLock) WithdrawalsAllowed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.emergency {
		return false
	}
	return w.phase == types.PhaseCollect || w.phase == types.PhaseSeal
}

func (w *WithdrawLock) CheckWithdraw() *types.Error {
	if !w.WithdrawalsAllowed() {
		return types.New(types.ErrWithdrawLockedDuringSettle, "withdrawals are locked during match/finalize")
	}
	return nil
}
