package lockmanager

import (
	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

// TransactionRecord is the per-transaction bookkeeping the spec calls for:
// a shrinking budget, the rows currently held, the 2PL phase, and the
// aborted flag. It is created by Register and destroyed only on abort —
// an ordinary release draining held back to empty leaves the record in
// place, Shrinking, so a later grant attempt against it still reports a
// phase violation rather than "not registered".
type TransactionRecord struct {
	id      uint32
	budget  uint32
	phase   types.Phase
	aborted bool
	held    []uint32 // ordered, no duplicates
}

// NewTransactionRecord creates a fresh, Growing-phase record with the
// given lock budget.
func NewTransactionRecord(id uint32, budget uint32) *TransactionRecord {
	return &TransactionRecord{id: id, budget: budget, phase: types.Growing}
}

func (t *TransactionRecord) ID() uint32          { return t.id }
func (t *TransactionRecord) Budget() uint32      { return t.budget }
func (t *TransactionRecord) Phase() types.Phase  { return t.phase }
func (t *TransactionRecord) Aborted() bool       { return t.aborted }
func (t *TransactionRecord) HeldCount() int      { return len(t.held) }

// Held returns a copy of the rows currently held by this transaction.
func (t *TransactionRecord) Held() []uint32 {
	out := make([]uint32, len(t.held))
	copy(out, t.held)
	return out
}

// HasLock reports whether this transaction currently holds rid.
func (t *TransactionRecord) HasLock(rid uint32) bool {
	for _, r := range t.held {
		if r == rid {
			return true
		}
	}
	return false
}

// AddLock records a successful grant of rid under the given lock record.
// It fails — without mutating anything — if the transaction is aborted,
// already shrinking, or out of budget, or if the lock record itself
// rejects the grant for mode.
func (t *TransactionRecord) AddLock(rid uint32, mode types.LockMode, lock *LockRecord) error {
	if t.aborted {
		return types.NewError(types.ErrNotRegistered, "transaction %d is aborted", t.id)
	}
	if t.phase == types.Shrinking {
		return types.NewError(types.ErrPhaseViolation, "transaction %d already shrinking", t.id)
	}
	if t.budget == 0 {
		return types.NewError(types.ErrBudgetExhausted, "transaction %d has no budget left", t.id)
	}

	var granted bool
	switch mode {
	case types.Shared:
		granted = lock.AcquireShared(t.id)
	case types.Exclusive:
		granted = lock.AcquireExclusive(t.id)
	}
	if !granted {
		return types.NewError(types.ErrLockConflict, "row %d incompatible with requested mode %s", rid, mode)
	}

	t.budget--
	t.held = append(t.held, rid)
	return nil
}

// Upgrade promotes this transaction's shared hold on rid to exclusive.
// Like AddLock it checks phase/abort state first and consumes no extra
// budget — an upgrade is not a new grant, just a mode change.
func (t *TransactionRecord) Upgrade(rid uint32, lock *LockRecord) error {
	if t.aborted {
		return types.NewError(types.ErrNotRegistered, "transaction %d is aborted", t.id)
	}
	if t.phase == types.Shrinking {
		return types.NewError(types.ErrPhaseViolation, "transaction %d already shrinking", t.id)
	}
	if !lock.Upgrade(t.id) {
		return types.NewError(types.ErrLockConflict, "row %d cannot be upgraded for transaction %d", rid, t.id)
	}
	return nil
}

// ReleaseLock releases rid if held. It is a no-op if rid is not held by
// this transaction. Otherwise it flips the transaction into Shrinking
// (2PL monotonicity — the transition never reverses), removes rid from
// held, releases the lock record, and reports whether the lock record is
// now unowned so the caller can reclaim it from the lock table.
func (t *TransactionRecord) ReleaseLock(rid uint32, lock *LockRecord) (nowUnowned bool) {
	idx := -1
	for i, r := range t.held {
		if r == rid {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	t.phase = types.Shrinking
	t.held = append(t.held[:idx], t.held[idx+1:]...)
	lock.Release(t.id)
	return lock.Unowned()
}

// Abort marks the transaction terminal. It only sets the aborted flag:
// held and the lock records are left as they are, and releasing the
// rows is up to the caller (the worker's abort path does it through
// (*Worker).forwardAbortReleases).
func (t *TransactionRecord) Abort() {
	t.aborted = true
}

// clone returns a deep copy for integrity-verified snapshotting.
func (t *TransactionRecord) clone() *TransactionRecord {
	return &TransactionRecord{
		id:      t.id,
		budget:  t.budget,
		phase:   t.phase,
		aborted: t.aborted,
		held:    append([]uint32(nil), t.held...),
	}
}
