package lockmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

func TestAddLockConsumesBudgetAndRecordsHeld(t *testing.T) {
	txn := NewTransactionRecord(1, 2)
	lock := NewLockRecord()

	require.NoError(t, txn.AddLock(10, types.Shared, lock))
	assert.Equal(t, uint32(1), txn.Budget())
	assert.True(t, txn.HasLock(10))
	assert.Equal(t, types.Growing, txn.Phase())
}

func TestAddLockFailsWhenBudgetExhausted(t *testing.T) {
	txn := NewTransactionRecord(1, 0)
	err := txn.AddLock(10, types.Shared, NewLockRecord())
	assert.Equal(t, types.ErrBudgetExhausted, types.KindOf(err))
}

func TestAddLockFailsOncePhaseIsShrinking(t *testing.T) {
	txn := NewTransactionRecord(1, 5)
	lock := NewLockRecord()
	require.NoError(t, txn.AddLock(1, types.Shared, lock))
	txn.ReleaseLock(1, lock)
	assert.Equal(t, types.Shrinking, txn.Phase())

	err := txn.AddLock(2, types.Shared, NewLockRecord())
	assert.Equal(t, types.ErrPhaseViolation, types.KindOf(err))
}

func TestAddLockFailsWhenAborted(t *testing.T) {
	txn := NewTransactionRecord(1, 5)
	txn.Abort()
	err := txn.AddLock(1, types.Shared, NewLockRecord())
	assert.Equal(t, types.ErrNotRegistered, types.KindOf(err))
}

func TestAddLockFailsWhenLockRejects(t *testing.T) {
	txn := NewTransactionRecord(1, 5)
	lock := NewLockRecord()
	lock.AcquireExclusive(2)

	err := txn.AddLock(1, types.Shared, lock)
	assert.Equal(t, types.ErrLockConflict, types.KindOf(err))
	assert.Equal(t, uint32(5), txn.Budget(), "rejected grant must not consume budget")
}

func TestReleaseLockIsNoOpWhenNotHeld(t *testing.T) {
	txn := NewTransactionRecord(1, 5)
	unowned := txn.ReleaseLock(99, NewLockRecord())
	assert.False(t, unowned)
	assert.Equal(t, types.Growing, txn.Phase())
}

func TestReleaseLockReportsUnownedAfterLastHolderLeaves(t *testing.T) {
	txn := NewTransactionRecord(1, 5)
	lock := NewLockRecord()
	require.NoError(t, txn.AddLock(1, types.Exclusive, lock))

	unowned := txn.ReleaseLock(1, lock)
	assert.True(t, unowned)
	assert.False(t, txn.HasLock(1))
	assert.Equal(t, 0, txn.HeldCount())
}

func TestCloneIsIndependentCopy(t *testing.T) {
	txn := NewTransactionRecord(1, 5)
	lock := NewLockRecord()
	require.NoError(t, txn.AddLock(1, types.Shared, lock))

	clone := txn.clone()
	clone.held = append(clone.held, 999)

	assert.NotContains(t, txn.Held(), uint32(999))
}
