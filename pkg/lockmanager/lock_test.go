package lockmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExclusiveUniqueness covers I1: exclusive implies exactly one owner.
func TestExclusiveUniqueness(t *testing.T) {
	l := NewLockRecord()
	assert.True(t, l.AcquireExclusive(1))
	assert.True(t, l.Exclusive())
	assert.Len(t, l.Owners(), 1)
}

func TestAcquireSharedRejectsAgainstExclusive(t *testing.T) {
	l := NewLockRecord()
	assert.True(t, l.AcquireExclusive(1))
	assert.False(t, l.AcquireShared(2))
}

func TestAcquireExclusiveRejectsAgainstAnyOwner(t *testing.T) {
	l := NewLockRecord()
	assert.True(t, l.AcquireShared(1))
	assert.False(t, l.AcquireExclusive(2))
}

func TestMultipleSharedOwnersAllowed(t *testing.T) {
	l := NewLockRecord()
	assert.True(t, l.AcquireShared(1))
	assert.True(t, l.AcquireShared(2))
	assert.True(t, l.AcquireShared(3))
	assert.Len(t, l.Owners(), 3)
	assert.False(t, l.Exclusive())
}

func TestAcquireSharedRejectsDuplicateOwner(t *testing.T) {
	l := NewLockRecord()
	assert.True(t, l.AcquireShared(1))
	assert.False(t, l.AcquireShared(1))
}

func TestUpgradeRequiresSoleSharedOwner(t *testing.T) {
	l := NewLockRecord()
	l.AcquireShared(1)
	l.AcquireShared(2)
	assert.False(t, l.Upgrade(1), "cannot upgrade while another transaction holds shared")

	l2 := NewLockRecord()
	l2.AcquireShared(1)
	assert.True(t, l2.Upgrade(1))
	assert.True(t, l2.Exclusive())
}

func TestReleaseIsNoOpForNonOwner(t *testing.T) {
	l := NewLockRecord()
	l.AcquireShared(1)
	l.Release(99)
	assert.True(t, l.hasOwner(1))
}

func TestReleaseClearsExclusiveOnceUnowned(t *testing.T) {
	l := NewLockRecord()
	l.AcquireExclusive(1)
	l.Release(1)
	assert.True(t, l.Unowned())
	assert.False(t, l.Exclusive())
}
