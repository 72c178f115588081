package lockmanager

// LockRecord is the state of one row's access grant: whether it is held
// exclusively, and the ordered set of transactions currently holding it.
// A LockRecord is created lazily on first grant for a row and destroyed
// once its owner set empties — see (*Worker).acquireLock and
// (*TransactionRecord).ReleaseLock.
//
// All operations are soft-failing: a rejected acquire/upgrade never
// panics, it just returns false and leaves the caller to abort.
type LockRecord struct {
	exclusive bool
	owners    []uint32 // ordered, no duplicates
}

// NewLockRecord returns an empty, unowned lock record.
func NewLockRecord() *LockRecord {
	return &LockRecord{}
}

// Exclusive reports whether the lock is currently held exclusively.
func (l *LockRecord) Exclusive() bool {
	return l.exclusive
}

// Owners returns a copy of the owner set, oldest grant first.
func (l *LockRecord) Owners() []uint32 {
	out := make([]uint32, len(l.owners))
	copy(out, l.owners)
	return out
}

// Unowned reports whether the lock has no holders and may be reclaimed
// from its table.
func (l *LockRecord) Unowned() bool {
	return len(l.owners) == 0
}

func (l *LockRecord) hasOwner(tid uint32) bool {
	for _, o := range l.owners {
		if o == tid {
			return true
		}
	}
	return false
}

// AcquireShared grants a shared hold to tid. It fails if the lock is
// currently exclusive.
func (l *LockRecord) AcquireShared(tid uint32) bool {
	if l.exclusive {
		return false
	}
	if l.hasOwner(tid) {
		return false
	}
	l.owners = append(l.owners, tid)
	return true
}

// AcquireExclusive grants an exclusive hold to tid. It fails unless the
// lock is completely unowned.
func (l *LockRecord) AcquireExclusive(tid uint32) bool {
	if !l.Unowned() {
		return false
	}
	l.exclusive = true
	l.owners = append(l.owners, tid)
	return true
}

// Upgrade promotes a solely-held shared lock into an exclusive lock for
// the same transaction. It fails unless tid is the lock's only owner and
// the lock is not already exclusive.
func (l *LockRecord) Upgrade(tid uint32) bool {
	if l.exclusive {
		return false
	}
	if len(l.owners) != 1 || l.owners[0] != tid {
		return false
	}
	l.exclusive = true
	return true
}

// Release removes tid from the owner set. A release by a non-owner is a
// silent no-op, matching the soft-failure policy of this component. Once
// the owner set empties, the exclusive flag is cleared too so a reused
// LockRecord starts clean.
func (l *LockRecord) Release(tid uint32) {
	for i, o := range l.owners {
		if o == tid {
			l.owners = append(l.owners[:i], l.owners[i+1:]...)
			break
		}
	}
	if len(l.owners) == 0 {
		l.exclusive = false
	}
}

// clone returns a deep copy, used when a worker snapshots a bucket into
// its integrity-verified working copy.
func (l *LockRecord) clone() *LockRecord {
	return &LockRecord{exclusive: l.exclusive, owners: append([]uint32(nil), l.owners...)}
}
