package lockmanager

import "sync"

// entry is one (key, value) pair in a bucket chain.
type entry[V any] struct {
	key   uint32
	value V
}

// ShardedTable is the fixed-capacity hash map behind both the lock table
// and the transaction table. Row/transaction id r hashes to bucket
// r mod N. Each bucket is an unordered chain of entries; Set enforces
// first-writer-wins (I7) rather than overwriting.
//
// Buckets are partitioned one-per-owner-worker (see Dispatcher), so in
// steady state a bucket is touched by exactly one goroutine. The mutex
// here is not load-bearing for that case — it exists because the
// transaction table is, by design, also mutated directly by lock
// workers while they run acquireLock (see Worker), which makes
// concurrent touches of the *same* transaction-table bucket from two
// different lock workers a real possibility. The dispatcher's
// registration pre-flight check is a third, read-only, concurrent
// accessor. The mutex keeps all three safe without weakening the
// per-bucket ownership discipline for the lock table. It is one mutex
// for the whole table, so lock workers touching different lock-table
// buckets still take turns on it.
type ShardedTable[V any] struct {
	mu      sync.Mutex
	buckets [][]entry[V]
	size    int
}

// NewShardedTable allocates a table with the given number of buckets.
func NewShardedTable[V any](size int) *ShardedTable[V] {
	if size <= 0 {
		size = 1
	}
	return &ShardedTable[V]{buckets: make([][]entry[V], size), size: size}
}

// Size returns the number of buckets.
func (t *ShardedTable[V]) Size() int { return t.size }

// BucketIndex returns the bucket a key hashes to.
func (t *ShardedTable[V]) BucketIndex(key uint32) int {
	return int(key % uint32(t.size))
}

// Get walks the chain of key's bucket.
func (t *ShardedTable[V]) Get(key uint32) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getLocked(key)
}

func (t *ShardedTable[V]) getLocked(key uint32) (V, bool) {
	idx := t.BucketIndex(key)
	for _, e := range t.buckets[idx] {
		if e.key == key {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Set inserts v at key only if key is absent; a duplicate Set is ignored
// and reports false (first-writer-wins, I7).
func (t *ShardedTable[V]) Set(key uint32, v V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.BucketIndex(key)
	for _, e := range t.buckets[idx] {
		if e.key == key {
			return false
		}
	}
	t.buckets[idx] = append(t.buckets[idx], entry[V]{key: key, value: v})
	return true
}

// Remove unlinks key's entry, if present.
func (t *ShardedTable[V]) Remove(key uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.BucketIndex(key)
	for i, e := range t.buckets[idx] {
		if e.key == key {
			t.buckets[idx] = append(t.buckets[idx][:i], t.buckets[idx][i+1:]...)
			return true
		}
	}
	return false
}

// lockBucket begins the "copy, verify, mutate, mirror back, re-hash"
// critical section of §4.D for key's bucket: it takes the table lock,
// copies the bucket chain, and checks it against shield before handing
// the copy to the caller. The table lock is held until the caller calls
// commitBucket or abortBucket — callers must always call exactly one of
// the two, exactly once, so use a defer at the call site.
func (t *ShardedTable[V]) lockBucket(key uint32, shield *IntegrityShield[V]) (chain []entry[V], idx int, err error) {
	t.mu.Lock()
	idx = t.BucketIndex(key)
	chain = make([]entry[V], len(t.buckets[idx]))
	copy(chain, t.buckets[idx])
	if err = shield.verify(idx, chain); err != nil {
		t.mu.Unlock()
		return nil, idx, err
	}
	return chain, idx, nil
}

// commitBucket mirrors newChain back onto the live bucket, recomputes
// its digest, and releases the table lock taken by lockBucket.
func (t *ShardedTable[V]) commitBucket(idx int, newChain []entry[V], shield *IntegrityShield[V]) {
	t.buckets[idx] = newChain
	shield.commit(idx, newChain)
	t.mu.Unlock()
}

// abortBucket releases the table lock taken by lockBucket without
// mutating the bucket or its digest — used when business logic (not
// integrity) rejects the operation.
func (t *ShardedTable[V]) abortBucket() {
	t.mu.Unlock()
}

// Count returns the total number of entries across all buckets. It is
// a metrics-polling helper, not a hot-path operation — it takes the
// table lock for the duration of a full scan.
func (t *ShardedTable[V]) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, bucket := range t.buckets {
		n += len(bucket)
	}
	return n
}
