package lockmanager

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/shangsuru/verifiable-lockmanager/pkg/events"
	"github.com/shangsuru/verifiable-lockmanager/pkg/metrics"
	"github.com/shangsuru/verifiable-lockmanager/pkg/signer"
	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

// jobQueueDepth is the buffer size of a worker's job channel. The
// dispatcher never blocks indefinitely on a healthy worker; a full
// queue is a backpressure signal, not a correctness concern, since
// there is no lock-waiting/queueing semantics to preserve (clients fail
// fast on contention regardless of queue depth).
const jobQueueDepth = 256

// Worker owns a disjoint slice of shard state and a single FIFO job
// queue. It is the only goroutine that ever walks its own buckets —
// except for the transaction table, which every lock worker also
// touches directly during acquireLock (see ShardedTable's doc comment)
// and which only the transaction worker (index == dispatcher.TxnWorkerIndex())
// owns for Register/Quit.
type Worker struct {
	id         int
	isTxn      bool
	queue      chan *Job
	txnTable   *ShardedTable[*TransactionRecord]
	txnShield  *IntegrityShield[*TransactionRecord]
	lockTable  *ShardedTable[*LockRecord]
	lockShield *IntegrityShield[*LockRecord]
	sign       *signer.WorkerContext
	events     *events.Broker
	dispatcher *Dispatcher // set after all workers exist, via SetDispatcher
	log        zerolog.Logger
}

// NewWorker constructs a worker. isTxn marks the single dedicated
// transaction-table worker (index L); all others are lock workers.
func NewWorker(
	id int,
	isTxn bool,
	txnTable *ShardedTable[*TransactionRecord],
	txnShield *IntegrityShield[*TransactionRecord],
	lockTable *ShardedTable[*LockRecord],
	lockShield *IntegrityShield[*LockRecord],
	sign *signer.WorkerContext,
	broker *events.Broker,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:         id,
		isTxn:      isTxn,
		queue:      make(chan *Job, jobQueueDepth),
		txnTable:   txnTable,
		txnShield:  txnShield,
		lockTable:  lockTable,
		lockShield: lockShield,
		sign:       sign,
		events:     broker,
		log:        log.With().Int("worker", id).Bool("txn_worker", isTxn).Logger(),
	}
}

// SetDispatcher wires the worker to the dispatcher it will use to
// forward release jobs during abort. It must be called once, before
// Run, for every worker in the pool.
func (w *Worker) SetDispatcher(d *Dispatcher) {
	w.dispatcher = d
}

func (w *Worker) enqueue(job *Job) {
	w.queue <- job
}

// ID returns the worker's index in the pool.
func (w *Worker) ID() int { return w.id }

// QueueDepth reports how many jobs are currently buffered, for metrics
// polling.
func (w *Worker) QueueDepth() int { return len(w.queue) }

// Run is the worker's loop. It blocks on its queue until it sees a
// Quit job, draining everything already enqueued before it rather than
// pre-empting the queue (graceful drain, matching the original's
// teardown path).
func (w *Worker) Run() {
	w.log.Info().Msg("worker started")
	for job := range w.queue {
		if job.Kind == types.JobQuit {
			w.log.Info().Msg("worker draining quit")
			job.reply("", nil)
			return
		}
		w.handle(job)
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Kind {
	case types.JobRegister:
		w.handleRegister(job)
	case types.JobShared:
		w.acquireLock(job, types.Shared)
	case types.JobExclusive:
		w.acquireLock(job, types.Exclusive)
	case types.JobUnlock:
		if job.internal {
			// Forwarded release from another worker's abort: the
			// transaction record is already gone by the time this
			// runs (the aborting worker removes it before
			// forwarding), so there is no txn-table bookkeeping
			// left to do here — only the lock-table entry itself.
			w.releaseLocal(job.TxnID, job.RowID)
			return
		}
		w.handleUnlock(job)
	default:
		job.reply("", types.NewError(types.ErrInvalidID, "unrecognized job kind %s", job.Kind))
	}
}

// handleRegister runs only on the transaction worker. It fails with
// ErrAlreadyRegistered if tid already has a record — Go's dynamically
// growable bucket chains make the original's fixed-slot placeholder
// search unnecessary; a plain first-writer-wins Set (I7) is equivalent
// from the client's perspective.
func (w *Worker) handleRegister(job *Job) {
	chain, idx, err := w.txnTable.lockBucket(job.TxnID, w.txnShield)
	if err != nil {
		w.noteIntegrityViolation("transaction", err)
		job.reply("", err)
		return
	}
	for _, e := range chain {
		if e.key == job.TxnID {
			w.txnTable.abortBucket()
			job.reply("", types.NewError(types.ErrAlreadyRegistered, "transaction %d already registered", job.TxnID))
			return
		}
	}
	newChain := append(chain, entry[*TransactionRecord]{key: job.TxnID, value: NewTransactionRecord(job.TxnID, job.Budget)})
	w.txnTable.commitBucket(idx, newChain, w.txnShield)
	w.events.Publish(&events.Event{
		Type:     events.EventTransactionRegistered,
		Message:  "transaction registered",
		Metadata: map[string]string{"tid": strconv.FormatUint(uint64(job.TxnID), 10)},
	})
	job.reply("", nil)
}

// acquireLock implements §4.F's pseudocode. It runs on the lock worker
// that owns job.RowID, but reaches directly into the transaction
// table's bucket for job.TxnID — which may or may not be this worker's
// own shard range, since the transaction table has exactly one owner
// (the transaction worker) for Register/Quit but is touched by whatever
// lock worker needs it during a grant decision. ShardedTable's internal
// mutex makes that safe.
func (w *Worker) acquireLock(job *Job, mode types.LockMode) {
	if job.TxnID == 0 || job.RowID == 0 {
		job.reply("", types.NewError(types.ErrInvalidID, "transaction and row ids must be non-zero"))
		return
	}

	txnChain, txnIdx, err := w.txnTable.lockBucket(job.TxnID, w.txnShield)
	if err != nil {
		w.noteIntegrityViolation("transaction", err)
		job.reply("", err)
		return
	}

	txnPos, txn := findTxn(txnChain, job.TxnID)
	if txn == nil || txn.Aborted() {
		w.txnTable.abortBucket()
		job.reply("", types.NewError(types.ErrNotRegistered, "transaction %d is not registered", job.TxnID))
		return
	}

	lockChain, lockIdx, err := w.lockTable.lockBucket(job.RowID, w.lockShield)
	if err != nil {
		w.noteIntegrityViolation("lock", err)
		w.txnTable.abortBucket()
		job.reply("", err)
		return
	}

	lockPos, lock := findLock(lockChain, job.RowID)
	newLock := false
	if lock == nil {
		lock = NewLockRecord()
		newLock = true
	}

	wasUpgrade := txn.HasLock(job.RowID)
	grantErr := w.grant(txn, job.RowID, mode, lock)
	if grantErr != nil {
		txn.Abort()
		heldRows := txn.Held()
		w.lockTable.abortBucket()
		w.txnTable.commitBucket(txnIdx, removeTxn(txnChain, txnPos), w.txnShield)
		w.forwardAbortReleases(job.TxnID, heldRows, job.RowID)

		reason := types.KindOf(grantErr).String()
		metrics.TransactionAbortsTotal.WithLabelValues(reason).Inc()
		w.events.Publish(&events.Event{
			Type:     events.EventTransactionAborted,
			Message:  grantErr.Error(),
			Metadata: map[string]string{"tid": strconv.FormatUint(uint64(job.TxnID), 10), "reason": reason},
		})

		job.reply("", grantErr)
		return
	}

	newLockChain := lockChain
	if newLock {
		newLockChain = append(newLockChain, entry[*LockRecord]{key: job.RowID, value: lock})
	} else {
		newLockChain[lockPos].value = lock
	}
	w.lockTable.commitBucket(lockIdx, newLockChain, w.lockShield)

	newTxnChain := txnChain
	newTxnChain[txnPos].value = txn
	w.txnTable.commitBucket(txnIdx, newTxnChain, w.txnShield)

	timer := metrics.NewTimer()
	sig, err := w.sign.Sign(job.TxnID, job.RowID, mode)
	timer.ObserveDuration(metrics.SignDuration)
	if err != nil {
		job.reply("", err)
		return
	}

	eventType := events.EventLockGranted
	if wasUpgrade {
		eventType = events.EventLockUpgraded
	}
	w.events.Publish(&events.Event{
		Type:     eventType,
		Message:  "lock " + mode.String() + " granted",
		Metadata: map[string]string{"tid": strconv.FormatUint(uint64(job.TxnID), 10), "rid": strconv.FormatUint(uint64(job.RowID), 10)},
	})

	job.reply(sig, nil)
}

// grant applies §4.F's grant rule against an already-located
// transaction and lock record, mutating both on success. It never
// replaces txn or lock — it edits the values the caller already holds
// under lockBucket, so the caller only needs to mirror them back.
//
// Phase and budget are checked unconditionally before branching on
// has_lock, matching §4.F's pseudocode order exactly: an upgrade
// attempt against a shrinking or budget-exhausted transaction still
// aborts, even though upgrading never itself consumes budget.
func (w *Worker) grant(txn *TransactionRecord, rid uint32, mode types.LockMode, lock *LockRecord) error {
	if txn.phase == types.Shrinking {
		return types.NewError(types.ErrPhaseViolation, "transaction %d already shrinking", txn.id)
	}
	if txn.budget == 0 {
		return types.NewError(types.ErrBudgetExhausted, "transaction %d has no budget left", txn.id)
	}
	if txn.HasLock(rid) {
		if mode == types.Exclusive && !lock.Exclusive() {
			return txn.Upgrade(rid, lock)
		}
		return types.NewError(types.ErrDuplicateGrant, "transaction %d already holds row %d", txn.id, rid)
	}
	return txn.AddLock(rid, mode, lock)
}

// handleUnlock releases job.RowID for job.TxnID. It only ever runs for
// client-driven jobs (handle routes internal forwarded releases straight
// to releaseLocal instead) — so it always owns both a live transaction
// record and a reply to send.
func (w *Worker) handleUnlock(job *Job) {
	txnChain, txnIdx, err := w.txnTable.lockBucket(job.TxnID, w.txnShield)
	if err != nil {
		w.noteIntegrityViolation("transaction", err)
		job.reply("", err)
		return
	}
	txnPos, txn := findTxn(txnChain, job.TxnID)
	if txn == nil {
		w.txnTable.abortBucket()
		job.reply("", types.NewError(types.ErrNotRegistered, "transaction %d is not registered", job.TxnID))
		return
	}

	lockChain, lockIdx, err := w.lockTable.lockBucket(job.RowID, w.lockShield)
	if err != nil {
		w.noteIntegrityViolation("lock", err)
		w.txnTable.abortBucket()
		job.reply("", err)
		return
	}
	lockPos, lock := findLock(lockChain, job.RowID)
	if lock == nil {
		w.lockTable.abortBucket()
		w.txnTable.abortBucket()
		job.reply("", nil)
		return
	}

	wasHeld := txn.HasLock(job.RowID)
	unowned := txn.ReleaseLock(job.RowID, lock)

	newLockChain := lockChain
	if unowned {
		newLockChain = removeLock(lockChain, lockPos)
	} else {
		newLockChain[lockPos].value = lock
	}
	w.lockTable.commitBucket(lockIdx, newLockChain, w.lockShield)

	// A plain release never destroys the transaction record, even once
	// held drains to empty — only abort does that (§4.B's
	// re-registration rule is tied to abort, not to an empty held set
	// on its own). The record stays around, Shrinking, so a later grant
	// attempt on it still reports phase violation rather than
	// not-registered.
	newTxnChain := txnChain
	newTxnChain[txnPos].value = txn
	w.txnTable.commitBucket(txnIdx, newTxnChain, w.txnShield)

	if wasHeld {
		w.events.Publish(&events.Event{
			Type:     events.EventLockReleased,
			Message:  "lock released",
			Metadata: map[string]string{"tid": strconv.FormatUint(uint64(job.TxnID), 10), "rid": strconv.FormatUint(uint64(job.RowID), 10)},
		})
	}

	job.reply("", nil)
}

// noteIntegrityViolation records a bucket digest mismatch against both
// the integrity-violation counter and the event bus, for whichever
// table detected it. It is a no-op for any other error kind.
func (w *Worker) noteIntegrityViolation(table string, err error) {
	if types.KindOf(err) != types.ErrIntegrityViolation {
		return
	}
	metrics.IntegrityViolationsTotal.WithLabelValues(table).Inc()
	w.events.Publish(&events.Event{
		Type:     events.EventIntegrityViolation,
		Message:  err.Error(),
		Metadata: map[string]string{"table": table},
	})
}

// forwardAbortReleases releases excludeRid, and every other held row in
// this worker's own shard, locally, and asks the owning worker to
// release every remaining row the aborted transaction held — never
// reaching into another worker's bucket directly, to preserve shard
// ownership.
func (w *Worker) forwardAbortReleases(tid uint32, heldRows []uint32, excludeRid uint32) {
	for _, rid := range heldRows {
		if rid == excludeRid || (w.dispatcher != nil && w.dispatcher.ownerOf(rid) == w.id) {
			w.releaseLocal(tid, rid)
			continue
		}
		if w.dispatcher != nil {
			w.dispatcher.forwardRelease(tid, rid, w.id)
		}
	}
}

// releaseLocal releases rid for tid against this worker's own lock
// table, used only when the row being released during abort happens
// to be this worker's own shard.
func (w *Worker) releaseLocal(tid, rid uint32) {
	lockChain, lockIdx, err := w.lockTable.lockBucket(rid, w.lockShield)
	if err != nil {
		w.noteIntegrityViolation("lock", err)
		w.log.Warn().Err(err).Uint32("rid", rid).Msg("integrity violation releasing lock during abort")
		return
	}
	pos, lock := findLock(lockChain, rid)
	if lock == nil {
		w.lockTable.abortBucket()
		return
	}
	lock.Release(tid)
	newChain := lockChain
	if lock.Unowned() {
		newChain = removeLock(lockChain, pos)
	} else {
		newChain[pos].value = lock
	}
	w.lockTable.commitBucket(lockIdx, newChain, w.lockShield)
}

func findTxn(chain []entry[*TransactionRecord], tid uint32) (int, *TransactionRecord) {
	for i, e := range chain {
		if e.key == tid {
			return i, e.value
		}
	}
	return -1, nil
}

func findLock(chain []entry[*LockRecord], rid uint32) (int, *LockRecord) {
	for i, e := range chain {
		if e.key == rid {
			return i, e.value
		}
	}
	return -1, nil
}

func removeTxn(chain []entry[*TransactionRecord], pos int) []entry[*TransactionRecord] {
	if pos < 0 {
		return chain
	}
	out := make([]entry[*TransactionRecord], 0, len(chain)-1)
	out = append(out, chain[:pos]...)
	return append(out, chain[pos+1:]...)
}

func removeLock(chain []entry[*LockRecord], pos int) []entry[*LockRecord] {
	if pos < 0 {
		return chain
	}
	out := make([]entry[*LockRecord], 0, len(chain)-1)
	out = append(out, chain[:pos]...)
	return append(out, chain[pos+1:]...)
}
