package lockmanager

import (
	"github.com/rs/zerolog"

	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

// Dispatcher routes every Job to exactly one worker and never touches a
// table itself. There are L lock workers (indices 0..L-1) and one
// transaction worker (index L, "the owner"); W = L+1 workers total.
//
// A row id always maps to the same lock worker for the life of the
// process: ownerID = floor((r mod N) / (N/L)), clamped to L-1 so the
// last, possibly-short, bucket range never spills onto the transaction
// worker's index (Open Question 2). Register and Quit always route to
// the transaction worker.
type Dispatcher struct {
	workers    []*Worker // len == L+1; workers[L] is the transaction worker
	txnTable   *ShardedTable[*TransactionRecord]
	lockTableN int // N, the lock table's bucket count
	numLock    int // L
	log        zerolog.Logger
}

// NewDispatcher wires up a Dispatcher for an already-constructed worker
// pool. workers must have length numLockWorkers+1, with the transaction
// worker last. txnTable is read-only from the dispatcher's side — it is
// only ever used for the registration pre-flight check in Dispatch.
func NewDispatcher(workers []*Worker, txnTable *ShardedTable[*TransactionRecord], lockTableSize, numLockWorkers int, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		workers:    workers,
		txnTable:   txnTable,
		lockTableN: lockTableSize,
		numLock:    numLockWorkers,
		log:        log.With().Str("component", "dispatcher").Logger(),
	}
}

// ownerOf returns the index of the lock worker responsible for row rid.
func (d *Dispatcher) ownerOf(rid uint32) int {
	if d.numLock <= 0 {
		return 0
	}
	bucket := int(rid) % d.lockTableN
	span := d.lockTableN / d.numLock
	if span <= 0 {
		span = 1
	}
	owner := bucket / span
	if owner >= d.numLock {
		owner = d.numLock - 1
	}
	return owner
}

// TxnWorkerIndex returns the index of the dedicated transaction worker.
func (d *Dispatcher) TxnWorkerIndex() int {
	return d.numLock
}

// Dispatch enqueues job on the worker that owns it and blocks for the
// result. Register (and Quit) jobs go to the transaction worker without
// any registration check. Unlock jobs forwarded during an abort never
// pass through Dispatch — abort forwarding is fire-and-forget via
// forwardRelease.
//
// Per §4.E, every other job kind is checked against the transaction
// table before it is ever handed to a worker: if job.TxnID has no live
// record, the job fails immediately with ErrNotRegistered and never
// touches a queue. Workers still re-check the same condition once a job
// reaches them, since a transaction can abort between this snapshot and
// the job's turn on its worker's queue — this check only short-circuits
// the common case of a request against an id that was never, or is no
// longer, registered.
func (d *Dispatcher) Dispatch(job *Job) *JobResult {
	var idx int
	switch job.Kind {
	case types.JobRegister, types.JobQuit:
		idx = d.TxnWorkerIndex()
	default:
		if !d.registered(job.TxnID) {
			return &JobResult{Err: types.NewError(types.ErrNotRegistered, "transaction %d is not registered", job.TxnID)}
		}
		idx = d.ownerOf(job.RowID)
	}
	d.workers[idx].enqueue(job)
	return job.await()
}

// registered reports whether tid currently has a transaction record.
func (d *Dispatcher) registered(tid uint32) bool {
	_, ok := d.txnTable.Get(tid)
	return ok
}

// forwardRelease sends a best-effort, fire-and-forget release job for
// (tid, rid) to whichever lock worker owns rid. It is used only by
// Worker.forwardAbortReleases when a transaction being aborted held rows outside the
// aborting worker's own shard — the abort must still honor shard
// ownership, so it can never reach into another worker's bucket
// directly, only ask that worker to do it.
func (d *Dispatcher) forwardRelease(tid, rid uint32, callerIdx int) {
	owner := d.ownerOf(rid)
	if owner == callerIdx {
		return
	}
	job := newJob(types.JobUnlock, tid, rid, types.Shared, 0)
	job.internal = true
	d.workers[owner].enqueue(job)
	d.log.Debug().Uint32("tid", tid).Uint32("rid", rid).Int("owner", owner).Msg("forwarded abort release")
}
