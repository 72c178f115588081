package lockmanager

import (
	"github.com/google/uuid"

	"github.com/shangsuru/verifiable-lockmanager/pkg/metrics"
	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

// Job is one unit of work on a worker's queue: a request to register a
// transaction, acquire or release a row lock, or drain and exit.
// Workers never share a queue (see Dispatcher and Worker), so a Job's
// only path to its target worker is a buffered Go channel — the same
// single-writer-many-subscriber channel idiom events.Broker uses, here
// narrowed to a single consumer per channel.
type Job struct {
	ID       string
	Kind     types.JobKind
	TxnID    uint32
	RowID    uint32
	Mode     types.LockMode
	Budget   uint32 // only meaningful for JobRegister
	internal bool   // true for release jobs a worker forwards to a peer during abort
	result   chan *JobResult
}

// JobResult is what a worker hands back after processing a Job: either
// a signed attestation (success) or a classified failure.
type JobResult struct {
	Signature string
	Err       error
}

// newJob allocates a Job with a fresh correlation id and a one-shot
// result channel the caller can block on.
func newJob(kind types.JobKind, tid, rid uint32, mode types.LockMode, budget uint32) *Job {
	return &Job{
		ID:     uuid.NewString(),
		Kind:   kind,
		TxnID:  tid,
		RowID:  rid,
		Mode:   mode,
		Budget: budget,
		result: make(chan *JobResult, 1),
	}
}

// await blocks for this job's result. Internal (forwarded) jobs never
// have a caller waiting, so await is only ever called by the client
// path in Manager, never by the abort-forwarding path in Worker.
func (j *Job) await() *JobResult {
	return <-j.result
}

func (j *Job) reply(sig string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.JobsProcessedTotal.WithLabelValues(j.Kind.String(), outcome).Inc()
	j.result <- &JobResult{Signature: sig, Err: err}
}
