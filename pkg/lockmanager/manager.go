// Package lockmanager implements the trusted row-level lock manager:
// a sharded, integrity-verified, strictly two-phase-locked kernel that
// signs every granted lock with an ECDSA attestation. See Manager for
// the facade client code actually talks to.
package lockmanager

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shangsuru/verifiable-lockmanager/pkg/events"
	"github.com/shangsuru/verifiable-lockmanager/pkg/signer"
	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

// Config is the subset of server configuration the facade needs to
// stand up its tables and worker pool. See pkg/config for the full,
// YAML-loaded configuration this is carved out of.
type Config struct {
	NumWorkerThreads     int // W; the facade runs W-1 lock workers plus 1 transaction worker
	LockTableSize        int // N
	TransactionTableSize int
	BlockTimeout         signer.BlockTimeoutFunc // optional; defaults to signer.ZeroTimeout
}

// Manager is component I, the facade every client call enters through.
// It owns the two sharded tables, their integrity shields, the signing
// key pair, and the worker pool, and is the only thing in this package
// a caller outside it needs to hold a reference to.
type Manager struct {
	cfg        Config
	keyPair    *signer.KeyPair
	txnTable   *ShardedTable[*TransactionRecord]
	lockTable  *ShardedTable[*LockRecord]
	dispatcher *Dispatcher
	workers    []*Worker
	events     *events.Broker
	log        zerolog.Logger
}

// New brings up the tables, hashes, signing contexts, and worker pool,
// in that order (§9's global-mutable-state initialization sequence),
// but does not start the workers — call Start for that.
func New(cfg Config, keyPair *signer.KeyPair, log zerolog.Logger) (*Manager, error) {
	if cfg.NumWorkerThreads < 2 {
		return nil, fmt.Errorf("lockmanager: NumWorkerThreads must be at least 2 (got %d)", cfg.NumWorkerThreads)
	}
	if cfg.LockTableSize <= 0 || cfg.TransactionTableSize <= 0 {
		return nil, fmt.Errorf("lockmanager: table sizes must be positive")
	}

	numLock := cfg.NumWorkerThreads - 1
	txnTable := NewShardedTable[*TransactionRecord](cfg.TransactionTableSize)
	lockTable := NewShardedTable[*LockRecord](cfg.LockTableSize)
	txnShield := NewIntegrityShield[*TransactionRecord](cfg.TransactionTableSize, transactionCanon)
	lockShield := NewIntegrityShield[*LockRecord](cfg.LockTableSize, lockCanon)

	broker := events.NewBroker()

	m := &Manager{
		cfg:       cfg,
		keyPair:   keyPair,
		txnTable:  txnTable,
		lockTable: lockTable,
		events:    broker,
		log:       log.With().Str("component", "manager").Logger(),
	}

	workers := make([]*Worker, cfg.NumWorkerThreads)
	for i := 0; i < numLock; i++ {
		sc := signer.NewWorkerContext(i, keyPair.Private, cfg.BlockTimeout)
		workers[i] = NewWorker(i, false, txnTable, txnShield, lockTable, lockShield, sc, broker, log)
	}
	txnWorkerID := numLock
	workers[txnWorkerID] = NewWorker(txnWorkerID, true, txnTable, txnShield, lockTable, lockShield,
		signer.NewWorkerContext(txnWorkerID, keyPair.Private, cfg.BlockTimeout), broker, log)

	m.workers = workers
	m.dispatcher = NewDispatcher(workers, txnTable, cfg.LockTableSize, numLock, log)
	for _, w := range workers {
		w.SetDispatcher(m.dispatcher)
	}
	return m, nil
}

// PublicKey exposes the manager's public signing key for verifiers.
func (m *Manager) PublicKey() *ecdsa.PublicKey {
	return m.keyPair.Public
}

// Start launches every worker's loop in its own goroutine, plus the
// event broker's distribution loop.
func (m *Manager) Start() {
	m.events.Start()
	for _, w := range m.workers {
		go w.Run()
	}
	m.log.Info().Int("workers", len(m.workers)).Msg("lock manager started")
}

// Stop enqueues Quit on every worker and waits for each to acknowledge,
// draining whatever was already queued first (graceful shutdown), then
// stops the event broker.
func (m *Manager) Stop() {
	for _, w := range m.workers {
		job := newJob(types.JobQuit, 0, 0, types.Shared, 0)
		w.enqueue(job)
		job.await()
	}
	m.events.Stop()
	m.log.Info().Msg("lock manager stopped")
}

// Events exposes the manager's event broker so callers (the RPC layer,
// tests, an audit sink) can subscribe to transaction/lock/integrity
// lifecycle notifications without going through the signed-attestation
// request path.
func (m *Manager) Events() *events.Broker {
	return m.events
}

// RegisterTransaction creates a new transaction record with the given
// lock budget. tid must be non-zero and not already registered.
func (m *Manager) RegisterTransaction(tid uint32, budget uint32) error {
	if tid == 0 {
		return types.NewError(types.ErrInvalidID, "transaction id must be non-zero")
	}
	job := newJob(types.JobRegister, tid, 0, types.Shared, budget)
	res := m.dispatcher.Dispatch(job)
	return res.Err
}

// LockShared requests a shared hold on rid for tid, returning a signed
// attestation on success.
func (m *Manager) LockShared(tid, rid uint32) (string, error) {
	return m.requestLock(tid, rid, types.Shared)
}

// LockExclusive requests an exclusive hold on rid for tid, returning a
// signed attestation on success. If tid already solely holds rid
// shared, this is an upgrade rather than a new grant.
func (m *Manager) LockExclusive(tid, rid uint32) (string, error) {
	return m.requestLock(tid, rid, types.Exclusive)
}

func (m *Manager) requestLock(tid, rid uint32, mode types.LockMode) (string, error) {
	if tid == 0 || rid == 0 {
		return "", types.NewError(types.ErrInvalidID, "transaction and row ids must be non-zero")
	}
	kind := types.JobShared
	if mode == types.Exclusive {
		kind = types.JobExclusive
	}
	job := newJob(kind, tid, rid, mode, 0)
	res := m.dispatcher.Dispatch(job)
	return res.Signature, res.Err
}

// Stats is a point-in-time snapshot for metrics polling.
type Stats struct {
	ActiveTransactions int
	ActiveLocks        int
	QueueDepths        []int // indexed by worker id, last entry is the transaction worker
}

// Stats scans both tables and every worker's queue depth. It is a
// polling helper, not a hot-path call.
func (m *Manager) Stats() Stats {
	depths := make([]int, len(m.workers))
	for i, w := range m.workers {
		depths[i] = w.QueueDepth()
	}
	return Stats{
		ActiveTransactions: m.txnTable.Count(),
		ActiveLocks:        m.lockTable.Count(),
		QueueDepths:        depths,
	}
}

// Unlock releases rid for tid. It never fails on an already-released
// or never-held row — it is the caller's job to track what it holds.
func (m *Manager) Unlock(tid, rid uint32) error {
	if tid == 0 || rid == 0 {
		return types.NewError(types.ErrInvalidID, "transaction and row ids must be non-zero")
	}
	job := newJob(types.JobUnlock, tid, rid, types.Shared, 0)
	res := m.dispatcher.Dispatch(job)
	return res.Err
}
