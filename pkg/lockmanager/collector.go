package lockmanager

import (
	"fmt"
	"time"

	"github.com/shangsuru/verifiable-lockmanager/pkg/metrics"
)

// Collector polls the lock manager facade for the gauges that can't be
// updated inline on the hot path (table occupancy, queue depth) without
// taking a lock on every job.
type Collector struct {
	manager *Manager
	stopCh  chan struct{}
}

// NewCollector creates a metrics collector bound to a running Manager.
func NewCollector(mgr *Manager) *Collector {
	return &Collector{manager: mgr, stopCh: make(chan struct{})}
}

// Start begins polling every 5 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	stats := c.manager.Stats()
	metrics.ActiveTransactions.Set(float64(stats.ActiveTransactions))
	metrics.ActiveLocks.Set(float64(stats.ActiveLocks))
	for i, depth := range stats.QueueDepths {
		metrics.JobQueueDepth.WithLabelValues(fmt.Sprintf("%d", i)).Set(float64(depth))
	}
}
