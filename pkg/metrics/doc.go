// Package metrics exposes Prometheus instrumentation for the lock
// manager: job throughput by outcome, per-worker queue depth, table
// occupancy, abort/integrity-violation counters, and signing latency.
// Metrics are scraped over HTTP via Handler(); pkg/lockmanager.Collector
// polls the facade periodically for the gauges that aren't cheap to
// update inline on every job — it lives there rather than here so this
// package never needs to import pkg/lockmanager.
package metrics
