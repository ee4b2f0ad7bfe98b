// Package telemetry implements the append-only record store, summary
// statistics, health-check evaluation, and exporter contract used by
// taskexec's executors.
//
// # Components
//
//   - [Store]: thread-safe append-only log of per-task [Record]s with a
//     cached snapshot; its [Summary] is computed on demand from that
//     snapshot.
//   - [Exporter]: the contract for pushing batches of records to an
//     external sink; [CompositeExporter] fans out to several exporters
//     concurrently without letting one failure affect its siblings.
//   - [MemoryExporter]: accumulates exported batches, for tests.
//   - [OtelExporter]: records each batch as OpenTelemetry metric
//     observations via its own private meter provider.
//
// Transport details for getting records out of a process (HTTP push,
// file, OTLP collector, Prometheus scrape) are deliberately not part of
// this package; only the [Exporter] contract and in-process
// implementations live here.
package telemetry
