// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces the snapshot pipeline uses to report run progress. It
// batches events on a background goroutine and fans them out to pluggable
// sinks such as Prometheus metrics, the run status store, or structured
// logging.
package progress
