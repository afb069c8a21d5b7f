// Package snapshot defines the core types and contracts of the snapshot
// pipeline: content classification, the persisted index and failure ledger,
// the artifact naming scheme, and the worker interfaces used by the
// orchestrating pipeline.
package snapshot
