// Package store holds the in-process run status model shared between the
// progress sinks that write it and the operational API that reads it. It
// must not import database drivers or concrete clients.
package store
