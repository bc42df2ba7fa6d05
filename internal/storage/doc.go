// Package storage provides the ordered key-value store that backs every
// persisted jetmock record.
//
// It defines the Store interface, a narrow contract over an embedded ordered
// byte store, along with two implementations:
//
//   - BoltStore: bbolt-backed store used by the server, one bucket, one file
//   - MemoryStore: thread-safe in-memory store for tests and ephemeral runs
//
// The Store interface supports:
//
//   - Point operations (Get, Put, Delete)
//   - Ordered prefix scans (Scan)
//   - Atomic prefix deletion (DeletePrefix)
//   - Atomic multi-key batches (Write)
//
// Keys are strings ordered lexicographically by their bytes. Values are
// opaque bytes; GetJSON and PutJSON encode records as JSON.
package storage
