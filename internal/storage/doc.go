// Package storage persists the client session on the local machine.
//
// Two layers live here:
//
//   - KVEngine: an embedded key/value store (Badger on disk, or the
//     in-memory engine from the memory subpackage) with atomic batches.
//   - TokenStore: the origin-namespaced token + profile pair built on top
//     of a KVEngine. A token and its profile are always written and removed
//     together in a single batch.
//
// The Badger engine can encrypt data at rest with a key derived from a
// passphrase (Argon2id, salt kept next to the data directory).
package storage
