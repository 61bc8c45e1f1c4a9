// Package memory provides an in-memory KVEngine.
//
// It backs ephemeral sessions (--ephemeral) and tests. A single RWMutex
// guards the map: reads use RLock, writes and batches use Lock, so a batch
// is observed all-or-nothing.
package memory
