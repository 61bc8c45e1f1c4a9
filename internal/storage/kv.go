package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// Engine names accepted by KVConfig.Engine.
const (
	EngineBadger = "badger"
	EngineMemory = "memory"
)

// KVEngine defines the interface for embedded key-value storage.
//
// Implementations must be safe for concurrent use. Apply must be atomic:
// readers observe either none or all of a batch.
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// GetMany reads keys from one consistent snapshot. The result has one
	// entry per key; a missing key yields nil.
	GetMany(ctx context.Context, keys ...[]byte) ([][]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Apply commits every mutation of the batch atomically.
	Apply(ctx context.Context, batch *Batch) error

	// Scan iterates over keys with a given prefix.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close releases the engine.
	Close() error
}

// Mutation is a single write inside a Batch.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Batch collects mutations to be applied atomically.
type Batch struct {
	ops []Mutation
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Set queues a write.
func (b *Batch) Set(key, value []byte) *Batch {
	b.ops = append(b.ops, Mutation{Key: key, Value: value})
	return b
}

// Delete queues a removal.
func (b *Batch) Delete(key []byte) *Batch {
	b.ops = append(b.ops, Mutation{Key: key, Delete: true})
	return b
}

// Len returns the number of queued mutations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Mutations returns the queued mutations in order.
func (b *Batch) Mutations() []Mutation {
	return b.ops
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// Engine is the engine name.
	Engine string `json:"engine"`

	// TotalKeys is the number of keys (0 when the engine can't count cheaply).
	TotalKeys uint64 `json:"total_keys"`

	// TotalSize is the total disk usage in bytes.
	TotalSize uint64 `json:"total_size"`

	// LSMSize is the LSM tree size (Badger).
	LSMSize uint64 `json:"lsm_size"`

	// ValueLogSize is the value log size (Badger).
	ValueLogSize uint64 `json:"value_log_size"`

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64 `json:"last_gc_time"`

	// Encrypted reports whether data is encrypted at rest.
	Encrypted bool `json:"encrypted"`
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Engine specifies the KV engine type ("badger", "memory").
	// Default: "badger"
	Engine string

	// Dir is the storage directory.
	Dir string

	// Passphrase enables at-rest encryption when non-empty.
	Passphrase string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger tuning parameters sized for a single-user client.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 8MB
	CacheSize int64

	// IndexCacheSize is the index cache size in bytes, required with encryption.
	// Default: 4MB
	IndexCacheSize int64

	// MemTableSize is the memtable size in bytes.
	// Default: 8MB
	MemTableSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 16MB
	ValueLogFileSize int64

	// SyncWrites fsyncs after each write so a saved session survives a crash.
	// Default: true
	SyncWrites bool

	// InMemory keeps everything in memory (Dir is ignored).
	InMemory bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: EngineBadger,
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        8 << 20,
		IndexCacheSize:   4 << 20,
		MemTableSize:     8 << 20,
		ValueLogFileSize: 16 << 20,
		SyncWrites:       true,
	}
}
