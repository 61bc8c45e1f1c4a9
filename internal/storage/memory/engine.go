package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yndnr/timi-go/internal/storage"
)

// Engine is a map-backed storage.KVEngine.
type Engine struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ storage.KVEngine = (*Engine)(nil)

// New creates an empty engine.
func New() *Engine {
	return &Engine{data: make(map[string][]byte)}
}

// Get retrieves a copy of the value stored under key.
func (e *Engine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, storage.ErrClosed
	}
	v, ok := e.data[string(key)]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// GetMany reads keys under one read lock.
func (e *Engine) GetMany(ctx context.Context, keys ...[]byte) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, storage.ErrClosed
	}
	values := make([][]byte, len(keys))
	for i, key := range keys {
		if v, ok := e.data[string(key)]; ok {
			values[i] = bytes.Clone(v)
		}
	}
	return values, nil
}

// Set stores a copy of value.
func (e *Engine) Set(ctx context.Context, key, value []byte) error {
	return e.Apply(ctx, storage.NewBatch().Set(key, value))
}

// Delete removes key.
func (e *Engine) Delete(ctx context.Context, key []byte) error {
	return e.Apply(ctx, storage.NewBatch().Delete(key))
}

// Apply commits all mutations under one lock.
func (e *Engine) Apply(ctx context.Context, batch *storage.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return storage.ErrClosed
	}
	if batch == nil {
		return nil
	}
	for _, m := range batch.Mutations() {
		if m.Delete {
			delete(e.data, string(m.Key))
			continue
		}
		e.data[string(m.Key)] = bytes.Clone(m.Value)
	}
	return nil
}

// Scan visits keys with the given prefix in lexical order.
func (e *Engine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return storage.ErrClosed
	}
	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = bytes.Clone(e.data[k])
	}
	e.mu.RUnlock()

	for i, k := range keys {
		if !fn([]byte(k), values[i]) {
			break
		}
	}
	return nil
}

// Stats reports the key count and the summed value sizes.
func (e *Engine) Stats(ctx context.Context) (*storage.KVStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, storage.ErrClosed
	}
	var size uint64
	for k, v := range e.data {
		size += uint64(len(k) + len(v))
	}
	return &storage.KVStats{
		Engine:    storage.EngineMemory,
		TotalKeys: uint64(len(e.data)),
		TotalSize: size,
	}, nil
}

// Close drops all data.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.data = nil
	return nil
}
