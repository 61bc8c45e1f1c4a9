package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerEngine implements KVEngine using Badger v3.
type BadgerEngine struct {
	db        *badger.DB
	cfg       BadgerConfig
	logger    *slog.Logger
	encrypted bool

	lastGCTime atomic.Int64 // Unix milliseconds
	closed     atomic.Bool

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge

	// Shutdown
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewBadgerEngine opens (or creates) a Badger-based KV engine.
//
// When cfg.Passphrase is set the data is encrypted with a key derived from
// the passphrase and a salt stored beside cfg.Dir.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	badgerCfg := cfg.Badger
	if cfg.Dir == "" && !badgerCfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if badgerCfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.BlockCacheSize = badgerCfg.CacheSize
	opts.IndexCacheSize = badgerCfg.IndexCacheSize
	opts.MemTableSize = badgerCfg.MemTableSize
	opts.ValueLogFileSize = badgerCfg.ValueLogFileSize
	opts.SyncWrites = badgerCfg.SyncWrites

	encrypted := false
	if cfg.Passphrase != "" && !badgerCfg.InMemory {
		key, err := EncryptionKey(cfg.Dir, cfg.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("badger: %w", err)
		}
		opts.EncryptionKey = key
		opts.EncryptionKeyRotationDuration = 30 * 24 * time.Hour
		if opts.IndexCacheSize == 0 {
			opts.IndexCacheSize = 4 << 20
		}
		encrypted = true
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:        db,
		cfg:       badgerCfg,
		logger:    logger,
		encrypted: encrypted,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	go engine.gcLoop()

	logger.Debug("badger engine started",
		"dir", cfg.Dir,
		"in_memory", badgerCfg.InMemory,
		"encrypted", encrypted,
		"gc_interval", badgerCfg.GCInterval)

	return engine, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// GetMany reads every key inside one read transaction.
func (e *BadgerEngine) GetMany(ctx context.Context, keys ...[]byte) ([][]byte, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}

	values := make([][]byte, len(keys))
	err := e.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if values[i], err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Apply commits the batch in a single Badger transaction.
func (e *BadgerEngine) Apply(ctx context.Context, batch *Batch) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	return e.db.Update(func(txn *badger.Txn) error {
		for _, m := range batch.Mutations() {
			var err error
			if m.Delete {
				err = txn.Delete(m.Key)
			} else {
				err = txn.Set(m.Key, m.Value)
			}
			if err != nil {
				return fmt.Errorf("apply %q: %w", m.Key, err)
			}
		}
		return nil
	})
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := e.check(ctx); err != nil {
		return err
	}

	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			if !fn(bytes.Clone(item.Key()), value) {
				break
			}
		}

		return nil
	})
}

// GC runs value log garbage collection until nothing more can be rewritten.
// Returns the number of value log files rewritten.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	if err := e.check(ctx); err != nil {
		return 0, err
	}

	rewritten := 0
	for {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
				break
			}
			return rewritten, fmt.Errorf("gc: %w", err)
		}
		rewritten++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	if e.metricsLastGCTime != nil {
		e.metricsLastGCTime.SetToCurrentTime()
	}
	e.logger.Debug("gc completed", "rewritten", rewritten)

	return rewritten, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats(ctx context.Context) (*KVStats, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}

	lsm, vlog := e.db.Size()
	var keys uint64
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &KVStats{
		Engine:       EngineBadger,
		TotalKeys:    keys,
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
		Encrypted:    e.encrypted,
	}, nil
}

// Close stops the GC loop and closes the database. Safe to call twice.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stopCh)
		<-e.doneCh

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
			return
		}
		e.logger.Debug("badger engine closed")
	})
	return err
}

// RegisterMetrics registers Badger size gauges with the given registerer and
// refreshes them once. Returns the engine for chaining.
func (e *BadgerEngine) RegisterMetrics(reg prometheus.Registerer) *BadgerEngine {
	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timi",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timi",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	e.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timi",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})

	reg.MustRegister(e.metricsLSMSize, e.metricsValueLogSize, e.metricsLastGCTime)
	e.RefreshMetrics()

	return e
}

// RefreshMetrics copies the current sizes into the registered gauges.
func (e *BadgerEngine) RefreshMetrics() {
	if e.metricsLSMSize == nil || e.closed.Load() {
		return
	}
	lsm, vlog := e.db.Size()
	e.metricsLSMSize.Set(float64(lsm))
	e.metricsValueLogSize.Set(float64(vlog))
}

func (e *BadgerEngine) check(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// gcLoop runs periodic garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	interval := e.cfg.GCInterval
	if interval <= 0 {
		interval = DefaultBadgerConfig().GCInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := e.GC(ctx); err != nil {
				e.logger.Warn("auto gc failed", "error", err)
			}
			cancel()
			e.RefreshMetrics()

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug so the CLI stays quiet.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
