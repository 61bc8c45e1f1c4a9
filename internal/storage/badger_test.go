package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadger(t *testing.T, dir, passphrase string) *BadgerEngine {
	t.Helper()

	cfg := DefaultKVConfig(dir)
	cfg.Passphrase = passphrase
	cfg.Badger.GCInterval = time.Hour
	cfg.Badger.SyncWrites = false

	engine, err := NewBadgerEngine(cfg, slog.Default())
	require.NoError(t, err)
	return engine
}

func TestBadgerEngine_BasicOperations(t *testing.T) {
	engine := newTestBadger(t, t.TempDir(), "")
	defer engine.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, engine.Set(ctx, []byte("test-key"), []byte("test-value")))

		got, err := engine.Get(ctx, []byte("test-key"))
		require.NoError(t, err)
		assert.Equal(t, "test-value", string(got))
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, err := engine.Get(ctx, []byte("non-existent"))
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, engine.Set(ctx, []byte("delete-key"), []byte("v")))
		require.NoError(t, engine.Delete(ctx, []byte("delete-key")))

		_, err := engine.Get(ctx, []byte("delete-key"))
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestBadgerEngine_Apply(t *testing.T) {
	engine := newTestBadger(t, t.TempDir(), "")
	defer engine.Close()
	ctx := context.Background()

	require.NoError(t, engine.Set(ctx, []byte("stale"), []byte("x")))
	batch := NewBatch().
		Set([]byte("pair/token"), []byte("a.b.c")).
		Set([]byte("pair/user"), []byte(`{"email":"a@b.com"}`)).
		Delete([]byte("stale"))
	require.NoError(t, engine.Apply(ctx, batch))

	got, err := engine.Get(ctx, []byte("pair/user"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.com"}`, string(got))

	_, err = engine.Get(ctx, []byte("stale"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.NoError(t, engine.Apply(ctx, NewBatch()))
	assert.NoError(t, engine.Apply(ctx, nil))
}

func TestBadgerEngine_Scan(t *testing.T) {
	engine := newTestBadger(t, t.TempDir(), "")
	defer engine.Close()
	ctx := context.Background()

	for k, v := range map[string]string{"user:1": "alice", "user:2": "bob", "meta:x": "data"} {
		require.NoError(t, engine.Set(ctx, []byte(k), []byte(v)))
	}

	got := map[string]string{}
	require.NoError(t, engine.Scan(ctx, []byte("user:"), func(k, v []byte) bool {
		got[string(k)] = string(v)
		return true
	}))
	assert.Equal(t, map[string]string{"user:1": "alice", "user:2": "bob"}, got)
}

func TestBadgerEngine_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	engine := newTestBadger(t, dir, "")
	require.NoError(t, engine.Set(ctx, []byte("persist"), []byte("yes")))
	require.NoError(t, engine.Close())

	reopened := newTestBadger(t, dir, "")
	defer reopened.Close()

	got, err := reopened.Get(ctx, []byte("persist"))
	require.NoError(t, err)
	assert.Equal(t, "yes", string(got))
}

func TestBadgerEngine_Encryption(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	ctx := context.Background()

	engine := newTestBadger(t, dir, "correct horse battery")
	require.NoError(t, engine.Set(ctx, []byte("secret"), []byte("value")))

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Encrypted)
	require.NoError(t, engine.Close())

	assert.FileExists(t, SaltPath(dir))

	reopened := newTestBadger(t, dir, "correct horse battery")
	got, err := reopened.Get(ctx, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "value", string(got))
	require.NoError(t, reopened.Close())

	cfg := DefaultKVConfig(dir)
	cfg.Passphrase = "wrong passphrase"
	_, err = NewBadgerEngine(cfg, slog.Default())
	assert.Error(t, err)
}

func TestBadgerEngine_WeakPassphrase(t *testing.T) {
	cfg := DefaultKVConfig(t.TempDir())
	cfg.Passphrase = "short"

	_, err := NewBadgerEngine(cfg, slog.Default())
	assert.ErrorIs(t, err, ErrPassphraseTooWeak)
}

func TestBadgerEngine_InMemory(t *testing.T) {
	cfg := DefaultKVConfig("")
	cfg.Badger.InMemory = true

	engine, err := NewBadgerEngine(cfg, slog.Default())
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	require.NoError(t, engine.Set(ctx, []byte("k"), []byte("v")))

	n, err := engine.GC(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBadgerEngine_RequiresDir(t *testing.T) {
	_, err := NewBadgerEngine(DefaultKVConfig(""), nil)
	assert.Error(t, err)
}

func TestBadgerEngine_StatsAndMetrics(t *testing.T) {
	engine := newTestBadger(t, t.TempDir(), "")
	defer engine.Close()
	ctx := context.Background()

	require.NoError(t, engine.Set(ctx, []byte("a"), []byte("1")))
	require.NoError(t, engine.Set(ctx, []byte("b"), []byte("2")))

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, EngineBadger, stats.Engine)
	assert.Equal(t, uint64(2), stats.TotalKeys)
	assert.False(t, stats.Encrypted)

	reg := prometheus.NewRegistry()
	engine.RegisterMetrics(reg)
	_, err = engine.GC(ctx)
	require.NoError(t, err)

	assert.Greater(t, testutil.ToFloat64(engine.metricsLastGCTime), float64(0))
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestBadgerEngine_Close(t *testing.T) {
	engine := newTestBadger(t, t.TempDir(), "")

	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())

	_, err := engine.Get(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBadgerEngine_OpenFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := NewBadgerEngine(DefaultKVConfig(file), slog.Default())
	assert.Error(t, err)
}

func TestBadgerEngine_GetMany(t *testing.T) {
	engine := newTestBadger(t, t.TempDir(), "")
	defer engine.Close()

	ctx := context.Background()
	require.NoError(t, engine.Apply(ctx, NewBatch().
		Set([]byte("token"), []byte("t")).
		Set([]byte("user"), []byte("u"))))

	got, err := engine.GetMany(ctx, []byte("token"), []byte("missing"), []byte("user"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "t", string(got[0]))
	assert.Nil(t, got[1])
	assert.Equal(t, "u", string(got[2]))

	got, err = engine.GetMany(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
