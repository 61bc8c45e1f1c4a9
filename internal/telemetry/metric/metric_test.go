package metric

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ObserveTransition(t *testing.T) {
	r := NewRegistry()

	r.ObserveTransition("login", OutcomeOK, true)
	r.ObserveTransition("login", OutcomeOK, true)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Transitions.WithLabelValues("login", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Authenticated))

	r.ObserveTransition("logout", OutcomeOK, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Authenticated))
}

func TestRegistry_ObserveRecoveryAndDecision(t *testing.T) {
	r := NewRegistry()

	r.ObserveRecovery("TIMI-TOKN-4000")
	r.ObserveDecision("redirect", "protected")
	r.ObserveDecision("redirect", "protected")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Recoveries.WithLabelValues("TIMI-TOKN-4000")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.RouteDecisions.WithLabelValues("redirect", "protected")))
}

func TestRegistry_ObserveBackend(t *testing.T) {
	r := NewRegistry()

	r.ObserveBackend("/login", 200, 10*time.Millisecond)
	r.ObserveBackend("/login", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.BackendRequests.WithLabelValues("/login", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.BackendRequests.WithLabelValues("/login", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.BackendDuration))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry

	r.ObserveTransition("login", OutcomeOK, true)
	r.ObserveRecovery("x")
	r.ObserveDecision("render", "allowed")
	r.ObserveBackend("/tasks", 200, time.Second)
	r.MustRegister()
	assert.Nil(t, r.Prometheus())
	assert.NoError(t, r.WriteToTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestRegistry_WriteToTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveTransition("initialize", OutcomeRecovered, false)

	path := filepath.Join(t.TempDir(), "timi.prom")
	require.NoError(t, r.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `timi_session_transitions_total{op="initialize",outcome="recovered"} 1`)
}

func TestCollector(t *testing.T) {
	c := NewCollector("memory", func() (StoreStats, error) {
		return StoreStats{Keys: 2, Bytes: 128}, nil
	})

	expected := `
# HELP timi_store_keys Number of keys in the local session store
# TYPE timi_store_keys gauge
timi_store_keys{engine="memory"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "timi_store_keys"))
	assert.Equal(t, 2, testutil.CollectAndCount(c))
}

func TestCollector_StatsError(t *testing.T) {
	c := NewCollector("badger", func() (StoreStats, error) {
		return StoreStats{}, errors.New("closed")
	})

	assert.Equal(t, 0, testutil.CollectAndCount(c))

	r := NewRegistry()
	r.MustRegister(c)
	_, err := r.Prometheus().Gather()
	assert.NoError(t, err)
}
