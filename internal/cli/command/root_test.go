package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/timi-go/internal/cli/config"
	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/storage"
)

func TestApp_Structure(t *testing.T) {
	app := App()
	assert.Equal(t, "timi-cli", app.Name)

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"login", "register", "logout", "whoami", "open", "tasks", "config", "shell"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, want := range []string{"config", "api-url", "data-dir", "ephemeral", "output", "log-level", "verbose", "metrics-file"} {
		assert.True(t, flags[want], "missing flag --%s", want)
	}
}

func TestGlobalFlags_Apply(t *testing.T) {
	cfg := config.Default()
	flags := &GlobalFlags{
		APIURL:    "https://api.example.com",
		DataDir:   "/tmp/timi",
		Ephemeral: true,
		Output:    "json",
		LogLevel:  "error",
		Verbose:   true,
	}
	flags.Apply(cfg)

	assert.Equal(t, "https://api.example.com", cfg.API.URL)
	assert.Equal(t, "/tmp/timi", cfg.Storage.Dir)
	assert.Equal(t, storage.EngineMemory, cfg.Storage.Engine)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "debug", cfg.Log.Level, "verbose wins")
}

func TestGlobalFlags_ApplyEmptyKeepsConfig(t *testing.T) {
	cfg := config.Default()
	(&GlobalFlags{}).Apply(cfg)
	assert.Equal(t, config.Default(), cfg)
}

func TestSetup_InvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run("--output", "csv", "config", "show")

	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
	assert.Contains(t, err.Error(), "output")
}

func TestSetup_MissingExplicitConfig(t *testing.T) {
	app := App()
	app.Writer, app.ErrWriter = &discard{}, &discard{}
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), []string{"timi-cli", "--config", filepath.Join(t.TempDir(), "none.yaml"), "whoami"})
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"exit coder", cli.Exit("x", 4), 4},
		{"validation", domain.ErrValidation.WithDetails("email"), 2},
		{"invalid argument", domain.ErrInvalidArgument, 2},
		{"credentials", domain.ErrInvalidCredentials, 3},
		{"not authenticated", domain.ErrNotAuthenticated, 3},
		{"expired", domain.ErrSessionExpired.WithCause(errors.New("401")), 3},
		{"other", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPrintError(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "err")
	require.NoError(t, err)
	defer f.Close()

	PrintError(f, errors.New("boom"))
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "error: boom\n", string(data))
}

func TestMetricsFile(t *testing.T) {
	env := newTestEnv(t)
	env.server.withAuth(t)
	path := filepath.Join(env.dir, "timi.prom")

	env.mustRun("--metrics-file", path, "login", "--email", "ada@example.com", "--password", "secret1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `timi_session_transitions_total{op="login",outcome="ok"} 1`)
	assert.Contains(t, text, `timi_backend_requests_total{code="200",endpoint="POST /login"} 1`)
	assert.Contains(t, text, `timi_store_keys{engine="badger"}`)
	assert.Contains(t, text, "timi_badger_")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
