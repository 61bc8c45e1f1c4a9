package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// mockServer is a fake Timi backend.
type mockServer struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Clone(context.Background()))
		h, ok := m.handlers[r.Method+" "+r.URL.Path]
		m.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

func (m *mockServer) lastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse writes a FastAPI-style error.
func errorResponse(w http.ResponseWriter, status int, detail string) {
	jsonResponse(w, status, map[string]string{"detail": detail})
}

// signToken issues an HS256 token the way the backend does.
func signToken(t *testing.T, email string, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("supersecretkey"))
	require.NoError(t, err)
	return token
}

// withAuth registers /login and /register handlers accepting password "secret1".
func (m *mockServer) withAuth(t *testing.T) {
	t.Helper()
	auth := func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			errorResponse(w, http.StatusUnprocessableEntity, "bad body")
			return
		}
		if body.Password != "secret1" {
			errorResponse(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{
			"access_token": signToken(t, body.Email, time.Hour),
			"token_type":   "bearer",
		})
	}
	m.handle("POST /login", auth)
	m.handle("POST /register", auth)
}

// testEnv is an isolated home for the CLI: config file, data dir, backend.
type testEnv struct {
	t          *testing.T
	server     *mockServer
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	server := newMockServer(t)
	configPath := filepath.Join(dir, "config.yaml")
	content := "api:\n  url: " + server.URL + "\n  timeout: 5s\nstorage:\n  dir: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return &testEnv{t: t, server: server, dir: dir, configPath: configPath}
}

// run executes one CLI invocation and returns stdout and stderr.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer

	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"timi-cli", "--config", e.configPath}, args...)
	err := app.RunContext(context.Background(), full)
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, stderr, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return out
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(s)), &v), "output: %s", s)
	return v
}
