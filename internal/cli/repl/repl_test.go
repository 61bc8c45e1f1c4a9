package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/core/service"
	"github.com/yndnr/timi-go/internal/telemetry/metric"
)

type fakeSession struct {
	mu    sync.Mutex
	state domain.SessionState
}

func (f *fakeSession) State() domain.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) set(s domain.SessionState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

type recordingRenderer struct {
	routes []string
	err    error
}

func (r *recordingRenderer) Render(_ context.Context, route string) error {
	r.routes = append(r.routes, route)
	return r.err
}

func newNavigator(t *testing.T, session *fakeSession) (*Navigator, *metric.Registry) {
	t.Helper()
	reg := metric.NewRegistry()
	return NewNavigator(service.NewRouteGuard(domain.DefaultRouteTable()), session, reg), reg
}

func signedIn() domain.SessionState {
	return domain.Authenticated(&domain.UserProfile{Email: "ada@example.com"})
}

func TestNavigator_NavigateRecordsDecision(t *testing.T) {
	session := &fakeSession{state: domain.Anonymous()}
	nav, reg := newNavigator(t, session)

	assert.Empty(t, nav.Current())

	d := nav.Navigate("/dashboard")
	assert.True(t, d.IsRedirect())
	assert.Equal(t, "/login", d.Route)
	assert.Equal(t, "/login", nav.Current())
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RouteDecisions.WithLabelValues("redirect", domain.ReasonProtected)))

	d = nav.Navigate("/register")
	assert.False(t, d.IsRedirect())
	assert.Equal(t, "/register", nav.Current())
}

func TestNavigator_RefreshAfterLogin(t *testing.T) {
	session := &fakeSession{state: domain.Anonymous()}
	nav, _ := newNavigator(t, session)
	nav.Navigate("/login")

	_, changed := nav.Refresh()
	assert.False(t, changed)

	session.set(signedIn())
	d, changed := nav.Refresh()
	assert.True(t, changed)
	assert.Equal(t, "/dashboard", d.Route)
	assert.Equal(t, domain.ReasonPublicOnly, d.Reason)

	session.set(domain.Anonymous())
	d, changed = nav.Refresh()
	assert.True(t, changed)
	assert.Equal(t, "/login", d.Route)
}

func TestNavigator_RefreshBeforeNavigate(t *testing.T) {
	nav, _ := newNavigator(t, &fakeSession{})
	_, changed := nav.Refresh()
	assert.False(t, changed)
}

func TestNavigator_Back(t *testing.T) {
	session := &fakeSession{state: domain.Anonymous()}
	nav, _ := newNavigator(t, session)

	_, ok := nav.Back()
	assert.False(t, ok)

	nav.Navigate("/login")
	nav.Navigate("/register")

	d, ok := nav.Back()
	require.True(t, ok)
	assert.Equal(t, "/login", d.Route)
	assert.Equal(t, "/login", nav.Current())

	_, ok = nav.Back()
	assert.False(t, ok)
}

func TestNavigator_BackIsGuarded(t *testing.T) {
	session := &fakeSession{state: signedIn()}
	nav, _ := newNavigator(t, session)
	nav.Navigate("/dashboard")
	nav.Navigate("/nowhere")

	session.set(domain.Anonymous())
	nav.Navigate("/register")

	d, ok := nav.Back()
	require.True(t, ok)
	assert.Equal(t, "/login", d.Route, "back to a protected view while signed out")
}

func runShell(t *testing.T, input string, exec Executor, session *fakeSession) (string, *recordingRenderer, *History) {
	t.Helper()
	nav, _ := newNavigator(t, session)
	renderer := &recordingRenderer{}
	history := NewHistory(filepath.Join(t.TempDir(), HistoryFile), 0)
	var out bytes.Buffer

	r := New(Config{
		Input:    strings.NewReader(input),
		Output:   &out,
		Executor: exec,
		Renderer: renderer,
		Commands: []string{"login", "logout", "tasks list", "whoami"},
		History:  history,
	}, nav)

	require.NoError(t, r.Run(context.Background()))
	return out.String(), renderer, history
}

func TestREPL_StartsAtHome(t *testing.T) {
	out, renderer, _ := runShell(t, "exit\n", nil, &fakeSession{state: domain.Anonymous()})

	assert.Contains(t, out, "-> /login (unknown)")
	assert.Contains(t, out, "timi:/login> ")
	assert.Equal(t, []string{"/login"}, renderer.routes)
}

func TestREPL_EOF(t *testing.T) {
	out, _, _ := runShell(t, "", nil, &fakeSession{state: signedIn()})
	assert.Contains(t, out, "timi:/dashboard> ")
}

func TestREPL_LoginMovesToLanding(t *testing.T) {
	session := &fakeSession{state: domain.Anonymous()}
	var got [][]string
	exec := ExecutorFunc(func(_ context.Context, args []string) error {
		got = append(got, args)
		switch args[0] {
		case "login":
			session.set(signedIn())
		case "logout":
			session.set(domain.Anonymous())
		}
		return nil
	})

	out, renderer, history := runShell(t, "login --email 'ada@example.com' --password \"p w\"\nlogout\nquit\n", exec, session)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"login", "--email", "ada@example.com", "--password", "p w"}, got[0])
	assert.Contains(t, out, "-> /dashboard (public_only)")
	assert.Contains(t, out, "-> /login (protected)")
	assert.Equal(t, []string{"/login", "/dashboard", "/login"}, renderer.routes)
	assert.Len(t, history.Entries(), 3)
}

func TestREPL_NavigationAndBuiltins(t *testing.T) {
	session := &fakeSession{state: domain.Anonymous()}
	exec := ExecutorFunc(func(context.Context, []string) error { return errors.New("boom") })

	input := strings.Join([]string{
		"/register",
		"/dashboard",
		"back",
		"back",
		"open /register",
		"whoami",
		"shell",
		"help ta",
		"help",
		"history",
		`say "unterminated`,
		"exit",
	}, "\n") + "\n"

	out, _, _ := runShell(t, input, exec, session)

	assert.Contains(t, out, "timi:/register> ")
	assert.Contains(t, out, "-> /login (protected)")
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Already in the shell.")
	assert.Contains(t, out, "tasks list\n")
	assert.Contains(t, out, "Views:\n  /login\n  /register\n  /dashboard\n")
	assert.Contains(t, out, "   1  /register\n")
	assert.Contains(t, out, "Error: unterminated quote")
}

func TestREPL_RendererError(t *testing.T) {
	nav, _ := newNavigator(t, &fakeSession{state: domain.Anonymous()})
	var out bytes.Buffer
	r := New(Config{
		Input:    strings.NewReader("exit\n"),
		Output:   &out,
		Renderer: &recordingRenderer{err: errors.New("no tasks")},
	}, nav)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "Error: no tasks")
}

func TestREPL_ContextCancel(t *testing.T) {
	nav, _ := newNavigator(t, &fakeSession{state: domain.Anonymous()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	r := New(Config{Input: pr, Output: &bytes.Buffer{}}, nav)
	assert.NoError(t, r.Run(ctx))
}

func TestREPL_HistoryPersisted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, HistoryFile)
	nav, _ := newNavigator(t, &fakeSession{state: domain.Anonymous()})

	r := New(Config{
		Input:   strings.NewReader("/register\nexit\n"),
		Output:  &bytes.Buffer{},
		History: NewHistory(path, 0),
	}, nav)
	require.NoError(t, r.Run(context.Background()))

	reloaded := NewHistory(path, 0)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"/register", "exit"}, reloaded.Entries())
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"tasks list", []string{"tasks", "list"}, false},
		{"  login   --email a@b.io ", []string{"login", "--email", "a@b.io"}, false},
		{`tasks add "Buy milk" --description 'two litres'`, []string{"tasks", "add", "Buy milk", "--description", "two litres"}, false},
		{`register --name ""`, []string{"register", "--name", ""}, false},
		{`x "open`, nil, true},
		{"   ", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
