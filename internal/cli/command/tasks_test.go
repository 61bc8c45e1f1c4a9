package command

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/timi-go/internal/core/domain"
)

func TestTasks_RequiresSignIn(t *testing.T) {
	env := newTestEnv(t)
	env.server.withTasks(t)

	_, _, err := env.run("tasks", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Nil(t, env.server.lastRequest())
}

func TestTasks_List(t *testing.T) {
	env := newTestEnv(t)
	env.server.withAuth(t)
	env.server.withTasks(t)
	env.mustRun("login", "--email", "ada@example.com", "--password", "secret1")

	out := env.mustRun("tasks", "list")
	assert.Regexp(t, `ID\s+TITLE\s+DESCRIPTION\s+COMPLETED`, out)
	assert.Regexp(t, `t2\s+Ship\s+v1\s+yes`, out)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("-o", "json", "tasks", "list")), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0]["id"])
}

func TestTasks_ListEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.server.withAuth(t)
	env.server.handle("GET /tasks/", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, []any{})
	})
	env.mustRun("login", "--email", "ada@example.com", "--password", "secret1")

	assert.Equal(t, "No tasks yet.\n", env.mustRun("tasks", "list"))
	assert.Equal(t, "[]\n", env.mustRun("-o", "json", "tasks", "list"))
}

func TestTasks_Add(t *testing.T) {
	env := newTestEnv(t)
	env.server.withAuth(t)

	var body map[string]any
	env.server.handle("POST /tasks/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		jsonResponse(w, http.StatusOK, map[string]any{
			"id": "t9", "title": body["title"], "description": body["description"], "completed": false,
			"created_at": "2024-03-01T10:00:00", "updated_at": "2024-03-01T10:00:00",
		})
	})
	env.mustRun("login", "--email", "ada@example.com", "--password", "secret1")

	out := env.mustRun("tasks", "add", "--description", "two litres", "Buy", "milk")
	assert.Equal(t, "Added task t9.\n", out)
	assert.Equal(t, "Buy milk", body["title"])
	assert.Equal(t, "two litres", body["description"])
}

func TestTasks_AddValidation(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run("tasks", "add")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}

func TestTasks_ExpiredTokenSignsOut(t *testing.T) {
	env := newTestEnv(t)
	env.server.withAuth(t)
	env.server.handle("GET /tasks/", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusUnauthorized, "Token has expired")
	})
	env.mustRun("login", "--email", "ada@example.com", "--password", "secret1")

	_, _, err := env.run("tasks", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, 3, ExitCode(err))

	who := decodeJSON(t, env.mustRun("-o", "json", "whoami"))
	assert.Equal(t, "anonymous", who["state"])
}
