package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter(
		[]string{"tasks list", "tasks add", "login", "logout"},
		[]string{"exit", "login"},
		[]string{"/login", "/dashboard"},
	)

	tests := []struct {
		prefix string
		want   []string
	}{
		{"tasks", []string{"tasks add", "tasks list"}},
		{"log", []string{"login", "logout"}},
		{"/", []string{"/dashboard", "/login"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Complete(tt.prefix))
		})
	}

	assert.Len(t, c.Complete(""), 7, "duplicates collapse")
}
