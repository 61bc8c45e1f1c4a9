package repl

import (
	"sort"
	"strings"
)

// Completer suggests commands and routes for a typed prefix.
type Completer struct {
	words []string
}

// NewCompleter creates a Completer over the given words.
func NewCompleter(words ...[]string) *Completer {
	seen := make(map[string]struct{})
	var all []string
	for _, group := range words {
		for _, w := range group {
			if _, ok := seen[w]; ok || w == "" {
				continue
			}
			seen[w] = struct{}{}
			all = append(all, w)
		}
	}
	sort.Strings(all)
	return &Completer{words: all}
}

// Complete returns every word starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	var out []string
	for _, w := range c.words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	return out
}
