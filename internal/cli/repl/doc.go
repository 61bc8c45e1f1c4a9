// Package repl is the interactive shell and view router of timi-cli.
//
//   - navigator.go: current view, back stack, route guard evaluation
//   - repl.go: read-eval-print loop and built-ins
//   - completer.go: prefix completion over commands and routes
//   - history.go: line history persisted in the data directory
//
// A line starting with "/" navigates. Any other line runs a CLI command,
// after which the current view is re-checked so that signing in or out
// moves the user the way the guard dictates.
package repl
