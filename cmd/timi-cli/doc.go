// Package main provides the entry point for timi-cli.
//
// timi-cli signs in to the Timi backend, keeps the session in a local
// Badger store, and shows views the way the web client does: protected
// views redirect to login while signed out, login and register redirect to
// the dashboard while signed in.
//
// Usage:
//
//	timi-cli login --email ada@example.com --password ... --remember
//	timi-cli whoami -o json
//	timi-cli open /dashboard
//	timi-cli tasks add "Write report"
//	timi-cli shell
package main
