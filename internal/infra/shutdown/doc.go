// Package shutdown coordinates orderly teardown of the CLI process.
//
// Components register cleanup hooks (closing the store, stopping the config
// watcher, flushing metrics) with a Handler. Hooks run once, newest first,
// either when a command finishes or when SIGINT/SIGTERM arrives.
//
//	ctx, cancel := shutdown.WithSignals(context.Background())
//	defer cancel()
package shutdown
