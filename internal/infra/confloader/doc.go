// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults supplied by the caller (WithDefaults)
//  2. A YAML file (WithConfigFile)
//  3. Environment variables (WithEnvPrefix, default TIMI_)
//
// Command-line flags are applied by the caller on top of the result.
// Watcher reports edits to the config file so long-running sessions can
// pick up changes such as the log level.
package confloader
