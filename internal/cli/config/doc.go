// Package config defines timi-cli configuration.
//
//   - config.go: Config struct, defaults, Verify and Sanitize
//   - loader.go: layered loading via confloader (defaults, file, TIMI_* env)
//
// The default file is ~/.timi/config.yaml; a missing default file is not an
// error, a missing file named with --config is.
package config
