// Package config loads b25 settings from a TOML file, fills in defaults, and
// validates the result. Command-line flags are layered on top by the CLI.
package config
