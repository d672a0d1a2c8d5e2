// Package config handles configuration management for devsync.
// Configuration is layered, later layers winning: the embedded defaults,
// the user file under XDG_CONFIG_HOME, the project's .devsync.toml and
// DEVSYNC_* environment variables. Command-line flags are applied on top
// by the CLI.
package config
