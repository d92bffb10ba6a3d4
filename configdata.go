// Package nuistind provides embedded assets for the nuistind daemon.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The daemon writes this file into the data directory
// on first run so users have a commented config to edit.
package nuistind

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time. Its values mirror [internal/config.DefaultConfig].
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
