// Package assets holds the files bundled into the binary at build time.
package assets

import "embed"

// ConfigName is the name of the bundled configuration asset.
const ConfigName = "config.json"

// Bundle exposes the embedded assets for read-only access.
//
//go:embed config.json
var Bundle embed.FS
