// Package config loads the service's runtime settings from multiple sources
// (YAML files, environment variables, CLI flags) with precedence: CLI flags >
// YAML config > Environment variables > Defaults. It selects which asset the
// loader reads and how the constants table is served.
package config
